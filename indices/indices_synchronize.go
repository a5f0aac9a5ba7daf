package indices

import (
	"context"
	"fmt"
	"sync"

	"periodico/bizerror"
	"periodico/client/es"
	"periodico/event"
	"periodico/publication"
	"periodico/session"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	PublicationIndexEventHandlerName = "publicationIndexer"

	indexRobot = &session.Context{
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Admin:    true,
		Context:  context.Background(),
	}

	lock    sync.Mutex
	running bool

	// full resyncs are expensive, a caller gets at most one per minute
	syncLimiter = rate.NewLimiter(rate.Limit(1.0/60), 1)

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

func ScheduleNewSyncRun(sec *session.Context) (bool, error) {
	if !sec.Admin {
		return false, bizerror.ErrForbidden
	}
	if !syncLimiter.Allow() {
		return false, bizerror.ErrTooManyRequests
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

var (
	SyncBatchSize = 500
)

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		publications, err := publication.LoadPublicationsFunc(page, SyncBatchSize, indexRobot)
		if err != nil {
			logrus.Warnf("indices full sync: error on retrieve publications(page = %d, pageSize = %d): %v",
				page, SyncBatchSize, err)
			return err
		}

		if len(publications) == 0 {
			logrus.Infof("indices full sync: there are no more publications to index")
			return nil // loop exit
		}

		if err := IndexPublications(publications); err != nil {
			logrus.Warnf("indices full sync: error on index publications(page = %d, pageSize = %d): %v",
				page, SyncBatchSize, err)
		}
		page++
	}
}

func IndexPublicationEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypePublication {
		return nil
	}

	if e.EventCategory == event.EventCategoryDeleted {
		err := es.DeleteDocumentByIdFunc(PublicationIndexName, e.Event.SourceId, indexRobot)
		if err != nil {
			return &event.EventHandleResult{
				Message:           fmt.Sprintf("delete publication index %d, %v", e.Event.SourceId, err),
				HandlerIdentifier: PublicationIndexEventHandlerName,
			}
		}
		return &event.EventHandleResult{Success: true, HandlerIdentifier: PublicationIndexEventHandlerName}
	}

	p, err := publication.GetPublicationFunc(e.Event.SourceId, indexRobot)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail publication when index publication %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: PublicationIndexEventHandlerName,
		}
	}
	if err := IndexPublications([]publication.Publication{*p}); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index publication %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: PublicationIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: PublicationIndexEventHandlerName}
}
