package event

import (
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	EventPersistCreateFunc = eventPersistCreate
)

// CreateEvent persists an audit record in the caller's transaction and
// returns it so that handlers can be invoked after the commit.
func CreateEvent(sourceType string, sourceId types.ID, sourceDesc string, category EventCategory,
	updatedProperties []UpdatedProperty, identity *session.Identity, db *gorm.DB) (*EventRecord, error) {

	record := EventRecord{
		Event: Event{
			SourceType: sourceType,
			SourceId:   sourceId,
			SourceDesc: sourceDesc,

			EventCategory:     category,
			UpdatedProperties: updatedProperties,

			CreatorId:   identity.ID,
			CreatorName: identity.Name,
		},
		Timestamp: types.CurrentTimestamp(),
	}
	if err := EventPersistCreateFunc(&record, db); err != nil {
		return nil, err
	}
	return &record, nil
}

func eventPersistCreate(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}
