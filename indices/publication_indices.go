package indices

import (
	"fmt"

	"periodico/client/es"
	"periodico/publication"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	PublicationIndexName = "publicaciones"
)

type PublicationDocument struct {
	publication.Publication
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexPublications(publications []publication.Publication) error {
	docs := make([]PublicationDocument, 0, len(publications))
	for _, p := range publications {
		docs = append(docs, PublicationDocument{Publication: p})
	}

	if err := savePublicationDocuments(docs); err != nil {
		return err
	}
	return nil
}

func savePublicationDocuments(docs []PublicationDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(PublicationIndexName, doc.ID, doc, indexRobot); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index publication %d %s %s\n", doc.ID, doc.Title, err)
		} else {
			logrus.Infof("index publication %d successfully\n", doc.ID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
