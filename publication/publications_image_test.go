package publication_test

import (
	"context"
	"io"
	"io/ioutil"
	"strings"
	"testing"
	"time"

	"periodico/authority"
	"periodico/bizerror"
	"periodico/client/s3"
	"periodico/misc"
	"periodico/publication"
	"periodico/session"
	"periodico/testinfra"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/gomega"
)

func TestAttachPublicationImage(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should require the edit permission", func(t *testing.T) {
		setupPublicationTestDatabase(t)
		_, err := publication.AttachPublicationImage(1, strings.NewReader("img"),
			testinfra.BuildSecCtx(1, false))
		Expect(err).To(Equal(bizerror.ErrForbidden))
	})

	t.Run("should store url and public id, dropping the replaced object", func(t *testing.T) {
		testDatabase := setupPublicationTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())
		preparePublicationParents(db)

		ts := types.TimestampOfDate(2024, 1, 15, 8, 0, 0, 0, time.Local)
		Expect(db.Save(&publication.Publication{ID: 1, Title: "t", PublishDate: ts,
			Status: misc.StatusActive, AuthorID: 1, CategoryID: 10,
			ImageUrl: "https://media.example/publicaciones/old", ImagePublicId: "publicaciones/old"}).Error).To(BeNil())

		uploaded := ""
		s3.UploadObjectFunc = func(prefix string, r io.Reader, s *session.Context) (string, string, error) {
			content, err := ioutil.ReadAll(r)
			Expect(err).To(BeNil())
			uploaded = string(content)
			return "https://media.example/" + prefix + "/new", prefix + "/new", nil
		}
		deleted := ""
		s3.DeleteObjectFunc = func(publicId string, s *session.Context) error {
			deleted = publicId
			return nil
		}
		defer func() {
			s3.UploadObjectFunc = s3.UploadObject
			s3.DeleteObjectFunc = s3.DeleteObject
		}()

		p, err := publication.AttachPublicationImage(1, strings.NewReader("img-bytes"),
			testinfra.BuildSecCtx(1, false, authority.PermEditPublication))
		Expect(err).To(BeNil())
		Expect(uploaded).To(Equal("img-bytes"))
		Expect(deleted).To(Equal("publicaciones/old"))
		Expect(p.ImageUrl).To(Equal("https://media.example/publicaciones/new"))
		Expect(p.ImagePublicId).To(Equal("publicaciones/new"))

		record := publication.Publication{}
		Expect(db.Where(&publication.Publication{ID: 1}).First(&record).Error).To(BeNil())
		Expect(record.ImageUrl).To(Equal("https://media.example/publicaciones/new"))
		Expect(record.ImagePublicId).To(Equal("publicaciones/new"))
	})
}

func TestDetailPublicationImage(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return not found when no image is attached", func(t *testing.T) {
		testDatabase := setupPublicationTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())
		preparePublicationParents(db)

		ts := types.TimestampOfDate(2024, 1, 15, 8, 0, 0, 0, time.Local)
		Expect(db.Save(&publication.Publication{ID: 1, Title: "t", PublishDate: ts,
			Status: misc.StatusActive, AuthorID: 1, CategoryID: 10}).Error).To(BeNil())

		_, err := publication.DetailPublicationImage(1, testinfra.BuildSecCtx(0, false))
		Expect(err).To(Equal(bizerror.ErrNotFound))
	})

	t.Run("should stream the stored object", func(t *testing.T) {
		testDatabase := setupPublicationTestDatabase(t)
		db := testDatabase.DS.GormDB(context.TODO())
		preparePublicationParents(db)

		ts := types.TimestampOfDate(2024, 1, 15, 8, 0, 0, 0, time.Local)
		Expect(db.Save(&publication.Publication{ID: 1, Title: "t", PublishDate: ts,
			Status: misc.StatusActive, AuthorID: 1, CategoryID: 10,
			ImagePublicId: "publicaciones/abc"}).Error).To(BeNil())

		s3.GetObjectFunc = func(publicId string, s *session.Context) (io.ReadCloser, error) {
			Expect(publicId).To(Equal("publicaciones/abc"))
			return ioutil.NopCloser(strings.NewReader("img-bytes")), nil
		}
		defer func() { s3.GetObjectFunc = s3.GetObject }()

		r, err := publication.DetailPublicationImage(1, testinfra.BuildSecCtx(0, false))
		Expect(err).To(BeNil())
		defer r.Close()
		content, err := ioutil.ReadAll(r)
		Expect(err).To(BeNil())
		Expect(string(content)).To(Equal("img-bytes"))
	})
}
