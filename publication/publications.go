package publication

import (
	"errors"
	"io"

	"periodico/account"
	"periodico/bizerror"
	"periodico/category"
	"periodico/client/s3"
	"periodico/event"
	"periodico/idgen"
	"periodico/misc"
	"periodico/persistence"
	"periodico/session"

	"periodico/authority"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"github.com/sony/sonyflake"
)

type Publication struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Title       string          `json:"title"`
	PublishDate types.Timestamp `json:"publishDate" sql:"type:DATETIME(6) NOT NULL"`
	Description string          `json:"description" sql:"type:TEXT"`

	ImageUrl      string `json:"imageUrl"`
	ImagePublicId string `json:"imagePublicId"`

	ViewCount int    `json:"viewCount"`
	Status    string `json:"status"`

	AuthorID   types.ID `json:"authorId"`
	CategoryID types.ID `json:"categoryId"`
}

type PublicationCreation struct {
	Title       string          `json:"title" binding:"required,lte=255"`
	Description string          `json:"description" binding:"required"`
	PublishDate types.Timestamp `json:"publishDate"`
	CategoryID  types.ID        `json:"categoryId" binding:"required"`
}

// PublicationUpdation is a full-record update, there are no partial patch
// semantics.
type PublicationUpdation struct {
	Title       string          `json:"title" binding:"required,lte=255"`
	Description string          `json:"description" binding:"required"`
	PublishDate types.Timestamp `json:"publishDate"`
	CategoryID  types.ID        `json:"categoryId" binding:"required"`
	Status      string          `json:"status" binding:"required,oneof=Active Inactive"`
}

type PublicationQuery struct {
	CategoryID types.ID `json:"categoryId" form:"categoryId"`
	AuthorID   types.ID `json:"authorId" form:"authorId"`
	Status     string   `json:"status" form:"status" binding:"omitempty,oneof=Active Inactive Deleted"`
}

var (
	publicationIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreatePublicationFunc = CreatePublication
	QueryPublicationsFunc = QueryPublications
	DetailPublicationFunc = DetailPublication
	UpdatePublicationFunc = UpdatePublication
	DeletePublicationFunc = DeletePublication

	AttachPublicationImageFunc = AttachPublicationImage
	DetailPublicationImageFunc = DetailPublicationImage

	GetPublicationFunc   = GetPublication
	LoadPublicationsFunc = LoadPublications
)

func init() {
	account.UserCascadeDeleteFuncs = append(account.UserCascadeDeleteFuncs,
		func(uid types.ID, tx *gorm.DB) error {
			return tx.Delete(Publication{}, "author_id = ?", uid).Error
		})
	category.CategoryCascadeDeleteFuncs = append(category.CategoryCascadeDeleteFuncs,
		func(categoryId types.ID, tx *gorm.DB) error {
			return tx.Delete(Publication{}, "category_id = ?", categoryId).Error
		})
}

func CreatePublication(c *PublicationCreation, sec *session.Context) (*Publication, error) {
	if sec.Identity.ID == 0 {
		return nil, bizerror.ErrUnauthenticated
	}

	publishDate := c.PublishDate
	if publishDate.Time().IsZero() {
		publishDate = types.CurrentTimestamp()
	}
	record := Publication{ID: idgen.NextID(publicationIdWorker),
		Title: c.Title, Description: c.Description, PublishDate: publishDate,
		Status: misc.StatusActive, AuthorID: sec.Identity.ID, CategoryID: c.CategoryID}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		if err := referencedRowExists(tx, &account.User{ID: record.AuthorID}); err != nil {
			return err
		}
		if err := referencedRowExists(tx, &category.Category{ID: record.CategoryID}); err != nil {
			return err
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceTypePublication, record.ID, record.Title,
			event.EventCategoryCreated, nil, &sec.Identity, tx)
		return err
	})
	if err1 != nil {
		return nil, err1
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &record, nil
}

// QueryPublications returns the feed: most recent publish date first.
// Deleted records stay out unless they are asked for explicitly.
func QueryPublications(q PublicationQuery, sec *session.Context) ([]Publication, error) {
	publications := []Publication{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	query := db.Order("publish_date DESC")
	if q.CategoryID != 0 {
		query = query.Where("category_id = ?", q.CategoryID)
	}
	if q.AuthorID != 0 {
		query = query.Where("author_id = ?", q.AuthorID)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	} else {
		query = query.Where("status <> ?", misc.StatusDeleted)
	}
	if err := query.Find(&publications).Error; err != nil {
		return nil, err
	}
	return publications, nil
}

// DetailPublication counts the view with a single atomic update on the
// storage side, concurrent readers must not lose increments.
func DetailPublication(id types.ID, sec *session.Context) (*Publication, error) {
	record := Publication{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)

	result := db.Model(&Publication{}).Where("id = ? AND status <> ?", id, misc.StatusDeleted).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	if err := db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdatePublication(id types.ID, u *PublicationUpdation, sec *session.Context) (*Publication, error) {
	if !sec.HasPermission(authority.PermEditPublication) {
		return nil, bizerror.ErrForbidden
	}

	record := Publication{}
	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND status <> ?", id, misc.StatusDeleted).First(&record).Error; err != nil {
			return err
		}
		if err := referencedRowExists(tx, &category.Category{ID: u.CategoryID}); err != nil {
			return err
		}
		publishDate := u.PublishDate
		if publishDate.Time().IsZero() {
			publishDate = record.PublishDate
		}
		changes := map[string]interface{}{"title": u.Title, "description": u.Description,
			"publish_date": publishDate, "category_id": u.CategoryID, "status": u.Status}
		if err := tx.Model(&Publication{ID: id}).Update(changes).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceTypePublication, id, u.Title,
			event.EventCategoryPropertyUpdated,
			[]event.UpdatedProperty{{PropertyName: "title", OldValue: record.Title, NewValue: u.Title}},
			&sec.Identity, tx)
		if err != nil {
			return err
		}
		return tx.Where("id = ?", id).First(&record).Error
	})
	if err1 != nil {
		return nil, err1
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return &record, nil
}

// DeletePublication is terminal but logical: the row stays, only a parent
// cascade removes it physically.
func DeletePublication(id types.ID, sec *session.Context) error {
	if !sec.HasPermission(authority.PermDeletePublication) {
		return bizerror.ErrForbidden
	}

	var ev *event.EventRecord
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	err1 := db.Transaction(func(tx *gorm.DB) error {
		record := Publication{}
		if err := tx.Where("id = ?", id).First(&record).Error; err != nil {
			return err
		}
		if err := tx.Model(&Publication{ID: id}).Update(map[string]interface{}{"status": misc.StatusDeleted}).Error; err != nil {
			return err
		}
		var err error
		ev, err = event.CreateEvent(event.SourceTypePublication, id, record.Title,
			event.EventCategoryDeleted, nil, &sec.Identity, tx)
		return err
	})
	if err1 != nil {
		return err1
	}

	if event.InvokeHandlersFunc != nil {
		event.InvokeHandlersFunc(ev)
	}
	return nil
}

// AttachPublicationImage uploads the bytes to the media host, stores the
// returned url/publicId pair and drops the previously attached object.
func AttachPublicationImage(id types.ID, r io.Reader, sec *session.Context) (*Publication, error) {
	if !sec.HasPermission(authority.PermEditPublication) {
		return nil, bizerror.ErrForbidden
	}

	record := Publication{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where("id = ? AND status <> ?", id, misc.StatusDeleted).First(&record).Error; err != nil {
		return nil, err
	}

	url, publicId, err := s3.UploadObjectFunc("publicaciones", r, sec)
	if err != nil {
		return nil, err
	}

	previousPublicId := record.ImagePublicId
	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Model(&Publication{ID: id}).
			Update(map[string]interface{}{"image_url": url, "image_public_id": publicId}).Error
	})
	if err != nil {
		return nil, err
	}

	if previousPublicId != "" {
		if err := s3.DeleteObjectFunc(previousPublicId, sec); err != nil {
			logrus.Warnf("failed to delete replaced media object %s: %v", previousPublicId, err)
		}
	}

	record.ImageUrl = url
	record.ImagePublicId = publicId
	return &record, nil
}

func DetailPublicationImage(id types.ID, sec *session.Context) (io.ReadCloser, error) {
	record := Publication{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where("id = ? AND status <> ?", id, misc.StatusDeleted).First(&record).Error; err != nil {
		return nil, err
	}
	if record.ImagePublicId == "" {
		return nil, bizerror.ErrNotFound
	}
	return s3.GetObjectFunc(record.ImagePublicId, sec)
}

// GetPublication reads the record as-is, no view counting.
func GetPublication(id types.ID, sec *session.Context) (*Publication, error) {
	record := Publication{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// LoadPublications pages through live records for index synchronization.
func LoadPublications(page, size int, sec *session.Context) ([]Publication, error) {
	publications := []Publication{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Where("status <> ?", misc.StatusDeleted).Order("id ASC").
		Offset((page - 1) * size).Limit(size).Find(&publications).Error; err != nil {
		return nil, err
	}
	return publications, nil
}

func referencedRowExists(tx *gorm.DB, row interface{}) error {
	if err := tx.Where(row).First(row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return bizerror.ErrReferentialIntegrity
		}
		return err
	}
	return nil
}
