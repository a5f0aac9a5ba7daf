package category

import (
	"context"

	"periodico/bizerror"
	"periodico/idgen"
	"periodico/misc"
	"periodico/persistence"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type Category struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Description string `json:"description"`
	Status      string `json:"status"`
}

type CategoryCreation struct {
	Description string `json:"description" binding:"required,lte=128"`
}

type CategoryUpdation struct {
	Description string `json:"description" binding:"required,lte=128"`
	Status      string `json:"status" binding:"required,oneof=Active Inactive"`
}

type CategoryQuery struct {
	Status string `json:"status" form:"status" binding:"omitempty,oneof=Active Inactive"`
}

var (
	categoryIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateCategoryFunc = CreateCategory
	QueryCategoriesFunc = QueryCategories
	UpdateCategoryFunc = UpdateCategory
	DeleteCategoryFunc = DeleteCategory

	// CategoryCascadeDeleteFuncs run inside the category delete transaction,
	// so owning packages can remove their dependent rows.
	CategoryCascadeDeleteFuncs []func(categoryId types.ID, tx *gorm.DB) error
)

// DefaultCategoryConfiguration inserts the "General" category once, when the
// table is empty.
func DefaultCategoryConfiguration() error {
	db := persistence.ActiveDataSourceManager.GormDB(context.Background())
	var count int
	if err := db.Model(&Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	seed := Category{ID: idgen.NextID(categoryIdWorker), Description: "General", Status: misc.StatusActive}
	return db.Create(&seed).Error
}

func CreateCategory(c CategoryCreation, sec *session.Context) (*Category, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}
	r := Category{ID: idgen.NextID(categoryIdWorker), Description: c.Description, Status: misc.StatusActive}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryCategories(q CategoryQuery, sec *session.Context) ([]Category, error) {
	categories := []Category{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	query := db.Order("id ASC")
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func UpdateCategory(id types.ID, u CategoryUpdation, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		r := Category{ID: id}
		if err := tx.Where(&r).First(&r).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{"description": u.Description, "status": u.Status}
		return tx.Model(&Category{ID: id}).Update(changes).Error
	})
}

// DeleteCategory removes the category and cascades over its publications.
func DeleteCategory(id types.ID, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		r := Category{ID: id}
		if err := tx.Where(&r).First(&r).Error; err != nil {
			return err
		}
		for _, f := range CategoryCascadeDeleteFuncs {
			if err := f(id, tx); err != nil {
				return err
			}
		}
		return tx.Delete(Category{}, "id = ?", id).Error
	})
}
