package configuration

import (
	"periodico/bizerror"
	"periodico/idgen"
	"periodico/misc"
	"periodico/persistence"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

// Configuration is the site contact record, independent of other entities.
type Configuration struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Status  string `json:"status"`
}

type ConfigurationCreation struct {
	Name    string `json:"name" binding:"required,lte=128"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,lte=32"`
	Address string `json:"address" binding:"omitempty,lte=256"`
}

type ConfigurationUpdation struct {
	Name    string `json:"name" binding:"required,lte=128"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,lte=32"`
	Address string `json:"address" binding:"omitempty,lte=256"`
	Status  string `json:"status" binding:"required,oneof=Active Inactive"`
}

var (
	configurationIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	CreateConfigurationFunc = CreateConfiguration
	QueryConfigurationsFunc = QueryConfigurations
	UpdateConfigurationFunc = UpdateConfiguration
	DeleteConfigurationFunc = DeleteConfiguration
)

func CreateConfiguration(c ConfigurationCreation, sec *session.Context) (*Configuration, error) {
	if !sec.Admin {
		return nil, bizerror.ErrForbidden
	}
	r := Configuration{ID: idgen.NextID(configurationIdWorker), Name: c.Name, Email: c.Email,
		Phone: c.Phone, Address: c.Address, Status: misc.StatusActive}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

func QueryConfigurations(sec *session.Context) ([]Configuration, error) {
	configurations := []Configuration{}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	if err := db.Order("id ASC").Find(&configurations).Error; err != nil {
		return nil, err
	}
	return configurations, nil
}

func UpdateConfiguration(id types.ID, u ConfigurationUpdation, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		r := Configuration{ID: id}
		if err := tx.Where(&r).First(&r).Error; err != nil {
			return err
		}
		changes := map[string]interface{}{"name": u.Name, "email": u.Email,
			"phone": u.Phone, "address": u.Address, "status": u.Status}
		return tx.Model(&Configuration{ID: id}).Update(changes).Error
	})
}

// DeleteConfiguration flips the status, the row is kept.
func DeleteConfiguration(id types.ID, sec *session.Context) error {
	if !sec.Admin {
		return bizerror.ErrForbidden
	}
	db := persistence.ActiveDataSourceManager.GormDB(sec.Context)
	return db.Transaction(func(tx *gorm.DB) error {
		r := Configuration{ID: id}
		if err := tx.Where(&r).First(&r).Error; err != nil {
			return err
		}
		return tx.Model(&Configuration{ID: id}).Update(map[string]interface{}{"status": misc.StatusDeleted}).Error
	})
}
