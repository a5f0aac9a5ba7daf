package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/mysql"
	"github.com/sirupsen/logrus"
	otgorm "github.com/smacker/opentracing-gorm"
)

var ActiveDataSourceManager *DataSourceManager

type DatabaseConfig struct {
	DriverType string
	DriverArgs string
}

// ParseDatabaseConfigFromEnv DATABASE_URL example:
//   mysql://root:root@(127.0.0.1:3306)/periodico?charset=utf8mb4&parseTime=True&loc=Local
func ParseDatabaseConfigFromEnv() (*DatabaseConfig, error) {
	databaseURL := os.ExpandEnv(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		return nil, errors.New("environment variable DATABASE_URL is not set")
	}
	idx := strings.Index(databaseURL, "://")
	if idx <= 0 || idx+3 >= len(databaseURL) {
		return nil, fmt.Errorf("invalid DATABASE_URL %q", databaseURL)
	}
	return &DatabaseConfig{DriverType: databaseURL[0:idx], DriverArgs: databaseURL[idx+3:]}, nil
}

// PrepareMysqlDatabase creates the database of the given DSN when absent.
func PrepareMysqlDatabase(driverArgs string) error {
	idx := strings.Index(driverArgs, "/")
	if idx < 0 {
		return fmt.Errorf("invalid mysql driver args %q", driverArgs)
	}
	address := driverArgs[0 : idx+1]
	databaseName := driverArgs[idx+1:]
	if paramsIdx := strings.Index(databaseName, "?"); paramsIdx >= 0 {
		databaseName = databaseName[0:paramsIdx]
	}
	if databaseName == "" {
		return fmt.Errorf("database name not found in driver args %q", driverArgs)
	}

	db, err := sql.Open("mysql", address)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS " + databaseName + " CHARACTER SET utf8mb4")
	return err
}

type DataSourceManager struct {
	gormDB *gorm.DB

	DatabaseConfig *DatabaseConfig
}

func (m *DataSourceManager) Start() error {
	db, err := connect(m.DatabaseConfig)
	if err != nil {
		return err
	}
	otgorm.AddGormCallbacks(db)
	m.gormDB = db
	if os.Getenv("GIN_MODE") != "release" {
		m.gormDB.LogMode(true)
	}
	return nil
}

func (m *DataSourceManager) Stop() {
	if m.gormDB != nil {
		if err := m.gormDB.Close(); err != nil {
			logrus.Warnf("failed to close DB: %v", err)
		}
		m.gormDB = nil
	}
}

// GormDB returns a session bound to ctx, so statements join the request span.
func (m *DataSourceManager) GormDB(ctx context.Context) *gorm.DB {
	if m.gormDB == nil {
		return nil
	}
	return otgorm.SetSpanToGorm(ctx, m.gormDB.New())
}

func connect(config *DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(config.DriverType, config.DriverArgs)
	if err != nil {
		return nil, err
	}
	err = db.DB().Ping()
	if err != nil {
		return nil, err
	}
	return db, nil
}
