package main

import (
	"context"
	"net/http"
	"os"

	"periodico/account"
	"periodico/authority"
	"periodico/bizerror"
	"periodico/category"
	"periodico/client/es"
	"periodico/client/s3"
	"periodico/configuration"
	"periodico/event"
	"periodico/indices"
	"periodico/indices/search"
	"periodico/infra/tracing"
	"periodico/misc"
	"periodico/persistence"
	"periodico/publication"
	"periodico/session"
	"periodico/sessions"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.Infoln("service start")

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse database config failed %v\n", err)
	}
	tokenConfig, err := session.ParseTokenConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse token config failed %v\n", err)
	}
	mediaConfig, err := s3.ParseMediaConfigFromEnv()
	if err != nil {
		logrus.Fatalf("parse media host config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			logrus.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		logrus.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	if err := migrate(ds); err != nil {
		logrus.Fatalf("database migration failed %v\n", err)
	}

	if err := session.BootstrapTokens(tokenConfig); err != nil {
		logrus.Fatalf("token bootstrap failed %v\n", err)
	}
	if err := s3.Bootstrap(mediaConfig); err != nil {
		logrus.Fatalf("media host bootstrap failed %v\n", err)
	}
	es.CreateClientFromEnv()

	tracingCloser := tracing.Bootstrap()
	if tracingCloser != nil {
		defer tracingCloser.Close()
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		logrus.Fatalf("security seed failed %v\n", err)
	}
	if err := category.DefaultCategoryConfiguration(); err != nil {
		logrus.Fatalf("category seed failed %v\n", err)
	}

	event.EventHandlers = append(event.EventHandlers, indices.IndexPublicationEventHandle)

	engine := gin.Default()
	engine.Use(tracing.TracingIngress(), bizerror.ErrorHandling())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, misc.GetServiceName())
	})

	sessions.RegisterSessionsRestAPI(engine)
	search.RegisterPublicationSearchRestAPI(engine)

	secured := sessions.JwtAuthFilter()
	account.RegisterUsersRestAPI(engine, secured)
	account.RegisterAuthorityRestAPI(engine, secured)
	category.RegisterCategoriesRestAPI(engine, secured)
	configuration.RegisterConfigurationsRestAPI(engine, secured)
	publication.RegisterPublicationsRestAPI(engine, secured)
	indices.RegisterIndicesRestAPI(engine, secured)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := engine.Run(":" + port); err != nil {
		panic(err)
	}
}

// migrate creates or alters the tables, then declares the cascading foreign
// keys. The declarations fail on storage engines without FK support, the
// service still works there because deletes cascade in explicit transactions.
func migrate(ds *persistence.DataSourceManager) error {
	db := ds.GormDB(context.Background())
	if err := db.AutoMigrate(
		&account.User{},
		&authority.Role{}, &authority.Permission{},
		&authority.UserRole{}, &authority.DetailPermission{},
		&category.Category{},
		&configuration.Configuration{},
		&publication.Publication{},
		&event.EventRecord{},
	).Error; err != nil {
		return err
	}

	foreignKeys := []struct {
		model interface{}
		field string
		dest  string
	}{
		{&authority.UserRole{}, "user_id", "users(id)"},
		{&authority.UserRole{}, "role_id", "roles(id)"},
		{&authority.DetailPermission{}, "user_id", "users(id)"},
		{&authority.DetailPermission{}, "permission_id", "permissions(id)"},
		{&publication.Publication{}, "author_id", "users(id)"},
		{&publication.Publication{}, "category_id", "categories(id)"},
	}
	for _, fk := range foreignKeys {
		if err := db.Model(fk.model).AddForeignKey(fk.field, fk.dest, "CASCADE", "CASCADE").Error; err != nil {
			logrus.Warnf("foreign key %s -> %s not declared: %v", fk.field, fk.dest, err)
		}
	}
	return nil
}
