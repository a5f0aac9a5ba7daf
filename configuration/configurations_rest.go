package configuration

import (
	"net/http"
	"periodico/bizerror"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathConfigurations = "/configuraciones"
)

func RegisterConfigurationsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathConfigurations, middleWares...)
	g.GET("", handleQueryConfigurations)
	g.POST("", handleCreateConfiguration)
	g.PUT("/:id", handleUpdateConfiguration)
	g.DELETE("/:id", handleDeleteConfiguration)
}

func handleQueryConfigurations(c *gin.Context) {
	records, err := QueryConfigurationsFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreateConfiguration(c *gin.Context) {
	creation := ConfigurationCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateConfigurationFunc(creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateConfiguration(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updation := ConfigurationUpdation{}
	if err := c.ShouldBindBodyWith(&updation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateConfigurationFunc(id, updation, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDeleteConfiguration(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteConfigurationFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
