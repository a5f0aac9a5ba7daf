package account

import (
	"net/http"
	"periodico/bizerror"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathUsers = "/usuarios"
)

func RegisterUsersRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathUsers, middleWares...)
	g.GET("", handleQueryUsers)
	g.POST("", handleCreateUser)
	g.GET("/:id", handleDetailUser)
	g.PUT("/:id", handleUpdateUser)
	g.DELETE("/:id", handleDeleteUser)
}

func handleQueryUsers(c *gin.Context) {
	records, err := QueryUsersFunc(session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreateUser(c *gin.Context) {
	creation := UserCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateUserFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDetailUser(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := DetailUserFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateUser(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updation := UserUpdation{}
	if err := c.ShouldBindBodyWith(&updation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateUserFunc(id, &updation, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDeleteUser(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteUserFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
