package category

import (
	"net/http"
	"periodico/bizerror"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathCategories = "/categorias"
)

// RegisterCategoriesRestAPI keeps reads public, the feed consumers browse
// categories without a session.
func RegisterCategoriesRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.GET(PathCategories, handleQueryCategories)

	g := r.Group(PathCategories, middleWares...)
	g.POST("", handleCreateCategory)
	g.PUT("/:id", handleUpdateCategory)
	g.DELETE("/:id", handleDeleteCategory)
}

func handleQueryCategories(c *gin.Context) {
	query := CategoryQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryCategoriesFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleCreateCategory(c *gin.Context) {
	creation := CategoryCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreateCategoryFunc(creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdateCategory(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updation := CategoryUpdation{}
	if err := c.ShouldBindBodyWith(&updation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := UpdateCategoryFunc(id, updation, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleDeleteCategory(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeleteCategoryFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}
