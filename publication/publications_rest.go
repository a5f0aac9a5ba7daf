package publication

import (
	"io/ioutil"
	"net/http"

	"periodico/bizerror"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPublications = "/publicaciones"
)

// RegisterPublicationsRestAPI keeps the feed and the detail page public,
// mutations go through the given middlewares.
func RegisterPublicationsRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	r.GET(PathPublications, handleQueryPublications)
	r.GET(PathPublications+"/:id", handleDetailPublication)
	r.GET(PathPublications+"/:id/imagen", handleDetailPublicationImage)

	g := r.Group(PathPublications, middleWares...)
	g.POST("", handleCreatePublication)
	g.PUT("/:id", handleUpdatePublication)
	g.DELETE("/:id", handleDeletePublication)
	g.POST("/:id/imagen", handleAttachPublicationImage)
}

func handleQueryPublications(c *gin.Context) {
	query := PublicationQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := QueryPublicationsFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}

func handleDetailPublication(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := DetailPublicationFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleCreatePublication(c *gin.Context) {
	creation := PublicationCreation{}
	if err := c.ShouldBindBodyWith(&creation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := CreatePublicationFunc(&creation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleUpdatePublication(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	updation := PublicationUpdation{}
	if err := c.ShouldBindBodyWith(&updation, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	record, err := UpdatePublicationFunc(id, &updation, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDeletePublication(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := DeletePublicationFunc(id, session.FindSecurityContext(c)); err != nil {
		panic(err)
	}
	c.AbortWithStatus(http.StatusNoContent)
}

func handleAttachPublicationImage(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	file, err := c.FormFile("imagen")
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	src, err := file.Open()
	if err != nil {
		panic(err)
	}
	defer src.Close()

	record, err := AttachPublicationImageFunc(id, src, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, record)
}

func handleDetailPublicationImage(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	r, err := DetailPublicationImageFunc(id, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	defer r.Close()

	bytes, err := ioutil.ReadAll(r)
	if err != nil {
		panic(err)
	}
	c.Data(http.StatusOK, "image/png", bytes)
}
