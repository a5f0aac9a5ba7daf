package search

import (
	"net/http"

	"periodico/bizerror"
	"periodico/session"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

var (
	PathPublicationSearch = "/buscar/publicaciones"
)

// RegisterPublicationSearchRestAPI serves the public full-text search over
// the publication index.
func RegisterPublicationSearchRestAPI(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group(PathPublicationSearch, middleWares...)
	g.GET("", handleSearchPublications)
}

func handleSearchPublications(c *gin.Context) {
	query := PublicationSearchQuery{}
	if err := c.MustBindWith(&query, binding.Query); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	records, err := SearchPublicationsFunc(query, session.FindSecurityContext(c))
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, records)
}
