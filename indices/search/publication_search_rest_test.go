package search_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"periodico/bizerror"
	"periodico/indices/search"
	"periodico/misc"
	"periodico/publication"
	"periodico/session"
	"periodico/testinfra"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
)

func buildSearchTestRouter() *gin.Engine {
	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	search.RegisterPublicationSearchRestAPI(router)
	return router
}

func TestPublicationSearchRestAPI(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return 200 with matched publications", func(t *testing.T) {
		var askedQuery search.PublicationSearchQuery
		search.SearchPublicationsFunc = func(q search.PublicationSearchQuery, s *session.Context) ([]publication.Publication, error) {
			askedQuery = q
			ts := types.TimestampOfDate(2024, 3, 2, 8, 0, 0, 0, time.Local)
			return []publication.Publication{{ID: 100, Title: "marzo", PublishDate: ts,
				Status: misc.StatusActive, AuthorID: 7, CategoryID: 10}}, nil
		}
		defer func() { search.SearchPublicationsFunc = search.SearchPublications }()

		req := httptest.NewRequest(http.MethodGet,
			search.PathPublicationSearch+"?q=futbol&categoryId=10", nil)
		status, body, _ := testinfra.ExecuteRequest(req, buildSearchTestRouter())
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"title":"marzo"`))
		Expect(askedQuery.Query).To(Equal("futbol"))
		Expect(askedQuery.CategoryID).To(Equal(types.ID(10)))
	})

	t.Run("should return 400 on invalid status parameter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			search.PathPublicationSearch+"?status=Removed", nil)
		status, _, _ := testinfra.ExecuteRequest(req, buildSearchTestRouter())
		Expect(status).To(Equal(http.StatusBadRequest))
	})
}
