package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"periodico/client/es"
	"periodico/indices"
	"periodico/misc"
	"periodico/publication"
	"periodico/session"

	"github.com/fundwit/go-commons/types"
)

var (
	SearchPublicationsFunc = SearchPublications
)

type PublicationSearchQuery struct {
	Query      string   `json:"q" form:"q"`
	CategoryID types.ID `json:"categoryId" form:"categoryId"`
	Status     string   `json:"status" form:"status" binding:"omitempty,oneof=Active Inactive"`
}

func SearchPublications(q PublicationSearchQuery, s *session.Context) ([]publication.Publication, error) {
	/*
		{
			"query": {
				"bool": {
					"filter": [
						{"multi_match": {"query": "xxx", "fields": ["title", "description"], "operator": "AND"}},
						{"term": {"categoryId": 111}},
						{"term": {"status": "Active"}}
					]
				}
			},
			"size": 10000,
			"sort": [
				{"publishDate": {"order": "desc"}}
			]
		}
	*/
	filters := make([]es.H, 0, 3)
	if q.Query != "" {
		filters = append(filters, es.H{"multi_match": es.H{
			"query": q.Query, "fields": []string{"title", "description"}, "operator": "AND"}})
	}
	if q.CategoryID != 0 {
		filters = append(filters, es.H{"term": es.H{"categoryId": q.CategoryID}})
	}
	status := q.Status
	if status == "" {
		status = misc.StatusActive
	}
	filters = append(filters, es.H{"term": es.H{"status": status}})

	sorts := make([]es.H, 0, 1)
	sorts = append(sorts, es.H{"publishDate": es.H{"order": "desc"}})

	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(indices.PublicationIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	publications := make([]publication.Publication, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		p := publication.Publication{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&p); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}
		publications = append(publications, p)
	}
	return publications, nil
}
