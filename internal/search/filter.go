package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DwamTech/nas-masr-sub000/internal/arabic"

	"github.com/meilisearch/meilisearch-go"
)

// FilterParams are the keyword-endpoint parameters.
type FilterParams struct {
	Query      string
	CategoryID *uint
	MinPrice   *float64
	MaxPrice   *float64
	Limit      int64
	Offset     int64
}

// FilterSearch runs a keyword query with optional category and price filters.
func (s *SearchClient) FilterSearch(params FilterParams) ([]ListingDocument, int64, error) {
	var filters []string

	if params.CategoryID != nil {
		filters = append(filters, fmt.Sprintf("category_id = %d", *params.CategoryID))
	}
	if params.MinPrice != nil {
		filters = append(filters, fmt.Sprintf("price >= %g", *params.MinPrice))
	}
	if params.MaxPrice != nil {
		filters = append(filters, fmt.Sprintf("price <= %g", *params.MaxPrice))
	}

	// Default limit
	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit:  params.Limit,
		Offset: params.Offset,
		Sort:   []string{"rank:asc"},
	}
	if len(filters) > 0 {
		searchReq.Filter = strings.Join(filters, " AND ")
	}

	// The normalized shadow fields carry the match, so the query gets the
	// same normalization.
	searchRes, err := s.client.Index(s.index).Search(arabic.Normalize(params.Query), searchReq)
	if err != nil {
		return nil, 0, err
	}

	docs := make([]ListingDocument, 0, len(searchRes.Hits))
	for _, hit := range searchRes.Hits {
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc ListingDocument
		if err := json.Unmarshal(hitJSON, &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}

	return docs, searchRes.EstimatedTotalHits, nil
}
