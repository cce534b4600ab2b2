package search

import (
	"testing"

	"github.com/DwamTech/nas-masr-sub000/internal/listing"
	"github.com/DwamTech/nas-masr-sub000/internal/models"
)

func TestDocumentFrom(t *testing.T) {
	p := &listing.Projection{
		Listing: models.Listing{
			ID:          5,
			CategoryID:  2,
			Title:       "شقة للإيجار",
			Description: "قرب الجامعة",
			Price:       3000,
			Rank:        1,
			Status:      models.ListingStatusValid,
		},
		CategorySlug:    "real-estate",
		GovernorateName: "القاهرة",
		Attributes: map[string]interface{}{
			"rooms":     int64(3),
			"furnished": "مفروشة",
		},
	}

	doc := documentFrom(p)
	if doc.ID != 5 || doc.CategoryID != 2 || doc.CategorySlug != "real-estate" {
		t.Errorf("doc identity = %+v", doc)
	}
	if doc.TitleNorm != "شقه للايجار" {
		t.Errorf("title_norm = %q", doc.TitleNorm)
	}
	if doc.Status != "valid" || doc.Rank != 1 {
		t.Errorf("status/rank = %q/%d", doc.Status, doc.Rank)
	}

	// String attributes contribute raw and normalized forms, others their
	// string rendering.
	has := func(want string) bool {
		for _, v := range doc.AttributeValues {
			if v == want {
				return true
			}
		}
		return false
	}
	if !has("مفروشة") || !has("مفروشه") {
		t.Errorf("attribute_values = %v", doc.AttributeValues)
	}
	if !has("3") {
		t.Errorf("numeric attribute missing from %v", doc.AttributeValues)
	}
}
