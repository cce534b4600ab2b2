package search

import (
	"fmt"
	"log"
	"strings"

	"github.com/DwamTech/nas-masr-sub000/internal/arabic"
	"github.com/DwamTech/nas-masr-sub000/internal/attrs"
	"github.com/DwamTech/nas-masr-sub000/internal/listing"

	"github.com/meilisearch/meilisearch-go"
)

// SearchClient mirrors listings into a Meilisearch index for the keyword
// endpoint. The SQL query engine stays the canonical filtered-search path;
// index sync failures are logged and never fail a write.
type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  "listings",
	}
}

// ListingDocument is the flattened search shape. Normalized shadow fields
// make letter-variant queries match; the stored row keeps the original text.
type ListingDocument struct {
	ID              uint     `json:"id"`
	Title           string   `json:"title"`
	TitleNorm       string   `json:"title_norm"`
	Description     string   `json:"description"`
	DescriptionNorm string   `json:"description_norm"`
	CategoryID      uint     `json:"category_id"`
	CategorySlug    string   `json:"category_slug"`
	GovernorateName string   `json:"governorate_name,omitempty"`
	CityName        string   `json:"city_name,omitempty"`
	BrandName       string   `json:"brand_name,omitempty"`
	ModelName       string   `json:"model_name,omitempty"`
	SectionName     string   `json:"section_name,omitempty"`
	SubSectionName  string   `json:"sub_section_name,omitempty"`
	Address         string   `json:"address,omitempty"`
	AttributeValues []string `json:"attribute_values,omitempty"`
	Price           float64  `json:"price"`
	Rank            int      `json:"rank"`
	Status          string   `json:"status"`
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"title_norm",
		"description_norm",
		"governorate_name",
		"city_name",
		"brand_name",
		"model_name",
		"section_name",
		"sub_section_name",
		"address",
		"attribute_values",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"category_id",
		"category_slug",
		"price",
		"status",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"rank",
		"price",
	})
	return err
}

// documentFrom flattens a projection into its search document.
func documentFrom(p *listing.Projection) ListingDocument {
	doc := ListingDocument{
		ID:              p.ID,
		Title:           p.Title,
		TitleNorm:       arabic.Normalize(p.Title),
		Description:     p.Description,
		DescriptionNorm: arabic.Normalize(p.Description),
		CategoryID:      p.CategoryID,
		CategorySlug:    p.CategorySlug,
		GovernorateName: p.GovernorateName,
		CityName:        p.CityName,
		BrandName:       p.BrandName,
		ModelName:       p.ModelName,
		SectionName:     p.SectionName,
		SubSectionName:  p.SubSectionName,
		Address:         p.Address,
		Price:           p.Price,
		Rank:            p.Rank,
		Status:          string(p.Status),
	}
	for _, v := range p.Attributes {
		if sv, ok := v.(string); ok {
			doc.AttributeValues = append(doc.AttributeValues, sv, arabic.Normalize(sv))
		} else {
			doc.AttributeValues = append(doc.AttributeValues, attrs.CastString(v))
		}
	}
	return doc
}

// IndexListing mirrors one listing into the index.
func (s *SearchClient) IndexListing(p *listing.Projection) {
	_, err := s.client.Index(s.index).AddDocuments([]ListingDocument{documentFrom(p)})
	if err != nil {
		log.Printf("Search: Failed to index listing %d: %v", p.ID, err)
	}
}

// DeleteListing removes one listing from the index.
func (s *SearchClient) DeleteListing(id uint) {
	_, err := s.client.Index(s.index).DeleteDocument(fmt.Sprintf("%d", id))
	if err != nil {
		log.Printf("Search: Failed to delete listing %d from index: %v", id, err)
	}
}

// IndexProjections indexes a batch of projections (used by reindex).
func (s *SearchClient) IndexProjections(projections []*listing.Projection) error {
	if len(projections) == 0 {
		return nil
	}
	docs := make([]ListingDocument, 0, len(projections))
	for _, p := range projections {
		docs = append(docs, documentFrom(p))
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	return err
}
