package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DwamTech/nas-masr-sub000/internal/apperr"
	"github.com/DwamTech/nas-masr-sub000/internal/listing"
	"github.com/DwamTech/nas-masr-sub000/internal/models"
	"github.com/DwamTech/nas-masr-sub000/internal/query"
	"github.com/DwamTech/nas-masr-sub000/internal/refs"
	"github.com/DwamTech/nas-masr-sub000/internal/schema"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListingHandler handles the public listing endpoints.
type ListingHandler struct {
	db     *gorm.DB
	engine *query.Engine
	svc    *listing.Service
	views  *query.ViewCounter
}

// NewListingHandler creates a new listing handler
func NewListingHandler(db *gorm.DB, svc *listing.Service, views *query.ViewCounter) *ListingHandler {
	return &ListingHandler{
		db:     db,
		engine: query.NewEngine(db),
		svc:    svc,
		views:  views,
	}
}

// listingRequest is the create/update payload. Pointers keep updates partial.
type listingRequest struct {
	Category string `json:"category"` // category slug, create only

	OwnerID     uint       `json:"owner_id"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Price       *float64   `json:"price"`
	Address     *string    `json:"address"`
	Lat         *float64   `json:"lat"`
	Lng         *float64   `json:"lng"`
	PlanTier    *string    `json:"plan_tier"`
	ExpiresAt   *time.Time `json:"expires_at"`
	MainImage   *string    `json:"main_image"`
	Gallery     []string   `json:"gallery"`

	GovernorateID   *uint  `json:"governorate_id"`
	CityID          *uint  `json:"city_id"`
	GovernorateName string `json:"governorate"`
	CityName        string `json:"city"`

	BrandID   *uint  `json:"brand_id"`
	ModelID   *uint  `json:"model_id"`
	BrandName string `json:"brand"`
	ModelName string `json:"model"`

	SectionID      *uint  `json:"section_id"`
	SubSectionID   *uint  `json:"sub_section_id"`
	SectionName    string `json:"section"`
	SubSectionName string `json:"sub_section"`

	Attributes map[string]interface{} `json:"attributes"`
}

func (r *listingRequest) toInput() listing.Input {
	return listing.Input{
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Address:     r.Address,
		Lat:         r.Lat,
		Lng:         r.Lng,
		PlanTier:    r.PlanTier,
		ExpiresAt:   r.ExpiresAt,
		MainImage:   r.MainImage,
		Gallery:     r.Gallery,
		Location: refs.LocationInput{
			GovernorateID:   r.GovernorateID,
			CityID:          r.CityID,
			GovernorateName: r.GovernorateName,
			CityName:        r.CityName,
		},
		Brand: refs.BrandInput{
			BrandID:   r.BrandID,
			ModelID:   r.ModelID,
			BrandName: r.BrandName,
			ModelName: r.ModelName,
		},
		Sections: refs.SectionInput{
			SectionID:      r.SectionID,
			SubSectionID:   r.SubSectionID,
			SectionName:    r.SectionName,
			SubSectionName: r.SubSectionName,
		},
		Attributes: r.Attributes,
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	if ve, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": gin.H{"field": ve.Field, "message": ve.Message},
		})
		return
	}
	if apperr.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// GetListings runs the filtered search for one category.
func (h *ListingHandler) GetListings(c *gin.Context) {
	slug := c.Query("category")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	sch, err := schema.NewResolver(h.db).BySlug(slug)
	if err != nil {
		writeError(c, err)
		return
	}

	params := query.Params{
		Keyword:         c.Query("q"),
		GovernorateName: c.Query("governorate"),
		CityName:        c.Query("city"),
		Attr:            c.QueryMap("attr"),
		AttrMin:         c.QueryMap("attr_min"),
		AttrMax:         c.QueryMap("attr_max"),
		AttrLike:        c.QueryMap("attr_like"),
		Status:          models.ListingStatusValid,
	}

	// In-set values arrive comma-separated per key.
	if rawIn := c.QueryMap("attr_in"); len(rawIn) > 0 {
		params.AttrIn = make(map[string][]string, len(rawIn))
		for key, joined := range rawIn {
			params.AttrIn[key] = splitCSV(joined)
		}
	}

	if v := c.Query("governorate_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			gid := uint(id)
			params.GovernorateID = &gid
		}
	}
	if v := c.Query("city_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			cid := uint(id)
			params.CityID = &cid
		}
	}
	if v := c.Query("price_min"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.PriceMin = &f
		}
	}
	if v := c.Query("price_max"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			params.PriceMax = &f
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			params.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			params.Offset = n
		}
	}

	result, err := h.engine.Search(sch, params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Popularity counters are bumped through the batched worker so the read
	// path never takes row locks.
	ids := make([]uint, 0, len(result.Listings))
	for i := range result.Listings {
		ids = append(ids, result.Listings[i].ID)
	}
	h.views.Bump(ids)

	c.JSON(http.StatusOK, result)
}

// GetListing returns the full projection of one listing.
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	proj, err := h.svc.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}

	h.views.Bump([]uint{id})
	c.JSON(http.StatusOK, proj)
}

// CreateListing creates a listing in the category named by the payload.
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	proj, err := h.svc.Create(req.Category, req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proj)
}

// UpdateListing applies a partial update.
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	proj, err := h.svc.Update(id, req.toInput())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, proj)
}

// DeleteListing removes a listing and its attribute rows.
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	if err := h.svc.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PromoteListing moves a listing to the top slot of its category.
func (h *ListingHandler) PromoteListing(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid listing id"})
		return
	}

	var l models.Listing
	if err := h.db.First(&l, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
		return
	}

	categoryID := l.CategoryID
	if v := c.Query("category_id"); v != "" {
		if cid, err := strconv.ParseUint(v, 10, 32); err == nil {
			categoryID = uint(cid)
		}
	}

	promoted, err := h.svc.Promote(categoryID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !promoted {
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not in category", "promoted": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promoted": true})
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	return uint(id), err
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := make([]string, 0, 4)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
