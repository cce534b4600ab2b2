package handlers

import (
	"log"
	"net/http"

	"github.com/DwamTech/nas-masr-sub000/internal/listing"
	"github.com/DwamTech/nas-masr-sub000/internal/models"
	"github.com/DwamTech/nas-masr-sub000/internal/scheduler"
	"github.com/DwamTech/nas-masr-sub000/internal/search"
	"github.com/DwamTech/nas-masr-sub000/internal/sweep"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db           *gorm.DB
	scheduler    *scheduler.Scheduler
	sweepService *sweep.Service
	searchClient *search.SearchClient
	listingSvc   *listing.Service
	validate     *validator.Validate
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, sched *scheduler.Scheduler, searchClient *search.SearchClient, listingSvc *listing.Service) *AdminHandler {
	return &AdminHandler{
		db:           db,
		scheduler:    sched,
		sweepService: sweep.NewService(db),
		searchClient: searchClient,
		listingSvc:   listingSvc,
		validate:     validator.New(),
	}
}

// categoryRequest is the admin category create payload.
type categoryRequest struct {
	Slug               string `json:"slug" validate:"required,min=2,max=100"`
	DisplayName        string `json:"display_name" validate:"required"`
	SupportsBrandModel bool   `json:"supports_brand_model"`
	SupportsSections   bool   `json:"supports_sections"`
	SortOrder          int    `json:"sort_order"`
}

// CreateCategory creates a category with its capability flags.
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	cat := models.Category{
		Slug:               req.Slug,
		DisplayName:        req.DisplayName,
		Active:             true,
		SupportsBrandModel: req.SupportsBrandModel,
		SupportsSections:   req.SupportsSections,
		SortOrder:          req.SortOrder,
	}
	if err := h.db.Create(&cat).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("Admin: Created category %s (id=%d)", cat.Slug, cat.ID)
	c.JSON(http.StatusCreated, cat)
}

// fieldRequest is the admin schema field upsert payload.
type fieldRequest struct {
	FieldName   string   `json:"field_name" validate:"required,min=1,max=100"`
	DisplayName string   `json:"display_name" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=string int decimal bool date json"`
	Options     []string `json:"options"`
	Required    bool     `json:"required"`
	Filterable  bool     `json:"filterable"`
	SortOrder   int      `json:"sort_order"`
}

// UpsertField creates or updates one field definition of a category schema.
// The catch-all option stays pinned to the last position on every mutation.
func (h *AdminHandler) UpsertField(c *gin.Context) {
	categoryID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	var cat models.Category
	if err := h.db.First(&cat, categoryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}

	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	var field models.CategoryField
	result := h.db.Where("category_id = ? AND field_name = ?", categoryID, req.FieldName).First(&field)
	if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}

	field.CategoryID = categoryID
	field.FieldName = req.FieldName
	field.DisplayName = req.DisplayName
	field.Type = models.FieldType(req.Type)
	field.Required = req.Required
	field.Filterable = req.Filterable
	field.SortOrder = req.SortOrder
	if err := field.SetOptions(req.Options); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if result.Error == gorm.ErrRecordNotFound {
		err = h.db.Create(&field).Error
	} else {
		err = h.db.Save(&field).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, field)
}

// RunSweep executes an expiry sweep pass.
func (h *AdminHandler) RunSweep(c *gin.Context) {
	var req struct {
		BatchLimit int  `json:"batch_limit"`
		DryRun     bool `json:"dry_run"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	config := sweep.DefaultConfig()
	if req.BatchLimit > 0 {
		config.BatchLimit = req.BatchLimit
	}
	config.DryRun = req.DryRun

	log.Printf("Admin: Running sweep (batch_limit: %d, dry-run: %v)", config.BatchLimit, config.DryRun)

	result, err := h.sweepService.Run(config)
	if err != nil {
		log.Printf("Admin: Sweep failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	sweepStats, err := h.sweepService.Stats()
	if err != nil {
		log.Printf("Failed to get sweep stats: %v", err)
	} else {
		stats["listings"] = sweepStats
	}

	var categoryCount int64
	h.db.Model(&models.Category{}).Where("active = ?", true).Count(&categoryCount)
	stats["categories"] = map[string]interface{}{"active": categoryCount}

	var attrCount int64
	h.db.Model(&models.ListingAttribute{}).Count(&attrCount)
	stats["attribute_rows"] = attrCount

	c.JSON(http.StatusOK, stats)
}

// Reindex rebuilds the search index from the database.
func (h *AdminHandler) Reindex(c *gin.Context) {
	if h.searchClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
		return
	}

	var ids []uint
	if err := h.db.Model(&models.Listing{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	indexed := 0
	failed := 0
	batch := make([]*listing.Projection, 0, 500)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := h.searchClient.IndexProjections(batch); err != nil {
			log.Printf("Admin: Reindex batch failed: %v", err)
			failed += len(batch)
		} else {
			indexed += len(batch)
		}
		batch = batch[:0]
	}

	for _, id := range ids {
		proj, err := h.listingSvc.Get(id)
		if err != nil {
			failed++
			continue
		}
		batch = append(batch, proj)
		if len(batch) == 500 {
			flush()
		}
	}
	flush()

	log.Printf("Admin: Reindex completed: %d indexed, %d failed", indexed, failed)
	c.JSON(http.StatusOK, gin.H{"indexed": indexed, "failed": failed})
}
