package handlers

import (
	"net/http"

	"github.com/DwamTech/nas-masr-sub000/internal/models"
	"github.com/DwamTech/nas-masr-sub000/internal/schema"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CategoryHandler serves the public category schema endpoints.
type CategoryHandler struct {
	db *gorm.DB
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{db: db}
}

// GetCategories lists active categories with their capability flags.
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	var categories []models.Category
	err := h.db.Where("active = ?", true).Order("sort_order ASC, id ASC").Find(&categories).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"count":      len(categories),
	})
}

// GetCategorySchema returns the resolved schema for one category slug:
// ordered field definitions, the field->type map and capability flags.
func (h *CategoryHandler) GetCategorySchema(c *gin.Context) {
	sch, err := schema.NewResolver(h.db).BySlug(c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                   sch.ID,
		"slug":                 sch.Slug,
		"display_name":         sch.DisplayName,
		"fields":               sch.Fields,
		"types_by_field":       sch.TypesByField(),
		"supports_brand_model": sch.SupportsBrandModel(),
		"supports_sections":    sch.SupportsSections(),
	})
}
