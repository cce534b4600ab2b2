package schema

import (
	"sort"

	"github.com/DwamTech/nas-masr-sub000/internal/apperr"
	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"gorm.io/gorm"
)

// Resolver loads category schemas. It is read-only; callers inside a
// transaction construct it over their tx handle.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// CategorySchema is the resolved schema for one active category: its ordered
// field definitions plus capability flags carried on the category row.
type CategorySchema struct {
	ID          uint
	Slug        string
	DisplayName string
	Fields      []models.CategoryField

	supportsBrandModel bool
	supportsSections   bool
	typesByField       map[string]models.FieldType
}

// SupportsBrandModel reports whether listings in this category carry
// brand/model references.
func (s *CategorySchema) SupportsBrandModel() bool {
	return s.supportsBrandModel
}

// SupportsSections reports whether listings in this category carry
// main/sub-section references.
func (s *CategorySchema) SupportsSections() bool {
	return s.supportsSections
}

// TypesByField maps field_name to its declared type. The query engine and
// attribute store dispatch on this map instead of special-casing field names.
func (s *CategorySchema) TypesByField() map[string]models.FieldType {
	return s.typesByField
}

// Field returns the definition for a field name, if declared.
func (s *CategorySchema) Field(name string) (*models.CategoryField, bool) {
	for i := range s.Fields {
		if s.Fields[i].FieldName == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// BySlug resolves an active category by slug.
func (r *Resolver) BySlug(slug string) (*CategorySchema, error) {
	var cat models.Category
	err := r.db.Where("slug = ? AND active = ?", slug, true).First(&cat).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.NotFound("category " + slug)
	}
	if err != nil {
		return nil, err
	}
	return r.build(&cat)
}

// ByID resolves an active category by numeric id.
func (r *Resolver) ByID(id uint) (*CategorySchema, error) {
	var cat models.Category
	err := r.db.Where("id = ? AND active = ?", id, true).First(&cat).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.build(&cat)
}

func (r *Resolver) build(cat *models.Category) (*CategorySchema, error) {
	var fields []models.CategoryField
	if err := r.db.Where("category_id = ?", cat.ID).Find(&fields).Error; err != nil {
		return nil, err
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].SortOrder < fields[j].SortOrder
	})

	types := make(map[string]models.FieldType, len(fields))
	for _, f := range fields {
		types[f.FieldName] = f.Type
	}

	return &CategorySchema{
		ID:                 cat.ID,
		Slug:               cat.Slug,
		DisplayName:        cat.DisplayName,
		Fields:             fields,
		supportsBrandModel: cat.SupportsBrandModel,
		supportsSections:   cat.SupportsSections,
		typesByField:       types,
	}, nil
}
