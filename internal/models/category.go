package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Category is one marketplace vertical (cars, real estate, jobs, ...). Its
// attribute schema lives in CategoryField rows, and its capabilities are data
// on the row itself rather than a hardcoded slug list.
type Category struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	Slug               string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	DisplayName        string          `gorm:"type:varchar(191);not null" json:"display_name"`
	Active             bool            `gorm:"not null;default:true;index" json:"active"`
	SupportsBrandModel bool            `gorm:"not null;default:false" json:"supports_brand_model"`
	SupportsSections   bool            `gorm:"not null;default:false" json:"supports_sections"`
	SortOrder          int             `gorm:"not null;default:0" json:"sort_order"`
	Fields             []CategoryField `gorm:"foreignKey:CategoryID" json:"fields,omitempty"`
}

func (Category) TableName() string {
	return "categories"
}

// FieldType is the closed set of attribute value types.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInt     FieldType = "int"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeBool    FieldType = "bool"
	FieldTypeDate    FieldType = "date"
	FieldTypeJSON    FieldType = "json"
)

// ValidFieldType reports whether t is one of the declared attribute types.
func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeInt, FieldTypeDecimal, FieldTypeBool, FieldTypeDate, FieldTypeJSON:
		return true
	}
	return false
}

// OptionCatchAll is the fixed "other" choice. Once a field carries it, every
// option list mutation must keep it as the last entry.
const OptionCatchAll = "أخرى"

// CategoryField is one typed attribute definition within a category schema.
type CategoryField struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CategoryID  uint           `gorm:"not null;uniqueIndex:idx_category_field" json:"category_id"`
	FieldName   string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_category_field" json:"field_name"`
	DisplayName string         `gorm:"type:varchar(191);not null" json:"display_name"`
	Type        FieldType      `gorm:"type:varchar(20);not null;default:'string'" json:"type"`
	Options     datatypes.JSON `gorm:"type:json" json:"options,omitempty"`
	Required    bool           `gorm:"not null;default:false" json:"required"`
	Filterable  bool           `gorm:"not null;default:false" json:"filterable"`
	SortOrder   int            `gorm:"not null;default:0" json:"sort_order"`
}

func (CategoryField) TableName() string {
	return "category_fields"
}

// OptionList decodes the stored option set. Nil means free-form input.
func (f *CategoryField) OptionList() []string {
	if len(f.Options) == 0 {
		return nil
	}
	var opts []string
	if err := json.Unmarshal(f.Options, &opts); err != nil {
		return nil
	}
	return opts
}

// SetOptions stores the option set, re-pinning the catch-all entry to the
// last position when present anywhere in the incoming list.
func (f *CategoryField) SetOptions(opts []string) error {
	if opts == nil {
		f.Options = nil
		return nil
	}
	f.Options = nil
	cleaned := make([]string, 0, len(opts))
	hasCatchAll := false
	for _, o := range opts {
		if o == OptionCatchAll {
			hasCatchAll = true
			continue
		}
		cleaned = append(cleaned, o)
	}
	if hasCatchAll {
		cleaned = append(cleaned, OptionCatchAll)
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return err
	}
	f.Options = datatypes.JSON(raw)
	return nil
}
