package models

import (
	"time"

	"gorm.io/datatypes"
)

// ListingAttribute is one EAV row: one logical value per (listing, key).
// Exactly one typed value column is populated, chosen by the schema's declared
// type for the key, never by the caller. Absence of a row means "no value".
type ListingAttribute struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_listing_attr" json:"listing_id"`
	Key       string    `gorm:"column:attr_key;type:varchar(100);not null;uniqueIndex:idx_listing_attr;index" json:"key"`
	Type      FieldType `gorm:"type:varchar(20);not null" json:"type"`

	ValueInt     *int64         `gorm:"index" json:"value_int,omitempty"`
	ValueDecimal *float64       `gorm:"type:decimal(14,4);index" json:"value_decimal,omitempty"`
	ValueBool    *bool          `json:"value_bool,omitempty"`
	ValueString  *string        `gorm:"type:varchar(500);index" json:"value_string,omitempty"`
	ValueJSON    datatypes.JSON `gorm:"type:json" json:"value_json,omitempty"`
	ValueDate    *string        `gorm:"type:varchar(30)" json:"value_date,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ListingAttribute) TableName() string {
	return "listing_attributes"
}

// clearValues nils every typed column before the declared one is set, keeping
// the one-populated-column invariant across type changes in the schema.
func (a *ListingAttribute) clearValues() {
	a.ValueInt = nil
	a.ValueDecimal = nil
	a.ValueBool = nil
	a.ValueString = nil
	a.ValueJSON = nil
	a.ValueDate = nil
}

// SetValue populates the typed column matching the declared type.
func (a *ListingAttribute) SetValue(t FieldType, intV *int64, decV *float64, boolV *bool, strV *string, jsonV datatypes.JSON, dateV *string) {
	a.Type = t
	a.clearValues()
	switch t {
	case FieldTypeInt:
		a.ValueInt = intV
	case FieldTypeDecimal:
		a.ValueDecimal = decV
	case FieldTypeBool:
		a.ValueBool = boolV
	case FieldTypeJSON:
		a.ValueJSON = jsonV
	case FieldTypeDate:
		a.ValueDate = dateV
	default:
		a.ValueString = strV
	}
}
