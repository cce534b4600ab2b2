package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Listing struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	CategoryID  uint    `gorm:"not null;index" json:"category_id"`
	OwnerID     uint    `gorm:"not null;index" json:"owner_id"`
	Title       string  `gorm:"type:varchar(191);not null" json:"title"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Price       float64 `gorm:"type:decimal(12,2);not null;default:0;index" json:"price"`

	// Location
	GovernorateID *uint    `gorm:"index" json:"governorate_id,omitempty"`
	CityID        *uint    `gorm:"index" json:"city_id,omitempty"`
	Lat           *float64 `gorm:"type:decimal(10,7)" json:"lat,omitempty"`
	Lng           *float64 `gorm:"type:decimal(10,7)" json:"lng,omitempty"`
	Address       string   `gorm:"type:varchar(500)" json:"address,omitempty"`

	// Brand/model, only meaningful when the category supports them
	BrandID      *uint `json:"brand_id,omitempty"`
	BrandModelID *uint `json:"brand_model_id,omitempty"`

	// Hierarchical sections, only meaningful when the category supports them
	SectionID    *uint `json:"section_id,omitempty"`
	SubSectionID *uint `json:"sub_section_id,omitempty"`

	PlanTier    string        `gorm:"type:varchar(50);not null;default:'free'" json:"plan_tier"`
	Status      ListingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PublishedAt time.Time     `gorm:"not null" json:"published_at"`
	ExpiresAt   *time.Time    `gorm:"index" json:"expires_at,omitempty"`

	Views int64 `gorm:"not null;default:0" json:"views"`

	// Position within the category: 1 is the top slot. Column is rank_order
	// because RANK is reserved in MySQL 8.
	Rank int `gorm:"column:rank_order;not null;default:0;index" json:"rank"`

	MainImage string         `gorm:"type:varchar(500)" json:"main_image,omitempty"`
	Gallery   datatypes.JSON `gorm:"type:json" json:"gallery,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "pending"
	ListingStatusValid    ListingStatus = "valid"
	ListingStatusRejected ListingStatus = "rejected"
	ListingStatusExpired  ListingStatus = "expired"
)

func (Listing) TableName() string {
	return "listings"
}

// IsExpired reports whether the listing's expiry timestamp has passed.
// Expired is terminal once that is the case.
func (l *Listing) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// GalleryPaths decodes the stored relative gallery paths.
func (l *Listing) GalleryPaths() []string {
	if len(l.Gallery) == 0 {
		return nil
	}
	var paths []string
	if err := json.Unmarshal(l.Gallery, &paths); err != nil {
		return nil
	}
	return paths
}

// SetGallery stores relative gallery paths.
func (l *Listing) SetGallery(paths []string) error {
	if paths == nil {
		l.Gallery = nil
		return nil
	}
	raw, err := json.Marshal(paths)
	if err != nil {
		return err
	}
	l.Gallery = datatypes.JSON(raw)
	return nil
}
