package listing

import (
	"strings"
	"time"

	"github.com/DwamTech/nas-masr-sub000/internal/apperr"
	"github.com/DwamTech/nas-masr-sub000/internal/attrs"
	"github.com/DwamTech/nas-masr-sub000/internal/models"
	"github.com/DwamTech/nas-masr-sub000/internal/rank"
	"github.com/DwamTech/nas-masr-sub000/internal/refs"
	"github.com/DwamTech/nas-masr-sub000/internal/schema"

	"gorm.io/gorm"
)

// SearchIndexer is the optional search-index sync hook. Index failures are
// logged by the implementation, never propagated into the write path.
type SearchIndexer interface {
	IndexListing(p *Projection)
	DeleteListing(id uint)
}

// Service orchestrates listing create/update/delete: schema resolution,
// reference resolution, rank assignment, the listing row and its attribute
// rows, all in one transaction.
type Service struct {
	db           *gorm.DB
	mediaBaseURL string
	indexer      SearchIndexer
}

func NewService(db *gorm.DB, mediaBaseURL string) *Service {
	return &Service{db: db, mediaBaseURL: mediaBaseURL}
}

// SetIndexer attaches the search-index sync hook.
func (s *Service) SetIndexer(idx SearchIndexer) {
	s.indexer = idx
}

// Input is the orchestrator payload. Scalar pointers distinguish "not sent"
// from zero values so updates stay partial; Attributes follows the same rule
// per key (empty value clears, absent key is untouched).
type Input struct {
	OwnerID     uint
	Title       *string
	Description *string
	Price       *float64
	Address     *string
	Lat         *float64
	Lng         *float64
	PlanTier    *string
	ExpiresAt   *time.Time
	MainImage   *string
	Gallery     []string

	Location refs.LocationInput
	Brand    refs.BrandInput
	Sections refs.SectionInput

	Attributes map[string]interface{}
}

func (in *Input) hasLocation() bool {
	return in.Location.GovernorateID != nil || in.Location.CityID != nil ||
		in.Location.GovernorateName != "" || in.Location.CityName != ""
}

func (in *Input) hasBrand() bool {
	return in.Brand.BrandID != nil || in.Brand.ModelID != nil ||
		in.Brand.BrandName != "" || in.Brand.ModelName != ""
}

func (in *Input) hasSections() bool {
	return in.Sections.SectionID != nil || in.Sections.SubSectionID != nil ||
		in.Sections.SectionName != "" || in.Sections.SubSectionName != ""
}

// Create runs the full create sequence in one transaction and returns the
// fully-loaded listing. Any validation failure rolls everything back.
func (s *Service) Create(categorySlug string, in Input) (*Projection, error) {
	var proj *Projection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		sch, err := schema.NewResolver(tx).BySlug(categorySlug)
		if err != nil {
			return err
		}

		if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
			return apperr.Validation("title", "title is required")
		}
		if in.OwnerID == 0 {
			return apperr.Validation("owner_id", "owner is required")
		}

		resolver := refs.NewResolver(tx)

		govID, cityID, err := resolver.ResolveLocation(in.Location)
		if err != nil {
			return err
		}

		var brandID, modelID *uint
		if sch.SupportsBrandModel() && in.hasBrand() {
			brandID, modelID, err = resolver.ResolveBrand(in.Brand)
			if err != nil {
				return err
			}
		}

		var sectionID, subSectionID *uint
		if sch.SupportsSections() && in.hasSections() {
			sectionID, subSectionID, err = resolver.ResolveSections(sch.ID, in.Sections)
			if err != nil {
				return err
			}
		}

		nextRank, err := rank.NextRank(tx, sch.ID)
		if err != nil {
			return err
		}

		// Explicit projection: only the allow-listed columns reach the row.
		l := models.Listing{
			CategoryID:    sch.ID,
			OwnerID:       in.OwnerID,
			Title:         *in.Title,
			Status:        models.ListingStatusPending,
			PlanTier:      "free",
			PublishedAt:   time.Now(),
			Rank:          nextRank,
			GovernorateID: govID,
			CityID:        cityID,
			BrandID:       brandID,
			BrandModelID:  modelID,
			SectionID:     sectionID,
			SubSectionID:  subSectionID,
		}
		if in.Description != nil {
			l.Description = *in.Description
		}
		if in.Price != nil {
			l.Price = *in.Price
		}
		if in.Address != nil {
			l.Address = *in.Address
		}
		l.Lat = in.Lat
		l.Lng = in.Lng
		if in.PlanTier != nil {
			l.PlanTier = *in.PlanTier
		}
		l.ExpiresAt = in.ExpiresAt
		if in.MainImage != nil {
			l.MainImage = *in.MainImage
		}
		if in.Gallery != nil {
			if err := l.SetGallery(in.Gallery); err != nil {
				return err
			}
		}

		if err := tx.Create(&l).Error; err != nil {
			return err
		}

		if err := attrs.NewStore(tx).Sync(l.ID, sch.TypesByField(), in.Attributes); err != nil {
			return err
		}

		proj, err = s.project(tx, &l, sch)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.indexer != nil {
		s.indexer.IndexListing(proj)
	}
	return proj, nil
}

// Update runs the update sequence. Reference groups and attributes absent
// from the payload are left untouched; unsupported capability fields are
// always cleared regardless of input.
func (s *Service) Update(listingID uint, in Input) (*Projection, error) {
	var proj *Projection

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := tx.First(&l, listingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.ErrNotFound
			}
			return err
		}

		sch, err := schema.NewResolver(tx).ByID(l.CategoryID)
		if err != nil {
			return err
		}

		resolver := refs.NewResolver(tx)

		if in.hasLocation() {
			govID, cityID, err := resolver.ResolveLocation(in.Location)
			if err != nil {
				return err
			}
			l.GovernorateID = govID
			l.CityID = cityID
		}

		if !sch.SupportsBrandModel() {
			l.BrandID = nil
			l.BrandModelID = nil
		} else if in.hasBrand() {
			brandID, modelID, err := resolver.ResolveBrand(in.Brand)
			if err != nil {
				return err
			}
			l.BrandID = brandID
			l.BrandModelID = modelID
		}

		if !sch.SupportsSections() {
			l.SectionID = nil
			l.SubSectionID = nil
		} else if in.hasSections() {
			sectionID, subSectionID, err := resolver.ResolveSections(sch.ID, in.Sections)
			if err != nil {
				return err
			}
			l.SectionID = sectionID
			l.SubSectionID = subSectionID
		}

		if in.Title != nil {
			if strings.TrimSpace(*in.Title) == "" {
				return apperr.Validation("title", "title cannot be empty")
			}
			l.Title = *in.Title
		}
		if in.Description != nil {
			l.Description = *in.Description
		}
		if in.Price != nil {
			l.Price = *in.Price
		}
		if in.Address != nil {
			l.Address = *in.Address
		}
		if in.Lat != nil {
			l.Lat = in.Lat
		}
		if in.Lng != nil {
			l.Lng = in.Lng
		}
		if in.PlanTier != nil {
			l.PlanTier = *in.PlanTier
		}
		if in.ExpiresAt != nil {
			l.ExpiresAt = in.ExpiresAt
		}
		if in.MainImage != nil {
			l.MainImage = *in.MainImage
		}
		if in.Gallery != nil {
			if err := l.SetGallery(in.Gallery); err != nil {
				return err
			}
		}

		// Allow-listed column set; rank, views and status are managed
		// elsewhere and never written from a payload.
		err = tx.Model(&l).Select(
			"title", "description", "price", "address", "lat", "lng",
			"plan_tier", "expires_at", "main_image", "gallery",
			"governorate_id", "city_id",
			"brand_id", "brand_model_id", "section_id", "sub_section_id",
		).Updates(&l).Error
		if err != nil {
			return err
		}

		if err := attrs.NewStore(tx).Sync(l.ID, sch.TypesByField(), in.Attributes); err != nil {
			return err
		}

		proj, err = s.project(tx, &l, sch)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.indexer != nil {
		s.indexer.IndexListing(proj)
	}
	return proj, nil
}

// Delete removes the listing and cascades attribute-row removal.
func (s *Service) Delete(listingID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var l models.Listing
		if err := tx.First(&l, listingID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.ErrNotFound
			}
			return err
		}
		if err := attrs.NewStore(tx).DeleteAll(l.ID); err != nil {
			return err
		}
		return tx.Delete(&l).Error
	})
	if err != nil {
		return err
	}

	if s.indexer != nil {
		s.indexer.DeleteListing(listingID)
	}
	return nil
}

// Get loads the full projection of one listing.
func (s *Service) Get(listingID uint) (*Projection, error) {
	var l models.Listing
	if err := s.db.First(&l, listingID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	sch, err := schema.NewResolver(s.db).ByID(l.CategoryID)
	if err != nil {
		return nil, err
	}
	return s.project(s.db, &l, sch)
}

// Promote moves the listing to position 1 within its category. Returns false
// when the listing does not exist in that category.
func (s *Service) Promote(categoryID, listingID uint) (bool, error) {
	promoted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := rank.PromoteToTop(tx, categoryID, listingID)
		promoted = ok
		return err
	})
	return promoted, err
}
