package refs

import (
	"github.com/DwamTech/nas-masr-sub000/internal/apperr"
	"github.com/DwamTech/nas-masr-sub000/internal/models"

	"gorm.io/gorm"
)

// Resolver turns free-text location/brand/section hints into validated
// foreign-key ids. Every mismatch is a field-scoped validation error; nothing
// is silently reassigned.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// LocationInput carries the id-or-name hints a client may send.
type LocationInput struct {
	GovernorateID   *uint
	CityID          *uint
	GovernorateName string
	CityName        string
}

// BrandInput carries brand/model hints. A model can only be resolved once a
// brand is.
type BrandInput struct {
	BrandID   *uint
	ModelID   *uint
	BrandName string
	ModelName string
}

// SectionInput carries main/sub-section hints, scoped by category.
type SectionInput struct {
	SectionID      *uint
	SubSectionID   *uint
	SectionName    string
	SubSectionName string
}

// ResolveLocation validates and normalizes location hints. When only a city
// is supplied, the governorate id is back-filled from the city's parent.
func (r *Resolver) ResolveLocation(in LocationInput) (govID, cityID *uint, err error) {
	if in.GovernorateID != nil {
		var gov models.Governorate
		if err := r.db.First(&gov, *in.GovernorateID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("governorate_id", "unknown governorate %d", *in.GovernorateID)
			}
			return nil, nil, err
		}
		govID = &gov.ID
	} else if in.GovernorateName != "" {
		var gov models.Governorate
		if err := r.db.Where("name = ?", in.GovernorateName).First(&gov).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("governorate", "unknown governorate %q", in.GovernorateName)
			}
			return nil, nil, err
		}
		govID = &gov.ID
	}

	if in.CityID != nil {
		var city models.City
		if err := r.db.First(&city, *in.CityID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("city_id", "unknown city %d", *in.CityID)
			}
			return nil, nil, err
		}
		if govID != nil && city.GovernorateID != *govID {
			return nil, nil, apperr.Validation("city_id", "city %d does not belong to governorate %d", city.ID, *govID)
		}
		cityID = &city.ID
		if govID == nil {
			govID = &city.GovernorateID
		}
	} else if in.CityName != "" {
		q := r.db.Where("name = ?", in.CityName)
		if govID != nil {
			q = q.Where("governorate_id = ?", *govID)
		}
		var cities []models.City
		if err := q.Limit(2).Find(&cities).Error; err != nil {
			return nil, nil, err
		}
		switch len(cities) {
		case 0:
			return nil, nil, apperr.Validation("city", "unknown city %q", in.CityName)
		case 1:
			cityID = &cities[0].ID
			if govID == nil {
				govID = &cities[0].GovernorateID
			}
		default:
			// Same city name in two governorates with no governorate hint.
			return nil, nil, apperr.Validation("city", "city %q is ambiguous, supply a governorate", in.CityName)
		}
	}

	return govID, cityID, nil
}

// ResolveBrand validates brand/model hints. Model resolution requires an
// already-resolved brand and the model must belong to it.
func (r *Resolver) ResolveBrand(in BrandInput) (brandID, modelID *uint, err error) {
	if in.BrandID != nil {
		var brand models.Brand
		if err := r.db.First(&brand, *in.BrandID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("brand_id", "unknown brand %d", *in.BrandID)
			}
			return nil, nil, err
		}
		brandID = &brand.ID
	} else if in.BrandName != "" {
		var brand models.Brand
		if err := r.db.Where("name = ?", in.BrandName).First(&brand).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("brand", "unknown brand %q", in.BrandName)
			}
			return nil, nil, err
		}
		brandID = &brand.ID
	}

	if in.ModelID != nil || in.ModelName != "" {
		if brandID == nil {
			return nil, nil, apperr.Validation("brand_id", "a model requires a resolved brand")
		}
	}

	if in.ModelID != nil {
		var model models.BrandModel
		if err := r.db.First(&model, *in.ModelID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("model_id", "unknown model %d", *in.ModelID)
			}
			return nil, nil, err
		}
		if model.BrandID != *brandID {
			return nil, nil, apperr.Validation("model_id", "model %d does not belong to brand %d", model.ID, *brandID)
		}
		modelID = &model.ID
	} else if in.ModelName != "" {
		var model models.BrandModel
		if err := r.db.Where("brand_id = ? AND name = ?", *brandID, in.ModelName).First(&model).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("model", "unknown model %q for brand %d", in.ModelName, *brandID)
			}
			return nil, nil, err
		}
		modelID = &model.ID
	}

	return brandID, modelID, nil
}

// ResolveSections validates main/sub-section hints within one category.
func (r *Resolver) ResolveSections(categoryID uint, in SectionInput) (sectionID, subSectionID *uint, err error) {
	if in.SectionID != nil {
		var sec models.Section
		if err := r.db.Where("id = ? AND category_id = ?", *in.SectionID, categoryID).First(&sec).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("section_id", "unknown section %d in category %d", *in.SectionID, categoryID)
			}
			return nil, nil, err
		}
		sectionID = &sec.ID
	} else if in.SectionName != "" {
		var sec models.Section
		if err := r.db.Where("category_id = ? AND name = ?", categoryID, in.SectionName).First(&sec).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("section", "unknown section %q", in.SectionName)
			}
			return nil, nil, err
		}
		sectionID = &sec.ID
	}

	if in.SubSectionID != nil || in.SubSectionName != "" {
		if sectionID == nil {
			return nil, nil, apperr.Validation("section_id", "a sub-section requires a resolved main section")
		}
	}

	if in.SubSectionID != nil {
		var sub models.SubSection
		if err := r.db.First(&sub, *in.SubSectionID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("sub_section_id", "unknown sub-section %d", *in.SubSectionID)
			}
			return nil, nil, err
		}
		if sub.SectionID != *sectionID {
			return nil, nil, apperr.Validation("sub_section_id", "sub-section %d does not belong to section %d", sub.ID, *sectionID)
		}
		subSectionID = &sub.ID
	} else if in.SubSectionName != "" {
		var sub models.SubSection
		if err := r.db.Where("section_id = ? AND name = ?", *sectionID, in.SubSectionName).First(&sub).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil, apperr.Validation("sub_section", "unknown sub-section %q", in.SubSectionName)
			}
			return nil, nil, err
		}
		subSectionID = &sub.ID
	}

	return sectionID, subSectionID, nil
}
