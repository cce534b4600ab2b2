package listing

import (
	"strings"

	"github.com/DwamTech/nas-masr-sub000/internal/attrs"
	"github.com/DwamTech/nas-masr-sub000/internal/models"
	"github.com/DwamTech/nas-masr-sub000/internal/schema"

	"gorm.io/gorm"
)

// Projection is the outbound listing shape: the row plus resolved display
// names, the reconstructed attribute map and media URLs built from stored
// relative paths.
type Projection struct {
	models.Listing

	CategorySlug    string `json:"category_slug"`
	CategoryName    string `json:"category_name"`
	GovernorateName string `json:"governorate_name,omitempty"`
	CityName        string `json:"city_name,omitempty"`
	BrandName       string `json:"brand_name,omitempty"`
	ModelName       string `json:"model_name,omitempty"`
	SectionName     string `json:"section_name,omitempty"`
	SubSectionName  string `json:"sub_section_name,omitempty"`

	Attributes map[string]interface{} `json:"attributes"`

	MainImageURL string   `json:"main_image_url,omitempty"`
	GalleryURLs  []string `json:"gallery_urls,omitempty"`
}

func (s *Service) project(db *gorm.DB, l *models.Listing, sch *schema.CategorySchema) (*Projection, error) {
	attrMap, err := attrs.NewStore(db).Read(l.ID)
	if err != nil {
		return nil, err
	}

	p := &Projection{
		Listing:      *l,
		CategorySlug: sch.Slug,
		CategoryName: sch.DisplayName,
		Attributes:   attrMap,
	}

	if l.GovernorateID != nil {
		var gov models.Governorate
		if err := db.First(&gov, *l.GovernorateID).Error; err == nil {
			p.GovernorateName = gov.Name
		}
	}
	if l.CityID != nil {
		var city models.City
		if err := db.First(&city, *l.CityID).Error; err == nil {
			p.CityName = city.Name
		}
	}
	if l.BrandID != nil {
		var brand models.Brand
		if err := db.First(&brand, *l.BrandID).Error; err == nil {
			p.BrandName = brand.Name
		}
	}
	if l.BrandModelID != nil {
		var model models.BrandModel
		if err := db.First(&model, *l.BrandModelID).Error; err == nil {
			p.ModelName = model.Name
		}
	}
	if l.SectionID != nil {
		var sec models.Section
		if err := db.First(&sec, *l.SectionID).Error; err == nil {
			p.SectionName = sec.Name
		}
	}
	if l.SubSectionID != nil {
		var sub models.SubSection
		if err := db.First(&sub, *l.SubSectionID).Error; err == nil {
			p.SubSectionName = sub.Name
		}
	}

	if l.MainImage != "" {
		p.MainImageURL = s.mediaURL(l.MainImage)
	}
	for _, path := range l.GalleryPaths() {
		p.GalleryURLs = append(p.GalleryURLs, s.mediaURL(path))
	}

	return p, nil
}

// mediaURL joins the configured base URL with a stored relative path. Actual
// storage is an external concern; only the concatenation lives here.
func (s *Service) mediaURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(s.mediaBaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
