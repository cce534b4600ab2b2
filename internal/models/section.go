package models

// Section is a main section within one category (e.g. "apartments" under
// real estate). SubSection belongs to exactly one Section.
type Section struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CategoryID uint   `gorm:"not null;index" json:"category_id"`
	Name       string `gorm:"type:varchar(191);not null;index" json:"name"`
}

func (Section) TableName() string {
	return "sections"
}

type SubSection struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	SectionID uint   `gorm:"not null;index" json:"section_id"`
	Name      string `gorm:"type:varchar(191);not null;index" json:"name"`
}

func (SubSection) TableName() string {
	return "sub_sections"
}
