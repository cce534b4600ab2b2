package models

type Brand struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(191);not null;index" json:"name"`
}

func (Brand) TableName() string {
	return "brands"
}

// BrandModel is a model belonging to exactly one brand ("BMW" -> "X5").
type BrandModel struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	BrandID uint   `gorm:"not null;index" json:"brand_id"`
	Name    string `gorm:"type:varchar(191);not null;index" json:"name"`
}

func (BrandModel) TableName() string {
	return "brand_models"
}
