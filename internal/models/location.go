package models

type Governorate struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(191);not null;index" json:"name"`
}

func (Governorate) TableName() string {
	return "governorates"
}

type City struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	GovernorateID uint   `gorm:"not null;index" json:"governorate_id"`
	Name          string `gorm:"type:varchar(191);not null;index" json:"name"`
}

func (City) TableName() string {
	return "cities"
}
