package models

import "time"

type Product struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:100;not null;unique" json:"name"`
	Description string  `gorm:"size:255" json:"description"`
	Category    string  `gorm:"size:50;index" json:"category"` // sipariş penceresi bu kategoriye göre çözülür
	Price       float64 `gorm:"not null" json:"price"`
	Available   bool    `gorm:"not null;default:true" json:"available"`
	PrepStation string  `gorm:"size:50" json:"prep_station"` // mutfak/tezgah etiketi

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
