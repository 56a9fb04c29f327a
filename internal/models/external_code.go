package models

import "time"

// ExternalCode: hesabı olmayan (nakit) müşteriye verilen teslim kodu.
// Used alanı false -> true geçişini tam bir kez yapar (ilk teslimde).
type ExternalCode struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Code    string `gorm:"size:20;uniqueIndex;not null" json:"code"`
	OrderID uint   `gorm:"index;not null" json:"order_id"`
	Order   Order  `json:"-"`

	IssuedToName string `gorm:"size:100" json:"issued_to_name"`

	Used            bool       `gorm:"not null;default:false" json:"used"`
	UsedAt          *time.Time `json:"used_at"`
	UsedByRegNumber string     `gorm:"size:30" json:"used_by_reg_number"`

	CreatedAt time.Time `json:"created_at"`
}
