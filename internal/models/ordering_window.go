package models

import "time"

// OrderingWindow: tekrarlayan sipariş zaman penceresi.
// Days: virgülle ayrılmış gün listesi (0=Pazar..6=Cumartesi), boş = her gün.
// StartTime/EndTime: "HH:MM"; StartTime > EndTime ise pencere gece yarısını aşar.
type OrderingWindow struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Label    string `gorm:"size:100" json:"label"`
	Category string `gorm:"size:50;index" json:"category"` // boş = tüm kategoriler

	Days      string `gorm:"size:30" json:"days"`
	StartTime string `gorm:"size:5;not null" json:"start_time"`
	EndTime   string `gorm:"size:5;not null" json:"end_time"`
	Timezone  string `gorm:"size:50" json:"timezone"` // IANA adı, boşsa sunucu varsayılanı

	Active bool `gorm:"not null;default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
