package models

import "time"

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCollected OrderStatus = "collected" // terminal
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusPreparing, OrderStatusReady, OrderStatusCollected, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:20;uniqueIndex;not null" json:"code"` // teslim kodu

	// Öğrenci siparişlerinde UserID dolu; harici (nakit) siparişlerde External=true
	UserID    *uint  `gorm:"index" json:"user_id"`
	User      *User  `json:"-"`
	RegNumber string `gorm:"size:30;index" json:"reg_number"`
	External  bool   `gorm:"not null;default:false" json:"external"`
	Special   bool   `gorm:"not null;default:false" json:"special"` // özel sipariş (pencere kontrolü dışı)

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Total float64     `gorm:"not null" json:"total"` // sipariş anında hesaplanır, sonradan değişmez

	Status OrderStatus `gorm:"size:20;not null;default:'placed';index" json:"status"`

	// Toplam hazırlanan adet; her zaman item prepared_count toplamına eşit tutulur.
	PreparedCount int `gorm:"not null;default:0" json:"prepared_count"`

	ExpiresAt *time.Time `json:"expires_at"` // teslim kodu geçerlilik sonu
	PrepBy    *uint      `json:"prep_by"`    // hazırlamaya başlayan personel

	CollectedByRegNumber string     `gorm:"size:30" json:"collected_by_reg_number"`
	CollectedByOperator  *uint      `json:"collected_by_operator"`
	CollectedAt          *time.Time `json:"collected_at"`

	Note string `gorm:"size:255" json:"note"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"index;not null" json:"order_id"`

	ProductID uint    `gorm:"index" json:"product_id"`
	Name      string  `gorm:"size:100;not null" json:"name"`  // sipariş anındaki ürün adı
	UnitPrice float64 `gorm:"not null" json:"unit_price"`     // sipariş anındaki fiyat
	Qty       int     `gorm:"not null" json:"qty"`

	// 0 <= PreparedCount <= Qty
	PreparedCount int `gorm:"not null;default:0" json:"prepared_count"`
}
