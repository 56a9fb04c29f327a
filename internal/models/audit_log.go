package models

import "time"

// AuditLog: her değiştirici işlem için append-only kayıt.
// Yazma hatası ana işlemi asla geri aldırmaz (best-effort).
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ActorID   *uint  `json:"actor_id"` // sistem kaynaklı işlemlerde null
	ActorName string `gorm:"size:100" json:"actor_name"` // denormalize

	Action     string `gorm:"size:50;index" json:"action"`      // ör: "topup", "order.prepare", "order.collect"
	Collection string `gorm:"size:50;index" json:"collection"`  // etkilenen tablo adı
	DocumentID *uint  `gorm:"index" json:"document_id"`

	// Değişiklik yükü (JSON): önce/sonra veya delta
	Changes string `gorm:"type:jsonb" json:"changes"`
}
