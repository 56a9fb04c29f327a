package models

import "time"

type TransactionType string

const (
	TransactionTypeTopup          TransactionType = "topup"          // bakiye yükleme
	TransactionTypeOrder          TransactionType = "order"          // sipariş ödemesi
	TransactionTypeAdjustment     TransactionType = "adjustment"     // manuel düzeltme / para çekme
	TransactionTypeRefund         TransactionType = "refund"         // iade
	TransactionTypeReconciliation TransactionType = "reconciliation" // kasa sayımı düzeltmesi
)

// Transaction: bir bakiye değişiminin değişmez kaydı.
// Oluşturulduktan sonra sadece reconcile alanları güncellenir.
type Transaction struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `json:"-"`

	Type   TransactionType `gorm:"size:20;not null;index" json:"type"`
	Amount float64         `gorm:"not null" json:"amount"` // işaretli tutar (+yükleme, -harcama)

	// Uygulama anında yakalanır; balance_after = balance_before + amount
	BalanceBefore float64 `gorm:"not null" json:"balance_before"`
	BalanceAfter  float64 `gorm:"not null" json:"balance_after"`

	OrderID *uint  `gorm:"index" json:"order_id"`
	Note    string `gorm:"size:255" json:"note"`
	ActorID *uint  `json:"actor_id"` // işlemi yapan (admin/kantin personeli)

	// Mutabakat (kasa sayımına karşı doğrulama)
	Reconciled    bool       `gorm:"not null;default:false;index" json:"reconciled"`
	ReconciledAt  *time.Time `json:"reconciled_at"`
	ReconciledBy  *uint      `json:"reconciled_by"`
	ReconcileNote string     `gorm:"size:255" json:"reconcile_note"`

	CreatedAt time.Time `json:"created_at"`
}
