package models

import "time"

type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleCanteen   UserRole = "canteen"
	RoleStudent   UserRole = "student"
	RoleIT        UserRole = "it"
	RoleInventory UserRole = "inventory"
	RoleExternal  UserRole = "external"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleCanteen, RoleStudent, RoleIT, RoleInventory, RoleExternal:
		return true
	}
	return false
}

type User struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"size:100;not null" json:"name"`
	Email     *string `gorm:"size:100;uniqueIndex" json:"email"`      // opsiyonel (harici kullanıcılarda yok)
	RegNumber *string `gorm:"size:30;uniqueIndex" json:"reg_number"` // okul numarası

	Role     UserRole `gorm:"size:20;not null;index" json:"role"`
	IsActive bool     `gorm:"not null;default:true" json:"is_active"`

	// Bakiye SADECE ledger servisi tarafından yazılır.
	Balance float64 `gorm:"not null;default:0" json:"balance"`

	PasswordHash         string `gorm:"size:255;not null" json:"-"`
	RequirePasswordReset bool   `gorm:"not null;default:false" json:"require_password_reset"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
