package auth

import (
	"time"

	"rivercafe-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID    uint            `json:"user_id"`
	Role      models.UserRole `json:"role"`
	RegNumber string          `json:"reg_number,omitempty"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	regNumber := ""
	if user.RegNumber != nil {
		regNumber = *user.RegNumber
	}

	claims := &JWTCustomClaims{
		UserID:    user.ID,
		Role:      user.Role,
		RegNumber: regNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)), // 1 gün
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
