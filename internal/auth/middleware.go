package auth

import (
	"fmt"
	"strings"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/config"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserRoleKey  = "user_role"
	CtxRegNumberKey = "reg_number"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperr.NotAuthenticated("Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.NotAuthenticated("Authorization formatı 'Bearer <token>' olmalı")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return apperr.NotAuthenticated("Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return apperr.NotAuthenticated("Token çözümlenemedi")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxRegNumberKey, claims.RegNumber)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return apperr.Forbidden("Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return apperr.Forbidden("Bu işlem için yetkiniz yok")
	}
}

// ActorID: istekten kimliği çöz; middleware'den geçmiş her istekte dolu.
func ActorID(c *fiber.Ctx) *uint {
	if id, ok := c.Locals(CtxUserIDKey).(uint); ok {
		return &id
	}
	return nil
}

func RegNumber(c *fiber.Ctx) string {
	if rn, ok := c.Locals(CtxRegNumberKey).(string); ok {
		return rn
	}
	return ""
}
