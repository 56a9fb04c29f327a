package auth

import (
	"strings"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/config"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Email     string `json:"email"`      // email veya okul numarası, biri zorunlu
	RegNumber string `json:"reg_number"`
	Password  string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.RegNumber = strings.TrimSpace(body.RegNumber)

		var user models.User
		var err error
		switch {
		case body.Email != "":
			err = database.DB.Where("email = ?", body.Email).First(&user).Error
		case body.RegNumber != "":
			err = database.DB.Where("reg_number = ?", body.RegNumber).First(&user).Error
		default:
			return apperr.Validation("Email veya okul numarası zorunlu")
		}
		if err != nil {
			return apperr.NotAuthenticated("Kullanıcı adı veya şifre hatalı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return apperr.NotAuthenticated("Kullanıcı adı veya şifre hatalı")
		}

		if !user.IsActive {
			return apperr.Forbidden("Hesap devre dışı bırakılmış")
		}

		token, err := GenerateToken(cfg.JWTSecret, &user)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Token oluşturulamadı")
		}

		return c.JSON(fiber.Map{
			"ok":    true,
			"token": token,
			"user": fiber.Map{
				"id":                     user.ID,
				"name":                   user.Name,
				"email":                  user.Email,
				"reg_number":             user.RegNumber,
				"role":                   user.Role,
				"require_password_reset": user.RequirePasswordReset,
			},
		})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return apperr.NotAuthenticated("Oturum bulunamadı")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return apperr.NotFound("Kullanıcı bulunamadı")
		}

		return c.JSON(fiber.Map{"ok": true, "user": user})
	}
}

// POST /api/auth/change-password
// require_password_reset bayrağı olan kullanıcı ilk girişte buradan geçer.
func ChangePasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return apperr.NotAuthenticated("Oturum bulunamadı")
		}

		var body ChangePasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		if len(body.NewPassword) < 8 {
			return apperr.Validation("Yeni şifre en az 8 karakter olmalı")
		}

		var user models.User
		if err := database.DB.First(&user, userID).Error; err != nil {
			return apperr.NotFound("Kullanıcı bulunamadı")
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)); err != nil {
			return apperr.NotAuthenticated("Mevcut şifre hatalı")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		if err := database.DB.Model(&user).Updates(map[string]interface{}{
			"password_hash":          string(hash),
			"require_password_reset": false,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre güncellenemedi")
		}

		return c.JSON(fiber.Map{"ok": true})
	}
}
