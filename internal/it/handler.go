package it

import (
	"errors"
	"fmt"
	"strings"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	RegNumber string `json:"reg_number"`
	Role      string `json:"role"`
	Password  string `json:"password"` // boşsa geçici şifre üretilir
}

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

type ResetPasswordRequest struct {
	Password string `json:"password"` // boşsa geçici şifre üretilir
}

func parseUserID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, apperr.Validation("Geçersiz kullanıcı ID")
	}
	return id, nil
}

func tempPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// -------------------------------------------------
// POST /api/it/users
// -------------------------------------------------
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		body.RegNumber = strings.TrimSpace(body.RegNumber)

		if body.Name == "" {
			return apperr.Validation("İsim zorunlu")
		}
		if body.Email == "" && body.RegNumber == "" {
			return apperr.Validation("Email veya okul numarası zorunlu")
		}
		role := models.UserRole(body.Role)
		if !role.Valid() {
			return apperr.Validation("Geçersiz rol: " + body.Role)
		}

		password := body.Password
		generated := false
		if password == "" {
			password = tempPassword()
			generated = true
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		user := models.User{
			Name:                 body.Name,
			Role:                 role,
			PasswordHash:         string(hash),
			RequirePasswordReset: true, // ilk girişte şifre değiştirilir
			IsActive:             true,
		}
		if body.Email != "" {
			user.Email = &body.Email
		}
		if body.RegNumber != "" {
			user.RegNumber = &body.RegNumber
		}

		if err := database.DB.Create(&user).Error; err != nil {
			return apperr.Validation("Kullanıcı oluşturulamadı (email/okul numarası kullanımda olabilir)")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "user.create",
			Collection: "users",
			DocumentID: &user.ID,
			Changes:    map[string]interface{}{"name": user.Name, "role": user.Role},
		})

		resp := fiber.Map{"ok": true, "user": user}
		if generated {
			// geçici şifre sadece bu cevapta görünür
			resp["temp_password"] = password
		}
		return c.Status(fiber.StatusCreated).JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/it/users?role=&q=&active=&limit=&skip=
// -------------------------------------------------
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.User{})

		if role := c.Query("role"); role != "" {
			dbq = dbq.Where("role = ?", role)
		}
		if active := c.Query("active"); active != "" {
			dbq = dbq.Where("is_active = ?", active == "true")
		}
		if q := c.Query("q"); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name LIKE ? OR email LIKE ? OR reg_number LIKE ?", like, like, like)
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		skip := c.QueryInt("skip", 0)
		if skip < 0 {
			skip = 0
		}

		var total int64
		dbq.Count(&total)

		var users []models.User
		if err := dbq.Order("name ASC").Limit(limit).Offset(skip).Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcılar listelenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "total": total, "users": users})
	}
}

// -------------------------------------------------
// PUT /api/it/users/:id
// Silme yok: hesaplar devre dışı bırakılır (soft), işlem geçmişi kalır.
// -------------------------------------------------
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUserID(c)
		if err != nil {
			return err
		}

		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		var user models.User
		if err := database.DB.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Kullanıcı bulunamadı")
			}
			return err
		}

		updates := map[string]interface{}{}
		if body.Name != "" {
			updates["name"] = body.Name
		}
		if body.Role != "" {
			role := models.UserRole(body.Role)
			if !role.Valid() {
				return apperr.Validation("Geçersiz rol: " + body.Role)
			}
			updates["role"] = role
		}
		if body.IsActive != nil {
			updates["is_active"] = *body.IsActive
		}
		if len(updates) == 0 {
			return apperr.Validation("Güncellenecek alan yok")
		}

		if err := database.DB.Model(&user).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı güncellenemedi")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "user.update",
			Collection: "users",
			DocumentID: &user.ID,
			Changes:    updates,
		})
		return c.JSON(fiber.Map{"ok": true, "user": user})
	}
}

// -------------------------------------------------
// POST /api/it/users/:id/reset-password
// -------------------------------------------------
func ResetPasswordHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseUserID(c)
		if err != nil {
			return err
		}

		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		var user models.User
		if err := database.DB.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Kullanıcı bulunamadı")
			}
			return err
		}

		password := body.Password
		generated := false
		if password == "" {
			password = tempPassword()
			generated = true
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre hashlenemedi")
		}

		if err := database.DB.Model(&user).Updates(map[string]interface{}{
			"password_hash":          string(hash),
			"require_password_reset": true,
		}).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Şifre sıfırlanamadı")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "user.reset_password",
			Collection: "users",
			DocumentID: &user.ID,
		})

		resp := fiber.Map{"ok": true}
		if generated {
			resp["temp_password"] = password
		}
		return c.JSON(resp)
	}
}
