package window

import (
	"errors"
	"fmt"
	"time"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WindowRequest struct {
	Label     string `json:"label"`
	Category  string `json:"category"`
	Days      string `json:"days"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Timezone  string `json:"timezone"`
	Active    *bool  `json:"active"`
}

func validateWindowRequest(body WindowRequest) error {
	if _, err := ParseClock(body.StartTime); err != nil {
		return apperr.Validation(err.Error())
	}
	if _, err := ParseClock(body.EndTime); err != nil {
		return apperr.Validation(err.Error())
	}
	if _, err := ParseDays(body.Days); err != nil {
		return apperr.Validation(err.Error())
	}
	if body.Timezone != "" {
		if _, err := time.LoadLocation(body.Timezone); err != nil {
			return apperr.Validation("Geçersiz zaman dilimi: " + body.Timezone)
		}
	}
	return nil
}

// -------------------------------------------------
// POST /api/admin/ordering-windows
// -------------------------------------------------
func CreateWindowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WindowRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		if err := validateWindowRequest(body); err != nil {
			return err
		}

		active := true
		if body.Active != nil {
			active = *body.Active
		}

		w := models.OrderingWindow{
			Label:     body.Label,
			Category:  body.Category,
			Days:      body.Days,
			StartTime: body.StartTime,
			EndTime:   body.EndTime,
			Timezone:  body.Timezone,
			Active:    active,
		}
		if err := database.DB.Create(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pencere oluşturulamadı")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "ordering_window.create",
			Collection: "ordering_windows",
			DocumentID: &w.ID,
			Changes:    w,
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "window": w})
	}
}

// -------------------------------------------------
// GET /api/admin/ordering-windows?category=
// -------------------------------------------------
func ListWindowsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.OrderingWindow{})
		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}

		var list []models.OrderingWindow
		if err := dbq.Order("category ASC, start_time ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pencereler listelenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "windows": list})
	}
}

// -------------------------------------------------
// PUT /api/admin/ordering-windows/:id
// -------------------------------------------------
func UpdateWindowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return apperr.Validation("Geçersiz pencere ID")
		}

		var body WindowRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		var w models.OrderingWindow
		if err := database.DB.First(&w, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Pencere bulunamadı")
			}
			return err
		}

		if body.StartTime != "" {
			w.StartTime = body.StartTime
		}
		if body.EndTime != "" {
			w.EndTime = body.EndTime
		}
		if err := validateWindowRequest(WindowRequest{
			StartTime: w.StartTime, EndTime: w.EndTime, Days: body.Days, Timezone: body.Timezone,
		}); err != nil {
			return err
		}

		if body.Label != "" {
			w.Label = body.Label
		}
		if body.Category != "" {
			w.Category = body.Category
		}
		if body.Days != "" {
			w.Days = body.Days
		}
		if body.Timezone != "" {
			w.Timezone = body.Timezone
		}
		if body.Active != nil {
			w.Active = *body.Active
		}

		if err := database.DB.Save(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pencere güncellenemedi")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "ordering_window.update",
			Collection: "ordering_windows",
			DocumentID: &w.ID,
			Changes:    w,
		})
		return c.JSON(fiber.Map{"ok": true, "window": w})
	}
}

// -------------------------------------------------
// DELETE /api/admin/ordering-windows/:id
// -------------------------------------------------
func DeleteWindowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id uint
		if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
			return apperr.Validation("Geçersiz pencere ID")
		}

		var w models.OrderingWindow
		if err := database.DB.First(&w, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Pencere bulunamadı")
			}
			return err
		}

		if err := database.DB.Delete(&w).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Pencere silinemedi")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "ordering_window.delete",
			Collection: "ordering_windows",
			DocumentID: &id,
			Changes:    w,
		})
		return c.JSON(fiber.Map{"ok": true})
	}
}
