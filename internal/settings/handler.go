package settings

import (
	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"
)

type UpsertSettingRequest struct {
	Value string `json:"value"`
}

// -------------------------------------------------
// GET /api/settings
// -------------------------------------------------
func ListSettingsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var list []models.Setting
		if err := database.DB.Order("key ASC").Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayarlar listelenemedi")
		}

		kv := make(map[string]string, len(list))
		for _, s := range list {
			kv[s.Key] = s.Value
		}
		return c.JSON(fiber.Map{"ok": true, "settings": kv})
	}
}

// -------------------------------------------------
// PUT /api/admin/settings/:key
// -------------------------------------------------
func UpsertSettingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Params("key")
		if key == "" {
			return apperr.Validation("Ayar anahtarı zorunlu")
		}

		var body UpsertSettingRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		actorID := auth.ActorID(c)
		setting := models.Setting{Key: key, Value: body.Value, UpdatedBy: actorID}

		if err := database.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
		}).Create(&setting).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ayar kaydedilemedi")
		}

		audit.Write(audit.LogOptions{
			ActorID:    actorID,
			Action:     "setting.upsert",
			Collection: "settings",
			Changes:    map[string]interface{}{"key": key, "value": body.Value},
		})
		return c.JSON(fiber.Map{"ok": true, "setting": setting})
	}
}
