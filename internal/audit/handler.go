package audit

import (
	"fmt"

	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/audit-logs?collection=orders&document_id=1&actor_id=2&limit=100&skip=0
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if collection := c.Query("collection"); collection != "" {
			dbq = dbq.Where("collection = ?", collection)
		}
		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action = ?", action)
		}
		if docIDStr := c.Query("document_id"); docIDStr != "" {
			var docID uint
			if _, err := fmt.Sscan(docIDStr, &docID); err == nil && docID > 0 {
				dbq = dbq.Where("document_id = ?", docID)
			}
		}
		if actorIDStr := c.Query("actor_id"); actorIDStr != "" {
			var actorID uint
			if _, err := fmt.Sscan(actorIDStr, &actorID); err == nil && actorID > 0 {
				dbq = dbq.Where("actor_id = ?", actorID)
			}
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

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Limit(limit).Offset(skip).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Loglar listelenemedi")
		}

		return c.JSON(fiber.Map{"ok": true, "total": total, "logs": logs})
	}
}
