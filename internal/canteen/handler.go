package canteen

import (
	"errors"
	"fmt"
	"time"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/config"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"
	"rivercafe-backend/internal/orders"
	"rivercafe-backend/internal/pickup"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PrepareRequest struct {
	ProductName string `json:"product_name"`
	Action      string `json:"action"` // "prepare" | "unprepare"
}

type PatchOrderRequest struct {
	Action               string `json:"action"` // inc_prepared | dec_prepared | set_prep_by | set_collected_by | set_status
	Status               string `json:"status"`
	PrepBy               *uint  `json:"prep_by"`
	CollectedByRegNumber string `json:"collected_by_reg_number"`
}

type ProcessRequest struct {
	OrderID   *uint  `json:"order_id"`
	Code      string `json:"code"`
	RegNumber string `json:"reg_number"`
}

type ExternalOrderRequest struct {
	Items        []orders.ItemInput `json:"items"`
	IssuedToName string             `json:"issued_to_name"`
	RegNumber    string             `json:"reg_number"`
	Note         string             `json:"note"`
}

// -------------------------------------------------
// POST /api/canteen/product/prepare
// Ürün adına göre bir adet hazırla/geri al. Sipariş seçimi servis
// katmanında: hazırlamada FIFO, geri almada LIFO.
// -------------------------------------------------
func PrepareProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PrepareRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		var order *models.Order
		var err error
		switch body.Action {
		case "prepare":
			order, err = orders.PrepareOneUnit(auth.ActorID(c), body.ProductName)
		case "unprepare":
			order, err = orders.UnprepareOneUnit(auth.ActorID(c), body.ProductName)
		default:
			return apperr.Validation("action 'prepare' veya 'unprepare' olmalı")
		}
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{"ok": true, "order": order})
	}
}

// -------------------------------------------------
// PATCH /api/canteen/order/:id
// -------------------------------------------------
func PatchOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var orderID uint
		if _, err := fmt.Sscan(c.Params("id"), &orderID); err != nil || orderID == 0 {
			return apperr.Validation("Geçersiz sipariş ID")
		}

		var body PatchOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		actorID := auth.ActorID(c)

		switch body.Action {
		case "inc_prepared":
			order, err := orders.AdjustPrepared(actorID, orderID, 1)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{"ok": true, "order": order})

		case "dec_prepared":
			order, err := orders.AdjustPrepared(actorID, orderID, -1)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{"ok": true, "order": order})

		case "set_prep_by":
			prepBy := body.PrepBy
			if prepBy == nil {
				prepBy = actorID
			}
			if prepBy == nil {
				return apperr.Validation("prep_by zorunlu")
			}
			order, err := orders.SetPrepBy(actorID, orderID, *prepBy)
			if err != nil {
				return err
			}
			return c.JSON(fiber.Map{"ok": true, "order": order})

		case "set_collected_by":
			return setCollectedBy(c, actorID, orderID, body.CollectedByRegNumber)

		case "set_status":
			return setStatus(c, actorID, orderID, body)

		default:
			return apperr.Validation("Bilinmeyen action: " + body.Action)
		}
	}
}

func setCollectedBy(c *fiber.Ctx, actorID *uint, orderID uint, regNumber string) error {
	if regNumber == "" {
		return apperr.Validation("collected_by_reg_number zorunlu")
	}

	var o models.Order
	if err := database.DB.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Sipariş bulunamadı")
		}
		return err
	}

	if err := database.DB.Model(&o).UpdateColumn("collected_by_reg_number", regNumber).Error; err != nil {
		return err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.set_collected_by",
		Collection: "orders",
		DocumentID: &o.ID,
		Changes:    map[string]interface{}{"collected_by_reg_number": regNumber},
	})

	if err := database.DB.Preload("Items").First(&o, orderID).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "order": &o})
}

func setStatus(c *fiber.Ctx, actorID *uint, orderID uint, body PatchOrderRequest) error {
	// İptal iadesi dahil geçiş mantığı servis katmanında tek transaction'da
	order, err := orders.SetStatus(actorID, orderID, models.OrderStatus(body.Status), orders.StatusContext{
		PrepBy:               actorID,
		CollectedByRegNumber: body.CollectedByRegNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "order": order})
}

// -------------------------------------------------
// GET /api/canteen/process?code=RC-XXXXXX
// GET /api/canteen/process?date=2026-03-02&q=1234
// Teslim ekranı: koda göre tek sipariş veya gün+arama ile liste.
// -------------------------------------------------
func ProcessLookupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if code := c.Query("code"); code != "" {
			var o models.Order
			if err := database.DB.Preload("Items").Where("code = ?", code).First(&o).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.NotFound("Sipariş bulunamadı")
				}
				return err
			}

			issuedToName := ""
			if o.External {
				var ec models.ExternalCode
				if err := database.DB.Where("order_id = ?", o.ID).First(&ec).Error; err == nil {
					issuedToName = ec.IssuedToName
				}
			}
			return c.JSON(fiber.Map{"ok": true, "order": o, "issued_to_name": issuedToName})
		}

		dateStr := c.Query("date")
		if dateStr == "" {
			return apperr.Validation("code veya date parametresi zorunlu")
		}
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return apperr.Validation("date formatı 'YYYY-MM-DD' olmalı")
		}

		dbq := database.DB.Preload("Items").
			Where("created_at >= ? AND created_at < ?", day, day.AddDate(0, 0, 1))
		if q := c.Query("q"); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("code LIKE ? OR reg_number LIKE ?", like, like)
		}

		var list []models.Order
		if err := dbq.Order("created_at ASC").Limit(200).Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "orders": list})
	}
}

// -------------------------------------------------
// POST /api/canteen/process
// Siparişi teslim edilmiş olarak işaretler (id veya kod ile).
// -------------------------------------------------
func ProcessCollectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProcessRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		result, err := pickup.Collect(auth.ActorID(c), pickup.Ref{
			OrderID: body.OrderID,
			Code:    body.Code,
		}, body.RegNumber)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{
			"ok":             true,
			"order_id":       result.Order.ID,
			"collected_at":   result.Order.CollectedAt,
			"issued_to_name": result.IssuedToName,
			"order":          result.Order,
		})
	}
}

// -------------------------------------------------
// POST /api/canteen/external-orders
// Hesabı olmayan (nakit) müşteri için sipariş + harici teslim kodu.
// Bakiye düşülmez; ödeme kasada nakit alınır.
// -------------------------------------------------
func CreateExternalOrderHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExternalOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		if body.IssuedToName == "" {
			return apperr.Validation("issued_to_name zorunlu")
		}

		order, _, err := orders.Place(orders.PlaceParams{
			External:     true,
			RegNumber:    body.RegNumber,
			IssuedToName: body.IssuedToName,
			Note:         body.Note,
			Items:        body.Items,
			CodePrefix:   cfg.PickupCodePrefix,
			Timezone:     cfg.Timezone,
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "order": order, "code": order.Code})
	}
}
