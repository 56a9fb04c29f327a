package student

import (
	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/config"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"
	"rivercafe-backend/internal/orders"

	"github.com/gofiber/fiber/v2"
)

type PlaceOrderRequest struct {
	Items []orders.ItemInput `json:"items"`
	Note  string             `json:"note"`
}

// -------------------------------------------------
// GET /api/student/menu
// -------------------------------------------------
func MenuHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var products []models.Product
		if err := database.DB.Where("available = ?", true).
			Order("category ASC, name ASC").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Menü listelenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "products": products})
	}
}

// placeOrder: öğrenci siparişi. Pencere kontrolü -> bakiye düşümü ->
// sipariş kaydı; düşüm ve kayıt aynı transaction'dadır.
func placeOrder(c *fiber.Ctx, cfg *config.Config, special bool) error {
	userID := auth.ActorID(c)
	if userID == nil {
		return apperr.NotAuthenticated("Oturum bulunamadı")
	}

	var body PlaceOrderRequest
	if err := c.BodyParser(&body); err != nil {
		return apperr.Validation("Geçersiz istek gövdesi")
	}

	order, _, err := orders.Place(orders.PlaceParams{
		UserID:     userID,
		RegNumber:  auth.RegNumber(c),
		Special:    special,
		Note:       body.Note,
		Items:      body.Items,
		CodePrefix: cfg.PickupCodePrefix,
		Timezone:   cfg.Timezone,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "order": order})
}

// -------------------------------------------------
// POST /api/student/orders
// -------------------------------------------------
func PlaceOrderHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return placeOrder(c, cfg, false)
	}
}

// -------------------------------------------------
// POST /api/student/special-order
// Özel sipariş: pencere kontrolüne tabi değil, kod ertesi güne kadar geçerli.
// -------------------------------------------------
func SpecialOrderHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return placeOrder(c, cfg, true)
	}
}

// -------------------------------------------------
// GET /api/student/orders
// -------------------------------------------------
func MyOrdersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := auth.ActorID(c)
		if userID == nil {
			return apperr.NotAuthenticated("Oturum bulunamadı")
		}

		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		var list []models.Order
		if err := database.DB.Preload("Items").
			Where("user_id = ?", *userID).
			Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Siparişler listelenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "orders": list})
	}
}

// -------------------------------------------------
// GET /api/student/balance
// Bakiye + son işlemler (polling ile tazelenir).
// -------------------------------------------------
func BalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := auth.ActorID(c)
		if userID == nil {
			return apperr.NotAuthenticated("Oturum bulunamadı")
		}

		var user models.User
		if err := database.DB.First(&user, *userID).Error; err != nil {
			return apperr.NotFound("Kullanıcı bulunamadı")
		}

		var txs []models.Transaction
		if err := database.DB.Where("user_id = ?", user.ID).
			Order("created_at DESC").Limit(20).Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		return c.JSON(fiber.Map{"ok": true, "balance": user.Balance, "transactions": txs})
	}
}
