package accounting

import (
	"fmt"
	"time"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/ledger"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TopUpRequest struct {
	UserIDOrReg string  `json:"user_id_or_reg"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note"`
}

type WithdrawRequest struct {
	UserIDOrReg   string  `json:"user_id_or_reg"`
	Amount        float64 `json:"amount"`
	Note          string  `json:"note"`
	AllowNegative bool    `json:"allow_negative"`
}

type ReconcileRequest struct {
	TransactionIDs []interface{} `json:"transaction_ids"`
	Note           string        `json:"note"`
}

// -------------------------------------------------
// POST /api/accounting/topup
// -------------------------------------------------
func TopUpHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body TopUpRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		result, err := ledger.TopUp(auth.ActorID(c), body.UserIDOrReg, body.Amount, body.Note)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{"ok": true, "user": result.User, "tx": result.Tx})
	}
}

// -------------------------------------------------
// POST /api/accounting/withdraw
// -------------------------------------------------
func WithdrawHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body WithdrawRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		result, err := ledger.Withdraw(auth.ActorID(c), body.UserIDOrReg, body.Amount, body.Note, body.AllowNegative)
		if err != nil {
			return err
		}

		return c.JSON(fiber.Map{"ok": true, "user": result.User, "tx": result.Tx})
	}
}

// -------------------------------------------------
// POST /api/accounting/reconcile
// -------------------------------------------------
func ReconcileHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ReconcileRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		// ID'ler sayı veya string gelebilir; hepsi string'e normalize edilir
		rawIDs := make([]string, 0, len(body.TransactionIDs))
		for _, v := range body.TransactionIDs {
			switch t := v.(type) {
			case float64:
				rawIDs = append(rawIDs, fmt.Sprintf("%.0f", t))
			case string:
				rawIDs = append(rawIDs, t)
			default:
				rawIDs = append(rawIDs, fmt.Sprint(v))
			}
		}

		modified, invalidIDs, err := ledger.Reconcile(auth.ActorID(c), rawIDs, body.Note)
		if err != nil {
			return err
		}
		if invalidIDs == nil {
			invalidIDs = []string{}
		}

		return c.JSON(fiber.Map{"ok": true, "modified_count": modified, "invalid_ids": invalidIDs})
	}
}

// transactionQuery: liste ve export için ortak filtreler.
// user, type, from, to query parametreleri.
func transactionQuery(c *fiber.Ctx) (*gorm.DB, error) {
	dbq := database.DB.Model(&models.Transaction{})

	if userRef := c.Query("user"); userRef != "" {
		user, err := ledger.ResolveUser(database.DB, userRef)
		if err != nil {
			return nil, err
		}
		dbq = dbq.Where("user_id = ?", user.ID)
	}
	if txType := c.Query("type"); txType != "" {
		dbq = dbq.Where("type = ?", txType)
	}
	if from := c.Query("from"); from != "" {
		d, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, apperr.Validation("from formatı 'YYYY-MM-DD' olmalı")
		}
		dbq = dbq.Where("created_at >= ?", d)
	}
	if to := c.Query("to"); to != "" {
		d, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, apperr.Validation("to formatı 'YYYY-MM-DD' olmalı")
		}
		dbq = dbq.Where("created_at < ?", d.AddDate(0, 0, 1))
	}
	return dbq, nil
}

// -------------------------------------------------
// GET /api/accounting/transactions?user=&type=&from=&to=&limit=&skip=
// -------------------------------------------------
func ListTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq, err := transactionQuery(c)
		if err != nil {
			return err
		}

		limit := c.QueryInt("limit", 50)
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		skip := c.QueryInt("skip", 0)
		if skip < 0 {
			skip = 0
		}

		var total int64
		if err := dbq.Count(&total).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler sayılamadı")
		}

		var txs []models.Transaction
		if err := dbq.Order("created_at DESC").Limit(limit).Offset(skip).Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		return c.JSON(fiber.Map{"ok": true, "total": total, "transactions": txs})
	}
}
