package accounting

import (
	"fmt"
	"time"

	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// -------------------------------------------------
// GET /api/accounting/transactions/export?user=&type=&from=&to=
// Filtrelenmiş işlem listesini XLSX olarak indirir (kasa mutabakatı için).
// -------------------------------------------------
func ExportTransactionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq, err := transactionQuery(c)
		if err != nil {
			return err
		}

		var txs []models.Transaction
		if err := dbq.Order("created_at ASC").Limit(10000).Find(&txs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "İşlemler listelenemedi")
		}

		f := excelize.NewFile()
		defer f.Close()
		sheet := "Islemler"
		f.SetSheetName("Sheet1", sheet)

		headers := []interface{}{
			"ID", "Tarih", "Kullanıcı ID", "Tip", "Tutar",
			"Önceki Bakiye", "Sonraki Bakiye", "Sipariş ID", "Not", "Mutabakat",
		}
		if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
		}

		for i, tx := range txs {
			orderID := ""
			if tx.OrderID != nil {
				orderID = fmt.Sprint(*tx.OrderID)
			}
			reconciled := "hayır"
			if tx.Reconciled {
				reconciled = "evet"
			}
			row := []interface{}{
				tx.ID,
				tx.CreatedAt.Format("2006-01-02 15:04:05"),
				tx.UserID,
				string(tx.Type),
				tx.Amount,
				tx.BalanceBefore,
				tx.BalanceAfter,
				orderID,
				tx.Note,
				reconciled,
			}
			cell := fmt.Sprintf("A%d", i+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Rapor oluşturulamadı")
			}
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Rapor yazılamadı")
		}

		filename := fmt.Sprintf("islemler-%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf.Bytes())
	}
}
