package pickup

import (
	"errors"
	"strings"
	"time"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"gorm.io/gorm"
)

// Ref: sipariş ya ID ile ya da teslim kodu ile çözülür. ID öncelikli.
type Ref struct {
	OrderID *uint
	Code    string
}

type CollectResult struct {
	Order        models.Order `json:"order"`
	IssuedToName string       `json:"issued_to_name"`
}

// Collect: siparişi tam bir kez teslim edilmiş olarak işaretler.
//
// Kurallar:
//   - kod süresi dolmuşsa Expired (NotFound'dan ayrı)
//   - sadece preparing/ready durumundan teslim edilebilir
//   - collected_at yalnızca boşsa yazılır; yarışta ikinci istek orijinal
//     zaman damgasını ezemez ve InvalidState alır
//   - harici siparişlerde bağlı ExternalCode ilk teslimde kapatılır;
//     zaten kapalıysa hatasızca mevcut issued_to_name döner
func Collect(actorID *uint, ref Ref, collectedByRegNumber string) (*CollectResult, error) {
	var result CollectResult

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		var err error
		switch {
		case ref.OrderID != nil:
			err = tx.First(&o, *ref.OrderID).Error
		case strings.TrimSpace(ref.Code) != "":
			err = tx.Where("code = ?", strings.TrimSpace(ref.Code)).First(&o).Error
		default:
			return apperr.Validation("Sipariş ID veya teslim kodu zorunlu")
		}
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Sipariş bulunamadı")
			}
			return err
		}

		now := time.Now()
		if o.ExpiresAt != nil && o.ExpiresAt.Before(now) {
			return apperr.Expired("Teslim kodunun süresi dolmuş")
		}

		if o.Status != models.OrderStatusPreparing && o.Status != models.OrderStatusReady {
			return apperr.InvalidState("Sipariş teslim edilebilir durumda değil: " + string(o.Status))
		}

		updates := map[string]interface{}{
			"status":       models.OrderStatusCollected,
			"collected_at": gorm.Expr("COALESCE(collected_at, ?)", now),
		}
		if collectedByRegNumber != "" {
			updates["collected_by_reg_number"] = collectedByRegNumber
		}
		if actorID != nil {
			updates["collected_by_operator"] = *actorID
		}

		// Durum şartı UPDATE predicate'inde: yarışta ikinci gelen 0 satır görür
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", o.ID, []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady}).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("Sipariş bu sırada başka bir terminalden teslim edildi")
		}

		if o.External {
			var ec models.ExternalCode
			if err := tx.Where("order_id = ?", o.ID).First(&ec).Error; err == nil {
				result.IssuedToName = ec.IssuedToName
				if !ec.Used {
					if err := tx.Model(&ec).
						Where("used = ?", false).
						Updates(map[string]interface{}{
							"used":               true,
							"used_at":            now,
							"used_by_reg_number": collectedByRegNumber,
						}).Error; err != nil {
						return err
					}
				}
				// zaten kullanılmışsa sadece isim döner, hata yok
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		return tx.Preload("Items").First(&result.Order, o.ID).Error
	})
	if err != nil {
		return nil, err
	}

	// Harici kod sonucundan bağımsız olarak audit yazılır
	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.collect",
		Collection: "orders",
		DocumentID: &result.Order.ID,
		Changes: map[string]interface{}{
			"code":                    result.Order.Code,
			"collected_by_reg_number": collectedByRegNumber,
			"external":                result.Order.External,
		},
	})
	return &result, nil
}
