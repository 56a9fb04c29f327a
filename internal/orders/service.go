package orders

import (
	"errors"
	"strings"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/ledger"
	"rivercafe-backend/internal/models"

	"gorm.io/gorm"
)

// Sipariş durumu ve item prepared_count alanları SADECE bu paket ve
// pickup paketi tarafından yazılır.

var openStatuses = []models.OrderStatus{
	models.OrderStatusPlaced,
	models.OrderStatusPreparing,
	models.OrderStatusReady,
}

type StatusContext struct {
	PrepBy               *uint
	CollectedByRegNumber string
}

type itemCandidate struct {
	ItemID  uint
	OrderID uint
}

// recompute: toplam hazırlanan adedi ve türetilmiş durumu tek yerden
// günceller. Aggregate hiçbir zaman uygunluk kapısı olarak kullanılmaz,
// her mutasyondan sonra item'lardan yeniden türetilir.
func recompute(tx *gorm.DB, orderID uint) (*models.Order, error) {
	var o models.Order
	if err := tx.Preload("Items").First(&o, orderID).Error; err != nil {
		return nil, err
	}

	if o.Status == models.OrderStatusCollected || o.Status == models.OrderStatusCancelled {
		return &o, nil
	}

	o.PreparedCount = PreparedQty(o.Items)
	o.Status = DeriveStatus(o.Items)

	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"prepared_count": o.PreparedCount,
		"status":         o.Status,
	}).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// findCandidates: ürün adına göre uygun item adayları. Tam ad eşleşmesi,
// büyük/küçük harf duyarsız; ortak ön ek taşıyan ürünler karışmaz.
func findCandidates(tx *gorm.DB, name string, forPrepare bool) ([]itemCandidate, error) {
	q := tx.Table("order_items").
		Select("order_items.id AS item_id, order_items.order_id AS order_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("LOWER(order_items.name) = LOWER(?)", name).
		Where("orders.status IN ?", openStatuses)

	if forPrepare {
		// FIFO: mutfak adaleti için en eski sipariş önce hazırlanır
		q = q.Where("order_items.prepared_count < order_items.qty").
			Order("orders.created_at ASC")
	} else {
		// LIFO: düzeltmeler büyük olasılıkla en son işlenen siparişi hedefler
		q = q.Where("order_items.prepared_count > 0").
			Order("orders.created_at DESC")
	}

	var cands []itemCandidate
	if err := q.Limit(5).Scan(&cands).Error; err != nil {
		return nil, err
	}
	return cands, nil
}

// PrepareOneUnit: eşleşen üründen bir adet hazırlar. Koşullu artış tutmazsa
// (başka bir terminal önce davrandıysa) sıradaki adaya geçilir; aday
// kalmayınca NoEligibleOrder döner.
func PrepareOneUnit(actorID *uint, productName string) (*models.Order, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return nil, apperr.Validation("Ürün adı zorunlu")
	}

	var out *models.Order
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		cands, err := findCandidates(tx, name, true)
		if err != nil {
			return err
		}
		if len(cands) == 0 {
			return apperr.NoEligibleOrder()
		}

		for _, cand := range cands {
			res := tx.Model(&models.OrderItem{}).
				Where("id = ? AND prepared_count < qty", cand.ItemID).
				UpdateColumn("prepared_count", gorm.Expr("prepared_count + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			out, err = recompute(tx, cand.OrderID)
			return err
		}
		return apperr.NoEligibleOrder()
	})
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.prepare",
		Collection: "orders",
		DocumentID: &out.ID,
		Changes: map[string]interface{}{
			"product":        name,
			"delta":          1,
			"prepared_count": out.PreparedCount,
			"status":         out.Status,
		},
	})
	return out, nil
}

// UnprepareOneUnit: PrepareOneUnit'in ayna işlemi; personel hatası düzeltmek
// için kullanılır. 0'ın altına inilmez, predicate bunu garanti eder.
func UnprepareOneUnit(actorID *uint, productName string) (*models.Order, error) {
	name := strings.TrimSpace(productName)
	if name == "" {
		return nil, apperr.Validation("Ürün adı zorunlu")
	}

	var out *models.Order
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		cands, err := findCandidates(tx, name, false)
		if err != nil {
			return err
		}
		if len(cands) == 0 {
			return apperr.NoEligibleOrder()
		}

		for _, cand := range cands {
			res := tx.Model(&models.OrderItem{}).
				Where("id = ? AND prepared_count > 0", cand.ItemID).
				UpdateColumn("prepared_count", gorm.Expr("prepared_count - 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				continue
			}

			out, err = recompute(tx, cand.OrderID)
			return err
		}
		return apperr.NoEligibleOrder()
	})
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.unprepare",
		Collection: "orders",
		DocumentID: &out.ID,
		Changes: map[string]interface{}{
			"product":        name,
			"delta":          -1,
			"prepared_count": out.PreparedCount,
			"status":         out.Status,
		},
	})
	return out, nil
}

// AdjustPrepared: tek sipariş üzerindeki +1/-1 kontrolü (sipariş detay
// ekranı). Sınırlar aşılırsa hata yerine sessizce kenetlenir (clamp).
func AdjustPrepared(actorID *uint, orderID uint, delta int) (*models.Order, error) {
	if delta != 1 && delta != -1 {
		return nil, apperr.Validation("Delta +1 veya -1 olmalı")
	}

	var out *models.Order
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.Preload("Items").First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Sipariş bulunamadı")
			}
			return err
		}
		if o.Status == models.OrderStatusCollected || o.Status == models.OrderStatusCancelled {
			return apperr.InvalidState("Sipariş artık hazırlama aşamasında değil")
		}

		var target *models.OrderItem
		if delta > 0 {
			for i := range o.Items {
				if o.Items[i].PreparedCount < o.Items[i].Qty {
					target = &o.Items[i]
					break
				}
			}
		} else {
			for i := len(o.Items) - 1; i >= 0; i-- {
				if o.Items[i].PreparedCount > 0 {
					target = &o.Items[i]
					break
				}
			}
		}
		if target == nil {
			// clamp: değişecek item yok, sipariş olduğu gibi döner
			out = &o
			return nil
		}

		cond := "id = ? AND prepared_count < qty"
		expr := gorm.Expr("prepared_count + 1")
		if delta < 0 {
			cond = "id = ? AND prepared_count > 0"
			expr = gorm.Expr("prepared_count - 1")
		}
		res := tx.Model(&models.OrderItem{}).Where(cond, target.ID).UpdateColumn("prepared_count", expr)
		if res.Error != nil {
			return res.Error
		}

		var err error
		out, err = recompute(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.adjust_prepared",
		Collection: "orders",
		DocumentID: &out.ID,
		Changes: map[string]interface{}{
			"delta":          delta,
			"prepared_count": out.PreparedCount,
			"status":         out.Status,
		},
	})
	return out, nil
}

// SetStatus: açık durum ataması. Türetilmiş kuralı bilinçli olarak atlayan
// manuel düzeltme kapısıdır; olağan akış değildir.
//
// Geçiş koşullu UPDATE ile uygulanır: predicate okunan önceki durumu içerir,
// araya başka bir terminal girdiyse yazma tutmaz ve InvalidState döner.
// Öğrenci siparişi iptal edilirken iade de aynı transaction'da ve geçiş
// gerçekten cancelled dışından geldiyse uygulanır; iki eşzamanlı iptal
// isteği bedeli iki kez iade edemez.
func SetStatus(actorID *uint, orderID uint, target models.OrderStatus, sctx StatusContext) (*models.Order, error) {
	var out models.Order
	var from models.OrderStatus
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := tx.First(&o, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Sipariş bulunamadı")
			}
			return err
		}
		from = o.Status

		if err := CanSetStatus(o.Status, target); err != nil {
			return err
		}

		updates := map[string]interface{}{"status": target}
		if target == models.OrderStatusPreparing && sctx.PrepBy != nil {
			updates["prep_by"] = *sctx.PrepBy
		}
		if target == models.OrderStatusCollected {
			// Yarış altında ikinci yazma orijinal zaman damgasını ezmemeli
			updates["collected_at"] = gorm.Expr("COALESCE(collected_at, CURRENT_TIMESTAMP)")
			if sctx.CollectedByRegNumber != "" {
				updates["collected_by_reg_number"] = sctx.CollectedByRegNumber
			}
			if actorID != nil {
				updates["collected_by_operator"] = *actorID
			}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, o.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.InvalidState("Sipariş durumu bu sırada başka bir terminalden değişti")
		}

		// İade yalnızca cancelled dışından gelen gerçek bir iptal geçişinde
		if target == models.OrderStatusCancelled && o.Status != models.OrderStatusCancelled &&
			!o.External && o.UserID != nil && o.Total > 0 {
			if _, err := ledger.RefundInTx(tx, actorID, *o.UserID, o.Total, &o.ID, "Sipariş iptali: "+o.Code); err != nil {
				return err
			}
		}

		return tx.Preload("Items").First(&out, orderID).Error
	})
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.set_status",
		Collection: "orders",
		DocumentID: &out.ID,
		Changes:    map[string]interface{}{"from": from, "status": target},
	})
	return &out, nil
}

// SetPrepBy: hazırlamaya başlayan personeli damgalar, durumu değiştirmez.
func SetPrepBy(actorID *uint, orderID uint, prepBy uint) (*models.Order, error) {
	var o models.Order
	if err := database.DB.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Sipariş bulunamadı")
		}
		return nil, err
	}

	if err := database.DB.Model(&o).UpdateColumn("prep_by", prepBy).Error; err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "order.set_prep_by",
		Collection: "orders",
		DocumentID: &o.ID,
		Changes:    map[string]interface{}{"prep_by": prepBy},
	})

	if err := database.DB.Preload("Items").First(&o, orderID).Error; err != nil {
		return nil, err
	}
	return &o, nil
}
