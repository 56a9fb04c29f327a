package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"gorm.io/gorm"
)

// Bakiye SADECE bu paket üzerinden değişir. Her değişim tek bir koşullu
// UPDATE ile uygulanır ve aynı veritabanı transaction'ı içinde karşılık
// gelen Transaction kaydı yazılır.

type Result struct {
	User models.User        `json:"user"`
	Tx   models.Transaction `json:"tx"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidateAmount: pozitif, sonlu ve en fazla 2 ondalık basamak.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return apperr.Validation("Tutar pozitif bir sayı olmalı")
	}
	if round2(amount) != amount {
		return apperr.Validation("Tutar en fazla 2 ondalık basamak içerebilir")
	}
	return nil
}

// ResolveUser: sayısal değer kullanıcı ID'si, diğer her şey okul numarası.
func ResolveUser(db *gorm.DB, ref string) (*models.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.Validation("Kullanıcı ID veya okul numarası zorunlu")
	}

	var user models.User
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if err := db.First(&user, uint(id)).Error; err == nil {
			return &user, nil
		}
	}
	if err := db.Where("reg_number = ?", ref).First(&user).Error; err != nil {
		return nil, apperr.NotFound("Kullanıcı bulunamadı")
	}
	return &user, nil
}

// applyDelta: bakiye değişiminin atomik çekirdeği.
//
// requireSufficient true ise yeterli-bakiye şartı UPDATE'in kendi
// predicate'idir; şart sağlanmazsa yazma hiç uygulanmaz. Ayrı bir
// read-then-write yarışı yoktur. balance_before, güncelleme SONRASI aynı
// transaction içinde okunan değerden türetilir (after - delta); önceden
// okunmuş bir değer asla kullanılmaz.
func applyDelta(tx *gorm.DB, userID uint, delta float64, requireSufficient bool) (before, after float64, err error) {
	q := tx.Model(&models.User{}).Where("id = ?", userID)
	if requireSufficient && delta < 0 {
		q = q.Where("balance >= ?", -delta)
	}

	res := q.UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return 0, 0, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return 0, 0, err
		}
		if count == 0 {
			return 0, 0, apperr.NotFound("Kullanıcı bulunamadı")
		}
		return 0, 0, apperr.InsufficientBalance()
	}

	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return 0, 0, err
	}
	after = round2(user.Balance)
	before = round2(after - delta)
	return before, after, nil
}

// apply: delta + transaction kaydını tek veritabanı transaction'ında uygular.
func apply(userID uint, delta float64, txType models.TransactionType, note string, actorID *uint, requireSufficient bool) (*Result, error) {
	var result Result
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		before, after, err := applyDelta(tx, userID, delta, requireSufficient)
		if err != nil {
			return err
		}

		trx := models.Transaction{
			UserID:        userID,
			Type:          txType,
			Amount:        delta,
			BalanceBefore: before,
			BalanceAfter:  after,
			Note:          note,
			ActorID:       actorID,
		}
		if err := tx.Create(&trx).Error; err != nil {
			return err
		}
		result.Tx = trx

		return tx.First(&result.User, userID).Error
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TopUp: bakiye yükleme. amount > 0 olmalı.
func TopUp(actorID *uint, userRef string, amount float64, note string) (*Result, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	user, err := ResolveUser(database.DB, userRef)
	if err != nil {
		return nil, err
	}

	result, err := apply(user.ID, amount, models.TransactionTypeTopup, note, actorID, false)
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "topup",
		Collection: "transactions",
		DocumentID: &result.Tx.ID,
		Changes: map[string]interface{}{
			"user_id":        user.ID,
			"amount":         amount,
			"balance_before": result.Tx.BalanceBefore,
			"balance_after":  result.Tx.BalanceAfter,
		},
	})
	return result, nil
}

// Withdraw: bakiye düşme. allowNegative=false iken bakiye eksiye düşemez;
// kontrol UPDATE predicate'inin parçasıdır, ayrı bir okuma ile yapılmaz.
func Withdraw(actorID *uint, userRef string, amount float64, note string, allowNegative bool) (*Result, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	user, err := ResolveUser(database.DB, userRef)
	if err != nil {
		return nil, err
	}

	result, err := apply(user.ID, -amount, models.TransactionTypeAdjustment, note, actorID, !allowNegative)
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "withdraw",
		Collection: "transactions",
		DocumentID: &result.Tx.ID,
		Changes: map[string]interface{}{
			"user_id":        user.ID,
			"amount":         -amount,
			"allow_negative": allowNegative,
			"balance_before": result.Tx.BalanceBefore,
			"balance_after":  result.Tx.BalanceAfter,
		},
	})
	return result, nil
}

// DebitForOrder: sipariş ödemesi. Çağıranın transaction'ı içinde koşar;
// sipariş oluşturma ile aynı transaction'da olduğundan debit başarısızsa
// sipariş de oluşmaz. Yetersiz bakiye ayrı bir hata olarak döner.
func DebitForOrder(tx *gorm.DB, userID uint, amount float64, orderID *uint) (*models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	before, after, err := applyDelta(tx, userID, -amount, true)
	if err != nil {
		return nil, err
	}

	trx := models.Transaction{
		UserID:        userID,
		Type:          models.TransactionTypeOrder,
		Amount:        -amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		OrderID:       orderID,
		ActorID:       &userID,
	}
	if err := tx.Create(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

// RefundInTx: sipariş iadesi; çağıranın transaction'ı içinde koşar.
// İptal akışında durum geçişiyle aynı transaction'da olmak için kullanılır:
// geçiş geri alınırsa iade de geri alınır.
func RefundInTx(tx *gorm.DB, actorID *uint, userID uint, amount float64, orderID *uint, note string) (*models.Transaction, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	before, after, err := applyDelta(tx, userID, amount, false)
	if err != nil {
		return nil, err
	}

	trx := models.Transaction{
		UserID:        userID,
		Type:          models.TransactionTypeRefund,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		OrderID:       orderID,
		Note:          note,
		ActorID:       actorID,
	}
	if err := tx.Create(&trx).Error; err != nil {
		return nil, err
	}
	return &trx, nil
}

// Refund: bağımsız iade çağrıları için RefundInTx'in tek transaction'lık hali.
func Refund(actorID *uint, userID uint, amount float64, orderID *uint, note string) (*Result, error) {
	var result Result
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		trx, err := RefundInTx(tx, actorID, userID, amount, orderID, note)
		if err != nil {
			return err
		}
		result.Tx = *trx
		return tx.First(&result.User, userID).Error
	})
	if err != nil {
		return nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "refund",
		Collection: "transactions",
		DocumentID: &result.Tx.ID,
		Changes:    map[string]interface{}{"user_id": userID, "amount": amount, "order_id": orderID},
	})
	return &result, nil
}

// Reconcile: işlemleri kasa sayımına karşı doğrulanmış olarak işaretler.
// Idempotent: zaten reconciled bir işlem tekrar işaretlenirse no-op'tur ama
// başarı sayılır. Geçersiz ID'ler sessizce düşürülmez, ayrıca raporlanır.
func Reconcile(actorID *uint, rawIDs []string, note string) (modified int64, invalidIDs []string, err error) {
	if len(rawIDs) == 0 {
		return 0, nil, apperr.Validation("En az bir işlem ID'si gerekli")
	}

	var ids []uint
	for _, raw := range rawIDs {
		id, parseErr := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if parseErr != nil || id == 0 {
			invalidIDs = append(invalidIDs, raw)
			continue
		}
		ids = append(ids, uint(id))
	}

	if len(ids) == 0 {
		return 0, invalidIDs, nil
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var existing []models.Transaction
		if err := tx.Where("id IN ?", ids).Find(&existing).Error; err != nil {
			return err
		}

		found := make(map[uint]bool, len(existing))
		for _, trx := range existing {
			found[trx.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				invalidIDs = append(invalidIDs, fmt.Sprint(id))
			}
		}

		// Sadece henüz reconciled olmayanlar güncellenir; tekrar işaretleme
		// orijinal reconciled_at değerini ezmez.
		res := tx.Model(&models.Transaction{}).
			Where("id IN ? AND reconciled = ?", ids, false).
			Updates(map[string]interface{}{
				"reconciled":     true,
				"reconciled_at":  gorm.Expr("CURRENT_TIMESTAMP"),
				"reconciled_by":  actorID,
				"reconcile_note": note,
			})
		if res.Error != nil {
			return res.Error
		}

		// Zaten reconciled olanlar da başarı sayılır
		modified = int64(len(existing))
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    actorID,
		Action:     "reconcile",
		Collection: "transactions",
		Changes:    map[string]interface{}{"ids": ids, "invalid_ids": invalidIDs, "note": note},
	})
	return modified, invalidIDs, nil
}
