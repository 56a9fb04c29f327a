package ledger

import (
	"fmt"
	"sync"
	"testing"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"
	"rivercafe-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newStudent(t *testing.T, db *gorm.DB, reg string, balance float64) *models.User {
	t.Helper()
	u := models.User{
		Name:         "Test Öğrenci " + reg,
		RegNumber:    &reg,
		Role:         models.RoleStudent,
		Balance:      balance,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func appCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(10))
	assert.NoError(t, ValidateAmount(0.01))
	assert.NoError(t, ValidateAmount(12.50))

	assert.Error(t, ValidateAmount(0))
	assert.Error(t, ValidateAmount(-5))
	assert.Error(t, ValidateAmount(1.005)) // 2 ondalıktan fazla
}

func TestResolveUser(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "2024-0042", 0)

	got, err := ResolveUser(db, fmt.Sprint(u.ID))
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = ResolveUser(db, "2024-0042")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = ResolveUser(db, "yok-boyle-biri")
	assert.Equal(t, apperr.CodeNotFound, appCode(t, err))

	_, err = ResolveUser(db, "  ")
	assert.Equal(t, apperr.CodeValidation, appCode(t, err))
}

func TestTopUp(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1001", 10)

	res, err := TopUp(nil, "1001", 5, "kasa yükleme")
	require.NoError(t, err)

	assert.Equal(t, 15.0, res.User.Balance)
	assert.Equal(t, models.TransactionTypeTopup, res.Tx.Type)
	assert.Equal(t, 5.0, res.Tx.Amount)
	assert.Equal(t, 10.0, res.Tx.BalanceBefore)
	assert.Equal(t, 15.0, res.Tx.BalanceAfter)

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, 15.0, fresh.Balance)
}

func TestTopUpUnknownUser(t *testing.T) {
	testutil.SetupDB(t)

	_, err := TopUp(nil, "9999", 5, "")
	assert.Equal(t, apperr.CodeNotFound, appCode(t, err))
}

func TestWithdrawInsufficientBalance(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1002", 10)

	_, err := Withdraw(nil, "1002", 20, "", false)
	assert.Equal(t, apperr.CodeInsufficientBalance, appCode(t, err))

	// bakiye değişmedi, transaction yazılmadı
	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, 10.0, fresh.Balance)

	var n int64
	db.Model(&models.Transaction{}).Where("user_id = ?", u.ID).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestWithdrawAllowNegative(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1003", 10)

	res, err := Withdraw(nil, "1003", 25, "manuel düzeltme", true)
	require.NoError(t, err)
	assert.Equal(t, -15.0, res.User.Balance)
	assert.Equal(t, 10.0, res.Tx.BalanceBefore)
	assert.Equal(t, -15.0, res.Tx.BalanceAfter)

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, -15.0, fresh.Balance)
}

func TestBalanceInvariantAcrossOperations(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1004", 0)

	_, err := TopUp(nil, "1004", 50, "")
	require.NoError(t, err)
	_, err = Withdraw(nil, "1004", 12.25, "", false)
	require.NoError(t, err)
	_, err = TopUp(nil, "1004", 0.75, "")
	require.NoError(t, err)

	// her kayıtta before + amount == after ve zincir kopmaz
	var txs []models.Transaction
	require.NoError(t, db.Where("user_id = ?", u.ID).Order("id ASC").Find(&txs).Error)
	require.Len(t, txs, 3)

	prev := 0.0
	for _, trx := range txs {
		assert.Equal(t, prev, trx.BalanceBefore)
		assert.InDelta(t, trx.BalanceBefore+trx.Amount, trx.BalanceAfter, 0.001)
		prev = trx.BalanceAfter
	}

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, 38.5, fresh.Balance)
}

func TestConcurrentWithdrawalsExhaustExactly(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1005", 30)

	// 5 eşzamanlı 10'luk çekim: yeterli-bakiye şartı UPDATE predicate'inde
	// olduğundan tam 3'ü başarılı olmalı
	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Withdraw(nil, "1005", 10, "", false)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, apperr.CodeInsufficientBalance, appCode(t, err))
		}
	}
	assert.Equal(t, 3, succeeded)

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, 0.0, fresh.Balance)

	var n int64
	db.Model(&models.Transaction{}).Where("user_id = ?", u.ID).Count(&n)
	assert.EqualValues(t, 3, n)
}

func TestDebitForOrderRollsBackWithCaller(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1006", 20)

	// çağıranın transaction'ı geri alınırsa düşüm de geri alınır
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		_, err := DebitForOrder(tx, u.ID, 15, nil)
		require.NoError(t, err)
		return fmt.Errorf("sipariş kaydı başarısız (simülasyon)")
	})
	require.Error(t, err)

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, 20.0, fresh.Balance)

	var n int64
	db.Model(&models.Transaction{}).Where("user_id = ?", u.ID).Count(&n)
	assert.EqualValues(t, 0, n)
}

func TestDebitForOrderInsufficient(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1007", 5)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		_, err := DebitForOrder(tx, u.ID, 10, nil)
		return err
	})
	assert.Equal(t, apperr.CodeInsufficientBalance, appCode(t, err))

	var fresh models.User
	require.NoError(t, db.First(&fresh, u.ID).Error)
	assert.Equal(t, 5.0, fresh.Balance)
}

func TestRefund(t *testing.T) {
	db := testutil.SetupDB(t)
	u := newStudent(t, db, "1008", 2)

	orderID := uint(42)
	res, err := Refund(nil, u.ID, 8, &orderID, "iptal iadesi")
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.User.Balance)
	assert.Equal(t, models.TransactionTypeRefund, res.Tx.Type)
	require.NotNil(t, res.Tx.OrderID)
	assert.Equal(t, orderID, *res.Tx.OrderID)
}

func TestReconcile(t *testing.T) {
	db := testutil.SetupDB(t)
	newStudent(t, db, "1009", 0)

	res1, err := TopUp(nil, "1009", 10, "")
	require.NoError(t, err)
	res2, err := TopUp(nil, "1009", 20, "")
	require.NoError(t, err)

	// geçerli + bozuk ID karışımı: bozuklar sessizce düşmez, raporlanır
	modified, invalid, err := Reconcile(nil, []string{fmt.Sprint(res1.Tx.ID), "not-an-id"}, "kasa sayımı")
	require.NoError(t, err)
	assert.EqualValues(t, 1, modified)
	assert.Equal(t, []string{"not-an-id"}, invalid)

	var trx models.Transaction
	require.NoError(t, db.First(&trx, res1.Tx.ID).Error)
	assert.True(t, trx.Reconciled)
	require.NotNil(t, trx.ReconciledAt)
	firstAt := *trx.ReconciledAt
	assert.Equal(t, "kasa sayımı", trx.ReconcileNote)

	// idempotent: tekrar işaretleme başarı sayılır, zaman damgası ezilmez
	modified, invalid, err = Reconcile(nil, []string{fmt.Sprint(res1.Tx.ID)}, "ikinci sayım")
	require.NoError(t, err)
	assert.EqualValues(t, 1, modified)
	assert.Empty(t, invalid)

	require.NoError(t, db.First(&trx, res1.Tx.ID).Error)
	assert.Equal(t, firstAt.Unix(), trx.ReconciledAt.Unix())

	// var olmayan ID ayrıca raporlanır
	modified, invalid, err = Reconcile(nil, []string{fmt.Sprint(res2.Tx.ID), "99999"}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, modified)
	assert.Equal(t, []string{"99999"}, invalid)

	// hiç geçerli ID yoksa hata değil, boş sonuç
	modified, invalid, err = Reconcile(nil, []string{"abc"}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 0, modified)
	assert.Equal(t, []string{"abc"}, invalid)

	// boş liste validasyon hatası
	_, _, err = Reconcile(nil, nil, "")
	assert.Equal(t, apperr.CodeValidation, appCode(t, err))
}
