package pickup

import (
	"fmt"
	"testing"
	"time"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/models"
	"rivercafe-backend/internal/orders"
	"rivercafe-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStudent(t *testing.T, db *gorm.DB, reg string, balance float64) *models.User {
	t.Helper()
	u := models.User{
		Name:         "Öğrenci " + reg,
		RegNumber:    &reg,
		Role:         models.RoleStudent,
		Balance:      balance,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

var productSeq int

func seedReadyOrder(t *testing.T, db *gorm.DB, u *models.User) *models.Order {
	t.Helper()
	productSeq++
	p := models.Product{Name: fmt.Sprintf("Tost %d", productSeq), Category: "yemek", Price: 8, Available: true}
	require.NoError(t, db.Create(&p).Error)

	o, _, err := orders.Place(orders.PlaceParams{
		UserID:     &u.ID,
		RegNumber:  *u.RegNumber,
		Items:      []orders.ItemInput{{ProductID: p.ID, Qty: 1}},
		CodePrefix: "RC",
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusReady).Error)
	o.Status = models.OrderStatusReady
	return o
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestCollectByCode(t *testing.T) {
	db := testutil.SetupDB(t)
	u := seedStudent(t, db, "4001", 100)
	staff := seedStudent(t, db, "4000", 0)
	o := seedReadyOrder(t, db, u)

	res, err := Collect(&staff.ID, Ref{Code: " " + o.Code + " "}, "4001")
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusCollected, res.Order.Status)
	require.NotNil(t, res.Order.CollectedAt)
	assert.Equal(t, "4001", res.Order.CollectedByRegNumber)
	require.NotNil(t, res.Order.CollectedByOperator)
	assert.Equal(t, staff.ID, *res.Order.CollectedByOperator)
	assert.NotEmpty(t, res.Order.Items)
}

func TestCollectByIDTakesPriority(t *testing.T) {
	db := testutil.SetupDB(t)
	u := seedStudent(t, db, "4002", 100)
	o := seedReadyOrder(t, db, u)
	other := seedReadyOrder(t, db, u)

	// hem ID hem kod verilirse ID kazanır
	res, err := Collect(nil, Ref{OrderID: &o.ID, Code: other.Code}, "4002")
	require.NoError(t, err)
	assert.Equal(t, o.ID, res.Order.ID)
}

func TestCollectTwiceKeepsOriginalTimestamp(t *testing.T) {
	db := testutil.SetupDB(t)
	u := seedStudent(t, db, "4003", 100)
	o := seedReadyOrder(t, db, u)

	res, err := Collect(nil, Ref{Code: o.Code}, "4003")
	require.NoError(t, err)
	firstAt := *res.Order.CollectedAt

	// ikinci teslim denemesi reddedilir, zaman damgası ezilmez
	_, err = Collect(nil, Ref{Code: o.Code}, "4003")
	assert.Equal(t, apperr.CodeInvalidState, errCode(t, err))

	var fresh models.Order
	require.NoError(t, db.First(&fresh, o.ID).Error)
	require.NotNil(t, fresh.CollectedAt)
	assert.Equal(t, firstAt.Unix(), fresh.CollectedAt.Unix())
	assert.Equal(t, models.OrderStatusCollected, fresh.Status)
}

func TestCollectExpiredCode(t *testing.T) {
	db := testutil.SetupDB(t)
	u := seedStudent(t, db, "4004", 100)
	o := seedReadyOrder(t, db, u)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("expires_at", past).Error)

	// süresi dolmuş kod not_found değil expired döner
	_, err := Collect(nil, Ref{Code: o.Code}, "4004")
	assert.Equal(t, apperr.CodeExpired, errCode(t, err))

	var fresh models.Order
	require.NoError(t, db.First(&fresh, o.ID).Error)
	assert.Equal(t, models.OrderStatusReady, fresh.Status)
	assert.Nil(t, fresh.CollectedAt)
}

func TestCollectWrongState(t *testing.T) {
	db := testutil.SetupDB(t)
	u := seedStudent(t, db, "4005", 100)
	o := seedReadyOrder(t, db, u)

	// placed: henüz hazırlanmadı, teslim edilemez
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusPlaced).Error)
	_, err := Collect(nil, Ref{Code: o.Code}, "4005")
	assert.Equal(t, apperr.CodeInvalidState, errCode(t, err))

	// cancelled de teslim edilemez
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusCancelled).Error)
	_, err = Collect(nil, Ref{Code: o.Code}, "4005")
	assert.Equal(t, apperr.CodeInvalidState, errCode(t, err))
}

func TestCollectUnknownRef(t *testing.T) {
	testutil.SetupDB(t)

	_, err := Collect(nil, Ref{Code: "RC-YOKYOK"}, "")
	assert.Equal(t, apperr.CodeNotFound, errCode(t, err))

	_, err = Collect(nil, Ref{}, "")
	assert.Equal(t, apperr.CodeValidation, errCode(t, err))
}

func TestCollectExternalClosesCode(t *testing.T) {
	db := testutil.SetupDB(t)

	p := models.Product{Name: "Ayran", Category: "icecek", Price: 3, Available: true}
	require.NoError(t, db.Create(&p).Error)

	o, _, err := orders.Place(orders.PlaceParams{
		External:     true,
		IssuedToName: "Misafir Veli",
		Items:        []orders.ItemInput{{ProductID: p.ID, Qty: 2}},
		CodePrefix:   "RC",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusReady).Error)

	res, err := Collect(nil, Ref{Code: o.Code}, "")
	require.NoError(t, err)
	assert.Equal(t, "Misafir Veli", res.IssuedToName)

	var ec models.ExternalCode
	require.NoError(t, db.Where("order_id = ?", o.ID).First(&ec).Error)
	assert.True(t, ec.Used)
	assert.NotNil(t, ec.UsedAt)
}

func TestCollectExternalAlreadyUsedCodeIsTolerated(t *testing.T) {
	db := testutil.SetupDB(t)

	p := models.Product{Name: "Su", Category: "icecek", Price: 1, Available: true}
	require.NoError(t, db.Create(&p).Error)

	o, _, err := orders.Place(orders.PlaceParams{
		External:     true,
		IssuedToName: "Misafir",
		Items:        []orders.ItemInput{{ProductID: p.ID, Qty: 1}},
		CodePrefix:   "RC",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Order{}).Where("id = ?", o.ID).
		Update("status", models.OrderStatusReady).Error)

	// kod dışarıdan kapatılmış olsa bile teslim akışı hata üretmez
	usedAt := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.ExternalCode{}).Where("order_id = ?", o.ID).
		Updates(map[string]interface{}{"used": true, "used_at": usedAt}).Error)

	res, err := Collect(nil, Ref{Code: o.Code}, "")
	require.NoError(t, err)
	assert.Equal(t, "Misafir", res.IssuedToName)

	var ec models.ExternalCode
	require.NoError(t, db.Where("order_id = ?", o.ID).First(&ec).Error)
	require.NotNil(t, ec.UsedAt)
	// orijinal kapanış zamanı ezilmez
	assert.Equal(t, usedAt.Unix(), ec.UsedAt.Unix())
}
