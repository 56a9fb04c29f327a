package orders

import (
	"fmt"
	"strings"
	"time"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/ledger"
	"rivercafe-backend/internal/models"
	"rivercafe-backend/internal/window"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemInput struct {
	ProductID uint `json:"product_id"`
	Qty       int  `json:"qty"`
}

type PlaceParams struct {
	UserID       *uint  // öğrenci siparişinde dolu
	RegNumber    string
	External     bool   // nakit/misafir siparişi, bakiye düşülmez
	Special      bool   // özel sipariş: pencere kontrolüne tabi değil
	IssuedToName string // harici siparişte kod sahibinin adı
	Note         string
	Items        []ItemInput
	CodePrefix   string
	Timezone     string
}

// NewCode: kısa, paylaşılabilir teslim kodu. Ör: "RC-3F9A2C".
func NewCode(prefix string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s", prefix, suffix)
}

// newUniqueCode: çakışmayan teslim kodu seçer. Denemeler tükenirse boş kodla
// devam edilmez, hata döner; unique index son emniyettir.
func newUniqueCode(tx *gorm.DB, gen func() string) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code := gen()
		var n int64
		if err := tx.Model(&models.Order{}).Where("code = ?", code).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("benzersiz teslim kodu üretilemedi")
}

// snapshotItems: ürünleri yükler, ad/fiyatı sipariş anında dondurur.
func snapshotItems(tx *gorm.DB, inputs []ItemInput) ([]models.OrderItem, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, apperr.Validation("Sipariş en az bir ürün içermeli")
	}

	var items []models.OrderItem
	total := 0.0
	for _, in := range inputs {
		if in.Qty <= 0 || in.Qty > 50 {
			return nil, 0, apperr.Validation("Ürün adedi 1-50 arasında olmalı")
		}

		var p models.Product
		if err := tx.First(&p, in.ProductID).Error; err != nil {
			return nil, 0, apperr.NotFound(fmt.Sprintf("Ürün bulunamadı: %d", in.ProductID))
		}
		if !p.Available {
			return nil, 0, apperr.Validation("Ürün şu an satışta değil: " + p.Name)
		}

		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Qty:       in.Qty,
		})
		total += p.Price * float64(in.Qty)
	}
	return items, total, nil
}

// checkWindows: sipariş verilen her ürün kategorisi için en az bir aktif
// pencere şu an açık olmalı. Kategoriye özel hiç pencere tanımlı değilse
// (genel pencere de yoksa) o kategori serbesttir; pencereler sadece
// tanımlandıklarında kısıtlar.
func checkWindows(tx *gorm.DB, items []models.OrderItem, fallbackTZ string, now time.Time) error {
	categories := map[string]bool{}
	for _, it := range items {
		var p models.Product
		if err := tx.First(&p, it.ProductID).Error; err == nil {
			categories[p.Category] = true
		}
	}

	var global []models.OrderingWindow
	if err := tx.Where("active = ? AND category = ?", true, "").Find(&global).Error; err != nil {
		return err
	}

	for category := range categories {
		var ws []models.OrderingWindow
		if err := tx.Where("active = ? AND category = ?", true, category).Find(&ws).Error; err != nil {
			return err
		}
		ws = append(ws, global...)
		if len(ws) == 0 {
			continue
		}
		if !window.AnyOpen(ws, now, fallbackTZ) {
			return apperr.InvalidState("Bu kategori için sipariş penceresi şu an kapalı: " + category)
		}
	}
	return nil
}

// Place: sipariş oluşturma. Öğrenci siparişinde bakiye düşümü ve sipariş
// kaydı aynı veritabanı transaction'ındadır; debit başarısızsa sipariş
// hiç oluşmaz. Harici siparişte bakiye düşülmez, ExternalCode kesilir.
func Place(p PlaceParams) (*models.Order, *models.Transaction, error) {
	var order models.Order
	var trx *models.Transaction

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		items, total, err := snapshotItems(tx, p.Items)
		if err != nil {
			return err
		}

		if !p.External && !p.Special {
			if err := checkWindows(tx, items, p.Timezone, time.Now()); err != nil {
				return err
			}
		}

		// Teslim kodu gün sonunda geçersizleşir
		loc := time.Local
		if p.Timezone != "" {
			if l, lerr := time.LoadLocation(p.Timezone); lerr == nil {
				loc = l
			}
		}
		now := time.Now().In(loc)
		expires := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, loc)
		if p.Special {
			// özel siparişler ertesi gün de teslim alınabilir
			expires = expires.AddDate(0, 0, 1)
		}

		order = models.Order{
			UserID:    p.UserID,
			RegNumber: p.RegNumber,
			External:  p.External,
			Special:   p.Special,
			Items:     items,
			Total:     total,
			Status:    models.OrderStatusPlaced,
			ExpiresAt: &expires,
			Note:      p.Note,
		}

		code, err := newUniqueCode(tx, func() string { return NewCode(p.CodePrefix) })
		if err != nil {
			return err
		}
		order.Code = code

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if p.External {
			ec := models.ExternalCode{
				Code:         order.Code,
				OrderID:      order.ID,
				IssuedToName: p.IssuedToName,
			}
			if err := tx.Create(&ec).Error; err != nil {
				return err
			}
			return nil
		}

		if p.UserID == nil {
			return apperr.Validation("Sipariş bir kullanıcıya veya harici koda bağlı olmalı")
		}
		trx, err = ledger.DebitForOrder(tx, *p.UserID, total, &order.ID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	audit.Write(audit.LogOptions{
		ActorID:    p.UserID,
		Action:     "order.place",
		Collection: "orders",
		DocumentID: &order.ID,
		Changes: map[string]interface{}{
			"code":     order.Code,
			"total":    order.Total,
			"external": order.External,
			"special":  order.Special,
		},
	})
	return &order, trx, nil
}
