package orders

import (
	"fmt"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/models"
)

func TotalQty(items []models.OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.Qty
	}
	return total
}

func PreparedQty(items []models.OrderItem) int {
	prepared := 0
	for _, it := range items {
		prepared += it.PreparedCount
	}
	return prepared
}

// DeriveStatus: durum, hazırlanan/istenen adet oranının deterministik
// fonksiyonudur:
//
//	prepared == 0            -> placed
//	0 < prepared < total     -> preparing
//	prepared >= total        -> ready
//
// collected ve cancelled bu kuralın dışındadır; türetilmiş kural o
// durumlara asla dokunmaz (bkz. recompute).
func DeriveStatus(items []models.OrderItem) models.OrderStatus {
	total := TotalQty(items)
	prepared := PreparedQty(items)
	switch {
	case prepared <= 0:
		return models.OrderStatusPlaced
	case prepared < total:
		return models.OrderStatusPreparing
	default:
		return models.OrderStatusReady
	}
}

// CanSetStatus: manuel durum atamasının (override) geçiş kontrolü.
// Override türetilmiş kuralı bilinçli olarak atlar; tek katı sınır
// collected'ın terminal olmasıdır.
func CanSetStatus(from, to models.OrderStatus) error {
	if !to.Valid() {
		return apperr.Validation(fmt.Sprintf("Geçersiz sipariş durumu: %q", to))
	}
	if from == models.OrderStatusCollected && to != models.OrderStatusCollected {
		return apperr.InvalidState("Teslim edilmiş sipariş başka duruma alınamaz")
	}
	return nil
}
