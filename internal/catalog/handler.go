package catalog

import (
	"errors"
	"fmt"

	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price"`
	Available   *bool    `json:"available"`
	PrepStation string   `json:"prep_station"`
}

func parseProductID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, apperr.Validation("Geçersiz ürün ID")
	}
	return id, nil
}

// -------------------------------------------------
// POST /api/admin/products
// -------------------------------------------------
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}
		if body.Name == "" {
			return apperr.Validation("Ürün adı zorunlu")
		}
		if body.Price == nil || *body.Price < 0 {
			return apperr.Validation("Fiyat 0 veya daha büyük olmalı")
		}

		available := true
		if body.Available != nil {
			available = *body.Available
		}

		p := models.Product{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			Price:       *body.Price,
			Available:   available,
			PrepStation: body.PrepStation,
		}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün oluşturulamadı")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "product.create",
			Collection: "products",
			DocumentID: &p.ID,
			Changes:    p,
		})
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ok": true, "product": p})
	}
}

// -------------------------------------------------
// GET /api/admin/products?category=&available=
// -------------------------------------------------
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})
		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("category = ?", category)
		}
		if available := c.Query("available"); available != "" {
			dbq = dbq.Where("available = ?", available == "true")
		}

		var products []models.Product
		if err := dbq.Order("category ASC, name ASC").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}
		return c.JSON(fiber.Map{"ok": true, "products": products})
	}
}

// -------------------------------------------------
// PUT /api/admin/products/:id
// -------------------------------------------------
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseProductID(c)
		if err != nil {
			return err
		}

		var body ProductRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("Geçersiz istek gövdesi")
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı")
			}
			return err
		}
		before := p

		if body.Name != "" {
			p.Name = body.Name
		}
		if body.Description != "" {
			p.Description = body.Description
		}
		if body.Category != "" {
			p.Category = body.Category
		}
		if body.Price != nil {
			if *body.Price < 0 {
				return apperr.Validation("Fiyat 0 veya daha büyük olmalı")
			}
			p.Price = *body.Price
		}
		if body.Available != nil {
			p.Available = *body.Available
		}
		if body.PrepStation != "" {
			p.PrepStation = body.PrepStation
		}

		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "product.update",
			Collection: "products",
			DocumentID: &p.ID,
			Changes:    map[string]interface{}{"before": before, "after": p},
		})
		return c.JSON(fiber.Map{"ok": true, "product": p})
	}
}

// -------------------------------------------------
// DELETE /api/admin/products/:id
// Sipariş item'ları ad/fiyat snapshot'ı taşıdığı için silme güvenlidir.
// -------------------------------------------------
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseProductID(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Ürün bulunamadı")
			}
			return err
		}

		if err := database.DB.Delete(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		audit.Write(audit.LogOptions{
			ActorID:    auth.ActorID(c),
			Action:     "product.delete",
			Collection: "products",
			DocumentID: &id,
			Changes:    p,
		})
		return c.JSON(fiber.Map{"ok": true})
	}
}
