package main

import (
	"log"
	"strings"

	"rivercafe-backend/internal/accounting"
	"rivercafe-backend/internal/apperr"
	"rivercafe-backend/internal/audit"
	"rivercafe-backend/internal/auth"
	"rivercafe-backend/internal/canteen"
	"rivercafe-backend/internal/catalog"
	"rivercafe-backend/internal/config"
	"rivercafe-backend/internal/database"
	"rivercafe-backend/internal/it"
	"rivercafe-backend/internal/models"
	"rivercafe-backend/internal/settings"
	"rivercafe-backend/internal/student"
	"rivercafe-backend/internal/window"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.FiberErrorHandler,
	})

	// CORS origins'i virgülle ayrılmış string'den temizle
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/auth/change-password", auth.ChangePasswordHandler())
	protected.Get("/settings", settings.ListSettingsHandler())

	// Muhasebe (bakiye yükleme, işlem defteri)
	accountingRoutes := protected.Group("/accounting")
	accountingRoutes.Use(auth.RequireRole(models.RoleAdmin))

	accountingRoutes.Post("/topup", accounting.TopUpHandler())
	accountingRoutes.Post("/withdraw", accounting.WithdrawHandler())
	accountingRoutes.Post("/reconcile", accounting.ReconcileHandler())
	accountingRoutes.Get("/transactions", accounting.ListTransactionsHandler())
	accountingRoutes.Get("/transactions/export", accounting.ExportTransactionsHandler())

	// Kantin (hazırlama, teslim, harici sipariş)
	canteenRoutes := protected.Group("/canteen")
	canteenRoutes.Use(auth.RequireRole(models.RoleCanteen, models.RoleAdmin))

	canteenRoutes.Post("/product/prepare", canteen.PrepareProductHandler())
	canteenRoutes.Patch("/order/:id", canteen.PatchOrderHandler())
	canteenRoutes.Get("/process", canteen.ProcessLookupHandler())
	canteenRoutes.Post("/process", canteen.ProcessCollectHandler())
	canteenRoutes.Post("/external-orders", canteen.CreateExternalOrderHandler(cfg))

	// Öğrenci
	studentRoutes := protected.Group("/student")
	studentRoutes.Use(auth.RequireRole(models.RoleStudent))

	studentRoutes.Get("/menu", student.MenuHandler())
	studentRoutes.Post("/orders", student.PlaceOrderHandler(cfg))
	studentRoutes.Post("/special-order", student.SpecialOrderHandler(cfg))
	studentRoutes.Get("/orders", student.MyOrdersHandler())
	studentRoutes.Get("/balance", student.BalanceHandler())

	// Admin (ürünler, sipariş pencereleri, ayarlar, audit)
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/products", catalog.CreateProductHandler())
	adminRoutes.Get("/products", catalog.ListProductsHandler())
	adminRoutes.Put("/products/:id", catalog.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", catalog.DeleteProductHandler())

	adminRoutes.Post("/ordering-windows", window.CreateWindowHandler())
	adminRoutes.Get("/ordering-windows", window.ListWindowsHandler())
	adminRoutes.Put("/ordering-windows/:id", window.UpdateWindowHandler())
	adminRoutes.Delete("/ordering-windows/:id", window.DeleteWindowHandler())

	adminRoutes.Put("/settings/:key", settings.UpsertSettingHandler())
	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())

	// IT (kullanıcı yönetimi)
	itRoutes := protected.Group("/it")
	itRoutes.Use(auth.RequireRole(models.RoleIT, models.RoleAdmin))

	itRoutes.Post("/users", it.CreateUserHandler())
	itRoutes.Get("/users", it.ListUsersHandler())
	itRoutes.Put("/users/:id", it.UpdateUserHandler())
	itRoutes.Post("/users/:id/reset-password", it.ResetPasswordHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
