package testutil

import (
	"testing"

	"rivercafe-backend/internal/database"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDB: testler için bellek içi sqlite açar ve global DB'yi ona bağlar.
// Postgres gerektirmeden tüm servis katmanı test edilebilir.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB alınamadı: %v", err)
	}
	// :memory: her bağlantıda ayrı veritabanı verir; tek bağlantıda kal
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("test migration hatası: %v", err)
	}

	database.DB = db
	return db
}
