package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/eckposgo/internal/database"
	"github.com/xelth-com/eckposgo/internal/logger"
	"github.com/xelth-com/eckposgo/internal/models"
)

// Logger returns a logger that only prints warnings and errors
func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("failed to init logger: %v", err)
	}
	return log
}

// DB opens a private, migrated in-memory sqlite database. A single
// connection keeps the in-memory schema alive and serializes writers.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), gormlogger.Silent)
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Product inserts a product whose current price starts at its base price
func Product(tb testing.TB, db *gorm.DB, sku string, cost, base float64, stock int) *models.Product {
	tb.Helper()
	p := &models.Product{SKU: sku, Name: sku, CostPrice: cost, BasePrice: base, CurrentPrice: base, StockQuantity: stock}
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("create product %s: %v", sku, err)
	}
	return p
}

// Group inserts a profit group and links the given products to it
func Group(tb testing.TB, db *gorm.DB, name string, minProfit float64, members ...*models.Product) *models.ProfitGroup {
	tb.Helper()
	g := &models.ProfitGroup{Name: name, MinProfitPrice: minProfit}
	if err := db.Omit("Products").Create(g).Error; err != nil {
		tb.Fatalf("create group %s: %v", name, err)
	}
	for _, p := range members {
		row := map[string]interface{}{"product_id": p.ID, "group_id": g.ID}
		if err := db.Table("product_group_association").Create(row).Error; err != nil {
			tb.Fatalf("link product %d to group %d: %v", p.ID, g.ID, err)
		}
	}
	return g
}
