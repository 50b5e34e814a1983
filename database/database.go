package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zheridan29/medecine-november/config"
	"github.com/zheridan29/medecine-november/models"
)

// ErrStoreUnavailable marks connection-level store failures (unreachable
// database, exhausted connect deadline, statement timeout).
var ErrStoreUnavailable = errors.New("store unavailable")

// Opener abstracts gorm.Open so connection retry logic can be tested
// without a real database.
type Opener func(dsn string) (*gorm.DB, error)

// Open connects to the configured database, applies pool limits, runs the
// schema migration and bootstraps the query indexes. Connecting waits at most
// cfg.ConnectTimeout before failing with ErrStoreUnavailable.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var opener Opener
	var dsn string

	switch cfg.Driver {
	case "postgres":
		dsn = BuildDSN(cfg)
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(postgres.Open(dsn), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
		}
	case "sqlite":
		dsn = cfg.Path
		opener = func(dsn string) (*gorm.DB, error) {
			return gorm.Open(sqlite.Open(dsn), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
		}
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := ConnectWithRetry(dsn, time.Duration(cfg.ConnectTimeout)*time.Second, opener)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)

	if err := db.AutoMigrate(
		&models.Medicine{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusHistory{},
		&models.StockMovement{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := bootstrapIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to bootstrap indexes: %w", err)
	}

	return db, nil
}

// BuildDSN assembles the postgres connection string.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// ConnectWithRetry retries the opener until it succeeds or the deadline
// passes. An exhausted deadline surfaces as ErrStoreUnavailable instead of
// hanging the caller.
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("connect deadline exceeded: %w: %w", ErrStoreUnavailable, lastErr)
		}
		// Never sleep past the deadline; short timeouts should fail fast.
		sleep := 3 * time.Second
		if remaining := time.Until(deadline); remaining < sleep {
			sleep = remaining
		}
		time.Sleep(sleep)
	}
}

// bootstrapIndexes creates the composite indexes for the demand and ledger
// lookup paths. Both supported engines accept IF NOT EXISTS.
func bootstrapIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_order_items_medicine_order
		ON order_items (medicine_id, order_id)
	`).Error; err != nil {
		return fmt.Errorf("failed to create order items index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_stock_movements_medicine_date
		ON stock_movements (medicine_id, created_at)
	`).Error; err != nil {
		return fmt.Errorf("failed to create stock movements index: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_orders_status_date
		ON orders (status, created_at)
	`).Error; err != nil {
		return fmt.Errorf("failed to create orders index: %w", err)
	}

	return nil
}
