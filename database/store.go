package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zheridan29/medecine-november/models"
)

// Store is the single adapter through which both the generator and the
// aggregator touch the transactional schema. Every method applies the
// configured statement timeout and surfaces driver failures as
// ErrStoreUnavailable.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewStore(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// DB exposes the underlying handle for migration helpers and tests.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a transaction-scoped store. If fn returns an
// error the whole batch rolls back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, timeout: s.timeout})
	})
}

// FindDemand returns the demand observations for one medicine, restricted to
// the given order statuses and ordered by order timestamp ascending. An empty
// result is not an error.
func (s *Store) FindDemand(ctx context.Context, medicineID uint, statuses []string) ([]models.DemandRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var records []models.DemandRecord
	err := s.db.WithContext(ctx).
		Table("order_items").
		Select("orders.created_at AS timestamp, order_items.quantity AS quantity, orders.status AS status").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.medicine_id = ?", medicineID).
		Where("orders.status IN ?", statuses).
		Order("orders.created_at ASC").
		Scan(&records).Error
	if err != nil {
		return nil, s.wrap("find demand", err)
	}
	return records, nil
}

// InsertOrder persists the order and fills in its generated ID.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return s.wrap("insert order", err)
	}
	return nil
}

func (s *Store) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return s.wrap("insert order item", err)
	}
	return nil
}

func (s *Store) InsertOrderStatus(ctx context.Context, history *models.OrderStatusHistory) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(history).Error; err != nil {
		return s.wrap("insert order status history", err)
	}
	return nil
}

func (s *Store) InsertStockMovement(ctx context.Context, movement *models.StockMovement) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.db.WithContext(ctx).Create(movement).Error; err != nil {
		return s.wrap("insert stock movement", err)
	}
	return nil
}

// UpdateCurrentStock writes the stock snapshot for a medicine, creating the
// medicine row if it does not exist yet.
func (s *Store) UpdateCurrentStock(ctx context.Context, medicineID uint, value int) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).
		Model(&models.Medicine{}).
		Where("id = ?", medicineID).
		Update("current_stock", value)
	if res.Error != nil {
		return s.wrap("update current stock", res.Error)
	}
	if res.RowsAffected == 0 {
		medicine := models.Medicine{ID: medicineID, CurrentStock: value}
		if err := s.db.WithContext(ctx).Create(&medicine).Error; err != nil {
			return s.wrap("create medicine snapshot", err)
		}
	}
	return nil
}

// CurrentStock reads the stock snapshot for a medicine.
func (s *Store) CurrentStock(ctx context.Context, medicineID uint) (int, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var medicine models.Medicine
	err := s.db.WithContext(ctx).First(&medicine, medicineID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, s.wrap("read current stock", err)
	}
	return medicine.CurrentStock, nil
}

// ClearHistory deletes the items, status history, orders and stock movements
// of one medicine in a single transaction, so a re-fixture run starts from a
// clean slate.
func (s *Store) ClearHistory(ctx context.Context, medicineID uint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderIDs []uint
		if err := tx.Model(&models.OrderItem{}).
			Where("medicine_id = ?", medicineID).
			Distinct("order_id").
			Pluck("order_id", &orderIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("medicine_id = ?", medicineID).
			Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if len(orderIDs) > 0 {
			if err := tx.Where("order_id IN ?", orderIDs).
				Delete(&models.OrderStatusHistory{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", orderIDs).
				Delete(&models.Order{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("medicine_id = ?", medicineID).
			Delete(&models.StockMovement{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return s.wrap("clear history", err)
	}
	return nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// wrap marks connection-level failures with ErrStoreUnavailable.
// Data-integrity errors (constraint violations, bad values) are the caller's
// problem and surface as plain wrapped errors.
func (s *Store) wrap(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, gorm.ErrInvalidDB)
}
