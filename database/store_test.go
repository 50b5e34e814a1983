package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheridan29/medecine-november/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	return NewStore(db, 5*time.Second)
}

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func insertOrderWithItem(t *testing.T, store *Store, medicineID uint, number, status string, qty int, createdAt time.Time) {
	t.Helper()
	ctx := context.Background()

	price := decimal.RequireFromString("15.50")
	order := models.Order{
		OrderNumber:   number,
		Status:        status,
		PaymentStatus: models.PaymentPaid,
		Subtotal:      price,
		TotalAmount:   price,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	require.NoError(t, store.InsertOrder(ctx, &order))
	require.NotZero(t, order.ID)

	item := models.OrderItem{
		OrderID:    order.ID,
		MedicineID: medicineID,
		Quantity:   qty,
		UnitPrice:  price,
		TotalPrice: price,
		CreatedAt:  createdAt,
	}
	require.NoError(t, store.InsertOrderItem(ctx, &item))
}

func TestFindDemandFiltersStatusAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insertOrderWithItem(t, store, 3, "O1", models.StatusDelivered, 5, day("2020-01-03"))
	insertOrderWithItem(t, store, 3, "O2", models.StatusCancelled, 9, day("2020-01-01"))
	insertOrderWithItem(t, store, 3, "O3", models.StatusConfirmed, 2, day("2020-01-02"))
	insertOrderWithItem(t, store, 7, "O4", models.StatusDelivered, 4, day("2020-01-02"))

	records, err := store.FindDemand(ctx, 3, models.RealizedStatuses)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 2, records[0].Quantity) // 2020-01-02 first
	assert.Equal(t, 5, records[1].Quantity)
	assert.True(t, records[0].Timestamp.Before(records[1].Timestamp))
}

func TestFindDemandEmptyResultIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	records, err := store.FindDemand(context.Background(), 99, models.RealizedStatuses)

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpdateCurrentStockCreatesAndUpdates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpdateCurrentStock(ctx, 3, 4200))
	stock, err := store.CurrentStock(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 4200, stock)

	require.NoError(t, store.UpdateCurrentStock(ctx, 3, 77))
	stock, err = store.CurrentStock(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 77, stock)
}

func TestClearHistoryRemovesOnlyTargetMedicine(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	insertOrderWithItem(t, store, 3, "O1", models.StatusDelivered, 5, day("2020-01-01"))
	insertOrderWithItem(t, store, 7, "O2", models.StatusDelivered, 4, day("2020-01-01"))
	require.NoError(t, store.InsertStockMovement(ctx, &models.StockMovement{
		MedicineID: 3, MovementType: models.MovementOut, Quantity: -5, Reference: "O1", CreatedAt: day("2020-01-01"),
	}))

	require.NoError(t, store.ClearHistory(ctx, 3))

	records, err := store.FindDemand(ctx, 3, models.RealizedStatuses)
	require.NoError(t, err)
	assert.Empty(t, records)

	var movements int64
	require.NoError(t, store.DB().Model(&models.StockMovement{}).Where("medicine_id = ?", 3).Count(&movements).Error)
	assert.Zero(t, movements)

	// The other medicine's history is untouched.
	records, err = store.FindDemand(ctx, 7, models.RealizedStatuses)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sentinel := errors.New("boom")
	err := store.Transaction(ctx, func(tx *Store) error {
		insertOrderWithItem(t, tx, 3, "O1", models.StatusDelivered, 5, day("2020-01-01"))
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	records, err := store.FindDemand(ctx, 3, models.RealizedStatuses)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestConstraintViolationIsNotMarkedUnavailable(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// A duplicate order number violates the unique index. That is a data
	// problem, not an unreachable store, so no unavailability sentinel.
	order := models.Order{OrderNumber: "O1", Status: models.StatusDelivered, CreatedAt: day("2020-01-01")}
	require.NoError(t, store.InsertOrder(ctx, &order))

	dup := models.Order{OrderNumber: "O1", Status: models.StatusDelivered, CreatedAt: day("2020-01-01")}
	err := store.InsertOrder(ctx, &dup)

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestTimedOutQueryIsMarkedUnavailable(t *testing.T) {
	store := newTestStore(t)

	// A statement deadline too short to satisfy counts as the store being
	// unreachable within the bounded wait.
	impatient := NewStore(store.DB(), time.Nanosecond)
	_, err := impatient.FindDemand(context.Background(), 3, models.RealizedStatuses)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
