package simulate

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheridan29/medecine-november/config"
	"github.com/zheridan29/medecine-november/database"
	"github.com/zheridan29/medecine-november/models"
	"github.com/zheridan29/medecine-november/timeseries"
)

func newTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver:         "sqlite",
		Path:           filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:   1,
		MaxIdleConns:   1,
		ConnectTimeout: 5,
		QueryTimeout:   5,
	})
	require.NoError(t, err)
	return database.NewStore(db, 5*time.Second)
}

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

func movements(t *testing.T, store *database.Store, medicineID uint) []models.StockMovement {
	t.Helper()
	var out []models.StockMovement
	require.NoError(t, store.DB().
		Where("medicine_id = ?", medicineID).
		Order("id ASC").
		Find(&out).Error)
	return out
}

func TestRunRejectsReversedRange(t *testing.T) {
	gen := NewGenerator(newTestStore(t), nil)

	cfg := DefaultConfig(3, day("2020-01-07"), day("2020-01-01"), 42)
	_, err := gen.Run(context.Background(), cfg)

	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestRunIsDeterministic(t *testing.T) {
	run := func() *Result {
		gen := NewGenerator(newTestStore(t), nil)
		cfg := DefaultConfig(3, day("2020-01-01"), day("2020-03-31"), 42)
		result, err := gen.Run(context.Background(), cfg)
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.OrdersCreated, second.OrdersCreated)
	assert.Equal(t, first.FinalStock, second.FinalStock)
	assert.Equal(t, first.DaysSimulated, second.DaysSimulated)
}

func TestRunSeedsDiverge(t *testing.T) {
	run := func(seed int64) *Result {
		gen := NewGenerator(newTestStore(t), nil)
		cfg := DefaultConfig(3, day("2020-01-01"), day("2020-03-31"), seed)
		result, err := gen.Run(context.Background(), cfg)
		require.NoError(t, err)
		return result
	}

	a := run(42)
	b := run(1337)

	// Different seeds should perturb the totals.
	assert.False(t, a.FinalStock == b.FinalStock && a.OrdersCreated == b.OrdersCreated,
		"seeds 42 and 1337 produced identical runs")
}

func TestRunHighStockWeek(t *testing.T) {
	// seed=42, one week of January 2020, plenty of stock: no reorder fires
	// and every day sells at least one unit.
	store := newTestStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	cfg := DefaultConfig(3, day("2020-01-01"), day("2020-01-07"), 42)
	result, err := gen.Run(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, result.Capped)
	assert.Equal(t, 7, result.DaysSimulated)

	for _, m := range movements(t, store, 3) {
		assert.Equal(t, models.MovementOut, m.MovementType, "no reorder expected with 5000 on hand")
	}

	series, err := timeseries.NewAggregator(store, nil).Aggregate(ctx, 3, timeseries.Daily)
	require.NoError(t, err)
	require.Len(t, series, 7)
	for _, p := range series {
		assert.GreaterOrEqual(t, p.Quantity, 1)
	}
}

func TestRunLowStockReordersBeforeSelling(t *testing.T) {
	store := newTestStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	cfg := DefaultConfig(3, day("2020-01-01"), day("2020-01-01"), 42)
	cfg.InitialStock = 50
	result, err := gen.Run(ctx, cfg)
	require.NoError(t, err)

	ledger := movements(t, store, 3)
	require.NotEmpty(t, ledger)

	first := ledger[0]
	assert.Equal(t, models.MovementIn, first.MovementType)
	assert.Equal(t, 1000, first.Quantity)
	assert.Equal(t, "REORDER-20200101", first.Reference)

	sold := 0
	for _, m := range ledger[1:] {
		require.Equal(t, models.MovementOut, m.MovementType)
		sold += -m.Quantity
	}
	assert.Equal(t, 1050-sold, result.FinalStock)
}

func TestRunNeverDrivesStockNegative(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 9001} {
		store := newTestStore(t)
		gen := NewGenerator(store, nil)

		cfg := DefaultConfig(3, day("2020-01-01"), day("2020-02-29"), seed)
		cfg.InitialStock = 10
		cfg.ReorderPoint = 3
		cfg.ReorderQuantity = 5
		result, err := gen.Run(context.Background(), cfg)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.FinalStock, 0, "seed %d", seed)

		// Replay the ledger: on-hand must stay non-negative after every event.
		onHand := cfg.InitialStock
		for _, m := range movements(t, store, 3) {
			onHand += m.Quantity
			require.GreaterOrEqual(t, onHand, 0, "seed %d", seed)
		}
		assert.Equal(t, result.FinalStock, onHand, "seed %d", seed)
	}
}

func TestRunPersistsFinalStockSnapshot(t *testing.T) {
	store := newTestStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	cfg := DefaultConfig(3, day("2020-01-01"), day("2020-01-07"), 42)
	result, err := gen.Run(ctx, cfg)
	require.NoError(t, err)

	stock, err := store.CurrentStock(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, result.FinalStock, stock)
}

func TestRunStopsAtOrderCeiling(t *testing.T) {
	store := newTestStore(t)
	gen := NewGenerator(store, nil)

	cfg := DefaultConfig(3, day("2020-01-01"), day("2020-12-31"), 42)
	cfg.MaxOrders = 5
	result, err := gen.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, result.Capped)
	assert.Equal(t, 5, result.OrdersCreated)

	var count int64
	require.NoError(t, store.DB().Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}

func TestRunClearFirstReplacesHistory(t *testing.T) {
	store := newTestStore(t)
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	cfg := DefaultConfig(3, day("2020-01-01"), day("2020-01-07"), 42)
	cfg.ClearFirst = true

	first, err := gen.Run(ctx, cfg)
	require.NoError(t, err)
	second, err := gen.Run(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, first.OrdersCreated, second.OrdersCreated)

	var count int64
	require.NoError(t, store.DB().Model(&models.OrderItem{}).Where("medicine_id = ?", 3).Count(&count).Error)
	assert.EqualValues(t, second.OrdersCreated, count)
}

func TestRunRefusesConcurrentRunForSameMedicine(t *testing.T) {
	gen := NewGenerator(newTestStore(t), nil)

	require.True(t, generationLocks.tryAcquire(3))
	defer generationLocks.release(3)

	cfg := DefaultConfig(3, day("2020-01-01"), day("2020-01-02"), 42)
	_, err := gen.Run(context.Background(), cfg)

	require.ErrorIs(t, err, ErrGenerationInProgress)
}

func TestSeasonalAndWeekdayMultipliers(t *testing.T) {
	assert.Equal(t, 1.3, seasonalMultiplier(time.January))
	assert.Equal(t, 0.8, seasonalMultiplier(time.July))
	assert.Equal(t, 1.0, seasonalMultiplier(time.April))

	assert.Equal(t, 0.7, weekdayMultiplier(time.Sunday))
	assert.Equal(t, 1.0, weekdayMultiplier(time.Wednesday))
}
