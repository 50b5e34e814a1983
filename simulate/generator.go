package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/zheridan29/medecine-november/database"
	"github.com/zheridan29/medecine-november/models"
)

var (
	// ErrInvalidRange marks a generation range whose end precedes its start.
	ErrInvalidRange = errors.New("invalid date range")
	// ErrGenerationInProgress is returned when a run is already active for
	// the same medicine.
	ErrGenerationInProgress = errors.New("generation already in progress for this medicine")
)

// Config holds the simulation parameters for one run.
type Config struct {
	MedicineID uint
	Start      time.Time
	End        time.Time
	Seed       int64

	BaseRate     float64 // mean daily demand before multipliers
	AnnualGrowth float64 // compound growth rate, continuous in elapsed time
	UnitPrice    decimal.Decimal

	InitialStock    int
	ReorderPoint    int
	ReorderQuantity int

	MaxOrders        int // hard safety ceiling for the whole run
	MaxOrdersPerDay  int
	MaxUnitsPerOrder int

	ClearFirst bool // wipe the medicine's history before generating
}

// DefaultConfig returns the historical-fixture parameters of the original
// amoxicillin dataset.
func DefaultConfig(medicineID uint, start, end time.Time, seed int64) Config {
	return Config{
		MedicineID:       medicineID,
		Start:            start,
		End:              end,
		Seed:             seed,
		BaseRate:         15,
		AnnualGrowth:     0.08,
		UnitPrice:        decimal.RequireFromString("15.50"),
		InitialStock:     5000,
		ReorderPoint:     200,
		ReorderQuantity:  1000,
		MaxOrders:        10000,
		MaxOrdersPerDay:  8,
		MaxUnitsPerOrder: 5,
	}
}

// State is the mutable simulation state threaded through each day step.
type State struct {
	OnHand        int
	OrderSeq      int
	OrdersCreated int
}

// Result reports what a run produced. Capped means the hard order ceiling
// stopped generation early; everything committed up to that point stands.
type Result struct {
	OrdersCreated int
	FinalStock    int
	DaysSimulated int
	Capped        bool
}

// Generator simulates day-by-day demand and stock dynamics, writing each
// day's orders, items and ledger movements as one atomic batch.
type Generator struct {
	store *database.Store
	log   *zap.SugaredLogger
	locks *runLocks
}

func NewGenerator(store *database.Store, log *zap.SugaredLogger) *Generator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{store: store, log: log, locks: generationLocks}
}

// Run executes the simulation over [cfg.Start, cfg.End]. Given the same seed
// and range against identical stores, two runs produce identical histories.
// Each day commits atomically: a failure mid-run loses at most the failing
// day, never the days already committed.
func (g *Generator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.End.Before(cfg.Start) {
		return nil, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidRange, cfg.End.Format("2006-01-02"), cfg.Start.Format("2006-01-02"))
	}

	if !g.locks.tryAcquire(cfg.MedicineID) {
		return nil, fmt.Errorf("%w: medicine %d", ErrGenerationInProgress, cfg.MedicineID)
	}
	defer g.locks.release(cfg.MedicineID)

	if cfg.ClearFirst {
		if err := g.store.ClearHistory(ctx, cfg.MedicineID); err != nil {
			return nil, err
		}
	}

	if cfg.MaxOrdersPerDay < 1 {
		cfg.MaxOrdersPerDay = 1
	}
	if cfg.MaxUnitsPerOrder < 1 {
		cfg.MaxUnitsPerOrder = 1
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	state := State{OnHand: cfg.InitialStock}
	result := &Result{}

	start := truncateDay(cfg.Start)
	end := truncateDay(cfg.End)

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		err := g.store.Transaction(ctx, func(tx *database.Store) error {
			return g.simulateDay(ctx, tx, cfg, day, rng, &state)
		})
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", day.Format("2006-01-02"), err)
		}
		result.DaysSimulated++

		if state.OrdersCreated >= cfg.MaxOrders {
			g.log.Warnw("order ceiling reached, stopping generation",
				"medicine_id", cfg.MedicineID,
				"max_orders", cfg.MaxOrders,
				"day", day.Format("2006-01-02"),
			)
			result.Capped = true
			break
		}

		if day.Day() == 1 {
			g.log.Infow("generation progress",
				"month", day.Format("2006-01"),
				"orders_created", state.OrdersCreated,
				"stock", state.OnHand,
			)
		}
	}

	if err := g.store.UpdateCurrentStock(ctx, cfg.MedicineID, state.OnHand); err != nil {
		return nil, err
	}

	result.OrdersCreated = state.OrdersCreated
	result.FinalStock = state.OnHand
	return result, nil
}

// simulateDay runs one calendar day inside a store transaction: the reorder
// check first, then the day's demand split into orders.
func (g *Generator) simulateDay(ctx context.Context, tx *database.Store, cfg Config, day time.Time, rng *rand.Rand, state *State) error {
	demand := dailyDemand(cfg, day, rng)

	// Reorder before selling, so a low-stock day can still be fulfilled.
	if state.OnHand <= cfg.ReorderPoint {
		movement := models.StockMovement{
			MedicineID:   cfg.MedicineID,
			MovementType: models.MovementIn,
			Quantity:     cfg.ReorderQuantity,
			Reference:    "REORDER-" + day.Format("20060102"),
			Notes:        "Automatic reorder - stock below reorder point",
			CreatedAt:    day,
		}
		if err := tx.InsertStockMovement(ctx, &movement); err != nil {
			return err
		}
		state.OnHand += cfg.ReorderQuantity
	}

	ordersToday := demand / 3
	if ordersToday < 1 {
		ordersToday = 1
	}
	if ordersToday > cfg.MaxOrdersPerDay {
		ordersToday = cfg.MaxOrdersPerDay
	}

	remaining := demand
	for i := 0; i < ordersToday; i++ {
		if remaining <= 0 || state.OnHand <= 0 {
			break
		}
		if state.OrdersCreated >= cfg.MaxOrders {
			return nil
		}

		qty := 1 + rng.Intn(cfg.MaxUnitsPerOrder)
		if qty > remaining {
			qty = remaining
		}
		if qty > state.OnHand {
			qty = state.OnHand
		}

		if err := g.createOrder(ctx, tx, cfg, day, qty, state); err != nil {
			return err
		}
		state.OnHand -= qty
		remaining -= qty
		state.OrdersCreated++
	}
	return nil
}

// createOrder writes one order, its item, its status trail and the matching
// sale movement.
func (g *Generator) createOrder(ctx context.Context, tx *database.Store, cfg Config, day time.Time, qty int, state *State) error {
	state.OrderSeq++
	number := fmt.Sprintf("O%s%04d", day.Format("20060102"), state.OrderSeq)
	total := cfg.UnitPrice.Mul(decimal.NewFromInt(int64(qty)))

	order := models.Order{
		OrderNumber:     number,
		CustomerName:    fmt.Sprintf("Customer-%06d", state.OrderSeq),
		CustomerPhone:   fmt.Sprintf("555-%04d", state.OrderSeq),
		CustomerAddress: fmt.Sprintf("Delivery Address %d", state.OrderSeq),
		Status:          models.StatusDelivered,
		PaymentStatus:   models.PaymentPaid,
		Subtotal:        total,
		TotalAmount:     total,
		CreatedAt:       day,
		UpdatedAt:       day,
	}
	if err := tx.InsertOrder(ctx, &order); err != nil {
		return err
	}

	item := models.OrderItem{
		OrderID:    order.ID,
		MedicineID: cfg.MedicineID,
		Quantity:   qty,
		UnitPrice:  cfg.UnitPrice,
		TotalPrice: total,
		CreatedAt:  day,
	}
	if err := tx.InsertOrderItem(ctx, &item); err != nil {
		return err
	}

	history := models.OrderStatusHistory{
		OrderID:          order.ID,
		OldStatus:        models.StatusPending,
		NewStatus:        models.StatusDelivered,
		OldPaymentStatus: models.PaymentPending,
		NewPaymentStatus: models.PaymentPaid,
		Notes:            "Order completed successfully",
		ChangedAt:        day,
	}
	if err := tx.InsertOrderStatus(ctx, &history); err != nil {
		return err
	}

	sale := models.StockMovement{
		MedicineID:   cfg.MedicineID,
		MovementType: models.MovementOut,
		Quantity:     -qty,
		Reference:    number,
		Notes:        "Sale - Order " + number,
		CreatedAt:    day,
	}
	return tx.InsertStockMovement(ctx, &sale)
}

// dailyDemand computes the day's demand from the base rate, seasonal and
// weekday multipliers, compound growth and a uniform(0.8, 1.2) perturbation.
// Never below 1.
func dailyDemand(cfg Config, day time.Time, rng *rand.Rand) int {
	elapsedYears := day.Sub(truncateDay(cfg.Start)).Hours() / (24 * 365.25)
	growth := math.Pow(1+cfg.AnnualGrowth, elapsedYears)
	noise := 0.8 + rng.Float64()*0.4

	demand := int(cfg.BaseRate * seasonalMultiplier(day.Month()) * weekdayMultiplier(day.Weekday()) * growth * noise)
	if demand < 1 {
		demand = 1
	}
	return demand
}

// seasonalMultiplier reflects higher antibiotic demand in winter and lower in
// summer.
func seasonalMultiplier(month time.Month) float64 {
	switch month {
	case time.December, time.January, time.February:
		return 1.3
	case time.June, time.July, time.August:
		return 0.8
	default:
		return 1.0
	}
}

// weekdayMultiplier dampens Sunday, the low-demand day.
func weekdayMultiplier(weekday time.Weekday) float64 {
	if weekday == time.Sunday {
		return 0.7
	}
	return 1.0
}

func truncateDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
