package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/zheridan29/medecine-november/simulate"
)

var generateFlags struct {
	medicineID   uint
	from         string
	to           string
	seed         int64
	clear        bool
	baseRate     float64
	annualGrowth float64
	unitPrice    string
	initialStock int
	reorderPoint int
	reorderQty   int
	maxOrders    int
}

var generateCMD = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic order history for a medicine",
	Long: `Simulate day-by-day demand over a date range and write the resulting
orders, order items and stock movements to the store. Runs are deterministic
for a given seed, so the same command always produces the same fixture.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseDate(generateFlags.from)
		if err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		end, err := parseDate(generateFlags.to)
		if err != nil {
			return fmt.Errorf("invalid --to date: %w", err)
		}
		store, err := openStore()
		if err != nil {
			return err
		}

		// Environment config supplies the defaults, explicit flags win.
		gen := cfg.Generator
		flags := cmd.Flags()
		if flags.Changed("base-rate") {
			gen.BaseRate = generateFlags.baseRate
		}
		if flags.Changed("annual-growth") {
			gen.AnnualGrowth = generateFlags.annualGrowth
		}
		if flags.Changed("unit-price") {
			gen.UnitPrice = generateFlags.unitPrice
		}
		if flags.Changed("initial-stock") {
			gen.InitialStock = generateFlags.initialStock
		}
		if flags.Changed("reorder-point") {
			gen.ReorderPoint = generateFlags.reorderPoint
		}
		if flags.Changed("reorder-quantity") {
			gen.ReorderQuantity = generateFlags.reorderQty
		}
		if flags.Changed("max-orders") {
			gen.MaxOrders = generateFlags.maxOrders
		}

		unitPrice, err := decimal.NewFromString(gen.UnitPrice)
		if err != nil {
			return fmt.Errorf("invalid unit price %q: %w", gen.UnitPrice, err)
		}

		simCfg := simulate.Config{
			MedicineID:       generateFlags.medicineID,
			Start:            start,
			End:              end,
			Seed:             generateFlags.seed,
			BaseRate:         gen.BaseRate,
			AnnualGrowth:     gen.AnnualGrowth,
			UnitPrice:        unitPrice,
			InitialStock:     gen.InitialStock,
			ReorderPoint:     gen.ReorderPoint,
			ReorderQuantity:  gen.ReorderQuantity,
			MaxOrders:        gen.MaxOrders,
			MaxOrdersPerDay:  gen.MaxOrdersPerDay,
			MaxUnitsPerOrder: gen.MaxUnitsPerOrder,
			ClearFirst:       generateFlags.clear,
		}

		runID := uuid.NewString()
		log.Infow("starting generation run",
			"run_id", runID,
			"medicine_id", simCfg.MedicineID,
			"from", start.Format("2006-01-02"),
			"to", end.Format("2006-01-02"),
			"seed", simCfg.Seed,
		)

		generator := simulate.NewGenerator(store, log.With("run_id", runID))
		result, err := generator.Run(cmd.Context(), simCfg)
		if err != nil {
			return err
		}

		fmt.Printf("Generated %d orders over %d days (final stock: %d)\n",
			result.OrdersCreated, result.DaysSimulated, result.FinalStock)
		if result.Capped {
			fmt.Printf("Order ceiling of %d reached; generation stopped early.\n", simCfg.MaxOrders)
		}
		return nil
	},
}

func init() {
	generateCMD.Flags().UintVar(&generateFlags.medicineID, "medicine", 0, "medicine id to generate history for")
	generateCMD.Flags().StringVar(&generateFlags.from, "from", "", "range start (YYYY-MM-DD)")
	generateCMD.Flags().StringVar(&generateFlags.to, "to", "", "range end (YYYY-MM-DD)")
	generateCMD.Flags().Int64Var(&generateFlags.seed, "seed", 42, "random seed for reproducible runs")
	generateCMD.Flags().BoolVar(&generateFlags.clear, "clear", false, "clear the medicine's existing history first")
	generateCMD.Flags().Float64Var(&generateFlags.baseRate, "base-rate", 15, "mean daily demand before multipliers")
	generateCMD.Flags().Float64Var(&generateFlags.annualGrowth, "annual-growth", 0.08, "compound annual demand growth")
	generateCMD.Flags().StringVar(&generateFlags.unitPrice, "unit-price", "15.50", "unit price for generated order items")
	generateCMD.Flags().IntVar(&generateFlags.initialStock, "initial-stock", 5000, "stock on hand at range start")
	generateCMD.Flags().IntVar(&generateFlags.reorderPoint, "reorder-point", 200, "on-hand level at or below which a reorder fires")
	generateCMD.Flags().IntVar(&generateFlags.reorderQty, "reorder-quantity", 1000, "units added by each reorder")
	generateCMD.Flags().IntVar(&generateFlags.maxOrders, "max-orders", 10000, "hard ceiling on orders created per run")

	_ = generateCMD.MarkFlagRequired("medicine")
	_ = generateCMD.MarkFlagRequired("from")
	_ = generateCMD.MarkFlagRequired("to")

	rootCMD.AddCommand(generateCMD)
}
