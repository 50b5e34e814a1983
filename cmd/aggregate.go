package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zheridan29/medecine-november/timeseries"
)

var aggregateFlags struct {
	medicineID  uint
	granularity string
	from        string
	to          string
}

var aggregateCMD = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate realized demand into a regularly spaced series",
	Long: `Pull a medicine's realized demand (confirmed, processing, shipped or
delivered orders), bucket it at the requested granularity and print the
zero-filled series in period order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		granularity, err := timeseries.ParseGranularity(aggregateFlags.granularity)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		aggregator := timeseries.NewAggregator(store, log)

		var series []timeseries.PeriodPoint
		if aggregateFlags.from != "" || aggregateFlags.to != "" {
			var start, end time.Time
			if aggregateFlags.from != "" {
				start, err = parseDate(aggregateFlags.from)
				if err != nil {
					return fmt.Errorf("invalid --from date: %w", err)
				}
			}
			if aggregateFlags.to != "" {
				end, err = parseDate(aggregateFlags.to)
				if err != nil {
					return fmt.Errorf("invalid --to date: %w", err)
				}
			}
			series, err = aggregator.AggregateRange(cmd.Context(), aggregateFlags.medicineID, granularity, start, end)
			if err != nil {
				return err
			}
		} else {
			series, err = aggregator.Aggregate(cmd.Context(), aggregateFlags.medicineID, granularity)
			if err != nil {
				return err
			}
		}

		if len(series) == 0 {
			fmt.Printf("No realized demand for medicine %d.\n", aggregateFlags.medicineID)
			return nil
		}

		fmt.Printf("%-12s %8s\n", "period", "quantity")
		total := 0
		for _, p := range series {
			fmt.Printf("%-12s %8d\n", p.PeriodStart.Format("2006-01-02"), p.Quantity)
			total += p.Quantity
		}
		fmt.Printf("\n%d %s periods, %d units total\n", len(series), granularity, total)
		return nil
	},
}

func init() {
	aggregateCMD.Flags().UintVar(&aggregateFlags.medicineID, "medicine", 0, "medicine id to aggregate")
	aggregateCMD.Flags().StringVar(&aggregateFlags.granularity, "granularity", "daily", "daily, weekly or monthly")
	aggregateCMD.Flags().StringVar(&aggregateFlags.from, "from", "", "optional range start (YYYY-MM-DD)")
	aggregateCMD.Flags().StringVar(&aggregateFlags.to, "to", "", "optional range end (YYYY-MM-DD)")

	_ = aggregateCMD.MarkFlagRequired("medicine")

	rootCMD.AddCommand(aggregateCMD)
}
