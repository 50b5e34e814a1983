package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zheridan29/medecine-november/timeseries"
)

var verifyFlags struct {
	medicineID  uint
	granularity string
}

var verifyCMD = &cobra.Command{
	Use:   "verify",
	Short: "Verify data sufficiency for forecasting",
	Long: `Compute descriptive statistics over a medicine's aggregated demand
series and report whether it carries enough non-zero periods to train a
forecasting model. By default all three granularities are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		granularities := []timeseries.Granularity{timeseries.Daily, timeseries.Weekly, timeseries.Monthly}
		if verifyFlags.granularity != "all" {
			g, err := timeseries.ParseGranularity(verifyFlags.granularity)
			if err != nil {
				return err
			}
			granularities = []timeseries.Granularity{g}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		aggregator := timeseries.NewAggregator(store, log)
		verifier := timeseries.NewVerifier(aggregator, nil)

		for _, g := range granularities {
			report, err := verifier.Verify(cmd.Context(), verifyFlags.medicineID, g)
			if err != nil {
				return err
			}
			printReport(report)
		}
		return nil
	},
}

func printReport(report *timeseries.Report) {
	fmt.Printf("%s:\n", strings.ToUpper(string(report.Granularity)))
	fmt.Printf("  Total periods: %d\n", report.TotalPeriods)
	fmt.Printf("  Non-zero periods: %d (%.1f%%)\n", report.NonZeroPeriods, report.NonZeroPercent)
	fmt.Printf("  Min quantity: %d\n", report.MinQuantity)
	fmt.Printf("  Max quantity: %d\n", report.MaxQuantity)
	fmt.Printf("  Mean quantity: %.2f\n", report.MeanQuantity)
	fmt.Printf("  Std quantity: %.2f\n", report.StdQuantity)
	if report.Sufficient {
		fmt.Printf("  Sufficient data for %s forecasting (need %d)\n", report.Granularity, report.RequiredPoints)
	} else {
		fmt.Printf("  Insufficient data for %s forecasting (need %d)\n", report.Granularity, report.RequiredPoints)
	}
}

func init() {
	verifyCMD.Flags().UintVar(&verifyFlags.medicineID, "medicine", 0, "medicine id to verify")
	verifyCMD.Flags().StringVar(&verifyFlags.granularity, "granularity", "all", "daily, weekly, monthly or all")

	_ = verifyCMD.MarkFlagRequired("medicine")

	rootCMD.AddCommand(verifyCMD)
}
