package timeseries

import (
	"context"
	"math"
)

// DefaultMinPoints is the minimum number of non-zero periods required per
// granularity before a series is considered trainable.
var DefaultMinPoints = map[Granularity]int{
	Daily:   30,
	Weekly:  8,
	Monthly: 3,
}

// Report is the verifier's descriptive output. It is advisory: an
// insufficient series is a finding, not an error.
type Report struct {
	MedicineID     uint        `json:"medicine_id"`
	Granularity    Granularity `json:"granularity"`
	TotalPeriods   int         `json:"total_periods"`
	NonZeroPeriods int         `json:"non_zero_periods"`
	NonZeroPercent float64     `json:"non_zero_percent"`
	MinQuantity    int         `json:"min_quantity"`
	MaxQuantity    int         `json:"max_quantity"`
	MeanQuantity   float64     `json:"mean_quantity"`
	StdQuantity    float64     `json:"std_quantity"`
	RequiredPoints int         `json:"required_points"`
	Sufficient     bool        `json:"sufficient"`
}

// Verifier computes descriptive statistics over an aggregated series and
// flags insufficiency against the per-granularity thresholds.
type Verifier struct {
	agg       *Aggregator
	minPoints map[Granularity]int
}

// NewVerifier builds a verifier. A nil minPoints table falls back to
// DefaultMinPoints.
func NewVerifier(agg *Aggregator, minPoints map[Granularity]int) *Verifier {
	if minPoints == nil {
		minPoints = DefaultMinPoints
	}
	return &Verifier{agg: agg, minPoints: minPoints}
}

// Verify aggregates the medicine's demand at the given granularity and
// reports on its fitness for forecasting. An empty series is always
// insufficient; store failures are the only error case.
func (v *Verifier) Verify(ctx context.Context, medicineID uint, g Granularity) (*Report, error) {
	series, err := v.agg.Aggregate(ctx, medicineID, g)
	if err != nil {
		return nil, err
	}
	report := Describe(series, v.minPoints[g])
	report.MedicineID = medicineID
	report.Granularity = g
	return report, nil
}

// Describe computes the statistics for an already aggregated series.
func Describe(series []PeriodPoint, required int) *Report {
	report := &Report{RequiredPoints: required}
	if len(series) == 0 {
		return report
	}

	report.TotalPeriods = len(series)
	report.MinQuantity = series[0].Quantity
	report.MaxQuantity = series[0].Quantity

	var sum int
	for _, p := range series {
		if p.Quantity > 0 {
			report.NonZeroPeriods++
		}
		if p.Quantity < report.MinQuantity {
			report.MinQuantity = p.Quantity
		}
		if p.Quantity > report.MaxQuantity {
			report.MaxQuantity = p.Quantity
		}
		sum += p.Quantity
	}

	n := float64(len(series))
	report.NonZeroPercent = float64(report.NonZeroPeriods) / n * 100
	report.MeanQuantity = float64(sum) / n

	if len(series) > 1 {
		var ss float64
		for _, p := range series {
			d := float64(p.Quantity) - report.MeanQuantity
			ss += d * d
		}
		report.StdQuantity = math.Sqrt(ss / (n - 1))
	}

	report.Sufficient = report.NonZeroPeriods >= required && report.NonZeroPeriods > 0
	return report
}
