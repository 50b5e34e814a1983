package timeseries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zheridan29/medecine-november/models"
)

// ErrInvalidRange marks an explicit aggregation range whose end precedes its
// start. It is rejected before the store is queried.
var ErrInvalidRange = errors.New("invalid date range")

// Granularity selects the period length of an aggregated series.
type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Daily, Weekly, Monthly:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("unknown granularity: %q", s)
	}
}

// Truncate maps a timestamp to the start of its period: midnight for daily,
// the ISO week's Monday for weekly, the first of the month for monthly.
func (g Granularity) Truncate(t time.Time) time.Time {
	year, month, day := t.Date()
	d := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	switch g {
	case Weekly:
		weekday := int(d.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started the previous Monday
		}
		return d.AddDate(0, 0, -(weekday - 1))
	case Monthly:
		return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	default:
		return d
	}
}

// Next returns the start of the period following t, which must already be a
// period boundary.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Weekly:
		return t.AddDate(0, 0, 7)
	case Monthly:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// PeriodPoint is one element of a regularly spaced demand series.
type PeriodPoint struct {
	PeriodStart time.Time `json:"period_start"`
	Quantity    int       `json:"quantity"`
}

// DemandSource is the slice of the store the aggregator needs.
type DemandSource interface {
	FindDemand(ctx context.Context, medicineID uint, statuses []string) ([]models.DemandRecord, error)
}

// Aggregator turns irregular realized demand into a zero-filled, gap-free
// period series ready for model training.
type Aggregator struct {
	store DemandSource
	log   *zap.SugaredLogger
}

func NewAggregator(store DemandSource, log *zap.SugaredLogger) *Aggregator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Aggregator{store: store, log: log}
}

// Aggregate builds the series over the range actually observed in the data.
// A medicine with no realized demand yields an empty series, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, medicineID uint, g Granularity) ([]PeriodPoint, error) {
	return a.AggregateRange(ctx, medicineID, g, time.Time{}, time.Time{})
}

// AggregateRange builds the series over an explicit [start, end] range.
// Records outside the range are ignored; periods inside it with no demand are
// zero-filled. Zero start/end values fall back to the observed bounds.
func (a *Aggregator) AggregateRange(ctx context.Context, medicineID uint, g Granularity, start, end time.Time) ([]PeriodPoint, error) {
	if _, err := ParseGranularity(string(g)); err != nil {
		return nil, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return nil, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidRange, end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	records, err := a.store.FindDemand(ctx, medicineID, models.RealizedStatuses)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		a.log.Debugw("no realized demand", "medicine_id", medicineID, "granularity", g)
		return []PeriodPoint{}, nil
	}

	buckets := make(map[time.Time]int)
	var first, last time.Time
	for _, r := range records {
		if !start.IsZero() && r.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && r.Timestamp.After(end) {
			continue
		}
		key := g.Truncate(r.Timestamp)
		buckets[key] += r.Quantity
		if first.IsZero() || key.Before(first) {
			first = key
		}
		if last.IsZero() || key.After(last) {
			last = key
		}
	}
	if !start.IsZero() {
		first = g.Truncate(start)
	}
	if !end.IsZero() {
		last = g.Truncate(end)
	}
	if first.IsZero() || last.IsZero() {
		// A half-open range with no records inside it leaves one bound
		// undefined; only a fully configured range spans zero demand.
		return []PeriodPoint{}, nil
	}

	// Reindex over the full boundary set so the series has no gaps.
	var series []PeriodPoint
	for p := first; !p.After(last); p = g.Next(p) {
		series = append(series, PeriodPoint{PeriodStart: p, Quantity: buckets[p]})
	}

	a.log.Debugw("aggregated demand series",
		"medicine_id", medicineID,
		"granularity", g,
		"records", len(records),
		"periods", len(series),
	)
	return series, nil
}
