// Package forecast defines the contract between the prepared demand series
// and the external forecasting model. The model itself (fitting, parameter
// selection) lives outside this module; this package only fixes the shapes
// crossing that boundary.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zheridan29/medecine-november/timeseries"
)

var (
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")
	ErrEmptySeries    = errors.New("cannot forecast from an empty series")
)

// ModelOrder is the fitted (p, d, q) order reported back by the model.
type ModelOrder struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// Forecast is the model's answer for one medicine and granularity.
type Forecast struct {
	MedicineID     uint                   `json:"medicine_id"`
	Granularity    timeseries.Granularity `json:"granularity"`
	Horizon        int                    `json:"horizon"`
	Values         []float64              `json:"values"`
	TrainingPoints int                    `json:"training_points"`
	Order          ModelOrder             `json:"order"`
	CreatedAt      time.Time              `json:"created_at"`
}

// Forecaster is implemented by the external model. It receives the
// aggregator's ordered, gap-free series and the requested horizon.
type Forecaster interface {
	Forecast(ctx context.Context, series []timeseries.PeriodPoint, horizon int) (*Forecast, error)
}

// ValidateInput checks a series/horizon pair before it is handed to a model.
func ValidateInput(series []timeseries.PeriodPoint, horizon int) error {
	if horizon <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if len(series) == 0 {
		return ErrEmptySeries
	}
	return nil
}

// TrainingValues flattens a period series into the float vector models train on.
func TrainingValues(series []timeseries.PeriodPoint) []float64 {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = float64(p.Quantity)
	}
	return values
}
