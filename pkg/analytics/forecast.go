package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/HatiCode/followcast/pkg/storage"
)

const (
	// DefaultHorizon is the forecast length in days when the caller gives none.
	DefaultHorizon = 30

	// MinForecastSamples is the smallest series a forecast is fitted on.
	MinForecastSamples = 4
)

// ForecastPoint is one projected day.
type ForecastPoint struct {
	Date            string `json:"date"`
	Day             int    `json:"day"`
	ForecastedCount int    `json:"forecasted_count"`
}

// Forecast fits count against days since the first sample and projects the
// line horizon days past the last sample. Predictions are rounded to the
// nearest integer and may be negative.
func Forecast(ctx context.Context, samples []storage.Sample, horizon int) ([]ForecastPoint, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	if len(samples) < MinForecastSamples {
		return nil, fmt.Errorf("%w: forecast needs at least %d samples, have %d",
			ErrInsufficientData, MinForecastSamples, len(samples))
	}

	model, frame, err := fit(ctx, samples, horizon)
	if err != nil {
		return nil, err
	}

	projection, err := model.Predict(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	last := storage.Day(samples[len(samples)-1].Date)
	points := make([]ForecastPoint, len(projection.Values))
	for i, v := range projection.Values {
		points[i] = ForecastPoint{
			Date:            last.AddDate(0, 0, i+1).Format(storage.DateLayout),
			Day:             i + 1,
			ForecastedCount: int(math.Round(v)),
		}
	}
	return points, nil
}
