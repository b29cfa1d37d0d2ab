// Package features provides utilities for building feature frames from the
// follower series.
package features

import (
	"errors"
	"time"

	"github.com/HatiCode/followcast/pkg/models"
	"github.com/HatiCode/followcast/pkg/storage"
)

// ErrEmptySeries is returned when there are no samples to build from.
var ErrEmptySeries = errors.New("series is empty")

const secondsPerDay = 24 * 60 * 60

// Builder constructs feature frames from samples, turning calendar dates
// into the numeric columns the models regress on.
type Builder struct{}

// NewBuilder creates a new feature builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// BuildFeatures converts an ascending series into a FeatureFrame with one row
// per sample and the following columns:
//   - day: whole days since the first sample (the first row is 0)
//   - value: the follower count
//   - timestamp: Unix timestamp in seconds of the sample date
//   - weekday: day of week (0-6, Sunday=0)
//
// The first sample is taken as the origin, so samples must be sorted.
func (b *Builder) BuildFeatures(samples []storage.Sample) (models.FeatureFrame, error) {
	if len(samples) == 0 {
		return models.FeatureFrame{}, ErrEmptySeries
	}

	origin := storage.Day(samples[0].Date)
	rows := make([]map[string]float64, 0, len(samples))

	for _, s := range samples {
		date := storage.Day(s.Date)
		rows = append(rows, map[string]float64{
			"day":       float64(DaysBetween(origin, date)),
			"value":     float64(s.Count),
			"timestamp": float64(date.Unix()),
			"weekday":   float64(date.Weekday()),
		})
	}

	return models.FeatureFrame{Rows: rows}, nil
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int((storage.Day(b).Unix() - storage.Day(a).Unix()) / secondsPerDay)
}
