// Package analytics derives read-only views from an ascending snapshot of the
// follower series: trend alerts, milestone insight and linear forecasts.
//
// Every function is pure. Callers fetch the snapshot from a storage.Store and
// hand it over; nothing here touches the store.
package analytics

import (
	"context"
	"errors"
	"fmt"

	"github.com/HatiCode/followcast/pkg/features"
	"github.com/HatiCode/followcast/pkg/models"
	"github.com/HatiCode/followcast/pkg/storage"
)

var (
	// ErrInsufficientData is returned when a series is too short for the
	// requested computation.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidHorizon is returned for a forecast horizon below 1.
	ErrInvalidHorizon = errors.New("forecast horizon must be at least 1 day")
)

const metricName = "followers"

// fit regresses count on days since the first sample.
func fit(ctx context.Context, samples []storage.Sample, horizon int) (*models.LinearModel, models.FeatureFrame, error) {
	frame, err := features.NewBuilder().BuildFeatures(samples)
	if err != nil {
		return nil, models.FeatureFrame{}, fmt.Errorf("%w: %w", ErrInsufficientData, err)
	}

	model := models.NewLinearModel(metricName, horizon)
	if err := model.Train(ctx, frame); err != nil {
		return nil, models.FeatureFrame{}, fmt.Errorf("fit: %w", err)
	}
	return model, frame, nil
}
