// Package models holds the forecasting models that turn a follower history
// into projected counts.
package models

import "context"

// FeatureFrame is a tabular view of the history. Each row maps a feature
// name (for example "day" or "value") to its value.
type FeatureFrame struct {
	Rows []map[string]float64
}

// Forecast is the output of a model: one value per future step.
type Forecast struct {
	// Metric names the series being projected.
	Metric string

	// Values[i] is the projection for step i+1 after the last observed step.
	Values []float64

	// StepDays is the distance between consecutive values in days.
	StepDays int

	// Horizon is the number of steps in Values.
	Horizon int
}

// Model is a trainable forecaster.
type Model interface {
	// Name returns the model identifier.
	Name() string

	// Train fits the model to history.
	Train(ctx context.Context, history FeatureFrame) error

	// Predict projects the series past the last row of features.
	Predict(ctx context.Context, features FeatureFrame) (Forecast, error)
}
