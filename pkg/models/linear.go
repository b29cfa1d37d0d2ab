package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoPoints is returned when a line is fitted to an empty set.
var ErrNoPoints = errors.New("no points to fit")

// Point is one (x, y) observation.
type Point struct {
	X float64
	Y float64
}

// Line is y = Slope*x + Intercept.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// FitLine returns the ordinary least-squares line through points.
//
// When every x is identical the slope is undefined; FitLine then returns a
// flat line through the mean of y.
func FitLine(points []Point) (Line, error) {
	n := float64(len(points))
	if n == 0 {
		return Line{}, ErrNoPoints
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	meanX, meanY := sumX/n, sumY/n

	var sxx, sxy float64
	for _, p := range points {
		dx := p.X - meanX
		sxx += dx * dx
		sxy += dx * (p.Y - meanY)
	}

	if sxx == 0 {
		return Line{Slope: 0, Intercept: meanY}, nil
	}

	slope := sxy / sxx
	return Line{Slope: slope, Intercept: meanY - slope*meanX}, nil
}

// LinearModel regresses the "value" column on the "day" column and projects
// the fitted line forward one day per step.
type LinearModel struct {
	metric  string
	horizon int
	line    Line
	trained bool
}

// NewLinearModel creates a model that predicts horizon daily steps.
func NewLinearModel(metric string, horizon int) *LinearModel {
	return &LinearModel{metric: metric, horizon: horizon}
}

// Name returns the model identifier.
func (m *LinearModel) Name() string {
	return "linear"
}

// Line returns the fitted line. It is the zero Line before Train.
func (m *LinearModel) Line() Line {
	return m.line
}

// Train fits the line to rows that carry both "day" and "value".
func (m *LinearModel) Train(ctx context.Context, history FeatureFrame) error {
	points := make([]Point, 0, len(history.Rows))
	for _, row := range history.Rows {
		day, hasDay := row["day"]
		value, hasValue := row["value"]
		if hasDay && hasValue {
			points = append(points, Point{X: day, Y: value})
		}
	}

	line, err := FitLine(points)
	if err != nil {
		return fmt.Errorf("train: %w", err)
	}
	m.line = line
	m.trained = true
	return nil
}

// Predict evaluates the trained line at max(day)+1 … max(day)+horizon.
func (m *LinearModel) Predict(ctx context.Context, features FeatureFrame) (Forecast, error) {
	if !m.trained {
		return Forecast{}, fmt.Errorf("model is not trained")
	}
	if m.horizon < 1 {
		return Forecast{}, fmt.Errorf("horizon must be positive, got %d", m.horizon)
	}

	maxDay, found := 0.0, false
	for _, row := range features.Rows {
		if d, ok := row["day"]; ok && (!found || d > maxDay) {
			maxDay, found = d, true
		}
	}
	if !found {
		return Forecast{}, fmt.Errorf("no 'day' field found in features")
	}

	values := make([]float64, m.horizon)
	for i := range values {
		values[i] = m.line.At(maxDay + float64(i+1))
	}

	return Forecast{
		Metric:   m.metric,
		Values:   values,
		StepDays: 1,
		Horizon:  m.horizon,
	}, nil
}
