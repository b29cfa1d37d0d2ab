// Package tracker orchestrates one request against the follower series: it
// calls the store, hands snapshots to the analytics engine and reports how
// long each store operation took.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/HatiCode/followcast/pkg/analytics"
	"github.com/HatiCode/followcast/pkg/export"
	"github.com/HatiCode/followcast/pkg/milestone"
	"github.com/HatiCode/followcast/pkg/storage"
)

// Options tunes the analytics computed by a Service.
type Options struct {
	// AlertWindow is the number of recent samples alerts look at.
	AlertWindow int

	// Milestone places insight milestones.
	Milestone milestone.Policy

	// DefaultHorizon is used when Forecast is called with horizon 0.
	DefaultHorizon int

	// MaxHorizon caps the forecast length. 0 means no cap.
	MaxHorizon int
}

// DefaultOptions returns the stock analytics settings.
func DefaultOptions() Options {
	return Options{
		AlertWindow:    analytics.DefaultWindow,
		Milestone:      milestone.Policy{Step: milestone.DefaultStep},
		DefaultHorizon: analytics.DefaultHorizon,
		MaxHorizon:     365,
	}
}

// Service is safe for concurrent use when its Store is.
type Service struct {
	store    storage.Store
	opts     Options
	recorder Recorder
	logger   *slog.Logger
}

// New creates a Service. A nil recorder or logger is replaced by a no-op
// recorder and slog.Default.
func New(store storage.Store, opts Options, recorder Recorder, logger *slog.Logger) *Service {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.AlertWindow <= 0 {
		opts.AlertWindow = analytics.DefaultWindow
	}
	if opts.DefaultHorizon <= 0 {
		opts.DefaultHorizon = analytics.DefaultHorizon
	}

	return &Service{
		store:    store,
		opts:     opts,
		recorder: recorder,
		logger:   logger,
	}
}

// Options returns the effective settings.
func (s *Service) Options() Options {
	return s.opts
}

// List returns every sample, ascending.
func (s *Service) List(ctx context.Context) ([]storage.Sample, error) {
	var samples []storage.Sample
	err := s.timed("list", func() (err error) {
		samples, err = s.store.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recorder.SetSamples(len(samples))
	return samples, nil
}

// Page returns one page of samples and the total count.
func (s *Service) Page(ctx context.Context, page, limit int) ([]storage.Sample, int, error) {
	var (
		samples []storage.Sample
		total   int
	)
	err := s.timed("list_page", func() (err error) {
		samples, total, err = s.store.ListPage(ctx, page, limit)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	s.recorder.SetSamples(total)
	return samples, total, nil
}

// Add records a new sample.
func (s *Service) Add(ctx context.Context, smp storage.Sample) error {
	err := s.timed("add", func() error {
		return s.store.Add(ctx, smp)
	})
	if err != nil {
		return err
	}
	s.logger.Info("entry added", "date", smp.Key(), "count", smp.Count)
	return nil
}

// Update changes the count of the sample at date and moves it to newDate.
func (s *Service) Update(ctx context.Context, date, newDate time.Time, count int) error {
	err := s.timed("update", func() error {
		return s.store.Update(ctx, date, newDate, count)
	})
	if err != nil {
		return err
	}
	s.logger.Info("entry updated",
		"date", date.Format(storage.DateLayout),
		"new_date", newDate.Format(storage.DateLayout),
		"count", count,
	)
	return nil
}

// Delete removes the sample at date if present.
func (s *Service) Delete(ctx context.Context, date time.Time) error {
	err := s.timed("delete", func() error {
		return s.store.Delete(ctx, date)
	})
	if err != nil {
		return err
	}
	s.logger.Info("entry deleted", "date", date.Format(storage.DateLayout))
	return nil
}

// Clear removes every sample.
func (s *Service) Clear(ctx context.Context) error {
	err := s.timed("clear", func() error {
		return s.store.Clear(ctx)
	})
	if err != nil {
		return err
	}
	s.recorder.SetSamples(0)
	s.logger.Info("all entries deleted")
	return nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.timed("ping", func() error {
		return s.store.Ping(ctx)
	})
}

// Alert runs the trend alert over the configured window.
func (s *Service) Alert(ctx context.Context) (analytics.Alert, error) {
	recent, err := s.recent(ctx)
	if err != nil {
		return analytics.Alert{}, err
	}
	alert := analytics.TrendAlert(recent, s.opts.AlertWindow)
	s.recorder.RecordAnalytics("alert", string(alert.Status))
	return alert, nil
}

// DetailedAlert runs the detailed trend classification.
func (s *Service) DetailedAlert(ctx context.Context) (analytics.DetailedAlert, error) {
	recent, err := s.recent(ctx)
	if err != nil {
		return analytics.DetailedAlert{}, err
	}
	alert := analytics.ClassifyTrend(recent, s.opts.AlertWindow)
	s.recorder.RecordAnalytics("detailed_alert", string(alert.Kind))
	return alert, nil
}

// Insight reports progress toward the next milestone.
func (s *Service) Insight(ctx context.Context) (analytics.Insight, error) {
	samples, err := s.List(ctx)
	if err != nil {
		return analytics.Insight{}, err
	}
	in, err := analytics.MilestoneInsight(ctx, samples, s.opts.Milestone)
	if err != nil {
		s.recorder.RecordAnalytics("insight", outcome(err))
		return analytics.Insight{}, err
	}
	s.recorder.RecordAnalytics("insight", "ok")
	return in, nil
}

// Forecast projects the series horizon days ahead. A horizon of 0 uses the
// configured default.
func (s *Service) Forecast(ctx context.Context, horizon int) ([]analytics.ForecastPoint, error) {
	if horizon == 0 {
		horizon = s.opts.DefaultHorizon
	}
	if s.opts.MaxHorizon > 0 && horizon > s.opts.MaxHorizon {
		return nil, fmt.Errorf("%w: %d exceeds the maximum of %d", analytics.ErrInvalidHorizon, horizon, s.opts.MaxHorizon)
	}

	samples, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	points, err := analytics.Forecast(ctx, samples, horizon)
	s.recorder.RecordAnalytics("forecast", outcome(err))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("forecast computed",
		"samples", len(samples),
		"horizon", horizon,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return points, nil
}

// Export writes every sample as CSV.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	samples, err := s.List(ctx)
	if err != nil {
		return err
	}
	return export.WriteCSV(w, samples)
}

// Import reads a CSV export and adds every row in a single batch. Nothing is
// stored unless the whole file is: a date that repeats within it or is
// already stored fails the import with storage.ErrDuplicateKey.
func (s *Service) Import(ctx context.Context, r io.Reader) (int, error) {
	samples, err := export.ReadCSV(r)
	if err != nil {
		return 0, err
	}

	if err := s.timed("add_batch", func() error { return s.store.AddBatch(ctx, samples) }); err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	s.logger.Info("entries imported", "count", len(samples))
	return len(samples), nil
}

func (s *Service) recent(ctx context.Context) ([]storage.Sample, error) {
	var samples []storage.Sample
	err := s.timed("recent", func() (err error) {
		samples, err = s.store.Recent(ctx, s.opts.AlertWindow)
		return err
	})
	return samples, err
}

// timed runs one store operation and reports its latency and outcome.
func (s *Service) timed(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	s.recorder.ObserveStoreOp(op, elapsed.Seconds(), err)

	switch {
	case err == nil:
		s.logger.Debug("store operation", "op", op, "duration_ms", elapsed.Milliseconds())
	case errors.Is(err, storage.ErrUnavailable):
		s.logger.Error("store operation failed", "op", op, "error", err)
	default:
		s.logger.Debug("store operation rejected", "op", op, "error", err)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, analytics.ErrInsufficientData):
		return "insufficient_data"
	default:
		return "error"
	}
}
