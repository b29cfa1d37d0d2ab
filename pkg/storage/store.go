// Package storage holds the follower time series: one Sample per calendar day,
// persisted behind the Store interface by an in-memory, SQLite, PostgreSQL or
// Redis backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire and column format of a sample date.
const DateLayout = "2006-01-02"

var (
	// ErrDuplicateKey is returned when a sample already exists for the date.
	ErrDuplicateKey = errors.New("entry for this date already exists")

	// ErrNotFound is returned when no sample exists for the date.
	ErrNotFound = errors.New("entry not found")

	// ErrUnavailable wraps failures of the backing datastore.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrInvalidSample is returned for samples that violate the data model.
	ErrInvalidSample = errors.New("invalid sample")

	// ErrInvalidPage is returned for a page or limit below 1.
	ErrInvalidPage = errors.New("page and limit must be positive")
)

// Sample is one observed follower count.
type Sample struct {
	Date  time.Time
	Count int
}

// Key returns the sample date in DateLayout.
func (s Sample) Key() string {
	return s.Date.Format(DateLayout)
}

// Store is a durable date-keyed series of samples.
//
// Implementations commit every mutation before returning and always return
// samples in ascending date order.
type Store interface {
	// Add persists a new sample. Returns ErrDuplicateKey if the date exists.
	Add(ctx context.Context, s Sample) error

	// AddBatch persists every sample or none of them. Returns
	// ErrDuplicateKey if any date exists or repeats within the batch.
	AddBatch(ctx context.Context, samples []Sample) error

	// List returns every sample, ascending by date.
	List(ctx context.Context) ([]Sample, error)

	// ListPage returns the page-th (1-based) slice of at most limit samples
	// and the total number of samples.
	ListPage(ctx context.Context, page, limit int) ([]Sample, int, error)

	// Recent returns the latest n samples, ascending by date.
	Recent(ctx context.Context, n int) ([]Sample, error)

	// Update sets the count of the sample at date and moves it to newDate.
	// Pass newDate == date for a count-only update.
	Update(ctx context.Context, date, newDate time.Time, count int) error

	// Delete removes the sample at date. Deleting a missing date is not an error.
	Delete(ctx context.Context, date time.Time) error

	// Clear removes every sample.
	Clear(ctx context.Context) error

	// Ping reports whether the datastore is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidSample, s)
	}
	return t, nil
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewSample builds a validated sample from its wire representation.
func NewSample(date string, count int) (Sample, error) {
	d, err := ParseDate(date)
	if err != nil {
		return Sample{}, err
	}
	s := Sample{Date: d, Count: count}
	if err := validate(s); err != nil {
		return Sample{}, err
	}
	return s, nil
}

func validate(s Sample) error {
	if s.Count < 0 {
		return fmt.Errorf("%w: count %d is negative", ErrInvalidSample, s.Count)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidSample)
	}
	return nil
}

func validateBatch(samples []Sample) error {
	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		if err := validate(s); err != nil {
			return err
		}
		if seen[s.Key()] {
			return fmt.Errorf("%s: %w", s.Key(), ErrDuplicateKey)
		}
		seen[s.Key()] = true
	}
	return nil
}

func validatePage(page, limit int) error {
	if page < 1 || limit < 1 {
		return fmt.Errorf("%w: page=%d limit=%d", ErrInvalidPage, page, limit)
	}
	return nil
}

// unavailable wraps a driver error so callers can match ErrUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// pageBounds converts a 1-based page into a half-open [start, end) range
// clipped to total.
func pageBounds(page, limit, total int) (int, int) {
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

func reverse(samples []Sample) {
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}
}
