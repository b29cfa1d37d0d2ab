package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps samples in a map guarded by a mutex.
// Data is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	samples map[time.Time]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{samples: make(map[time.Time]int)}
}

func (m *MemoryStore) Add(_ context.Context, s Sample) error {
	if err := validate(s); err != nil {
		return err
	}
	date := Day(s.Date)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.samples[date]; ok {
		return ErrDuplicateKey
	}
	m.samples[date] = s.Count
	return nil
}

func (m *MemoryStore) AddBatch(_ context.Context, samples []Sample) error {
	if err := validateBatch(samples); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range samples {
		if _, ok := m.samples[Day(s.Date)]; ok {
			return fmt.Errorf("%s: %w", s.Key(), ErrDuplicateKey)
		}
	}
	for _, s := range samples {
		m.samples[Day(s.Date)] = s.Count
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(), nil
}

func (m *MemoryStore) ListPage(_ context.Context, page, limit int) ([]Sample, int, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sorted()
	start, end := pageBounds(page, limit, len(all))
	return all[start:end], len(all), nil
}

func (m *MemoryStore) Recent(_ context.Context, n int) ([]Sample, error) {
	if n <= 0 {
		return []Sample{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sorted()
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all, nil
}

func (m *MemoryStore) Update(_ context.Context, date, newDate time.Time, count int) error {
	if err := validate(Sample{Date: newDate, Count: count}); err != nil {
		return err
	}
	date, newDate = Day(date), Day(newDate)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.samples[date]; !ok {
		return ErrNotFound
	}
	if !newDate.Equal(date) {
		if _, taken := m.samples[newDate]; taken {
			return ErrDuplicateKey
		}
		delete(m.samples, date)
	}
	m.samples[newDate] = count
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.samples, Day(date))
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.samples)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

// sorted must be called with the lock held.
func (m *MemoryStore) sorted() []Sample {
	out := make([]Sample, 0, len(m.samples))
	for d, c := range m.samples {
		out = append(out, Sample{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
