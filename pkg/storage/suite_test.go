package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

// runStoreSuite exercises the Store contract against a fresh store per subtest.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("list is sorted regardless of insertion order", func(t *testing.T) {
		s := newStore(t)
		for _, smp := range []Sample{
			mustSample(t, "2024-01-03", 120),
			mustSample(t, "2024-01-01", 100),
			mustSample(t, "2023-12-31", 95),
			mustSample(t, "2024-01-02", 110),
		} {
			if err := s.Add(ctx, smp); err != nil {
				t.Fatalf("Add(%s) error = %v", smp.Key(), err)
			}
		}

		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		assertKeys(t, got, "2023-12-31", "2024-01-01", "2024-01-02", "2024-01-03")
		if got[3].Count != 120 {
			t.Errorf("last count = %d, want 120", got[3].Count)
		}
	})

	t.Run("empty store lists nothing", func(t *testing.T) {
		s := newStore(t)
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Errorf("List() = %v, want empty non-nil slice", got)
		}
	})

	t.Run("duplicate add leaves store unchanged", func(t *testing.T) {
		s := newStore(t)
		if err := s.Add(ctx, mustSample(t, "2024-01-01", 100)); err != nil {
			t.Fatalf("Add() error = %v", err)
		}

		err := s.Add(ctx, mustSample(t, "2024-01-01", 999))
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("Add(duplicate) error = %v, want ErrDuplicateKey", err)
		}

		got, _ := s.List(ctx)
		if len(got) != 1 || got[0].Count != 100 {
			t.Errorf("List() = %v, want single sample with count 100", got)
		}
	})

	t.Run("negative count rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Add(ctx, Sample{Date: day(t, "2024-01-01"), Count: -1})
		if !errors.Is(err, ErrInvalidSample) {
			t.Errorf("Add(negative) error = %v, want ErrInvalidSample", err)
		}
	})

	t.Run("update count", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-01", 100)

		if err := s.Update(ctx, day(t, "2024-01-01"), day(t, "2024-01-01"), 150); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := s.List(ctx)
		if len(got) != 1 || got[0].Count != 150 {
			t.Errorf("List() = %v, want count 150", got)
		}
	})

	t.Run("update renames date", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-01", 100)
		seed(t, s, "2024-01-05", 140)

		if err := s.Update(ctx, day(t, "2024-01-01"), day(t, "2024-01-03"), 120); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := s.List(ctx)
		assertKeys(t, got, "2024-01-03", "2024-01-05")
		if got[0].Count != 120 {
			t.Errorf("renamed count = %d, want 120", got[0].Count)
		}
	})

	t.Run("update missing date", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(ctx, day(t, "2024-01-01"), day(t, "2024-01-01"), 1)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("update onto existing date", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-01", 100)
		seed(t, s, "2024-01-02", 110)

		err := s.Update(ctx, day(t, "2024-01-01"), day(t, "2024-01-02"), 1)
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("Update(rename onto existing) error = %v, want ErrDuplicateKey", err)
		}
		got, _ := s.List(ctx)
		if len(got) != 2 || got[0].Count != 100 || got[1].Count != 110 {
			t.Errorf("List() = %v, want store unchanged", got)
		}
	})

	t.Run("delete missing date is a no-op", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-01", 100)

		if err := s.Delete(ctx, day(t, "2030-01-01")); err != nil {
			t.Fatalf("Delete(missing) error = %v", err)
		}
		got, _ := s.List(ctx)
		if len(got) != 1 {
			t.Errorf("len(List()) = %d, want 1", len(got))
		}
	})

	t.Run("delete existing date", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-01", 100)
		seed(t, s, "2024-01-02", 110)

		if err := s.Delete(ctx, day(t, "2024-01-01")); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		got, _ := s.List(ctx)
		assertKeys(t, got, "2024-01-02")
	})

	t.Run("clear empties the store", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-01", 100)
		seed(t, s, "2024-01-02", 110)

		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear() error = %v", err)
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("List() after Clear = %v, want empty", got)
		}
	})

	t.Run("list page", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 5; i++ {
			seed(t, s, time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format(DateLayout), 100+i)
		}

		tests := []struct {
			page, limit int
			want        []string
		}{
			{1, 2, []string{"2024-01-01", "2024-01-02"}},
			{2, 2, []string{"2024-01-03", "2024-01-04"}},
			{3, 2, []string{"2024-01-05"}},
			{4, 2, nil},
			{1, 10, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}},
		}
		for _, tt := range tests {
			got, total, err := s.ListPage(ctx, tt.page, tt.limit)
			if err != nil {
				t.Fatalf("ListPage(%d, %d) error = %v", tt.page, tt.limit, err)
			}
			if total != 5 {
				t.Errorf("ListPage(%d, %d) total = %d, want 5", tt.page, tt.limit, total)
			}
			assertKeys(t, got, tt.want...)
		}

		if _, _, err := s.ListPage(ctx, 0, 2); !errors.Is(err, ErrInvalidPage) {
			t.Errorf("ListPage(0, 2) error = %v, want ErrInvalidPage", err)
		}
	})

	t.Run("recent returns latest ascending", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 10; i++ {
			seed(t, s, time.Date(2024, 2, 1+i, 0, 0, 0, 0, time.UTC).Format(DateLayout), i)
		}

		got, err := s.Recent(ctx, 3)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		assertKeys(t, got, "2024-02-08", "2024-02-09", "2024-02-10")

		all, err := s.Recent(ctx, 50)
		if err != nil {
			t.Fatalf("Recent(50) error = %v", err)
		}
		if len(all) != 10 {
			t.Errorf("len(Recent(50)) = %d, want 10", len(all))
		}
	})

	t.Run("batch add stores every sample", func(t *testing.T) {
		s := newStore(t)
		err := s.AddBatch(ctx, []Sample{
			mustSample(t, "2024-01-02", 110),
			mustSample(t, "2024-01-01", 100),
			mustSample(t, "2024-01-03", 120),
		})
		if err != nil {
			t.Fatalf("AddBatch() error = %v", err)
		}

		got, _ := s.List(ctx)
		assertKeys(t, got, "2024-01-01", "2024-01-02", "2024-01-03")
		if got[1].Count != 110 {
			t.Errorf("middle count = %d, want 110", got[1].Count)
		}
	})

	t.Run("batch add with stored date writes nothing", func(t *testing.T) {
		s := newStore(t)
		seed(t, s, "2024-01-03", 120)

		err := s.AddBatch(ctx, []Sample{
			mustSample(t, "2024-01-01", 100),
			mustSample(t, "2024-01-02", 110),
			mustSample(t, "2024-01-03", 999),
			mustSample(t, "2024-01-04", 130),
		})
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("AddBatch() error = %v, want ErrDuplicateKey", err)
		}

		got, _ := s.List(ctx)
		assertKeys(t, got, "2024-01-03")
		if got[0].Count != 120 {
			t.Errorf("count = %d, want 120", got[0].Count)
		}
	})

	t.Run("batch add with repeated date writes nothing", func(t *testing.T) {
		s := newStore(t)
		err := s.AddBatch(ctx, []Sample{
			mustSample(t, "2024-01-01", 100),
			mustSample(t, "2024-01-01", 101),
		})
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("AddBatch() error = %v, want ErrDuplicateKey", err)
		}

		got, _ := s.List(ctx)
		assertKeys(t, got)
	})

	t.Run("batch add with invalid sample writes nothing", func(t *testing.T) {
		s := newStore(t)
		err := s.AddBatch(ctx, []Sample{
			mustSample(t, "2024-01-01", 100),
			{Date: day(t, "2024-01-02"), Count: -5},
		})
		if !errors.Is(err, ErrInvalidSample) {
			t.Fatalf("AddBatch() error = %v, want ErrInvalidSample", err)
		}

		got, _ := s.List(ctx)
		assertKeys(t, got)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

func mustSample(t *testing.T, date string, count int) Sample {
	t.Helper()
	s, err := NewSample(date, count)
	if err != nil {
		t.Fatalf("NewSample(%q, %d) error = %v", date, count, err)
	}
	return s
}

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := ParseDate(date)
	if err != nil {
		t.Fatalf("ParseDate(%q) error = %v", date, err)
	}
	return d
}

func seed(t *testing.T, s Store, date string, count int) {
	t.Helper()
	if err := s.Add(context.Background(), mustSample(t, date, count)); err != nil {
		t.Fatalf("Add(%s) error = %v", date, err)
	}
}

func assertKeys(t *testing.T, got []Sample, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d samples %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i].Key() != want[i] {
			t.Errorf("sample[%d] = %s, want %s", i, got[i].Key(), want[i])
		}
	}
}
