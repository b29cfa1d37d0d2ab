package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/HatiCode/followcast/pkg/milestone"
	"github.com/HatiCode/followcast/pkg/storage"
)

// series builds consecutive daily samples starting 2024-01-01.
func series(counts ...int) []storage.Sample {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]storage.Sample, len(counts))
	for i, c := range counts {
		out[i] = storage.Sample{Date: start.AddDate(0, 0, i), Count: c}
	}
	return out
}

func TestTrendAlert(t *testing.T) {
	tests := []struct {
		name       string
		counts     []int
		window     int
		wantStatus AlertStatus
		wantLast   int
	}{
		{"empty", nil, 7, StatusInsufficientData, 0},
		{"single", []int{100}, 7, StatusInsufficientData, 0},
		{"steady", []int{100, 102, 104, 106}, 7, StatusNormal, 2},
		{"jump", []int{100, 102, 104, 106, 108, 110, 150}, 7, StatusUnusual, 40},
		{"drop", []int{100, 110, 120, 130, 140, 150, 60}, 7, StatusUnusual, -90},
		{"flat then move", []int{100, 100, 100, 101}, 7, StatusUnusual, 1},
		{"default window", []int{100, 102, 104, 106, 108, 110, 150}, 0, StatusUnusual, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrendAlert(series(tt.counts...), tt.window)
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %q, want %q", got.Status, tt.wantStatus)
			}
			if got.LastChange != tt.wantLast {
				t.Errorf("LastChange = %d, want %d", got.LastChange, tt.wantLast)
			}
			if got.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestTrendAlert_Statistics(t *testing.T) {
	got := TrendAlert(series(100, 102, 104, 106, 108, 110, 150), 7)

	wantAvg := 50.0 / 6.0
	if math.Abs(got.AvgChange-wantAvg) > 1e-9 {
		t.Errorf("AvgChange = %v, want %v", got.AvgChange, wantAvg)
	}
	if math.Abs(got.Threshold-2*wantAvg) > 1e-9 {
		t.Errorf("Threshold = %v, want %v", got.Threshold, 2*wantAvg)
	}
	if got.Samples != 7 {
		t.Errorf("Samples = %d, want 7", got.Samples)
	}
	if got.Message != "Unusual follower activity detected!" {
		t.Errorf("Message = %q", got.Message)
	}
}

func TestTrendAlert_OnlyLooksAtWindow(t *testing.T) {
	// A huge early jump falls outside the 7-sample window.
	counts := []int{0, 10000, 10002, 10004, 10006, 10008, 10010, 10012}
	got := TrendAlert(series(counts...), 7)

	if got.Samples != 7 {
		t.Errorf("Samples = %d, want 7", got.Samples)
	}
	if got.AvgChange != 2 {
		t.Errorf("AvgChange = %v, want 2", got.AvgChange)
	}
	if got.Status != StatusNormal {
		t.Errorf("Status = %q, want normal", got.Status)
	}
}

func TestClassifyTrend(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		want   AlertKind
	}{
		{"insufficient", []int{100}, KindInsufficientData},
		{"surge", []int{100, 102, 104, 106, 108, 110, 150}, KindSurge},
		{"loss", []int{100, 110, 120, 130, 140, 150, 60}, KindLoss},
		{"stagnant", []int{100, 100, 100, 100}, KindStagnant},
		{"stable", []int{100, 101, 102, 103}, KindStable},
		{"seasonal shift", []int{100, 110, 120, 130}, KindSeasonalShift},
		// Decline within threshold: avg -10, last -10.
		{"steady decline", []int{130, 120, 110, 100}, KindSeasonalShift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTrend(series(tt.counts...), DefaultWindow)
			if got.Kind != tt.want {
				t.Errorf("Kind = %q, want %q (avg=%v last=%d)", got.Kind, tt.want, got.AvgChange, got.LastChange)
			}
			if got.Message != kindMessages[tt.want] {
				t.Errorf("Message = %q, want %q", got.Message, kindMessages[tt.want])
			}
		})
	}
}

func TestMilestoneInsight(t *testing.T) {
	ctx := context.Background()

	got, err := MilestoneInsight(ctx, series(100, 110, 120), milestone.Policy{})
	if err != nil {
		t.Fatalf("MilestoneInsight() error = %v", err)
	}

	if got.CurrentFollowers != 120 {
		t.Errorf("CurrentFollowers = %d, want 120", got.CurrentFollowers)
	}
	if got.NextMilestone != 500 {
		t.Errorf("NextMilestone = %d, want 500", got.NextMilestone)
	}
	if got.ProgressPercentage != 24.0 {
		t.Errorf("ProgressPercentage = %v, want 24.0", got.ProgressPercentage)
	}
	if got.AverageDailyGrowth != 10 {
		t.Errorf("AverageDailyGrowth = %v, want 10", got.AverageDailyGrowth)
	}
	if got.EstimatedDaysToMilestone == nil || *got.EstimatedDaysToMilestone != 38 {
		t.Errorf("EstimatedDaysToMilestone = %v, want 38", got.EstimatedDaysToMilestone)
	}
	if got.Note != "" {
		t.Errorf("Note = %q, want empty", got.Note)
	}
}

func TestMilestoneInsight_GrowthTooLow(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
	}{
		{"single sample", []int{250}},
		{"flat", []int{300, 300, 300}},
		{"declining", []int{400, 350, 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MilestoneInsight(context.Background(), series(tt.counts...), milestone.Policy{})
			if err != nil {
				t.Fatalf("MilestoneInsight() error = %v", err)
			}
			if got.EstimatedDaysToMilestone != nil {
				t.Errorf("EstimatedDaysToMilestone = %d, want nil", *got.EstimatedDaysToMilestone)
			}
			if got.Note != NoteGrowthTooLow {
				t.Errorf("Note = %q, want %q", got.Note, NoteGrowthTooLow)
			}
			if got.NextMilestone != 500 {
				t.Errorf("NextMilestone = %d, want 500", got.NextMilestone)
			}
		})
	}
}

func TestMilestoneInsight_NoiseSlopeHasNoEstimate(t *testing.T) {
	// The fitted slope is zero up to float rounding.
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	offsets := []int{0, 2, 4, 5, 7, 10}
	counts := []int{1000, 1002, 1000, 1000, 1000, 1001}
	samples := make([]storage.Sample, len(offsets))
	for i := range offsets {
		samples[i] = storage.Sample{Date: start.AddDate(0, 0, offsets[i]), Count: counts[i]}
	}

	got, err := MilestoneInsight(context.Background(), samples, milestone.Policy{})
	if err != nil {
		t.Fatalf("MilestoneInsight() error = %v", err)
	}
	if got.AverageDailyGrowth != 0 {
		t.Errorf("AverageDailyGrowth = %v, want 0", got.AverageDailyGrowth)
	}
	if got.EstimatedDaysToMilestone != nil {
		t.Errorf("EstimatedDaysToMilestone = %d, want nil", *got.EstimatedDaysToMilestone)
	}
	if got.Note != NoteGrowthTooLow {
		t.Errorf("Note = %q, want %q", got.Note, NoteGrowthTooLow)
	}
}

func TestMilestoneInsight_UsesCalendarDays(t *testing.T) {
	// Two samples ten days apart: slope is 5/day, not 50/step.
	samples := []storage.Sample{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Count: 400},
		{Date: time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), Count: 450},
	}

	got, err := MilestoneInsight(context.Background(), samples, milestone.Policy{Step: 100})
	if err != nil {
		t.Fatalf("MilestoneInsight() error = %v", err)
	}
	if got.AverageDailyGrowth != 5 {
		t.Errorf("AverageDailyGrowth = %v, want 5", got.AverageDailyGrowth)
	}
	if got.NextMilestone != 500 {
		t.Errorf("NextMilestone = %d, want 500", got.NextMilestone)
	}
	if got.EstimatedDaysToMilestone == nil || *got.EstimatedDaysToMilestone != 10 {
		t.Errorf("EstimatedDaysToMilestone = %v, want 10", got.EstimatedDaysToMilestone)
	}
}

func TestMilestoneInsight_Empty(t *testing.T) {
	_, err := MilestoneInsight(context.Background(), nil, milestone.Policy{})
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("error = %v, want ErrInsufficientData", err)
	}
}

func TestForecast(t *testing.T) {
	got, err := Forecast(context.Background(), series(100, 110, 120, 130), 5)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}

	wantDates := []string{"2024-01-05", "2024-01-06", "2024-01-07", "2024-01-08", "2024-01-09"}
	for i, p := range got {
		if p.Day != i+1 {
			t.Errorf("[%d].Day = %d, want %d", i, p.Day, i+1)
		}
		if p.Date != wantDates[i] {
			t.Errorf("[%d].Date = %s, want %s", i, p.Date, wantDates[i])
		}
		if want := 140 + 10*i; p.ForecastedCount != want {
			t.Errorf("[%d].ForecastedCount = %d, want %d", i, p.ForecastedCount, want)
		}
	}
}

func TestForecast_DatesCrossMonthAndYear(t *testing.T) {
	samples := []storage.Sample{
		{Date: time.Date(2024, 12, 28, 0, 0, 0, 0, time.UTC), Count: 1},
		{Date: time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC), Count: 2},
		{Date: time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), Count: 3},
		{Date: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Count: 4},
	}

	got, err := Forecast(context.Background(), samples, 2)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if got[0].Date != "2025-01-01" || got[1].Date != "2025-01-02" {
		t.Errorf("dates = %s, %s", got[0].Date, got[1].Date)
	}
}

func TestForecast_Rounds(t *testing.T) {
	// Slope 0.3, intercept 0.8: day 6 projects 2.6, which rounds to 3.
	samples := series(1, 1, 1, 2)

	got, err := Forecast(context.Background(), samples, 3)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	want := []int{2, 2, 3}
	for i, w := range want {
		if got[i].ForecastedCount != w {
			t.Errorf("[%d].ForecastedCount = %d, want %d", i, got[i].ForecastedCount, w)
		}
	}
}

func TestForecast_NegativePassesThrough(t *testing.T) {
	got, err := Forecast(context.Background(), series(30, 20, 10, 0), 2)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if got[0].ForecastedCount != -10 || got[1].ForecastedCount != -20 {
		t.Errorf("counts = %d, %d, want -10, -20", got[0].ForecastedCount, got[1].ForecastedCount)
	}
}

func TestForecast_Errors(t *testing.T) {
	tests := []struct {
		name    string
		samples []storage.Sample
		horizon int
		wantErr error
	}{
		{"three samples", series(100, 110, 120), 30, ErrInsufficientData},
		{"empty", nil, 30, ErrInsufficientData},
		{"zero horizon", series(1, 2, 3, 4), 0, ErrInvalidHorizon},
		{"negative horizon", series(1, 2, 3, 4), -3, ErrInvalidHorizon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(context.Background(), tt.samples, tt.horizon)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
