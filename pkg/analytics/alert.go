package analytics

import (
	"math"

	"github.com/HatiCode/followcast/pkg/storage"
)

// DefaultWindow is the number of most recent samples an alert looks at.
const DefaultWindow = 7

// AlertStatus classifies the latest change against recent history.
type AlertStatus string

const (
	StatusInsufficientData AlertStatus = "insufficient_data"
	StatusNormal           AlertStatus = "normal"
	StatusUnusual          AlertStatus = "unusual"
)

// AlertKind is the finer classification reported by DetailedAlert.
type AlertKind string

const (
	KindInsufficientData AlertKind = "insufficient_data"
	KindSurge            AlertKind = "surge"
	KindLoss             AlertKind = "loss"
	KindStagnant         AlertKind = "stagnant"
	KindStable           AlertKind = "stable"
	KindSeasonalShift    AlertKind = "seasonal_shift"
)

var alertMessages = map[AlertStatus]string{
	StatusInsufficientData: "Not enough data for alerts",
	StatusNormal:           "Follower activity is normal.",
	StatusUnusual:          "Unusual follower activity detected!",
}

var kindMessages = map[AlertKind]string{
	KindInsufficientData: "Not enough data for meaningful insights. Add more records!",
	KindSurge:            "Big surge in followers! Your growth rate has significantly increased. Check for viral posts or mentions.",
	KindLoss:             "Follower loss detected! Your numbers have dropped sharply. Review content engagement or external factors.",
	KindStagnant:         "Growth is slowing down! Your follower count has remained stagnant. Consider boosting engagement strategies.",
	KindStable:           "Follower activity is stable. Your growth is consistent with historical data.",
	KindSeasonalShift:    "Seasonal pattern shift detected! Your follower trends differ from past months. This may be due to industry changes or content strategy shifts.",
}

// Alert is the result of TrendAlert.
type Alert struct {
	Message    string      `json:"alert"`
	Status     AlertStatus `json:"status"`
	Samples    int         `json:"samples"`
	AvgChange  float64     `json:"avg_change"`
	Threshold  float64     `json:"threshold"`
	LastChange int         `json:"last_change"`
}

// DetailedAlert is the result of ClassifyTrend.
type DetailedAlert struct {
	Message    string    `json:"alert"`
	Kind       AlertKind `json:"kind"`
	Samples    int       `json:"samples"`
	AvgChange  float64   `json:"avg_change"`
	Threshold  float64   `json:"threshold"`
	LastChange int       `json:"last_change"`
}

// trend holds the change statistics shared by both alert variants.
type trend struct {
	samples    int
	avgChange  float64
	threshold  float64
	lastChange int
}

// unusual reports whether the last step exceeds the threshold.
func (t trend) unusual() bool {
	return math.Abs(float64(t.lastChange)) > t.threshold
}

// measure computes change statistics over the last window samples of an
// ascending series. ok is false with fewer than two samples.
func measure(samples []storage.Sample, window int) (trend, bool) {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(samples) > window {
		samples = samples[len(samples)-window:]
	}
	if len(samples) < 2 {
		return trend{samples: len(samples)}, false
	}

	var sum int
	for i := 1; i < len(samples); i++ {
		sum += samples[i].Count - samples[i-1].Count
	}
	avg := float64(sum) / float64(len(samples)-1)

	return trend{
		samples:    len(samples),
		avgChange:  avg,
		threshold:  2 * math.Abs(avg),
		lastChange: samples[len(samples)-1].Count - samples[len(samples)-2].Count,
	}, true
}

// TrendAlert compares the most recent single-step change with twice the
// mean step over the last window samples of an ascending series.
func TrendAlert(samples []storage.Sample, window int) Alert {
	t, ok := measure(samples, window)

	status := StatusNormal
	switch {
	case !ok:
		status = StatusInsufficientData
	case t.unusual():
		status = StatusUnusual
	}

	return Alert{
		Message:    alertMessages[status],
		Status:     status,
		Samples:    t.samples,
		AvgChange:  t.avgChange,
		Threshold:  t.threshold,
		LastChange: t.lastChange,
	}
}

// ClassifyTrend is the richer variant of TrendAlert. Rules are evaluated in
// order and the first match wins: surge, loss, stagnant, stable, seasonal
// shift.
func ClassifyTrend(samples []storage.Sample, window int) DetailedAlert {
	t, ok := measure(samples, window)

	var kind AlertKind
	switch {
	case !ok:
		kind = KindInsufficientData
	case t.unusual() && t.lastChange > 0:
		kind = KindSurge
	case t.unusual():
		kind = KindLoss
	case t.avgChange == 0:
		kind = KindStagnant
	case math.Abs(t.avgChange) < 2:
		kind = KindStable
	default:
		kind = KindSeasonalShift
	}

	return DetailedAlert{
		Message:    kindMessages[kind],
		Kind:       kind,
		Samples:    t.samples,
		AvgChange:  t.avgChange,
		Threshold:  t.threshold,
		LastChange: t.lastChange,
	}
}
