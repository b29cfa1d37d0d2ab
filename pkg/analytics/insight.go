package analytics

import (
	"context"

	"github.com/HatiCode/followcast/pkg/milestone"
	"github.com/HatiCode/followcast/pkg/storage"
)

// NoteGrowthTooLow is reported when the fitted growth rate is not positive.
const NoteGrowthTooLow = "growth rate too low to predict milestone"

// Insight describes progress toward the next follower milestone.
type Insight struct {
	CurrentFollowers int `json:"current_followers"`
	NextMilestone    int `json:"next_milestone"`

	// EstimatedDaysToMilestone is nil when growth is too low to project.
	EstimatedDaysToMilestone *int    `json:"estimated_days_to_milestone"`
	Note                     string  `json:"note,omitempty"`
	AverageDailyGrowth       float64 `json:"average_daily_growth"`
	ProgressPercentage       float64 `json:"progress_percentage"`
}

// MilestoneInsight reports the latest count, the next milestone under p and
// how long the fitted daily growth needs to get there.
func MilestoneInsight(ctx context.Context, samples []storage.Sample, p milestone.Policy) (Insight, error) {
	if len(samples) == 0 {
		return Insight{}, ErrInsufficientData
	}

	model, _, err := fit(ctx, samples, 1)
	if err != nil {
		return Insight{}, err
	}
	slope := model.Line().Slope

	latest := samples[len(samples)-1].Count
	next := milestone.Next(latest, p)

	in := Insight{
		CurrentFollowers:   latest,
		NextMilestone:      next,
		AverageDailyGrowth: milestone.Round2(slope),
		ProgressPercentage: milestone.Progress(latest, next),
	}
	if days, ok := milestone.DaysToReach(latest, next, slope); ok {
		in.EstimatedDaysToMilestone = &days
	} else {
		in.Note = NoteGrowthTooLow
	}
	return in, nil
}
