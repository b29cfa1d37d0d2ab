// Package milestone computes follower milestones and the progress toward
// them using a deterministic policy (step size, rounding precision).
package milestone

import (
	"math"
)

// DefaultStep is the milestone spacing used when a policy leaves Step unset.
const DefaultStep = 500

// Policy defines how milestones are placed.
type Policy struct {
	// Step is the spacing between milestones. Milestones are the positive
	// multiples of Step. If <= 0, defaults to DefaultStep.
	Step int
}

func (p Policy) step() int {
	if p.Step <= 0 {
		return DefaultStep
	}
	return p.Step
}

// Next returns the smallest multiple of the policy step strictly greater
// than latest. A latest count that sits on a milestone moves on to the next.
func Next(latest int, p Policy) int {
	step := p.step()
	if latest < 0 {
		return step
	}
	return (latest/step + 1) * step
}

// Progress returns latest as a percentage of target, rounded to two decimals.
func Progress(latest, target int) float64 {
	if target <= 0 {
		return 0
	}
	return Round2(float64(latest) / float64(target) * 100)
}

// DaysToReach estimates the whole days needed to grow from latest to target
// at slope followers per day. ok is false when slope, rounded to two
// decimals like the reported growth, is not positive. Estimates too large
// for an int are capped at math.MaxInt.
func DaysToReach(latest, target int, slope float64) (days int, ok bool) {
	if math.IsNaN(slope) || Round2(slope) <= 0 {
		return 0, false
	}
	remaining := float64(target - latest)
	if remaining <= 0 {
		return 0, true
	}
	d := math.Floor(remaining / slope)
	if d >= math.MaxInt {
		return math.MaxInt, true
	}
	return int(d), true
}

// Round2 rounds x half away from zero to two decimals.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
