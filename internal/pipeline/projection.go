package pipeline

import (
	"iter"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

const (
	msPerDay    = 86_400_000
	daysPerYear = 365.25
)

// DaysBetween returns the signed number of days from `from` to `to`.
func DaysBetween(from, to model.Date) float64 {
	return float64(to.Sub(from).Milliseconds()) / msPerDay
}

// DailyRate is the target's savings per day.
func DailyRate(t model.TargetSettings) float64 {
	return t.AnnualSavings / daysPerYear
}

// Expected returns the target trajectory's value on d. It is undefined for
// dates before the target start.
func Expected(t model.TargetSettings, d model.Date) Value {
	if d.Before(t.StartDate) {
		return Undefined()
	}
	return Defined(t.StartAmount + DaysBetween(t.StartDate, d)*DailyRate(t))
}

// Trajectory yields Expected for each entry's date, in order. The sequence
// is lazy and may be ranged over any number of times.
func Trajectory(t model.TargetSettings, entries []model.Entry) iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, e := range entries {
			if !yield(Expected(t, e.Date)) {
				return
			}
		}
	}
}

// Comparison is the actual-vs-target picture on one date.
type Comparison struct {
	Date        model.Date `json:"date"`
	Actual      float64    `json:"actual"`
	Expected    float64    `json:"expected"`
	Difference  float64    `json:"difference"`
	PercentDiff Value      `json:"percentDiff"`
	IsAhead     bool       `json:"isAhead"`
}

// Compare measures actual against the target on d. ok is false when d
// precedes the target start. PercentDiff is undefined unless expected > 0.
// A difference of exactly zero is not ahead.
func Compare(actual float64, t model.TargetSettings, d model.Date) (Comparison, bool) {
	exp, ok := Expected(t, d).Get()
	if !ok {
		return Comparison{}, false
	}
	diff := actual - exp
	return Comparison{
		Date:        d,
		Actual:      actual,
		Expected:    exp,
		Difference:  diff,
		PercentDiff: ratio(diff, exp),
		IsAhead:     diff > 0,
	}, true
}
