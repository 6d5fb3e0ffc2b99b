package pipeline

import "github.com/sahilbhatiani/net-worth-tracker/internal/model"

// daysPerMonth is the average Gregorian month length used for time spans.
const daysPerMonth = 30.44

// Statistics summarizes an ordered entry list. With no entries every Value
// is undefined, which is distinct from a defined zero.
type Statistics struct {
	Entries              int         `json:"entries"`
	Current              Value       `json:"current"`
	First                Value       `json:"first"`
	TotalChange          Value       `json:"totalChange"`
	PercentChange        Value       `json:"percentChange"`
	TimeSpanMonths       Value       `json:"timeSpanMonths"`
	AverageMonthlyGrowth Value       `json:"averageMonthlyGrowth"`
	Target               *Comparison `json:"target,omitempty"`
}

// HasData reports whether any entries were summarized.
func (s Statistics) HasData() bool { return s.Entries > 0 }

// ComputeStats derives the summary for entries, which must already be in
// date order. The target comparison is taken at the last entry's date and
// is nil when there is no target or that date precedes its start.
func ComputeStats(entries []model.Entry, target *model.TargetSettings) Statistics {
	n := len(entries)
	if n == 0 {
		return Statistics{}
	}

	first, last := entries[0], entries[n-1]
	total := last.Amount - first.Amount

	var span float64
	if n > 1 {
		span = DaysBetween(first.Date, last.Date) / daysPerMonth
	}

	growth := Undefined()
	if span > 0 {
		growth = Defined(total / span)
	}

	st := Statistics{
		Entries:              n,
		Current:              Defined(last.Amount),
		First:                Defined(first.Amount),
		TotalChange:          Defined(total),
		PercentChange:        ratio(total, first.Amount),
		TimeSpanMonths:       Defined(span),
		AverageMonthlyGrowth: growth,
	}

	if target != nil {
		if cmp, ok := Compare(last.Amount, *target, last.Date); ok {
			st.Target = &cmp
		}
	}
	return st
}
