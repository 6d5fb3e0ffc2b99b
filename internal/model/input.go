package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when user-supplied fields are missing or malformed.
var ErrInvalidInput = errors.New("invalid input")

// NewID returns a fresh, time-ordered entry id.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseAmount parses a decimal amount such as "1500" or "-20.75".
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q is not a number", ErrInvalidInput, s)
	}
	v := d.InexactFloat64()
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: amount %q is out of range", ErrInvalidInput, s)
	}
	return v, nil
}

// ParseEntry builds a new entry from raw form fields. Notes are trimmed and
// dropped when blank.
func ParseEntry(amount, date, notes string) (Entry, error) {
	v, err := ParseAmount(amount)
	if err != nil {
		return Entry{}, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return Entry{
		ID:     NewID(),
		Amount: v,
		Date:   d,
		Notes:  strings.TrimSpace(notes),
	}, nil
}

// ParseTarget builds target settings from raw form fields. Any sign is
// accepted for the savings rate.
func ParseTarget(annualSavings, startDate, startAmount string) (TargetSettings, error) {
	savings, err := ParseAmount(annualSavings)
	if err != nil {
		return TargetSettings{}, err
	}
	d, err := ParseDate(startDate)
	if err != nil {
		return TargetSettings{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	start, err := ParseAmount(startAmount)
	if err != nil {
		return TargetSettings{}, err
	}
	return TargetSettings{AnnualSavings: savings, StartDate: d, StartAmount: start}, nil
}

// TargetFormDefaults holds the prefill strings for a target form.
type TargetFormDefaults struct {
	AnnualSavings string
	StartDate     string
	StartAmount   string
}

// TargetDefaults returns the prefill values for the target form. An existing
// target wins; otherwise the latest entry's amount and date are offered,
// falling back to an empty amount and today.
func TargetDefaults(current *TargetSettings, entries []Entry, today Date) TargetFormDefaults {
	if current != nil {
		return TargetFormDefaults{
			AnnualSavings: formatFloat(current.AnnualSavings),
			StartDate:     current.StartDate.String(),
			StartAmount:   formatFloat(current.StartAmount),
		}
	}
	if len(entries) == 0 {
		return TargetFormDefaults{StartDate: today.String()}
	}
	last := entries[len(entries)-1]
	return TargetFormDefaults{
		StartDate:   last.Date.String(),
		StartAmount: formatFloat(last.Amount),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
