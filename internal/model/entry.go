package model

// Entry is one net-worth snapshot. Entries are immutable once recorded;
// the only edit is deleting the whole record.
type Entry struct {
	ID     string  `json:"id" yaml:"id"`
	Amount float64 `json:"amount" yaml:"amount"`
	Date   Date    `json:"date" yaml:"date"`
	Notes  string  `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// TargetSettings describes a linear savings plan: starting from StartAmount
// on StartDate, grow by AnnualSavings per year.
type TargetSettings struct {
	AnnualSavings float64 `json:"annualSavings" yaml:"annualSavings"`
	StartDate     Date    `json:"startDate" yaml:"startDate"`
	StartAmount   float64 `json:"startAmount" yaml:"startAmount"`
}

// Document is the per-user record exchanged with the remote store and
// produced by export.
type Document struct {
	Entries        []Entry         `json:"entries" yaml:"entries"`
	TargetSettings *TargetSettings `json:"targetSettings,omitempty" yaml:"targetSettings,omitempty"`
}
