package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func mustDate(t *testing.T, s string) Date {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestEntryStore_AddKeepsDateOrderStable(t *testing.T) {
	var s EntryStore
	s.Add(Entry{ID: "a", Amount: 1, Date: mustDate(t, "2024-03-01")})
	s.Add(Entry{ID: "b", Amount: 2, Date: mustDate(t, "2024-01-01")})
	s.Add(Entry{ID: "c", Amount: 3, Date: mustDate(t, "2024-03-01")})
	s.Add(Entry{ID: "d", Amount: 4, Date: mustDate(t, "2024-02-15")})
	s.Add(Entry{ID: "e", Amount: 5, Date: mustDate(t, "2024-01-01")})

	got := ids(s.List())
	want := []string{"b", "e", "d", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestEntryStore_AddAcceptsDuplicates(t *testing.T) {
	var s EntryStore
	e := Entry{ID: "x", Amount: 10, Date: mustDate(t, "2024-01-01")}
	s.Add(e)
	s.Add(e)
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestEntryStore_RemoveUnknownIsNoop(t *testing.T) {
	s := NewEntryStore([]Entry{
		{ID: "a", Date: mustDate(t, "2024-01-01")},
		{ID: "b", Date: mustDate(t, "2024-01-02")},
	})
	if s.Remove("zzz") {
		t.Error("Remove(unknown) reported a removal")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if !s.Remove("a") {
		t.Error("Remove(a) reported nothing removed")
	}
	if got := ids(s.List()); len(got) != 1 || got[0] != "b" {
		t.Errorf("remaining = %v, want [b]", got)
	}
}

func TestEntryStore_ListIsACopy(t *testing.T) {
	s := NewEntryStore([]Entry{{ID: "a", Amount: 1, Date: mustDate(t, "2024-01-01")}})
	l := s.List()
	l[0].Amount = 99
	if s.List()[0].Amount != 1 {
		t.Error("mutating List() result changed the store")
	}

	var empty EntryStore
	if got := empty.List(); got == nil || len(got) != 0 {
		t.Errorf("empty List() = %#v, want empty non-nil slice", got)
	}
}

func TestEntryStore_ReplaceSorts(t *testing.T) {
	var s EntryStore
	s.Replace([]Entry{
		{ID: "late", Date: mustDate(t, "2025-01-01")},
		{ID: "early", Date: mustDate(t, "2023-01-01")},
	})
	if got := ids(s.List()); got[0] != "early" {
		t.Errorf("first = %q, want early", got[0])
	}
}

func TestTargetModel_SetClear(t *testing.T) {
	var m TargetModel
	if _, ok := m.Get(); ok {
		t.Fatal("zero TargetModel should have no target")
	}
	m.Set(TargetSettings{AnnualSavings: -500, StartDate: mustDate(t, "2024-01-01"), StartAmount: 0})
	got, ok := m.Get()
	if !ok || got.AnnualSavings != -500 {
		t.Fatalf("Get = %+v, %v; want negative savings accepted", got, ok)
	}
	p := m.Ptr()
	p.AnnualSavings = 1
	if again, _ := m.Get(); again.AnnualSavings != -500 {
		t.Error("Ptr() aliases internal state")
	}
	m.Clear()
	if m.Ptr() != nil {
		t.Error("target still present after Clear")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"2024-01-15", "2024-01-15", false},
		{"2024-1-5", "2024-01-05", false},
		{"2024-01-15T23:30:00-05:00", "2024-01-16", false},
		{"", "", true},
		{"15/01/2024", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.in)
		if tt.err {
			if err == nil {
				t.Errorf("ParseDate(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDate(%q): %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParseDate(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestDocumentJSONShape(t *testing.T) {
	doc := Document{Entries: []Entry{{ID: "1", Amount: 1000, Date: mustDate(t, "2024-01-01")}}}
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"entries":[{"id":"1","amount":1000,"date":"2024-01-01"}]}`
	if string(b) != want {
		t.Errorf("json = %s, want %s", b, want)
	}

	var back Document
	if err := json.Unmarshal([]byte(`{"entries":[],"targetSettings":{"annualSavings":3652.5,"startDate":"2024-01-01","startAmount":1000}}`), &back); err != nil {
		t.Fatal(err)
	}
	if back.TargetSettings == nil || back.TargetSettings.StartDate != mustDate(t, "2024-01-01") {
		t.Errorf("targetSettings = %+v", back.TargetSettings)
	}
}

func TestParseEntry(t *testing.T) {
	e, err := ParseEntry(" 1,500.25 ", "2024-06-01", "  bonus  ")
	if err != nil {
		t.Fatalf("ParseEntry: %v", err)
	}
	if e.Amount != 1500.25 || e.Notes != "bonus" || e.ID == "" {
		t.Errorf("entry = %+v", e)
	}

	blank, err := ParseEntry("10", "2024-06-01", "   ")
	if err != nil {
		t.Fatal(err)
	}
	if blank.Notes != "" {
		t.Errorf("blank notes kept as %q", blank.Notes)
	}

	for _, bad := range [][2]string{{"", "2024-06-01"}, {"abc", "2024-06-01"}, {"10", ""}, {"1e400", "2024-06-01"}, {"-1e400", "2024-06-01"}} {
		if _, err := ParseEntry(bad[0], bad[1], ""); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseEntry(%q, %q) err = %v, want ErrInvalidInput", bad[0], bad[1], err)
		}
	}
}

func TestParseTarget_RejectsOverflow(t *testing.T) {
	if _, err := ParseTarget("1e999", "2024-01-01", "0"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseTarget(1e999 savings) err = %v, want ErrInvalidInput", err)
	}
	if _, err := ParseTarget("1000", "2024-01-01", "9e308999"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseTarget(huge start) err = %v, want ErrInvalidInput", err)
	}
}

func TestTargetDefaults(t *testing.T) {
	today := mustDate(t, "2025-05-05")
	entries := []Entry{
		{Amount: 100, Date: mustDate(t, "2024-01-01")},
		{Amount: 250.5, Date: mustDate(t, "2024-06-01")},
	}

	d := TargetDefaults(nil, nil, today)
	if d.StartDate != "2025-05-05" || d.StartAmount != "" {
		t.Errorf("empty defaults = %+v", d)
	}
	d = TargetDefaults(nil, entries, today)
	if d.StartDate != "2024-06-01" || d.StartAmount != "250.5" {
		t.Errorf("entry defaults = %+v", d)
	}
	cur := &TargetSettings{AnnualSavings: 12000, StartDate: mustDate(t, "2023-01-01"), StartAmount: 50}
	d = TargetDefaults(cur, entries, today)
	if d.AnnualSavings != "12000" || d.StartDate != "2023-01-01" || d.StartAmount != "50" {
		t.Errorf("current target defaults = %+v", d)
	}
}
