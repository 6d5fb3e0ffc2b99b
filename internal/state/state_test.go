package state

import (
	"sync"
	"testing"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

func day(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestState_NotifiesOnMutation(t *testing.T) {
	s := New()
	var got []Change
	unsub := s.Subscribe(func(c Change) { got = append(got, c) })

	s.AddEntry(model.Entry{ID: "a", Amount: 10, Date: day(t, "2024-02-01")})
	s.AddEntry(model.Entry{ID: "b", Amount: 5, Date: day(t, "2024-01-01")})
	s.SetTarget(model.TargetSettings{AnnualSavings: 100, StartDate: day(t, "2024-01-01")})
	s.ClearTarget()

	if len(got) != 4 {
		t.Fatalf("notifications = %d, want 4", len(got))
	}
	if e := got[1].Doc.Entries; len(e) != 2 || e[0].ID != "b" {
		t.Errorf("snapshot after second add = %+v, want sorted [b a]", e)
	}
	if got[2].Doc.TargetSettings == nil || got[3].Doc.TargetSettings != nil {
		t.Error("target snapshots do not follow set/clear")
	}
	for i, c := range got {
		if c.Origin != Local {
			t.Errorf("change %d origin = %v, want local", i, c.Origin)
		}
	}

	unsub()
	s.AddEntry(model.Entry{ID: "c", Date: day(t, "2024-03-01")})
	if len(got) != 4 {
		t.Error("observer called after unsubscribe")
	}
}

func TestState_RemoveUnknownDoesNotNotify(t *testing.T) {
	s := New()
	s.AddEntry(model.Entry{ID: "a", Date: day(t, "2024-01-01")})
	calls := 0
	s.Subscribe(func(Change) { calls++ })

	if s.RemoveEntry("missing") {
		t.Error("RemoveEntry(missing) = true")
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0", calls)
	}
	if !s.RemoveEntry("a") || calls != 1 {
		t.Errorf("RemoveEntry(a) did not notify once (calls=%d)", calls)
	}
}

func TestState_ReplaceIsWholesale(t *testing.T) {
	s := New()
	s.AddEntry(model.Entry{ID: "old", Date: day(t, "2024-01-01")})
	s.SetTarget(model.TargetSettings{AnnualSavings: 1})

	var last Change
	s.Subscribe(func(c Change) { last = c })
	s.Replace(model.Document{}, Remote)

	snap := s.Snapshot()
	if snap.Entries == nil || len(snap.Entries) != 0 {
		t.Errorf("entries = %#v, want empty", snap.Entries)
	}
	if snap.TargetSettings != nil {
		t.Error("target survived wholesale replace")
	}
	if last.Origin != Remote {
		t.Errorf("origin = %v, want remote", last.Origin)
	}
}

func TestState_ConcurrentMutationsKeepOrder(t *testing.T) {
	s := New()
	var mu sync.Mutex
	var sizes []int
	s.Subscribe(func(c Change) {
		mu.Lock()
		sizes = append(sizes, len(c.Doc.Entries))
		mu.Unlock()
	})

	base := day(t, "2024-01-01")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.AddEntry(model.Entry{ID: model.NewID(), Amount: float64(i), Date: base.Add(i)})
		}(i)
	}
	wg.Wait()

	if len(sizes) != 50 {
		t.Fatalf("notifications = %d, want 50", len(sizes))
	}
	for i, n := range sizes {
		if n != i+1 {
			t.Fatalf("notification %d saw %d entries, want %d", i, n, i+1)
		}
	}
}
