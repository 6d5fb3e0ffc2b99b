package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	if _, ok, err := c.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}
	if err := c.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatal(err)
	}
	v, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(v) != `{"a":2}` {
		t.Errorf("Get(k) = %s, %v, %v", v, ok, err)
	}
}

func TestCache_MirrorWritesBothSlots(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	d, _ := model.ParseDate("2024-01-01")
	if err := c.Mirror(ctx, model.Document{Entries: []model.Entry{{ID: "1", Amount: 5, Date: d}}}); err != nil {
		t.Fatalf("Mirror: %v", err)
	}

	ej, _, _ := c.Get(ctx, KeyEntries)
	if string(ej) != `[{"id":"1","amount":5,"date":"2024-01-01"}]` {
		t.Errorf("%s = %s", KeyEntries, ej)
	}
	tj, ok, _ := c.Get(ctx, KeyTarget)
	if !ok || string(tj) != "null" {
		t.Errorf("%s = %q (ok=%v), want null", KeyTarget, tj, ok)
	}

	slots, err := c.Slots(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 || slots[0].Key != KeyEntries || slots[1].Key != KeyTarget {
		t.Errorf("slots = %+v", slots)
	}
}

func TestCache_Restore(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	if _, ok, err := c.Restore(ctx); err != nil || ok {
		t.Fatalf("Restore on empty cache = ok %v, err %v", ok, err)
	}

	d, _ := model.ParseDate("2024-05-01")
	want := model.Document{
		Entries:        []model.Entry{{ID: "x", Amount: 42, Date: d, Notes: "n"}},
		TargetSettings: &model.TargetSettings{AnnualSavings: 1200, StartDate: d, StartAmount: 42},
	}
	if err := c.Mirror(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Restore(ctx)
	if err != nil || !ok {
		t.Fatalf("Restore = ok %v, err %v", ok, err)
	}
	if len(got.Entries) != 1 || got.Entries[0] != want.Entries[0] {
		t.Errorf("entries = %+v", got.Entries)
	}
	if got.TargetSettings == nil || *got.TargetSettings != *want.TargetSettings {
		t.Errorf("target = %+v", got.TargetSettings)
	}
}
