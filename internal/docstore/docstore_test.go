package docstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMergeFields(t *testing.T) {
	dst := map[string]any{
		"entries":        []any{"a"},
		"targetSettings": map[string]any{"annualSavings": 1.0, "startAmount": 2.0},
		"keep":           "me",
	}
	src := map[string]any{
		"entries":        []any{"b", "c"},
		"targetSettings": map[string]any{"annualSavings": 5.0},
	}
	got := MergeFields(dst, src)
	want := map[string]any{
		"entries":        []any{"b", "c"},
		"targetSettings": map[string]any{"annualSavings": 5.0, "startAmount": 2.0},
		"keep":           "me",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeFields = %#v\nwant %#v", got, want)
	}
	if len(dst["entries"].([]any)) != 1 {
		t.Error("MergeFields modified dst")
	}

	if got := MergeFields(nil, map[string]any{"x": 1.0}); got["x"] != 1.0 {
		t.Errorf("MergeFields(nil, ...) = %v", got)
	}
}

func TestMergeFields_NullDeletes(t *testing.T) {
	dst := map[string]any{
		"entries":        []any{"a"},
		"targetSettings": map[string]any{"annualSavings": 1.0, "startAmount": 2.0},
	}
	got := MergeFields(dst, map[string]any{"targetSettings": nil, "missing": nil})
	want := map[string]any{"entries": []any{"a"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MergeFields = %#v\nwant %#v", got, want)
	}
	if _, ok := dst["targetSettings"]; !ok {
		t.Error("MergeFields modified dst")
	}

	got = MergeFields(dst, map[string]any{"targetSettings": map[string]any{"startAmount": nil}})
	want = map[string]any{
		"entries":        []any{"a"},
		"targetSettings": map[string]any{"annualSavings": 1.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("nested delete = %#v\nwant %#v", got, want)
	}

	got = MergeFields(map[string]any{"x": "scalar"}, map[string]any{"x": map[string]any{"a": 1.0, "b": nil}})
	if !reflect.DeepEqual(got, map[string]any{"x": map[string]any{"a": 1.0}}) {
		t.Errorf("object over scalar = %#v", got)
	}
}

func TestValidateFields(t *testing.T) {
	ok := map[string]any{"entries": []any{map[string]any{"id": "1"}}}
	if err := ValidateFields(ok); err != nil {
		t.Errorf("ValidateFields(ok) = %v", err)
	}
	deletions := map[string]any{
		"targetSettings": nil,
		"entries":        []any{map[string]any{"id": "1", "notes": nil}},
	}
	if err := ValidateFields(deletions); err != nil {
		t.Errorf("ValidateFields(null members) = %v", err)
	}
	bad := []map[string]any{
		{"entries": []any{nil}},
		{"entries": []any{map[string]any{"tags": []any{"a", nil}}}},
		nil,
	}
	for _, b := range bad {
		if err := ValidateFields(b); err == nil {
			t.Errorf("ValidateFields(%v) = nil, want error", b)
		}
	}
}

// exerciseStore runs the behavior every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, " Alice@Example.com ", []byte("hash"))
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want normalized", u.Email)
	}
	if _, err := s.CreateUser(ctx, "alice@example.com", []byte("x")); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate CreateUser err = %v, want ErrUserExists", err)
	}

	byEmail, err := s.UserByEmail(ctx, "ALICE@example.com")
	if err != nil || byEmail.ID != u.ID || string(byEmail.PasswordHash) != "hash" {
		t.Errorf("UserByEmail = %+v, %v", byEmail, err)
	}
	if _, err := s.UserByID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UserByID(nope) err = %v, want ErrNotFound", err)
	}

	if _, err := s.Get(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get before write err = %v, want ErrNotFound", err)
	}

	first, err := s.Merge(ctx, u.ID, map[string]any{
		"entries":        []any{map[string]any{"id": "1", "amount": 1000.0, "date": "2024-01-01"}},
		"targetSettings": map[string]any{"annualSavings": 1200.0, "startDate": "2024-01-01", "startAmount": 1000.0},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("version = %d, want 1", first.Version)
	}

	// A write without targetSettings leaves the stored one in place.
	second, err := s.Merge(ctx, u.ID, map[string]any{"entries": []any{}})
	if err != nil {
		t.Fatalf("second Merge: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("version = %d, want 2", second.Version)
	}

	got, err := s.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entries, _ := got.Fields["entries"].([]any); len(entries) != 0 {
		t.Errorf("entries = %v, want replaced by empty array", got.Fields["entries"])
	}
	if _, ok := got.Fields["targetSettings"].(map[string]any); !ok {
		t.Errorf("targetSettings = %v, want preserved", got.Fields["targetSettings"])
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = s.Close() }()
	exerciseStore(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("NETWORTH_PG_TEST_DSN")
	if dsn == "" {
		t.Skip("postgres tests are disabled; set NETWORTH_PG_TEST_DSN to enable")
	}
	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer func() { _ = s.Close() }()
	s.db.Exec("DELETE FROM networth_documents")
	s.db.Exec("DELETE FROM networth_users")
	exerciseStore(t, s)
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "mongo", "x"); err == nil {
		t.Error("Open(mongo) = nil error")
	}
}
