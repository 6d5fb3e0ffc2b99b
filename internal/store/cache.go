// Package store provides the SQLite-backed local cache that mirrors the
// entry list and target as JSON text slots.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sahilbhatiani/net-worth-tracker/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Slot keys. They match the browser localStorage keys of the web client so
// exported caches stay interchangeable.
const (
	KeyEntries = "netWorthEntries"
	KeyTarget  = "targetSettings"
)

// Cache is a small key-value table of JSON slots.
type Cache struct {
	db *sql.DB
}

// Slot describes one stored key.
type Slot struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put overwrites one slot.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv_slots (key, value, updated_at)
		VALUES (?, ?, ?)`, key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Get reads one slot. ok is false when the key was never written.
func (c *Cache) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	var s string
	err = c.db.QueryRowContext(ctx, "SELECT value FROM kv_slots WHERE key = ?", key).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(s), true, nil
}

// Slots lists every stored key.
func (c *Cache) Slots(ctx context.Context) ([]Slot, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT key, length(value), updated_at FROM kv_slots ORDER BY key")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Slot
	for rows.Next() {
		var sl Slot
		var updated string
		if err := rows.Scan(&sl.Key, &sl.Size, &updated); err != nil {
			return nil, err
		}
		sl.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, sl)
	}
	return out, rows.Err()
}

// Mirror writes both slots in one transaction. An absent target is stored
// as the JSON literal null.
func (c *Cache) Mirror(ctx context.Context, doc model.Document) error {
	entries := doc.Entries
	if entries == nil {
		entries = []model.Entry{}
	}
	ej, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}
	tj, err := json.Marshal(doc.TargetSettings)
	if err != nil {
		return fmt.Errorf("encoding target: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, kv := range [][2]string{{KeyEntries, string(ej)}, {KeyTarget, string(tj)}} {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO kv_slots (key, value, updated_at)
			VALUES (?, ?, ?)`, kv[0], kv[1], now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Restore reads the mirrored slots back into a document. ok is false when
// nothing was ever mirrored. It is only used when guest restore is enabled.
func (c *Cache) Restore(ctx context.Context) (doc model.Document, ok bool, err error) {
	ej, hasEntries, err := c.Get(ctx, KeyEntries)
	if err != nil {
		return doc, false, err
	}
	tj, hasTarget, err := c.Get(ctx, KeyTarget)
	if err != nil {
		return doc, false, err
	}
	if !hasEntries && !hasTarget {
		return doc, false, nil
	}

	doc.Entries = []model.Entry{}
	if hasEntries {
		if err := json.Unmarshal(ej, &doc.Entries); err != nil {
			return doc, false, fmt.Errorf("decoding %s: %w", KeyEntries, err)
		}
	}
	if hasTarget {
		if err := json.Unmarshal(tj, &doc.TargetSettings); err != nil {
			return doc, false, fmt.Errorf("decoding %s: %w", KeyTarget, err)
		}
	}
	return doc, true, nil
}
