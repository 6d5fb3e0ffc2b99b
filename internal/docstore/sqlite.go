package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // register sqlite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id             TEXT PRIMARY KEY,
    email          TEXT NOT NULL UNIQUE,
    password_hash  BLOB NOT NULL,
    created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
    uid         TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    version     INTEGER NOT NULL,
    fields      TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);
`

// SQLite stores users and documents in a single database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("sqlite docstore: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating docstore dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening docstore db: %w", err)
	}
	// One writer keeps read-merge-write transactions serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Backend() string { return "sqlite" }

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) CreateUser(ctx context.Context, email string, passwordHash []byte) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueConstraintError(err) {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	return u, nil
}

func (s *SQLite) UserByEmail(ctx context.Context, email string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE email = ?", NormalizeEmail(email)))
}

func (s *SQLite) UserByID(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, email, password_hash, created_at FROM users WHERE id = ?", id))
}

func (s *SQLite) scanUser(row *sql.Row) (User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return u, nil
}

func (s *SQLite) Get(ctx context.Context, uid string) (Snapshot, error) {
	return getSnapshot(ctx, s.db, uid)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getSnapshot(ctx context.Context, q queryRower, uid string) (Snapshot, error) {
	var raw, updated string
	snap := Snapshot{UID: uid}
	err := q.QueryRowContext(ctx, "SELECT version, fields, updated_at FROM documents WHERE uid = ?", uid).
		Scan(&snap.Version, &raw, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(raw), &snap.Fields); err != nil {
		return Snapshot{}, fmt.Errorf("decoding document %s: %w", uid, err)
	}
	snap.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
	return snap, nil
}

func (s *SQLite) Merge(ctx context.Context, uid string, fields map[string]any) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := getSnapshot(ctx, tx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Snapshot{}, err
	}

	next := Snapshot{
		UID:       uid,
		Version:   cur.Version + 1,
		UpdatedAt: time.Now().UTC(),
		Fields:    MergeFields(cur.Fields, fields),
	}
	raw, err := json.Marshal(next.Fields)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encoding document %s: %w", uid, err)
	}

	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO documents (uid, version, fields, updated_at)
		VALUES (?, ?, ?, ?)`, uid, next.Version, string(raw), next.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Snapshot{}, err
	}
	if err := tx.Commit(); err != nil {
		return Snapshot{}, err
	}
	return next, nil
}
