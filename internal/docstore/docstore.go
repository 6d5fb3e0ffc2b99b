// Package docstore persists user accounts and one JSON document per user
// for the sync server. Two backends exist: SQLite for single-host use and
// Postgres through gorm.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a user or document does not exist.
	ErrNotFound = errors.New("docstore: not found")
	// ErrUserExists is returned by CreateUser for a taken email.
	ErrUserExists = errors.New("docstore: user already exists")
)

// User is an account able to own a document.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Snapshot is the stored state of one user document.
type Snapshot struct {
	UID       string         `json:"uid"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
	Fields    map[string]any `json:"fields"`
}

// Store is implemented by each backend.
type Store interface {
	CreateUser(ctx context.Context, email string, passwordHash []byte) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, id string) (User, error)

	// Get returns ErrNotFound when the user never wrote a document.
	Get(ctx context.Context, uid string) (Snapshot, error)
	// Merge deep-merges fields into the document, creating it if needed,
	// and bumps its version.
	Merge(ctx context.Context, uid string, fields map[string]any) (Snapshot, error)

	Backend() string
	Close() error
}

// Open selects a backend by name: "sqlite" takes a file path as dsn,
// "postgres" a libpq-style connection string or URL.
func Open(ctx context.Context, backend, dsn string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", "sqlite":
		s, err := OpenSQLite(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql":
		s, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown docstore backend %q", backend)
	}
}

// NormalizeEmail lowercases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MergeFields returns dst with src merged in, JSON merge patch style
// (RFC 7396): a null in src deletes the key, nested objects merge key by
// key, and arrays and scalars replace what dst had. dst is not modified.
func MergeFields(dst, src map[string]any) map[string]any {
	out := maps.Clone(dst)
	if out == nil {
		out = make(map[string]any, len(src))
	}
	for k, v := range src {
		if v == nil {
			delete(out, k)
			continue
		}
		if sv, ok := v.(map[string]any); ok {
			dv, _ := out[k].(map[string]any)
			out[k] = MergeFields(dv, sv)
			continue
		}
		out[k] = v
	}
	return out
}

// ValidateFields checks a merge payload. Null object members are deletions;
// null array elements are rejected since arrays are stored as sent.
func ValidateFields(fields map[string]any) error {
	if fields == nil {
		return errors.New("document fields must be an object")
	}
	return validate("", fields)
}

func validate(path string, v any) error {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			if child == nil {
				continue
			}
			p := k
			if path != "" {
				p = path + "." + k
			}
			if err := validate(p, child); err != nil {
				return err
			}
		}
	case []any:
		for i, child := range x {
			p := fmt.Sprintf("%s[%d]", path, i)
			if child == nil {
				return fmt.Errorf("field %s is null", p)
			}
			if err := validate(p, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// isUniqueConstraintError matches duplicate-key errors from either driver.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
