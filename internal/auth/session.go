package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Identity is the signed-in user as seen by the client.
type Identity struct {
	UID    string
	Email  string
	Server string
	Token  string
}

func (id Identity) String() string {
	if id.Email != "" {
		return id.Email
	}
	return id.UID
}

// Credentials is the on-disk form of a session.
type Credentials struct {
	Server    string    `json:"server"`
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Listener is told the current identity; ok is false when signed out.
type Listener func(id Identity, ok bool)

// Session tracks the credentials file and tells listeners when the
// signed-in identity changes. Expired tokens count as signed out.
type Session struct {
	path string
	now  func() time.Time

	mu        sync.Mutex
	creds     *Credentials
	listeners map[int]Listener
	nextID    int
}

// OpenSession loads credentials from path if the file exists.
func OpenSession(path string) (*Session, error) {
	s := &Session{path: path, now: time.Now, listeners: make(map[int]Listener)}
	c, err := readCredentials(path)
	if err != nil {
		return nil, err
	}
	s.creds = c
	return s, nil
}

func readCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if c.Token == "" || c.UID == "" {
		return nil, nil
	}
	return &c, nil
}

// Path returns the credentials file location.
func (s *Session) Path() string { return s.path }

// Current returns the signed-in identity.
func (s *Session) Current() (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Session) currentLocked() (Identity, bool) {
	c := s.creds
	if c == nil {
		return Identity{}, false
	}
	exp := c.ExpiresAt
	if e, ok := tokenExpiry(c.Token); ok {
		exp = e
	}
	if !exp.IsZero() && !s.now().Before(exp) {
		return Identity{}, false
	}
	return Identity{UID: c.UID, Email: c.Email, Server: c.Server, Token: c.Token}, true
}

// Subscribe registers fn, calls it right away with the current identity,
// and returns a function that removes it.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	cur, ok := s.currentLocked()
	s.mu.Unlock()

	fn(cur, ok)
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// SignIn stores c and notifies listeners.
func (s *Session) SignIn(c Credentials) error {
	if c.Token == "" || c.UID == "" {
		return errors.New("credentials missing token or uid")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	s.set(&c)
	return nil
}

// SignOut forgets the credentials and notifies listeners.
func (s *Session) SignOut() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing credentials: %w", err)
	}
	s.set(nil)
	return nil
}

// Reload re-reads the credentials file, notifying listeners on change.
func (s *Session) Reload() error {
	c, err := readCredentials(s.path)
	if err != nil {
		return err
	}
	s.set(c)
	return nil
}

func (s *Session) set(c *Credentials) {
	s.mu.Lock()
	before, wasIn := s.currentLocked()
	s.creds = c
	after, isIn := s.currentLocked()
	if wasIn == isIn && before == after {
		s.mu.Unlock()
		return
	}
	ls := make([]Listener, 0, len(s.listeners))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			ls = append(ls, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range ls {
		fn(after, isIn)
	}
}

// Watch follows the credentials file so that `networth login` or `logout`
// in another terminal reaches a running dashboard. It blocks until ctx is
// done.
func (s *Session) Watch(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	name := filepath.Base(s.path)
	// Editors and os.WriteFile produce bursts of events; settle first.
	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = time.After(150 * time.Millisecond)
			}
		case <-pending:
			pending = nil
			if err := s.Reload(); err != nil {
				slog.Warn("credentials reload failed", slog.Any("error", err))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("credentials watch error", slog.Any("error", err))
		}
	}
}
