package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/config"
	"github.com/sahilbhatiani/net-worth-tracker/internal/remote"
	"github.com/sahilbhatiani/net-worth-tracker/internal/state"
	"github.com/sahilbhatiani/net-worth-tracker/internal/store"
	"github.com/sahilbhatiani/net-worth-tracker/internal/syncer"
)

// env is one running instance of the tracker: state, its local cache, the
// session and the gateway that syncs them.
type env struct {
	cfg     config.Config
	log     *slog.Logger
	st      *state.State
	cache   *store.Cache   // nil when the cache could not be opened
	session *auth.Session
	client  *remote.Client // nil without a configured server
	gateway *syncer.Gateway
}

type envOptions struct {
	// restoreGuest loads the cached document when nobody is signed in.
	restoreGuest bool
	logger       *slog.Logger
	onError      func(error)
	onSync       func(syncer.Status)
	liveUpdates  bool
}

var errNoServer = errors.New("no sync server configured (set sync.server_url or " + config.EnvServerURL + ")")

// openEnv builds the application and performs the initial remote load for
// an already signed-in user.
func openEnv(ctx context.Context, opts envOptions) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := opts.logger
	if logger == nil {
		logger = newLogger(os.Stderr)
	}

	e := &env{cfg: cfg, log: logger, st: state.New()}

	e.cache, err = store.Open(cfg.CachePath())
	if err != nil {
		// The cache is best effort; run without it.
		logger.Warn("local cache unavailable", slog.String("path", cfg.CachePath()), slog.Any("error", err))
		e.cache = nil
	}

	e.session, err = auth.OpenSession(config.CredentialsPath())
	if err != nil {
		e.closeCache()
		return nil, err
	}

	if cfg.Sync.ServerURL != "" {
		e.client, err = remote.NewClient(cfg.Sync.ServerURL)
		if err != nil {
			e.closeCache()
			return nil, err
		}
	}

	if _, signedIn := e.session.Current(); !signedIn && opts.restoreGuest && e.cache != nil {
		doc, ok, err := e.cache.Restore(ctx)
		switch {
		case err != nil:
			logger.Warn("restoring local cache", slog.Any("error", err))
		case ok:
			e.st.Replace(doc, state.Remote)
		}
	}

	var r syncer.Remote
	if e.client != nil {
		r = e.client
	}
	var c syncer.Cache
	if e.cache != nil {
		c = e.cache
	}
	e.gateway = syncer.New(e.st, r, c, syncer.Options{
		LiveUpdates:  opts.liveUpdates,
		WriteTimeout: 15 * time.Second,
		Logger:       logger,
		OnError:      opts.onError,
		OnSync:       opts.onSync,
	})
	e.gateway.Start(e.session)
	return e, nil
}

// Close flushes pending remote writes and releases the cache.
func (e *env) Close() {
	e.gateway.Close()
	e.closeCache()
}

func (e *env) closeCache() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

// requireSignIn returns the signed-in identity or an explanatory error.
func (e *env) requireSignIn() (auth.Identity, error) {
	if e.client == nil {
		return auth.Identity{}, errNoServer
	}
	id, ok := e.session.Current()
	if !ok {
		return auth.Identity{}, errors.New("not signed in (run `networth login`)")
	}
	return id, nil
}

// withEnv runs fn against a CLI environment. CLI invocations continue the
// guest's local session, so the cache is always restored for guests. For a
// signed-in user whose remote document could not be read, fn never runs. A
// sync failure during the command fails the command once fn has run.
func withEnv(fn func(ctx context.Context, e *env) error) error {
	ctx := context.Background()

	var (
		mu      sync.Mutex
		syncErr error
	)
	e, err := openEnv(ctx, envOptions{
		restoreGuest: true,
		onError: func(err error) {
			mu.Lock()
			if syncErr == nil {
				syncErr = err
			}
			mu.Unlock()
		},
	})
	if err != nil {
		return fmt.Errorf("starting: %w", err)
	}
	if st := e.gateway.Status(); st.SignedIn && !st.Loaded {
		e.Close()
		mu.Lock()
		defer mu.Unlock()
		return fmt.Errorf("sync: %w", errors.Join(syncer.ErrNotLoaded, syncErr))
	}

	err = fn(ctx, e)
	e.Close()
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	if syncErr != nil {
		return fmt.Errorf("sync: %w", syncErr)
	}
	return nil
}
