// Package syncer keeps application state persisted: every change is
// mirrored to the local cache, and while a user is signed in local changes
// are written to the remote document and remote changes are loaded back.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
	"github.com/sahilbhatiani/net-worth-tracker/internal/remote"
	"github.com/sahilbhatiani/net-worth-tracker/internal/state"
)

// ErrNotLoaded is reported when a local change is not written because the
// signed-in user's remote document has not been read yet.
var ErrNotLoaded = errors.New("remote document not loaded; change kept locally")

// Remote is the per-user document store.
type Remote interface {
	Get(ctx context.Context, id auth.Identity) (model.Document, bool, error)
	Merge(ctx context.Context, id auth.Identity, fields map[string]any) error
	Watch(ctx context.Context, id auth.Identity) (<-chan remote.Update, error)
}

// Cache is the local best-effort mirror.
type Cache interface {
	Mirror(ctx context.Context, doc model.Document) error
}

// AuthSource reports the signed-in identity, immediately on Subscribe and
// again on every change.
type AuthSource interface {
	Subscribe(fn auth.Listener) func()
}

// Options tune a Gateway. The zero value is usable.
type Options struct {
	// LiveUpdates follows the remote change stream while signed in.
	LiveUpdates bool
	// ReconnectDelay is the pause before reopening a dropped stream.
	ReconnectDelay time.Duration
	// WriteTimeout bounds each remote request.
	WriteTimeout time.Duration
	Logger       *slog.Logger
	// OnError is called for every remote or cache failure.
	OnError func(error)
	// OnSync is called after each successful remote load or write.
	OnSync func(Status)
}

// Status is a point-in-time view of the gateway.
type Status struct {
	SignedIn bool
	// Loaded is set once the signed-in user's remote document has been
	// read. Local changes reach the remote only after that.
	Loaded    bool
	Identity  auth.Identity
	LastSync  time.Time
	LastError string
	Pending   int
}

type pendingWrite struct {
	id     auth.Identity
	fields map[string]any
}

// Gateway wires state, cache, remote and auth together.
type Gateway struct {
	st     *state.State
	remote Remote
	cache  Cache
	opts   Options
	log    *slog.Logger

	mu          sync.Mutex
	identity    *auth.Identity
	loaded      bool
	gen         uint64
	cancelWatch context.CancelFunc
	lastSync    time.Time
	lastError   string
	unsubs      []func()

	qmu     sync.Mutex
	queue   []pendingWrite
	kick    chan struct{}
	done    chan struct{}
	writes  sync.WaitGroup
	workers sync.WaitGroup
	closed  bool
}

// New returns a gateway. remote may be nil for guest-only use.
func New(st *state.State, r Remote, c Cache, opts Options) *Gateway {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 15 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		st:     st,
		remote: r,
		cache:  c,
		opts:   opts,
		log:    logger,
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Start subscribes to state changes and to src. The initial remote load for
// an already signed-in user completes before Start returns.
func (g *Gateway) Start(src AuthSource) {
	g.workers.Add(1)
	go g.writer()

	unsubState := g.st.Subscribe(g.onChange)
	g.mu.Lock()
	g.unsubs = append(g.unsubs, unsubState)
	g.mu.Unlock()

	if src != nil {
		unsubAuth := src.Subscribe(g.onAuth)
		g.mu.Lock()
		g.unsubs = append(g.unsubs, unsubAuth)
		g.mu.Unlock()
	}
}

// Flush waits until every queued remote write has been attempted.
func (g *Gateway) Flush() {
	g.writes.Wait()
}

// Close stops syncing after flushing queued writes.
func (g *Gateway) Close() {
	g.mu.Lock()
	unsubs := g.unsubs
	g.unsubs = nil
	if g.cancelWatch != nil {
		g.cancelWatch()
		g.cancelWatch = nil
	}
	g.identity = nil
	g.gen++
	g.mu.Unlock()

	for _, fn := range unsubs {
		fn()
	}

	g.Flush()
	g.qmu.Lock()
	if !g.closed {
		g.closed = true
		close(g.done)
	}
	g.qmu.Unlock()
	g.workers.Wait()
}

// Status reports the current sync state.
func (g *Gateway) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.statusLocked()
}

func (g *Gateway) statusLocked() Status {
	st := Status{LastSync: g.lastSync, LastError: g.lastError}
	if g.identity != nil {
		st.SignedIn = true
		st.Loaded = g.loaded
		st.Identity = *g.identity
	}
	g.qmu.Lock()
	st.Pending = len(g.queue)
	g.qmu.Unlock()
	return st
}

func (g *Gateway) onChange(ch state.Change) {
	if g.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), g.opts.WriteTimeout)
		if err := g.cache.Mirror(ctx, ch.Doc); err != nil {
			g.report("cache mirror", err)
		}
		cancel()
	}

	if ch.Origin != state.Local || g.remote == nil {
		return
	}
	g.mu.Lock()
	id, loaded := g.identity, g.loaded
	g.mu.Unlock()
	if id == nil {
		return
	}
	if !loaded {
		// Writing now would replace a remote document we have never seen.
		g.report("writing remote document", ErrNotLoaded)
		return
	}

	fields, err := DocumentFields(ch.Doc)
	if err != nil {
		g.report("encoding document", err)
		return
	}
	g.enqueue(pendingWrite{id: *id, fields: fields})
}

func (g *Gateway) onAuth(id auth.Identity, ok bool) {
	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.loaded = false
	if g.cancelWatch != nil {
		g.cancelWatch()
		g.cancelWatch = nil
	}
	if !ok || g.remote == nil {
		g.identity = nil
		g.mu.Unlock()
		if ok {
			g.log.Warn("signed in but no sync server configured", slog.String("user", id.String()))
		}
		return
	}
	g.identity = &id
	var watchCtx context.Context
	if g.opts.LiveUpdates {
		var cancel context.CancelFunc
		watchCtx, cancel = context.WithCancel(context.Background())
		g.cancelWatch = cancel
	}
	g.mu.Unlock()

	g.load(id, gen)

	if watchCtx != nil {
		g.workers.Add(1)
		go func() {
			defer g.workers.Done()
			g.watch(watchCtx, id, gen)
		}()
	}
}

// load fetches the remote document once. A missing document leaves local
// state untouched until the next local write creates it. After a failed
// load, local changes stay local until a stream snapshot arrives.
func (g *Gateway) load(id auth.Identity, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.WriteTimeout)
	defer cancel()

	doc, exists, err := g.remote.Get(ctx, id)
	if err != nil {
		g.report("loading remote document", err)
		return
	}
	g.applySnapshot(gen, doc, exists)
}

// applySnapshot installs a remote read for generation gen and opens the
// gate for remote writes.
func (g *Gateway) applySnapshot(gen uint64, doc model.Document, exists bool) {
	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		return
	}
	g.loaded = true
	g.mu.Unlock()

	g.markSynced()
	if exists {
		g.st.Replace(doc, state.Remote)
	}
}

func (g *Gateway) watch(ctx context.Context, id auth.Identity, gen uint64) {
	for {
		updates, err := g.remote.Watch(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			g.report("opening change stream", err)
		} else {
			for u := range updates {
				g.applySnapshot(gen, u.Doc, u.Exists)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(g.opts.ReconnectDelay):
		}
	}
}

func (g *Gateway) enqueue(w pendingWrite) {
	g.qmu.Lock()
	if g.closed {
		g.qmu.Unlock()
		return
	}
	g.writes.Add(1)
	g.queue = append(g.queue, w)
	g.qmu.Unlock()

	select {
	case g.kick <- struct{}{}:
	default:
	}
}

// writer sends queued writes one at a time, oldest first, so the remote
// ends with the latest local snapshot.
func (g *Gateway) writer() {
	defer g.workers.Done()
	for {
		select {
		case <-g.done:
			return
		case <-g.kick:
		}
		for {
			g.qmu.Lock()
			if len(g.queue) == 0 {
				g.qmu.Unlock()
				break
			}
			w := g.queue[0]
			g.queue = g.queue[1:]
			g.qmu.Unlock()

			g.send(w)
			g.writes.Done()
		}
	}
}

func (g *Gateway) send(w pendingWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), g.opts.WriteTimeout)
	defer cancel()
	if err := g.remote.Merge(ctx, w.id, w.fields); err != nil {
		g.report("writing remote document", err)
		return
	}
	g.markSynced()
}

func (g *Gateway) markSynced() {
	g.mu.Lock()
	g.lastSync = time.Now()
	g.lastError = ""
	st := g.statusLocked()
	g.mu.Unlock()
	if g.opts.OnSync != nil {
		g.opts.OnSync(st)
	}
}

func (g *Gateway) report(op string, err error) {
	g.log.Error("sync failed", slog.String("op", op), slog.Any("error", err))
	g.mu.Lock()
	g.lastError = op + ": " + err.Error()
	g.mu.Unlock()
	if g.opts.OnError != nil {
		g.opts.OnError(err)
	}
}

// DocumentFields converts doc to the remote write payload with every
// absent value dropped, at any depth. A cleared target is sent as an
// explicit null so the merge deletes it remotely.
func DocumentFields(doc model.Document) (map[string]any, error) {
	if doc.Entries == nil {
		doc.Entries = []model.Entry{}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	pruned, _ := Prune(m).(map[string]any)
	if doc.TargetSettings == nil {
		pruned["targetSettings"] = nil
	}
	return pruned, nil
}

// Prune returns v with nil object values removed at every depth. Array
// elements are pruned in place but never dropped.
func Prune(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			if child == nil {
				continue
			}
			out[k] = Prune(child)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, child := range x {
			out[i] = Prune(child)
		}
		return out
	default:
		return v
	}
}
