// Package daemon provides the sync server: account endpoints, the per-user
// document API and its server-sent change stream.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/docstore"
)

// Config controls the server runtime behavior.
type Config struct {
	Addr         string
	EventsBuffer int
	Heartbeat    time.Duration
	Store        docstore.Store
	Issuer       *auth.Issuer
	Logger       *slog.Logger
	AccessLog    io.Writer
}

// Event records one document write. Events are kept in a ring buffer and
// listed per user at /v1/events.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	UID       string    `json:"-"`
	Version   int64     `json:"version"`
}

// StreamMessage is the data payload of a "snapshot" stream event.
type StreamMessage struct {
	Version   int64          `json:"version"`
	Exists    bool           `json:"exists"`
	UpdatedAt time.Time      `json:"updated_at"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Backend         string    `json:"backend"`
	Writes          int64     `json:"writes"`
	LastWriteAt     time.Time `json:"last_write_at"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

type subscriber struct {
	uid string
	ch  chan StreamMessage
}

// Service provides the server runtime and HTTP API.
type Service struct {
	cfg Config
	log *slog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	writes      int64
	lastWriteAt time.Time
	lastError   string
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]subscriber
}

// New returns a new service with the provided config.
func New(cfg Config) *Service {
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 25 * time.Second
	}
	if cfg.AccessLog == nil {
		cfg.AccessLog = os.Stderr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		cfg:       cfg,
		log:       logger,
		startedAt: time.Now(),
		subs:      make(map[int]subscriber),
	}
}

// Handler builds the gin engine serving the API.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.LoggerWithWriter(s.cfg.AccessLog, "/healthz"), gin.Recovery())

	r.GET("/healthz", s.handleHealth)
	r.GET("/v1/status", s.handleStatus)
	r.POST("/v1/auth/register", s.handleRegister)
	r.POST("/v1/auth/login", s.handleLogin)

	authed := r.Group("/v1")
	authed.Use(s.jwtAuthMiddleware())
	authed.GET("/me", s.handleMe)
	authed.GET("/events", s.handleEvents)
	authed.GET("/documents/me", s.handleGetDocument)
	authed.PATCH("/documents/me", s.handleMergeDocument)
	authed.GET("/documents/me/stream", s.handleStream)
	return r
}

// Run serves HTTP until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("sync server listening", slog.String("addr", s.cfg.Addr), slog.String("backend", s.cfg.Store.Backend()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("sync http server: %w", err)
	}
}

func (s *Service) recordWrite(snap docstore.Snapshot) {
	s.mu.Lock()
	s.writes++
	s.lastWriteAt = snap.UpdatedAt
	s.lastError = ""
	s.nextEventID++
	ev := Event{
		ID:        s.nextEventID,
		Type:      "document_updated",
		Timestamp: snap.UpdatedAt,
		UID:       snap.UID,
		Version:   snap.Version,
	}
	s.mu.Unlock()

	s.publishEvent(ev, StreamMessage{
		Version:   snap.Version,
		Exists:    true,
		UpdatedAt: snap.UpdatedAt,
		Fields:    snap.Fields,
	})
}

func (s *Service) recordError(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	s.log.Error("docstore error", slog.Any("error", err))
}

// publishEvent appends ev to the ring buffer and hands msg to the owner's
// stream subscribers. A subscriber that has not consumed its previous
// message gets it replaced: only the latest snapshot matters.
func (s *Service) publishEvent(ev Event, msg StreamMessage) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, sub := range s.subs {
		if sub.uid != ev.UID {
			continue
		}
		select {
		case sub.ch <- msg:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- msg:
			default:
			}
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	backend := ""
	if s.cfg.Store != nil {
		backend = s.cfg.Store.Backend()
	}
	return Status{
		StartedAt:       s.startedAt,
		Backend:         backend,
		Writes:          s.writes,
		LastWriteAt:     s.lastWriteAt,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) eventsFor(uid string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Event{}
	for _, ev := range s.events {
		if ev.UID == uid {
			out = append(out, ev)
		}
	}
	return out
}

func writeSSE(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}

func (s *Service) addSubscriber(uid string, ch chan StreamMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = subscriber{uid: uid, ch: ch}
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
