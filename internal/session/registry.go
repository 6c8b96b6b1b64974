// Package session keeps one interview per candidate: its state, timers,
// lifecycle, controller and view hub.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/interview-coach/internal/clock"
	"github.com/terra-clan/interview-coach/internal/controller"
	"github.com/terra-clan/interview-coach/internal/diagrams"
	"github.com/terra-clan/interview-coach/internal/events"
	"github.com/terra-clan/interview-coach/internal/lifecycle"
	"github.com/terra-clan/interview-coach/internal/llm"
	"github.com/terra-clan/interview-coach/internal/metrics"
	"github.com/terra-clan/interview-coach/internal/problems"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/runner"
	"github.com/terra-clan/interview-coach/internal/state"
	"github.com/terra-clan/interview-coach/internal/storage"
	"github.com/terra-clan/interview-coach/internal/timer"
)

// ErrSessionNotFound is returned for unknown or malformed session ids
var ErrSessionNotFound = errors.New("session not found")

// metaKey marks a session as known in durable storage
const metaKey = "meta"

// Session is one candidate's interview
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *controller.Controller
	Hub        *events.Hub
	State      *state.State

	mu       sync.Mutex
	lastSeen time.Time
}

// LastSeen returns when the session was last used
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) close() {
	s.Controller.Close()
	s.Hub.Close()
}

// Deps are the collaborators shared by every session
type Deps struct {
	Store       storage.Store
	Rounds      *rounds.Table
	Generator   llm.Generator
	Source      problems.Source
	Executor    runner.Executor     // optional
	Diagrams    diagrams.Repository // optional
	Clock       clock.Clock
	GracePeriod time.Duration
}

// Registry owns the live sessions of the process
type Registry struct {
	deps Deps

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry
func NewRegistry(deps Deps) *Registry {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Rounds == nil {
		deps.Rounds = rounds.Default()
	}
	return &Registry{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

func prefix(id string) string {
	return "session:" + id + ":"
}

// Create starts a new session
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	now := r.deps.Clock.Now()

	store := storage.Prefixed(r.deps.Store, prefix(id))
	if err := store.Set(ctx, metaKey, now.UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}

	s := r.build(id, store, now)
	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	slog.Info("session created", "id", id)
	return s, nil
}

// Get returns a live session. Sessions that were evicted but are still
// known to storage are rebuilt from their saved state.
func (r *Registry) Get(ctx context.Context, id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	now := r.deps.Clock.Now()

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		return s, nil
	}

	store := storage.Prefixed(r.deps.Store, prefix(id))
	created, found, err := store.Get(ctx, metaKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	createdAt, err := time.Parse(time.RFC3339, created)
	if err != nil {
		createdAt = now
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another request may have rehydrated it meanwhile.
	if s, ok := r.sessions[id]; ok {
		s.touch(now)
		return s, nil
	}
	s = r.build(id, store, createdAt)
	s.touch(now)
	r.sessions[id] = s
	metrics.SetActiveSessions(len(r.sessions))

	slog.Info("session restored", "id", id)
	return s, nil
}

func (r *Registry) build(id string, store storage.Store, createdAt time.Time) *Session {
	logger := slog.Default().With("session", id)

	st := state.New(store, state.WithLogger(logger))
	hub := events.NewHub()
	timers := timer.NewRegistry(r.deps.Clock, r.deps.Rounds)
	lc := lifecycle.NewManager(st, r.deps.Rounds, r.deps.Generator, r.deps.Source, hub)

	opts := []controller.Option{controller.WithLogger(logger)}
	if r.deps.Executor != nil {
		opts = append(opts, controller.WithExecutor(r.deps.Executor))
	}
	if r.deps.Diagrams != nil {
		opts = append(opts, controller.WithDiagrams(r.deps.Diagrams, id))
	}
	if r.deps.GracePeriod > 0 {
		opts = append(opts, controller.WithGracePeriod(r.deps.GracePeriod))
	}

	ctrl := controller.New(st, r.deps.Rounds, timers, lc, hub, r.deps.Clock, opts...)

	// A restored session shows its completed rounds on the welcome screen.
	hub.ShowIdle(st.CompletedRounds(), st.IsAllRoundsCompleted())

	return &Session{
		ID:         id,
		CreatedAt:  createdAt,
		Controller: ctrl,
		Hub:        hub,
		State:      st,
		lastSeen:   createdAt,
	}
}

// Delete wipes a session and forgets it
func (r *Registry) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	s.Controller.Reset()
	s.close()

	if err := storage.Prefixed(r.deps.Store, prefix(id)).Remove(ctx, metaKey); err != nil {
		slog.Warn("failed to remove session marker", "id", id, "error", err)
	}

	r.mu.Lock()
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.SetActiveSessions(n)
	slog.Info("session deleted", "id", id)
	return nil
}

// Evict stops a live session and drops it from memory. Its durable state
// is kept, so a later Get restores it.
func (r *Registry) Evict(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	metrics.SetActiveSessions(n)
	return true
}

// Idle returns the ids of sessions unused for longer than ttl
func (r *Registry) Idle(ttl time.Duration) []string {
	cutoff := r.deps.Clock.Now().Add(-ttl)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops every live session
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
	metrics.SetActiveSessions(0)
}
