// Package state holds the persistent interview state of one candidate:
// the active round, the completed rounds and the per-round problem caches.
package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/storage"
)

// Key is the well-known key the snapshot is stored under
const Key = "interviewState"

const storeTimeout = 5 * time.Second

// snapshot is the durable layout. The active round is not persisted.
type snapshot struct {
	RoundProblems   map[models.RoundType]string          `json:"roundProblems"`
	RoundData       map[models.RoundType]json.RawMessage `json:"roundData"`
	CompletedRounds []models.RoundType                   `json:"completedRounds"`
}

// State is the interview state of one session. Every mutation is written
// through to the store before it returns. Persistence failures never fail
// an operation; they are logged and the in-memory state stays authoritative.
type State struct {
	mu     sync.Mutex
	store  storage.Store
	logger *slog.Logger

	current   models.RoundType
	epoch     uint64
	completed []models.RoundType
	problems  map[models.RoundType]string
	data      map[models.RoundType]json.RawMessage
}

// Option configures a State
type Option func(*State)

// WithLogger sets the logger used for storage warnings
func WithLogger(l *slog.Logger) Option {
	return func(s *State) {
		s.logger = l
	}
}

// New creates a State backed by store and loads any saved snapshot
func New(store storage.Store, opts ...Option) *State {
	s := &State{
		store:    store,
		logger:   slog.Default(),
		problems: make(map[models.RoundType]string),
		data:     make(map[models.RoundType]json.RawMessage),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load()
	return s
}

func (s *State) load() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	raw, ok, err := s.store.Get(ctx, Key)
	if err != nil {
		s.logger.Warn("failed to load interview state", "error", err)
		return
	}
	if !ok {
		return
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.Warn("discarding corrupt interview state", "error", err)
		return
	}

	for r, text := range snap.RoundProblems {
		if r.Valid() {
			s.problems[r] = text
		}
	}
	for r, d := range snap.RoundData {
		if r.Valid() {
			s.data[r] = d
		}
	}
	for _, r := range snap.CompletedRounds {
		if r.Valid() && !slices.Contains(s.completed, r) {
			s.completed = append(s.completed, r)
		}
	}
}

// save writes the snapshot. Caller holds s.mu.
func (s *State) save() {
	snap := snapshot{
		RoundProblems:   s.problems,
		RoundData:       s.data,
		CompletedRounds: s.completed,
	}
	if snap.CompletedRounds == nil {
		snap.CompletedRounds = []models.RoundType{}
	}

	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("failed to encode interview state", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := s.store.Set(ctx, Key, string(raw)); err != nil {
		s.logger.Warn("failed to save interview state", "error", err)
	}
}

// CurrentRound returns the active round, if any
func (s *State) CurrentRound() (models.RoundType, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != ""
}

// SetCurrentRound sets the active round. An empty round clears it.
// Every call advances the epoch.
func (s *State) SetCurrentRound(r models.RoundType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
	s.epoch++
}

// ClearCurrentRound is SetCurrentRound("")
func (s *State) ClearCurrentRound() {
	s.SetCurrentRound("")
}

// Epoch identifies the current round selection. It changes whenever the
// active round is set, so work started under one epoch can detect that the
// candidate navigated away before it finished.
func (s *State) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// CompleteRound marks r completed. Completing a round twice is a no-op.
func (s *State) CompleteRound(r models.RoundType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.completed, r) {
		return
	}
	s.completed = append(s.completed, r)
	s.save()
}

// CompletedRounds returns the completed rounds in completion order
func (s *State) CompletedRounds() []models.RoundType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.completed)
}

// IsCompleted reports whether r was completed
func (s *State) IsCompleted(r models.RoundType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.completed, r)
}

// IsAllRoundsCompleted reports whether every round type has been completed
func (s *State) IsAllRoundsCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed) == models.RoundCount
}

// SetProblem caches the problem text for r
func (s *State) SetProblem(r models.RoundType, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems[r] = text
	s.save()
}

// GetProblem returns the cached problem text for r
func (s *State) GetProblem(r models.RoundType) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.problems[r]
	return text, ok
}

// HasProblem reports whether a non-empty problem is cached for r
func (s *State) HasProblem(r models.RoundType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.problems[r] != ""
}

// SetProblemData caches the structured payload for r
func (s *State) SetProblemData(r models.RoundType, data json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r] = data
	s.save()
}

// GetProblemData returns the cached structured payload for r
func (s *State) GetProblemData(r models.RoundType) (json.RawMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[r]
	return d, ok
}

// ClearRoundProblem removes both the text and the payload cached for r
func (s *State) ClearRoundProblem(r models.RoundType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.problems, r)
	delete(s.data, r)
	s.save()
}

// Reset clears everything and removes the durable record
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = ""
	s.epoch++
	s.completed = nil
	s.problems = make(map[models.RoundType]string)
	s.data = make(map[models.RoundType]json.RawMessage)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.Remove(ctx, Key); err != nil {
		s.logger.Warn("failed to remove interview state", "error", err)
	}
}
