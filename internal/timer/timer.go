// Package timer runs one countdown per round, ticking once per second on an
// injected clock.
package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/interview-coach/internal/clock"
	"github.com/terra-clan/interview-coach/internal/models"
)

// DefaultDuration applies to rounds without a configured duration
const DefaultDuration = 45 * time.Minute

// Level classifies how much time is left
type Level string

const (
	LevelNormal   Level = "normal"
	LevelWarning  Level = "warning"
	LevelCritical Level = "critical"
)

// Snapshot is the observable state of one round timer
type Snapshot struct {
	Round            models.RoundType `json:"round"`
	TotalSeconds     int              `json:"total_seconds"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Running          bool             `json:"running"`
	Display          string           `json:"display"`
	Level            Level            `json:"level"`
}

// Durations supplies the countdown length of each round
type Durations interface {
	Duration(r models.RoundType) time.Duration
}

// DurationFunc adapts a function to Durations
type DurationFunc func(models.RoundType) time.Duration

func (f DurationFunc) Duration(r models.RoundType) time.Duration { return f(r) }

// Listener receives timer notifications. Both methods are called from the
// ticking goroutine without registry locks held.
type Listener interface {
	TimerTicked(s Snapshot)
	TimerExpired(r models.RoundType)
}

type entry struct {
	total     int
	remaining int
	running   bool
	expired   bool
	stop      func()
}

// Registry owns the countdowns of one session
type Registry struct {
	mu        sync.Mutex
	clock     clock.Clock
	durations Durations
	listener  Listener
	timers    map[models.RoundType]*entry
}

// NewRegistry creates an empty registry
func NewRegistry(clk clock.Clock, durations Durations) *Registry {
	return &Registry{
		clock:     clk,
		durations: durations,
		timers:    make(map[models.RoundType]*entry),
	}
}

// SetListener installs the notification target. It must be called before
// the first Start.
func (r *Registry) SetListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listener = l
}

// Start begins a fresh countdown for round, replacing any existing one.
// The initial display update is delivered before Start returns.
func (r *Registry) Start(round models.RoundType) {
	total := int(r.duration(round) / time.Second)
	e := &entry{total: total, remaining: total, running: true}

	r.mu.Lock()
	if old, ok := r.timers[round]; ok && old.stop != nil {
		old.stop()
	}
	r.timers[round] = e
	e.stop = r.clock.Every(time.Second, func() { r.tick(round, e) })
	snap := snapshotOf(round, e)
	listener := r.listener
	r.mu.Unlock()

	slog.Debug("round timer started", "round", round, "seconds", total)

	if listener != nil {
		listener.TimerTicked(snap)
	}
}

func (r *Registry) duration(round models.RoundType) time.Duration {
	if r.durations == nil {
		return DefaultDuration
	}
	d := r.durations.Duration(round)
	if d <= 0 {
		return DefaultDuration
	}
	return d
}

func (r *Registry) tick(round models.RoundType, e *entry) {
	r.mu.Lock()
	if r.timers[round] != e || !e.running {
		r.mu.Unlock()
		return
	}

	e.remaining--
	expired := false
	if e.remaining <= 0 {
		e.remaining = 0
		e.running = false
		e.stop()
		if !e.expired {
			e.expired = true
			expired = true
		}
	}
	snap := snapshotOf(round, e)
	listener := r.listener
	r.mu.Unlock()

	if listener == nil {
		return
	}
	listener.TimerTicked(snap)
	if expired {
		slog.Info("round timer expired", "round", round)
		listener.TimerExpired(round)
	}
}

// Stop halts the countdown for round. Stopping an absent or stopped timer is a no-op.
func (r *Registry) Stop(round models.RoundType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.timers[round]
	if !ok || !e.running {
		return
	}
	e.running = false
	e.stop()
}

// StopAll halts every countdown
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.timers {
		if e.running {
			e.running = false
			e.stop()
		}
	}
}

// Remaining returns the seconds left for round, or 0 without a timer
func (r *Registry) Remaining(round models.RoundType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.timers[round]; ok {
		return e.remaining
	}
	return 0
}

// IsRunning reports whether round's countdown is active
func (r *Registry) IsRunning(round models.RoundType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.timers[round]
	return ok && e.running
}

// Snapshot returns the timer state for round
func (r *Registry) Snapshot(round models.RoundType) (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.timers[round]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotOf(round, e), true
}

func snapshotOf(round models.RoundType, e *entry) Snapshot {
	return Snapshot{
		Round:            round,
		TotalSeconds:     e.total,
		RemainingSeconds: e.remaining,
		Running:          e.running,
		Display:          FormatDisplay(e.remaining),
		Level:            LevelFor(e.remaining, e.total),
	}
}

// FormatDisplay renders seconds as MM:SS
func FormatDisplay(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// LevelFor grades the remaining fraction of a countdown
func LevelFor(remaining, total int) Level {
	if total <= 0 {
		return LevelCritical
	}
	fraction := float64(remaining) / float64(total)
	switch {
	case fraction <= 0.1:
		return LevelCritical
	case fraction <= 0.25:
		return LevelWarning
	default:
		return LevelNormal
	}
}
