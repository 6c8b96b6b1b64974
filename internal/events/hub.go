// Package events keeps the candidate-facing view of a session and streams
// every change of it to subscribers.
package events

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/terra-clan/interview-coach/internal/lifecycle"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/timer"
)

// Mode is the top-level screen
type Mode string

const (
	ModeWelcome Mode = "welcome"
	ModeRound   Mode = "round"
	ModeSummary Mode = "summary"
)

// EventType names what changed
type EventType string

const (
	EventRound       EventType = "round"
	EventWelcome     EventType = "welcome"
	EventProblem     EventType = "problem"
	EventTestCases   EventType = "test_cases"
	EventTestResults EventType = "test_results"
	EventFeedback    EventType = "feedback"
	EventTimer       EventType = "timer"
	EventIdle        EventType = "idle"
	EventSummary     EventType = "summary"
)

// Feedback is the content of the feedback area
type Feedback struct {
	Kind models.FeedbackKind `json:"kind"`
	Text string              `json:"text"`
}

// View is everything the candidate currently sees
type View struct {
	Mode       Mode              `json:"mode"`
	Round      models.RoundType  `json:"round,omitempty"`
	Title      string            `json:"title,omitempty"`
	Welcome    string            `json:"welcome,omitempty"`
	Actions    []models.Action   `json:"actions,omitempty"`
	ShowCode   bool              `json:"show_code"`
	Languages  []string          `json:"languages,omitempty"`
	Difficulty models.Difficulty `json:"difficulty,omitempty"`

	Problem     *lifecycle.Problem    `json:"problem,omitempty"`
	Feedback    *Feedback             `json:"feedback,omitempty"`
	TestCases   []models.TestCase     `json:"test_cases,omitempty"`
	TestResults *models.TestRunResult `json:"test_results,omitempty"`
	Timer       *timer.Snapshot       `json:"timer,omitempty"`

	CompletedRounds          []models.RoundType `json:"completed_rounds"`
	OverallFeedbackAvailable bool               `json:"overall_feedback_available"`
}

// Event is one change pushed to subscribers
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

const subscriberBuffer = 64

// Hub implements the controller's presenter
type Hub struct {
	mu     sync.Mutex
	view   View
	subs   map[int]chan Event
	nextID int
}

// NewHub creates a hub showing the welcome screen
func NewHub() *Hub {
	return &Hub{
		view: View{Mode: ModeWelcome, CompletedRounds: []models.RoundType{}},
		subs: make(map[int]chan Event),
	}
}

// Subscribe returns a channel of future events and a cancel function.
// Events are dropped for a subscriber whose buffer is full.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.subs {
		delete(h.subs, id)
		close(c)
	}
}

// View returns a copy of the current view
func (h *Hub) View() View {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := h.view
	v.Actions = slices.Clone(v.Actions)
	v.Languages = slices.Clone(v.Languages)
	v.TestCases = slices.Clone(v.TestCases)
	v.CompletedRounds = slices.Clone(v.CompletedRounds)
	if v.Problem != nil {
		p := *v.Problem
		v.Problem = &p
	}
	if v.Feedback != nil {
		f := *v.Feedback
		v.Feedback = &f
	}
	if v.Timer != nil {
		t := *v.Timer
		v.Timer = &t
	}
	return v
}

// update mutates the view and publishes an event atomically
func (h *Hub) update(t EventType, data interface{}, mutate func(v *View)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	mutate(&h.view)

	ev := Event{Type: t, Data: data, At: time.Now()}
	for id, c := range h.subs {
		select {
		case c <- ev:
		default:
			slog.Debug("dropping event for slow subscriber", "subscriber", id, "type", t)
		}
	}
}

// ShowRound switches to the round screen
func (h *Hub) ShowRound(cfg *rounds.Config, d models.Difficulty) {
	h.update(EventRound, cfg, func(v *View) {
		v.Mode = ModeRound
		v.Round = cfg.Round
		v.Title = cfg.Title
		v.Welcome = ""
		v.Actions = slices.Clone(cfg.Actions)
		v.ShowCode = cfg.ShowCode
		v.Languages = slices.Clone(cfg.Languages)
		v.Difficulty = d
		v.Problem = nil
		v.TestCases = nil
		v.TestResults = nil
		v.Timer = nil
	})
}

func (h *Hub) ShowWelcome(r models.RoundType, text string) {
	h.update(EventWelcome, map[string]string{"round": string(r), "text": text}, func(v *View) {
		v.Welcome = text
	})
}

func (h *Hub) ShowProblem(p lifecycle.Problem) {
	h.update(EventProblem, p, func(v *View) {
		v.Problem = &p
	})
}

func (h *Hub) ShowTestCases(r models.RoundType, cases []models.TestCase) {
	h.update(EventTestCases, cases, func(v *View) {
		if v.Round == r {
			v.TestCases = slices.Clone(cases)
		}
	})
}

func (h *Hub) ShowTestResults(res *models.TestRunResult) {
	h.update(EventTestResults, res, func(v *View) {
		v.TestResults = res
	})
}

func (h *Hub) ShowFeedback(kind models.FeedbackKind, text string) {
	f := Feedback{Kind: kind, Text: text}
	h.update(EventFeedback, f, func(v *View) {
		v.Feedback = &f
	})
}

func (h *Hub) ShowTimer(s timer.Snapshot) {
	h.update(EventTimer, s, func(v *View) {
		if v.Round == s.Round {
			v.Timer = &s
		}
	})
}

// ShowIdle returns to the welcome screen. The feedback area is kept.
func (h *Hub) ShowIdle(completed []models.RoundType, overallAvailable bool) {
	h.update(EventIdle, map[string]interface{}{
		"completed_rounds":           completed,
		"overall_feedback_available": overallAvailable,
	}, func(v *View) {
		feedback := v.Feedback
		*v = View{
			Mode:                     ModeWelcome,
			Feedback:                 feedback,
			CompletedRounds:          slices.Clone(completed),
			OverallFeedbackAvailable: overallAvailable,
		}
		if v.CompletedRounds == nil {
			v.CompletedRounds = []models.RoundType{}
		}
	})
}

// ShowSummary presents the overall interview feedback
func (h *Hub) ShowSummary(text string) {
	f := Feedback{Kind: models.FeedbackResponse, Text: text}
	h.update(EventSummary, f, func(v *View) {
		v.Mode = ModeSummary
		v.Round = ""
		v.Title = "Interview Complete"
		v.Actions = nil
		v.ShowCode = false
		v.Problem = nil
		v.TestCases = nil
		v.TestResults = nil
		v.Timer = nil
		v.Feedback = &f
	})
}
