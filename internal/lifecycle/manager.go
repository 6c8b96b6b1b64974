// Package lifecycle drives a single round from welcome to completion:
// problem loading and caching, candidate actions, refreshes and feedback.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/terra-clan/interview-coach/internal/llm"
	"github.com/terra-clan/interview-coach/internal/metrics"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/problems"
	"github.com/terra-clan/interview-coach/internal/prompts"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/state"
)

// ErrStaleFetch is returned when the active round changed while a problem
// was being fetched. The fetched problem is discarded.
var ErrStaleFetch = errors.New("round changed while the problem was loading")

// Phase is the lifecycle position of a round
type Phase string

const (
	PhaseUninitialized  Phase = "uninitialized"
	PhaseWelcomed       Phase = "welcomed"
	PhaseProblemLoaded  Phase = "problem-loaded"
	PhaseAwaitingAction Phase = "awaiting-action"
	PhaseCompleted      Phase = "completed"
)

// Tag says where a presented problem came from
type Tag string

const (
	TagCached Tag = "cached"
	TagNew    Tag = "new"
	TagFresh  Tag = "fresh"
)

// Problem is a presented problem statement
type Problem struct {
	Round      models.RoundType  `json:"round"`
	Difficulty models.Difficulty `json:"difficulty"`
	Text       string            `json:"text"`
	Tag        Tag               `json:"tag"`
}

// Presenter receives what the candidate should see
type Presenter interface {
	ShowWelcome(r models.RoundType, text string)
	ShowProblem(p Problem)
	ShowTestCases(r models.RoundType, cases []models.TestCase)
}

// Manager implements the round lifecycle for one session
type Manager struct {
	state     *state.State
	rounds    *rounds.Table
	generator llm.Generator
	source    problems.Source
	presenter Presenter

	mu        sync.Mutex
	phases    map[models.RoundType]Phase
	testCases map[models.RoundType][]models.TestCase
}

// NewManager wires a lifecycle manager
func NewManager(st *state.State, table *rounds.Table, gen llm.Generator, src problems.Source, p Presenter) *Manager {
	return &Manager{
		state:     st,
		rounds:    table,
		generator: gen,
		source:    src,
		presenter: p,
		phases:    make(map[models.RoundType]Phase),
		testCases: make(map[models.RoundType][]models.TestCase),
	}
}

// Phase returns the lifecycle phase of r
func (m *Manager) Phase(r models.RoundType) Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.phases[r]; ok {
		return p
	}
	return PhaseUninitialized
}

func (m *Manager) setPhase(r models.RoundType, p Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases[r] = p
}

// TestCases returns the test cases currently loaded for r
func (m *Manager) TestCases(r models.RoundType) []models.TestCase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TestCase(nil), m.testCases[r]...)
}

func (m *Manager) setTestCases(r models.RoundType, cases []models.TestCase) {
	m.mu.Lock()
	m.testCases[r] = cases
	m.mu.Unlock()
	m.presenter.ShowTestCases(r, cases)
}

// InitializeRound welcomes the candidate and presents the round's problem,
// from the cache when one exists
func (m *Manager) InitializeRound(ctx context.Context, r models.RoundType, d models.Difficulty) (*Problem, error) {
	cfg := m.rounds.Get(r)
	if cfg == nil {
		return nil, models.ErrUnknownRound
	}

	m.presenter.ShowWelcome(r, cfg.Welcome)
	m.setPhase(r, PhaseWelcomed)

	if m.state.HasProblem(r) {
		text, _ := m.state.GetProblem(r)
		p := Problem{Round: r, Difficulty: d, Text: text, Tag: TagCached}
		m.presenter.ShowProblem(p)
		if r == models.RoundDSA {
			m.setTestCases(r, m.cachedTestCases(r, text))
		}
		m.setPhase(r, PhaseAwaitingAction)
		slog.Debug("serving cached problem", "round", r)
		return &p, nil
	}

	return m.fetch(ctx, r, d, TagNew)
}

func (m *Manager) cachedTestCases(r models.RoundType, text string) []models.TestCase {
	raw, ok := m.state.GetProblemData(r)
	if !ok {
		return problems.ExtractTestCasesFromText(text)
	}
	payload, err := models.DecodeProblemPayload(raw)
	if err != nil {
		slog.Warn("cached problem payload is unreadable", "round", r, "error", err)
		return problems.ExtractTestCasesFromText(text)
	}
	return problems.ExtractTestCases(payload)
}

// fetch obtains a new problem, stores it and presents it
func (m *Manager) fetch(ctx context.Context, r models.RoundType, d models.Difficulty, tag Tag) (*Problem, error) {
	epoch := m.state.Epoch()

	var (
		text    string
		payload *models.ProblemPayload
		err     error
	)
	if r == models.RoundDSA {
		payload, err = m.source.RandomProblem(ctx, d)
		if err == nil {
			text = problems.FormatForDisplay(payload)
		}
	} else {
		text, err = m.generator.Generate(ctx, prompts.Problem(r, d))
	}
	metrics.RecordProblemFetch(string(r), metrics.Outcome(err))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s problem: %w", r, err)
	}

	if m.state.Epoch() != epoch {
		slog.Info("discarding stale problem", "round", r)
		return nil, ErrStaleFetch
	}

	m.state.SetProblem(r, text)
	if payload != nil {
		raw, err := payload.Raw()
		if err != nil {
			slog.Warn("failed to encode problem payload", "round", r, "error", err)
		} else {
			m.state.SetProblemData(r, raw)
		}
		m.setTestCases(r, problems.ExtractTestCases(payload))
	}
	m.setPhase(r, PhaseProblemLoaded)

	p := Problem{Round: r, Difficulty: d, Text: text, Tag: tag}
	m.presenter.ShowProblem(p)
	m.setPhase(r, PhaseAwaitingAction)
	return &p, nil
}

// HandleAction sends the candidate's action to the generator and returns
// its reply verbatim. hintQuestion is only used by the hint action.
func (m *Manager) HandleAction(ctx context.Context, a models.Action, input, hintQuestion string) (string, error) {
	round, _ := m.state.CurrentRound()
	problem, _ := m.state.GetProblem(round)

	prompt := prompts.ForAction(a, prompts.ActionContext{
		Round:        round,
		Problem:      problem,
		Input:        input,
		HintQuestion: hintQuestion,
	})
	return m.generator.Generate(ctx, prompt)
}

// RefreshProblem drops the cached problem of r and loads a new one
func (m *Manager) RefreshProblem(ctx context.Context, r models.RoundType, d models.Difficulty) (string, error) {
	if !r.Valid() {
		return "", models.ErrUnknownRound
	}
	m.state.ClearRoundProblem(r)
	m.mu.Lock()
	delete(m.testCases, r)
	m.mu.Unlock()

	if _, err := m.fetch(ctx, r, d, TagFresh); err != nil {
		return "", err
	}
	text, _ := m.state.GetProblem(r)
	return text, nil
}

// GenerateOverallFeedback asks for the end-of-interview summary. It does
// not check that every round was completed.
func (m *Manager) GenerateOverallFeedback(ctx context.Context) (string, error) {
	return m.generator.Generate(ctx, prompts.OverallFeedback())
}

// EvaluateDiagram asks for feedback on a draw.io diagram for round r
func (m *Manager) EvaluateDiagram(ctx context.Context, xml string, r models.RoundType) (string, error) {
	problem, _ := m.state.GetProblem(r)
	return m.generator.Generate(ctx, prompts.Diagram(r, problem, xml))
}

// MarkCompleted moves r to its final phase
func (m *Manager) MarkCompleted(r models.RoundType) {
	m.setPhase(r, PhaseCompleted)
}

// Reset forgets phases and loaded test cases
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phases = make(map[models.RoundType]Phase)
	m.testCases = make(map[models.RoundType][]models.TestCase)
}
