// Package controller coordinates user intents across the interview state,
// the round timers and the round lifecycle for one session.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/terra-clan/interview-coach/internal/clock"
	"github.com/terra-clan/interview-coach/internal/diagrams"
	"github.com/terra-clan/interview-coach/internal/lifecycle"
	"github.com/terra-clan/interview-coach/internal/metrics"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/runner"
	"github.com/terra-clan/interview-coach/internal/state"
	"github.com/terra-clan/interview-coach/internal/timer"
)

// DefaultGracePeriod is how long an expired round stays open before it is ended
const DefaultGracePeriod = 30 * time.Second

// Completion reasons reported to metrics
const (
	reasonManual  = "manual"
	reasonExpired = "expired"
)

var (
	// ErrSwitchDeclined is returned when the user keeps the active round
	ErrSwitchDeclined = errors.New("round switch declined")
	// ErrNoActiveRound is returned by operations that need a current round
	ErrNoActiveRound = errors.New("please select a round first")
	// ErrEmptyInput is returned when an action needs input and none was given
	ErrEmptyInput = errors.New("please provide your input first")
	// ErrNoExecutor is returned when code execution is not configured
	ErrNoExecutor = errors.New("code execution is not configured")
	// ErrActionNotPermitted is returned for actions the round does not offer
	ErrActionNotPermitted = errors.New("action not available in this round")
)

// Presenter is everything the controller shows to the candidate
type Presenter interface {
	lifecycle.Presenter
	ShowRound(cfg *rounds.Config, d models.Difficulty)
	ShowIdle(completed []models.RoundType, overallAvailable bool)
	ShowFeedback(kind models.FeedbackKind, text string)
	ShowTimer(s timer.Snapshot)
	ShowTestResults(res *models.TestRunResult)
	ShowSummary(text string)
}

// Confirmer asks the user a yes/no question
type Confirmer func(message string) bool

// AlwaysConfirm accepts every prompt
func AlwaysConfirm(string) bool { return true }

// SwitchPrompt is the question asked before abandoning the active round
func SwitchPrompt(current models.RoundType) string {
	return fmt.Sprintf("You have an active %s round. You must submit your solution or end the round before switching. Do you want to end the current round?", current.Upper())
}

// Controller handles the intents of one candidate session
type Controller struct {
	state     *state.State
	rounds    *rounds.Table
	timers    *timer.Registry
	lifecycle *lifecycle.Manager
	presenter Presenter
	clock     clock.Clock

	executor    runner.Executor
	diagrams    diagrams.Repository
	sessionID   string
	gracePeriod time.Duration
	logger      *slog.Logger

	// mu serialises navigation. It is never held across external calls.
	mu    sync.Mutex
	grace func()
}

// Option configures a Controller
type Option func(*Controller)

// WithExecutor enables RunCode
func WithExecutor(e runner.Executor) Option {
	return func(c *Controller) {
		c.executor = e
	}
}

// WithDiagrams saves submitted diagrams under sessionID
func WithDiagrams(repo diagrams.Repository, sessionID string) Option {
	return func(c *Controller) {
		c.diagrams = repo
		c.sessionID = sessionID
	}
}

// WithGracePeriod overrides DefaultGracePeriod
func WithGracePeriod(d time.Duration) Option {
	return func(c *Controller) {
		c.gracePeriod = d
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// New wires a controller and registers it as the timer listener
func New(
	st *state.State,
	table *rounds.Table,
	timers *timer.Registry,
	lc *lifecycle.Manager,
	presenter Presenter,
	clk clock.Clock,
	opts ...Option,
) *Controller {
	c := &Controller{
		state:       st,
		rounds:      table,
		timers:      timers,
		lifecycle:   lc,
		presenter:   presenter,
		clock:       clk,
		gracePeriod: DefaultGracePeriod,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	timers.SetListener(c)
	return c
}

// CurrentRound returns the active round
func (c *Controller) CurrentRound() (models.RoundType, bool) {
	return c.state.CurrentRound()
}

// StartRound makes r the active round. A different active round is only
// abandoned when confirm accepts SwitchPrompt; otherwise nothing changes
// and ErrSwitchDeclined is returned. The round timer starts once the
// problem is presented.
func (c *Controller) StartRound(ctx context.Context, r models.RoundType, d models.Difficulty, confirm Confirmer) error {
	cfg := c.rounds.Get(r)
	if cfg == nil {
		return models.ErrUnknownRound
	}

	c.mu.Lock()
	if cur, ok := c.state.CurrentRound(); ok && cur != r {
		if confirm == nil || !confirm(SwitchPrompt(cur)) {
			c.mu.Unlock()
			c.logger.Debug("round switch declined", "current", cur, "requested", r)
			return ErrSwitchDeclined
		}
		c.endLocked(reasonManual)
	}
	c.state.SetCurrentRound(r)
	epoch := c.state.Epoch()
	c.mu.Unlock()

	metrics.RecordRoundStarted(string(r))
	c.logger.Info("round started", "round", r, "difficulty", d)
	c.presenter.ShowRound(cfg, d)

	if _, err := c.lifecycle.InitializeRound(ctx, r, d); err != nil {
		if errors.Is(err, lifecycle.ErrStaleFetch) {
			c.logger.Info("round changed during start", "round", r)
			return err
		}
		c.logger.Warn("failed to initialize round", "round", r, "error", err)
		c.presenter.ShowFeedback(models.FeedbackError, "Error fetching problem: "+err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Epoch() == epoch {
		c.timers.Start(r)
	}
	return nil
}

// EndCurrentRound completes the active round and returns to the welcome view
func (c *Controller) EndCurrentRound() {
	c.mu.Lock()
	completed, all := c.endLocked(reasonManual)
	c.mu.Unlock()

	c.presenter.ShowIdle(completed, all)
}

// endLocked completes the active round, if any. Caller holds c.mu.
func (c *Controller) endLocked(reason string) ([]models.RoundType, bool) {
	c.cancelGrace()
	if r, ok := c.state.CurrentRound(); ok {
		c.timers.Stop(r)
		c.state.CompleteRound(r)
		c.lifecycle.MarkCompleted(r)
		c.state.ClearCurrentRound()

		metrics.RecordRoundCompleted(string(r), reason)
		c.logger.Info("round completed", "round", r, "reason", reason)
		c.presenter.ShowFeedback(models.FeedbackInfo, fmt.Sprintf("%s round completed successfully!", r.Upper()))
	}
	return c.state.CompletedRounds(), c.state.IsAllRoundsCompleted()
}

func (c *Controller) cancelGrace() {
	if c.grace != nil {
		c.grace()
		c.grace = nil
	}
}

// TimerTicked forwards countdown updates to the view
func (c *Controller) TimerTicked(s timer.Snapshot) {
	c.presenter.ShowTimer(s)
}

// TimerExpired warns the candidate and ends the round after the grace
// period, unless they moved on in the meantime
func (c *Controller) TimerExpired(r models.RoundType) {
	c.presenter.ShowFeedback(models.FeedbackWarning,
		fmt.Sprintf("Time's up! The %s round has ended. Please submit your final answer or move to the next round.", r.Upper()))

	c.mu.Lock()
	defer c.mu.Unlock()
	epoch := c.state.Epoch()
	c.cancelGrace()
	c.grace = c.clock.AfterFunc(c.gracePeriod, func() { c.graceElapsed(r, epoch) })
}

func (c *Controller) graceElapsed(r models.RoundType, epoch uint64) {
	c.mu.Lock()
	c.grace = nil
	cur, ok := c.state.CurrentRound()
	if !ok || cur != r || c.state.Epoch() != epoch || c.timers.IsRunning(r) {
		c.mu.Unlock()
		return
	}
	completed, all := c.endLocked(reasonExpired)
	c.mu.Unlock()

	c.presenter.ShowIdle(completed, all)
}

// SubmitAction sends the candidate's input for the active round's action
func (c *Controller) SubmitAction(ctx context.Context, a models.Action, input string) (string, error) {
	r, ok := c.state.CurrentRound()
	if !ok {
		c.presenter.ShowFeedback(models.FeedbackWarning, "Please select a round first.")
		return "", ErrNoActiveRound
	}
	if a != models.ActionUnknown && !c.rounds.Get(r).Permits(a) {
		return "", ErrActionNotPermitted
	}
	if a.RequiresInput() && strings.TrimSpace(input) == "" {
		c.presenter.ShowFeedback(models.FeedbackWarning, "Please provide your input first.")
		return "", ErrEmptyInput
	}

	c.presenter.ShowFeedback(models.FeedbackProgress, "Processing...")
	reply, err := c.lifecycle.HandleAction(ctx, a, input, "")
	if err != nil {
		c.presenter.ShowFeedback(models.FeedbackError, "Error: "+err.Error())
		return "", err
	}
	c.presenter.ShowFeedback(models.FeedbackResponse, reply)
	return reply, nil
}

// RequestHint asks the interviewer persona for a hint
func (c *Controller) RequestHint(ctx context.Context, question string) (string, error) {
	c.presenter.ShowFeedback(models.FeedbackProgress, "Getting hint from interviewer...")
	reply, err := c.lifecycle.HandleAction(ctx, models.ActionAskForHint, "", question)
	if err != nil {
		c.presenter.ShowFeedback(models.FeedbackError, "Error getting hint: "+err.Error())
		return "", err
	}
	c.presenter.ShowFeedback(models.FeedbackHint, reply)
	return reply, nil
}

// RefreshProblem replaces the active round's problem and restarts its timer
func (c *Controller) RefreshProblem(ctx context.Context, d models.Difficulty) (string, error) {
	r, ok := c.state.CurrentRound()
	if !ok {
		c.presenter.ShowFeedback(models.FeedbackWarning, "Please select a round first.")
		return "", ErrNoActiveRound
	}

	c.presenter.ShowFeedback(models.FeedbackProgress, "Fetching fresh problem...")
	c.timers.Stop(r)
	text, err := c.lifecycle.RefreshProblem(ctx, r, d)
	if err != nil {
		if !errors.Is(err, lifecycle.ErrStaleFetch) {
			c.presenter.ShowFeedback(models.FeedbackError, "Error fetching problem: "+err.Error())
		}
		return "", err
	}

	c.mu.Lock()
	if cur, ok := c.state.CurrentRound(); ok && cur == r {
		c.cancelGrace()
		c.timers.Start(r)
	}
	c.mu.Unlock()

	c.presenter.ShowFeedback(models.FeedbackInfo, "Fresh problem loaded successfully!")
	return text, nil
}

// SubmitDiagram saves the diagram, when a repository is configured, and
// returns the evaluation
func (c *Controller) SubmitDiagram(ctx context.Context, xml string, r models.RoundType) (string, error) {
	if !r.Valid() {
		return "", models.ErrUnknownRound
	}
	if strings.TrimSpace(xml) == "" {
		c.presenter.ShowFeedback(models.FeedbackWarning, "Please provide your input first.")
		return "", ErrEmptyInput
	}

	if c.diagrams != nil {
		d := &diagrams.Diagram{Round: r, XML: xml, SavedAt: c.clock.Now()}
		if err := c.diagrams.Save(ctx, c.sessionID, d); err != nil {
			c.logger.Warn("failed to save diagram", "round", r, "error", err)
		}
	}

	c.presenter.ShowFeedback(models.FeedbackProgress, "Evaluating your diagram...")
	reply, err := c.lifecycle.EvaluateDiagram(ctx, xml, r)
	if err != nil {
		c.presenter.ShowFeedback(models.FeedbackError, "Error evaluating diagram: "+err.Error())
		return "", err
	}
	c.presenter.ShowFeedback(models.FeedbackEvaluation, reply)
	return reply, nil
}

// OverallFeedback produces the end-of-interview summary
func (c *Controller) OverallFeedback(ctx context.Context) (string, error) {
	c.presenter.ShowFeedback(models.FeedbackProgress, "Generating overall feedback...")
	text, err := c.lifecycle.GenerateOverallFeedback(ctx)
	if err != nil {
		c.presenter.ShowFeedback(models.FeedbackError, "Error generating feedback: "+err.Error())
		return "", err
	}
	c.presenter.ShowSummary(text)
	return text, nil
}

// RunCode executes code against the active round's test cases. Without
// test cases it is run once with empty input.
func (c *Controller) RunCode(ctx context.Context, code, language string) (*models.TestRunResult, error) {
	if c.executor == nil {
		return nil, ErrNoExecutor
	}
	if strings.TrimSpace(code) == "" {
		c.presenter.ShowFeedback(models.FeedbackWarning, "Please write some code first.")
		return nil, runner.ErrEmptyCode
	}

	var cases []models.TestCase
	if r, ok := c.state.CurrentRound(); ok {
		cases = c.lifecycle.TestCases(r)
	}

	var (
		res *models.TestRunResult
		err error
	)
	if len(cases) > 0 {
		res, err = runner.RunTests(ctx, c.executor, code, language, cases)
	} else {
		res, err = c.runOnce(ctx, code, language)
	}
	if err != nil {
		c.presenter.ShowFeedback(models.FeedbackError, "Error: "+err.Error())
		return nil, err
	}
	c.presenter.ShowTestResults(res)
	return res, nil
}

func (c *Controller) runOnce(ctx context.Context, code, language string) (*models.TestRunResult, error) {
	out, err := c.executor.Execute(ctx, code, language, "")
	metrics.RecordCodeRun(c.executor.Name(), metrics.Outcome(err))
	if err != nil {
		return &models.TestRunResult{Error: err.Error(), TestResults: []models.TestResult{}}, nil
	}
	return &models.TestRunResult{
		Output:      out.Output,
		Error:       out.Error,
		TestResults: []models.TestResult{},
		MemoryKB:    out.MemoryKB,
		CPUTimeSec:  out.CPUTimeSec,
	}, nil
}

// Reset stops every timer and wipes the interview
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelGrace()
	c.timers.StopAll()
	c.state.Reset()
	c.lifecycle.Reset()
	c.mu.Unlock()

	c.logger.Info("interview reset")
	c.presenter.ShowIdle([]models.RoundType{}, false)
}

// Close stops timers without touching durable state
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelGrace()
	c.timers.StopAll()
}
