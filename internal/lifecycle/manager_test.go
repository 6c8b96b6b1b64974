package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-coach/internal/llm"
	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/prompts"
	"github.com/terra-clan/interview-coach/internal/rounds"
	"github.com/terra-clan/interview-coach/internal/state"
	"github.com/terra-clan/interview-coach/internal/storage"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	replies []string
	err     error
	// before runs inside Generate, simulating work done while the call is in flight
	before func()
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if g.before != nil {
		g.before()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "reply", nil
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

func (g *fakeGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type fakeSource struct {
	calls   int
	payload *models.ProblemPayload
	err     error
	before  func()
}

func (s *fakeSource) RandomProblem(context.Context, models.Difficulty) (*models.ProblemPayload, error) {
	if s.before != nil {
		s.before()
	}
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.payload, nil
}

type fakePresenter struct {
	welcomes  []string
	problems  []Problem
	testCases [][]models.TestCase
}

func (p *fakePresenter) ShowWelcome(_ models.RoundType, text string) { p.welcomes = append(p.welcomes, text) }
func (p *fakePresenter) ShowProblem(pr Problem)                       { p.problems = append(p.problems, pr) }
func (p *fakePresenter) ShowTestCases(_ models.RoundType, c []models.TestCase) {
	p.testCases = append(p.testCases, c)
}

func (p *fakePresenter) last() Problem {
	return p.problems[len(p.problems)-1]
}

type fixture struct {
	state     *state.State
	gen       *fakeGenerator
	src       *fakeSource
	presenter *fakePresenter
	manager   *Manager
}

func newFixture() *fixture {
	f := &fixture{
		state: state.New(storage.NewMemoryStore()),
		gen:   &fakeGenerator{},
		src: &fakeSource{payload: &models.ProblemPayload{
			QuestionTitle:    "Two Sum",
			Difficulty:       "Easy",
			Question:         "<p>Find two numbers.</p><strong>Output:</strong> [0,1]",
			ExampleTestcases: "[2,7,11,15]\n9",
		}},
		presenter: &fakePresenter{},
	}
	f.manager = NewManager(f.state, rounds.Default(), f.gen, f.src, f.presenter)
	return f
}

func TestInitializeDSAFetchesOnceThenServesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	p, err := f.manager.InitializeRound(ctx, models.RoundDSA, models.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, TagNew, p.Tag)
	assert.Equal(t, 1, f.src.calls)

	cached, ok := f.state.GetProblem(models.RoundDSA)
	require.True(t, ok)
	assert.Contains(t, cached, "Two Sum")
	_, ok = f.state.GetProblemData(models.RoundDSA)
	assert.True(t, ok)

	p, err = f.manager.InitializeRound(ctx, models.RoundDSA, models.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, 1, f.src.calls)
	assert.Equal(t, TagCached, p.Tag)
	assert.Equal(t, cached, p.Text)
	assert.Equal(t, 0, f.gen.calls())

	// test cases restored from the cached payload
	require.Len(t, f.presenter.testCases, 2)
	assert.Equal(t, f.presenter.testCases[0], f.presenter.testCases[1])
	assert.Equal(t, models.TestCase{Input: "[2,7,11,15]", Output: "[0,1]"}, f.presenter.testCases[1][0])
	assert.Equal(t, PhaseAwaitingAction, f.manager.Phase(models.RoundDSA))
}

func TestInitializeWelcomesFirst(t *testing.T) {
	f := newFixture()
	_, err := f.manager.InitializeRound(context.Background(), models.RoundLLD, models.DifficultyMedium)
	require.NoError(t, err)

	require.Len(t, f.presenter.welcomes, 1)
	assert.Contains(t, f.presenter.welcomes[0], "Welcome to the LLD round")
	assert.Equal(t, []string{prompts.Problem(models.RoundLLD, models.DifficultyMedium)}, f.gen.prompts)
	assert.Equal(t, 0, f.src.calls)
	assert.Empty(t, f.presenter.testCases)
}

func TestCachedDSAWithoutPayloadParsesText(t *testing.T) {
	f := newFixture()
	f.state.SetProblem(models.RoundDSA, "Reverse.\nTest Cases:\n1. Input: abc Output: cba")

	_, err := f.manager.InitializeRound(context.Background(), models.RoundDSA, models.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, 0, f.src.calls)
	require.Len(t, f.presenter.testCases, 1)
	assert.Equal(t, []models.TestCase{{Input: "abc", Output: "cba"}}, f.presenter.testCases[0])
}

func TestRefreshAlwaysCallsGenerator(t *testing.T) {
	f := newFixture()
	f.state.SetProblem(models.RoundBehavioral, "Tell me about a time you failed.")
	f.gen.replies = []string{"Describe a conflict you resolved as a leader."}

	text, err := f.manager.RefreshProblem(context.Background(), models.RoundBehavioral, models.DifficultyHard)
	require.NoError(t, err)

	assert.Equal(t, 1, f.gen.calls())
	assert.Equal(t, prompts.Problem(models.RoundBehavioral, models.DifficultyHard), f.gen.prompts[0])
	assert.Equal(t, "Describe a conflict you resolved as a leader.", text)

	cached, _ := f.state.GetProblem(models.RoundBehavioral)
	assert.Equal(t, text, cached)
	assert.Equal(t, TagFresh, f.presenter.last().Tag)
}

func TestRefreshDSAUsesSource(t *testing.T) {
	f := newFixture()
	_, err := f.manager.InitializeRound(context.Background(), models.RoundDSA, models.DifficultyEasy)
	require.NoError(t, err)

	_, err = f.manager.RefreshProblem(context.Background(), models.RoundDSA, models.DifficultyHard)
	require.NoError(t, err)
	assert.Equal(t, 2, f.src.calls)
}

func TestFetchFailurePropagates(t *testing.T) {
	f := newFixture()
	f.gen.err = &llm.ProviderError{Message: "quota exceeded"}

	_, err := f.manager.InitializeRound(context.Background(), models.RoundHLD, models.DifficultyEasy)
	require.Error(t, err)
	assert.True(t, llm.IsProviderError(err))
	assert.False(t, f.state.HasProblem(models.RoundHLD))
	assert.Equal(t, PhaseWelcomed, f.manager.Phase(models.RoundHLD))
	assert.Empty(t, f.presenter.problems)

	f.src.err = errors.New("leetcode down")
	_, err = f.manager.InitializeRound(context.Background(), models.RoundDSA, models.DifficultyEasy)
	assert.ErrorContains(t, err, "leetcode down")
	assert.Empty(t, f.presenter.testCases)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	f := newFixture()
	f.state.SetCurrentRound(models.RoundHLD)
	f.gen.before = func() { f.state.SetCurrentRound(models.RoundBehavioral) }

	_, err := f.manager.InitializeRound(context.Background(), models.RoundHLD, models.DifficultyEasy)
	assert.ErrorIs(t, err, ErrStaleFetch)
	assert.False(t, f.state.HasProblem(models.RoundHLD))
	assert.Empty(t, f.presenter.problems)
}

func TestHandleAction(t *testing.T) {
	f := newFixture()
	f.state.SetCurrentRound(models.RoundDSA)
	f.state.SetProblem(models.RoundDSA, "Two Sum")
	f.gen.replies = []string{"Consider a hash map.\n"}

	reply, err := f.manager.HandleAction(context.Background(), models.ActionAskForHint, "", "is sorting needed?")
	require.NoError(t, err)
	assert.Equal(t, "Consider a hash map.\n", reply)
	assert.Contains(t, f.gen.prompts[0], `"Two Sum"`)
	assert.Contains(t, f.gen.prompts[0], "DSA interview")

	_, err = f.manager.HandleAction(context.Background(), models.ParseAction("Sing"), "my answer", "")
	require.NoError(t, err)
	assert.Equal(t, prompts.ForAction(models.ActionSubmitAnswer, prompts.ActionContext{Input: "my answer"}), f.gen.prompts[1])
}

func TestOverallFeedbackAndDiagram(t *testing.T) {
	f := newFixture()

	_, err := f.manager.GenerateOverallFeedback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, prompts.OverallFeedback(), f.gen.prompts[0])

	_, err = f.manager.EvaluateDiagram(context.Background(), "<mxfile/>", models.RoundHLD)
	require.NoError(t, err)
	assert.Contains(t, f.gen.prompts[1], prompts.PlaceholderDesign)

	f.state.SetProblem(models.RoundLLD, "Design a parking lot")
	_, err = f.manager.EvaluateDiagram(context.Background(), "<mxfile/>", models.RoundLLD)
	require.NoError(t, err)
	assert.Contains(t, f.gen.prompts[2], "Design a parking lot")
}

func TestPhases(t *testing.T) {
	f := newFixture()
	assert.Equal(t, PhaseUninitialized, f.manager.Phase(models.RoundLLD))

	_, err := f.manager.InitializeRound(context.Background(), models.RoundLLD, models.DifficultyEasy)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingAction, f.manager.Phase(models.RoundLLD))

	f.manager.MarkCompleted(models.RoundLLD)
	assert.Equal(t, PhaseCompleted, f.manager.Phase(models.RoundLLD))

	f.manager.Reset()
	assert.Equal(t, PhaseUninitialized, f.manager.Phase(models.RoundLLD))

	_, err = f.manager.InitializeRound(context.Background(), "sql", models.DifficultyEasy)
	assert.ErrorIs(t, err, models.ErrUnknownRound)
}
