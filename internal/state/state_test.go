package state

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/interview-coach/internal/models"
	"github.com/terra-clan/interview-coach/internal/storage"
)

// brokenStore fails every operation
type brokenStore struct {
	storage.Store
}

var errUnavailable = errors.New("store unavailable")

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errUnavailable
}
func (brokenStore) Set(context.Context, string, string) error { return errUnavailable }
func (brokenStore) Remove(context.Context, string) error      { return errUnavailable }

func TestCompleteRoundIsIdempotent(t *testing.T) {
	for _, r := range models.AllRounds() {
		s := New(storage.NewMemoryStore())
		s.CompleteRound(r)
		s.CompleteRound(r)
		assert.Equal(t, []models.RoundType{r}, s.CompletedRounds())
	}
}

func TestClearRoundProblem(t *testing.T) {
	for _, r := range models.AllRounds() {
		s := New(storage.NewMemoryStore())
		s.SetProblem(r, "Two Sum")
		s.SetProblemData(r, json.RawMessage(`{"questionTitle":"Two Sum"}`))

		s.ClearRoundProblem(r)

		assert.False(t, s.HasProblem(r))
		_, ok := s.GetProblemData(r)
		assert.False(t, ok)
	}
}

func TestIsAllRoundsCompleted(t *testing.T) {
	orders := [][]models.RoundType{
		{models.RoundDSA, models.RoundLLD, models.RoundHLD, models.RoundBehavioral},
		{models.RoundBehavioral, models.RoundHLD, models.RoundDSA, models.RoundLLD},
	}
	for _, order := range orders {
		s := New(storage.NewMemoryStore())
		for i, r := range order {
			assert.False(t, s.IsAllRoundsCompleted(), "after %d rounds", i)
			s.CompleteRound(r)
			s.CompleteRound(r)
		}
		assert.True(t, s.IsAllRoundsCompleted())
	}
}

func TestWriteThroughAndReload(t *testing.T) {
	store := storage.NewMemoryStore()

	s := New(store)
	s.SetCurrentRound(models.RoundDSA)
	s.SetProblem(models.RoundDSA, "Two Sum")
	s.SetProblemData(models.RoundDSA, json.RawMessage(`{"questionTitle":"Two Sum"}`))
	s.CompleteRound(models.RoundLLD)

	raw, ok, err := store.Get(context.Background(), Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{
		"roundProblems": {"dsa": "Two Sum"},
		"roundData": {"dsa": {"questionTitle": "Two Sum"}},
		"completedRounds": ["lld"]
	}`, raw)

	reloaded := New(store)
	text, ok := reloaded.GetProblem(models.RoundDSA)
	assert.True(t, ok)
	assert.Equal(t, "Two Sum", text)
	assert.Equal(t, []models.RoundType{models.RoundLLD}, reloaded.CompletedRounds())

	// the active round is not persisted
	_, active := reloaded.CurrentRound()
	assert.False(t, active)
}

func TestCorruptSnapshotFallsBackToEmpty(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), Key, "{not json"))

	s := New(store)
	assert.Empty(t, s.CompletedRounds())
	assert.False(t, s.HasProblem(models.RoundDSA))
}

func TestUnknownRoundsInSnapshotAreIgnored(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), Key,
		`{"roundProblems":{"sql":"x","hld":"Design a CDN"},"completedRounds":["sql","hld","hld"]}`))

	s := New(store)
	assert.Equal(t, []models.RoundType{models.RoundHLD}, s.CompletedRounds())
	assert.True(t, s.HasProblem(models.RoundHLD))
}

func TestUnavailableStoreIsNotFatal(t *testing.T) {
	s := New(brokenStore{})

	s.SetProblem(models.RoundHLD, "Design a URL shortener")
	s.CompleteRound(models.RoundHLD)

	text, ok := s.GetProblem(models.RoundHLD)
	assert.True(t, ok)
	assert.Equal(t, "Design a URL shortener", text)
	assert.True(t, s.IsCompleted(models.RoundHLD))

	s.Reset()
	assert.Empty(t, s.CompletedRounds())
}

func TestEpochAdvancesOnRoundSelection(t *testing.T) {
	s := New(storage.NewMemoryStore())
	e0 := s.Epoch()

	s.SetCurrentRound(models.RoundDSA)
	e1 := s.Epoch()
	assert.Greater(t, e1, e0)

	s.SetProblem(models.RoundDSA, "p")
	assert.Equal(t, e1, s.Epoch())

	s.ClearCurrentRound()
	assert.Greater(t, s.Epoch(), e1)
}

func TestReset(t *testing.T) {
	store := storage.NewMemoryStore()
	s := New(store)
	s.SetCurrentRound(models.RoundBehavioral)
	s.SetProblem(models.RoundBehavioral, "Tell me about a conflict")
	s.CompleteRound(models.RoundDSA)

	s.Reset()

	_, active := s.CurrentRound()
	assert.False(t, active)
	assert.Empty(t, s.CompletedRounds())
	assert.False(t, s.HasProblem(models.RoundBehavioral))

	_, ok, err := store.Get(context.Background(), Key)
	require.NoError(t, err)
	assert.False(t, ok)
}
