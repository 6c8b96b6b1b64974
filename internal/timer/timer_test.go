package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/terra-clan/interview-coach/internal/clock"
	"github.com/terra-clan/interview-coach/internal/models"
)

type recorder struct {
	mu      sync.Mutex
	ticks   []Snapshot
	expired []models.RoundType
}

func (r *recorder) TimerTicked(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, s)
}

func (r *recorder) TimerExpired(round models.RoundType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, round)
}

func (r *recorder) expiries() []models.RoundType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.RoundType(nil), r.expired...)
}

func fixed(d time.Duration) Durations {
	return DurationFunc(func(models.RoundType) time.Duration { return d })
}

func newTestRegistry(d time.Duration) (*Registry, *clock.Fake, *recorder) {
	clk := clock.NewFake()
	reg := NewRegistry(clk, fixed(d))
	rec := &recorder{}
	reg.SetListener(rec)
	return reg, clk, rec
}

func TestSixtyTicksExpireOnce(t *testing.T) {
	reg, clk, rec := newTestRegistry(60 * time.Second)
	reg.Start(models.RoundDSA)

	clk.Advance(60 * time.Second)

	assert.Equal(t, []models.RoundType{models.RoundDSA}, rec.expiries())
	assert.False(t, reg.IsRunning(models.RoundDSA))
	assert.Equal(t, 0, reg.Remaining(models.RoundDSA))

	// no further ticks or expiries once stopped
	clk.Advance(10 * time.Second)
	assert.Len(t, rec.expiries(), 1)
	assert.Equal(t, 0, clk.Pending())
}

func TestFiftyNineTicksLeaveOneSecond(t *testing.T) {
	reg, clk, rec := newTestRegistry(60 * time.Second)
	reg.Start(models.RoundDSA)

	clk.Advance(59 * time.Second)

	assert.Empty(t, rec.expiries())
	assert.Equal(t, 1, reg.Remaining(models.RoundDSA))
	assert.True(t, reg.IsRunning(models.RoundDSA))
}

func TestEveryTickIsPublished(t *testing.T) {
	reg, clk, rec := newTestRegistry(5 * time.Second)
	reg.Start(models.RoundLLD)

	// initial update happens synchronously on start
	require.Len(t, rec.ticks, 1)
	assert.Equal(t, 5, rec.ticks[0].RemainingSeconds)

	clk.Advance(5 * time.Second)

	require.Len(t, rec.ticks, 6)
	for i, s := range rec.ticks {
		assert.Equal(t, 5-i, s.RemainingSeconds)
	}
	assert.False(t, rec.ticks[5].Running)
}

func TestRestartReplacesCountdown(t *testing.T) {
	reg, clk, rec := newTestRegistry(10 * time.Second)
	reg.Start(models.RoundHLD)
	clk.Advance(8 * time.Second)

	reg.Start(models.RoundHLD)
	assert.Equal(t, 10, reg.Remaining(models.RoundHLD))
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(9 * time.Second)
	assert.Empty(t, rec.expiries())
	clk.Advance(time.Second)
	assert.Equal(t, []models.RoundType{models.RoundHLD}, rec.expiries())
}

func TestStop(t *testing.T) {
	reg, clk, rec := newTestRegistry(10 * time.Second)

	// absent timer
	reg.Stop(models.RoundBehavioral)
	assert.False(t, reg.IsRunning(models.RoundBehavioral))
	assert.Equal(t, 0, reg.Remaining(models.RoundBehavioral))

	reg.Start(models.RoundBehavioral)
	clk.Advance(3 * time.Second)
	reg.Stop(models.RoundBehavioral)
	reg.Stop(models.RoundBehavioral)

	clk.Advance(20 * time.Second)
	assert.Equal(t, 7, reg.Remaining(models.RoundBehavioral))
	assert.False(t, reg.IsRunning(models.RoundBehavioral))
	assert.Empty(t, rec.expiries())
}

func TestIndependentRounds(t *testing.T) {
	clk := clock.NewFake()
	reg := NewRegistry(clk, DurationFunc(func(r models.RoundType) time.Duration {
		if r == models.RoundDSA {
			return 3 * time.Second
		}
		return 5 * time.Second
	}))
	rec := &recorder{}
	reg.SetListener(rec)

	reg.Start(models.RoundDSA)
	reg.Start(models.RoundLLD)
	clk.Advance(5 * time.Second)

	assert.Equal(t, []models.RoundType{models.RoundDSA, models.RoundLLD}, rec.expiries())
}

func TestDefaultDuration(t *testing.T) {
	reg := NewRegistry(clock.NewFake(), nil)
	reg.Start(models.RoundDSA)
	assert.Equal(t, int(DefaultDuration/time.Second), reg.Remaining(models.RoundDSA))

	reg = NewRegistry(clock.NewFake(), fixed(0))
	reg.Start(models.RoundDSA)
	assert.Equal(t, 2700, reg.Remaining(models.RoundDSA))
}

func TestSnapshot(t *testing.T) {
	reg, clk, _ := newTestRegistry(100 * time.Second)

	_, ok := reg.Snapshot(models.RoundDSA)
	assert.False(t, ok)

	reg.Start(models.RoundDSA)
	clk.Advance(76 * time.Second)

	snap, ok := reg.Snapshot(models.RoundDSA)
	require.True(t, ok)
	assert.Equal(t, "00:24", snap.Display)
	assert.Equal(t, LevelWarning, snap.Level)
	assert.Equal(t, 100, snap.TotalSeconds)
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "45:00", FormatDisplay(2700))
	assert.Equal(t, "01:05", FormatDisplay(65))
	assert.Equal(t, "00:00", FormatDisplay(0))
	assert.Equal(t, "00:00", FormatDisplay(-3))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, LevelNormal, LevelFor(100, 100))
	assert.Equal(t, LevelNormal, LevelFor(26, 100))
	assert.Equal(t, LevelWarning, LevelFor(25, 100))
	assert.Equal(t, LevelWarning, LevelFor(11, 100))
	assert.Equal(t, LevelCritical, LevelFor(10, 100))
	assert.Equal(t, LevelCritical, LevelFor(0, 100))
}

func TestRealClockStopAllLeaksNothing(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := NewRegistry(clock.New(), fixed(time.Minute))
	reg.SetListener(&recorder{})
	for _, r := range models.AllRounds() {
		reg.Start(r)
	}
	reg.StopAll()

	for _, r := range models.AllRounds() {
		assert.False(t, reg.IsRunning(r))
	}
}
