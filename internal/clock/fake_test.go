package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeEveryFiresOncePerPeriod(t *testing.T) {
	f := NewFake()
	ticks := 0
	stop := f.Every(time.Second, func() { ticks++ })

	f.Advance(59 * time.Second)
	assert.Equal(t, 59, ticks)

	stop()
	f.Advance(10 * time.Second)
	assert.Equal(t, 59, ticks)
	assert.Zero(t, f.Pending())
}

func TestFakeAfterFuncOrdering(t *testing.T) {
	f := NewFake()
	var order []string

	f.AfterFunc(3*time.Second, func() { order = append(order, "late") })
	f.AfterFunc(time.Second, func() { order = append(order, "early") })

	f.Advance(2 * time.Second)
	require.Equal(t, []string{"early"}, order)

	f.Advance(time.Second)
	assert.Equal(t, []string{"early", "late"}, order)
	assert.Zero(t, f.Pending())
}

func TestFakeCallbackMayStopItself(t *testing.T) {
	f := NewFake()
	ticks := 0
	var stop func()
	stop = f.Every(time.Second, func() {
		ticks++
		if ticks == 3 {
			stop()
		}
	})

	f.Advance(time.Minute)
	assert.Equal(t, 3, ticks)
}

func TestFakeCallbackMaySchedule(t *testing.T) {
	f := NewFake()
	fired := false
	f.AfterFunc(time.Second, func() {
		f.AfterFunc(time.Second, func() { fired = true })
	})

	f.Advance(2 * time.Second)
	assert.True(t, fired)
}

func TestRealAfterFuncStop(t *testing.T) {
	c := New()
	fired := make(chan struct{}, 1)
	stop := c.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })
	stop()

	select {
	case <-fired:
		t.Fatal("stopped callback fired")
	case <-time.After(150 * time.Millisecond):
	}
}
