package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(roundsStartedTotal.WithLabelValues("lld"))
	RecordRoundStarted("lld")
	assert.Equal(t, before+1, testutil.ToFloat64(roundsStartedTotal.WithLabelValues("lld")))

	before = testutil.ToFloat64(llmRequestsTotal.WithLabelValues(OutcomeFailure))
	RecordLLMRequest(Outcome(errors.New("boom")), 10*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(llmRequestsTotal.WithLabelValues(OutcomeFailure)))

	SetActiveSessions(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(activeSessions))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeFailure, Outcome(errors.New("x")))
}
