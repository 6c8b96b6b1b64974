// Package metrics exposes the Prometheus collectors of the interview service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var (
	llmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_llm_requests_total",
		Help: "Feedback generator requests by outcome",
	}, []string{"outcome"})

	llmRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "interview_llm_request_duration_seconds",
		Help:    "Feedback generator request latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	problemFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_problem_fetches_total",
		Help: "Problem fetches by round and outcome",
	}, []string{"round", "outcome"})

	codeRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_code_runs_total",
		Help: "Code executions by backend and outcome",
	}, []string{"backend", "outcome"})

	roundsStartedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_rounds_started_total",
		Help: "Rounds started by round type",
	}, []string{"round"})

	roundsCompletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_rounds_completed_total",
		Help: "Rounds ended by round type and reason",
	}, []string{"round", "reason"}) // reason=manual|expired

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "interview_active_sessions",
		Help: "Sessions currently held in memory",
	})
)

// RecordLLMRequest records one generator call
func RecordLLMRequest(outcome string, elapsed time.Duration) {
	llmRequestsTotal.WithLabelValues(outcome).Inc()
	llmRequestDuration.Observe(elapsed.Seconds())
}

// RecordProblemFetch records one problem fetch for a round
func RecordProblemFetch(round, outcome string) {
	problemFetchesTotal.WithLabelValues(round, outcome).Inc()
}

// RecordCodeRun records one code execution
func RecordCodeRun(backend, outcome string) {
	codeRunsTotal.WithLabelValues(backend, outcome).Inc()
}

// RecordRoundStarted counts a round start
func RecordRoundStarted(round string) {
	roundsStartedTotal.WithLabelValues(round).Inc()
}

// RecordRoundCompleted counts a round end
func RecordRoundCompleted(round, reason string) {
	roundsCompletedTotal.WithLabelValues(round, reason).Inc()
}

// SetActiveSessions publishes the number of live sessions
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// Outcome maps an error to an outcome label
func Outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
