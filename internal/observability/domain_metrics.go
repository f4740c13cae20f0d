package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	GenerationAccepted  = "accepted"
	GenerationExhausted = "exhausted"
	GenerationFailed    = "failed"

	GuardRefused  = "refused"
	GuardBounded  = "bounded"
	GuardExecuted = "executed"
)

var (
	generationAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querybot_generation_attempts_total",
			Help: "Total number of model calls made while generating statements.",
		},
	)
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querybot_generations_total",
			Help: "Generation requests by final result.",
		},
		[]string{"result"},
	)
	validationRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querybot_validation_rejections_total",
			Help: "Candidate statements rejected by the plan check.",
		},
	)
	guardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querybot_guard_decisions_total",
			Help: "Execution guard decisions by kind.",
		},
		[]string{"decision"},
	)
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querybot_executions_total",
			Help: "Statements executed by outcome status.",
		},
		[]string{"status"},
	)
	executionLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querybot_execution_latency_ms",
			Help:    "Statement execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)
	ledgerEntriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querybot_ledger_entries_total",
			Help: "Total number of session ledger entries recorded.",
		},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "querybot_active_sessions",
			Help: "Current number of open sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationAttemptsTotal,
		generationsTotal,
		validationRejectionsTotal,
		guardDecisionsTotal,
		executionsTotal,
		executionLatencyMs,
		ledgerEntriesTotal,
		activeSessions,
	)
}

func ObserveGenerationAttempt() {
	generationAttemptsTotal.Inc()
}

func ObserveGeneration(result string) {
	generationsTotal.WithLabelValues(result).Inc()
}

func ObserveValidationRejection() {
	validationRejectionsTotal.Inc()
}

func ObserveGuardDecision(decision string) {
	guardDecisionsTotal.WithLabelValues(decision).Inc()
}

func ObserveExecution(status string, elapsed time.Duration) {
	executionsTotal.WithLabelValues(status).Inc()
	executionLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveLedgerEntry() {
	ledgerEntriesTotal.Inc()
}

func SetActiveSessions(count int) {
	if count < 0 {
		count = 0
	}
	activeSessions.Set(float64(count))
}
