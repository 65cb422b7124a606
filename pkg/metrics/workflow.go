package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics tracks orchestrator executions.
type WorkflowMetrics struct {
	executions     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	stageDuration  *prometheus.HistogramVec
	polls          *prometheus.HistogramVec
	promptFallback prometheus.Counter
	claimConflicts prometheus.Counter
	inFlight       prometheus.Gauge
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	m := &WorkflowMetrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_executions_total",
			Help:      "Finished workflow executions by profile and final state.",
		}, []string{"profile", "final_state"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_execution_duration_seconds",
			Help:      "End-to-end execution duration.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}, []string{"profile"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_stage_duration_seconds",
			Help:      "Duration of each workflow stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		polls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_transcription_polls",
			Help:      "Transcription status polls per execution.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60},
		}, []string{"profile"}),
		promptFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_prompt_fallback_total",
			Help:      "Executions that used the truncated transcript as prompt.",
		}),
		claimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_claim_conflicts_total",
			Help:      "Start messages skipped because the execution was already claimed.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workflow_executions_in_flight",
			Help:      "Executions currently running in this process.",
		}),
	}
	reg.MustRegister(m.executions, m.duration, m.stageDuration, m.polls, m.promptFallback, m.claimConflicts, m.inFlight)
	return m
}

// ObserveExecution records one finished execution.
func (m *WorkflowMetrics) ObserveExecution(profile, finalState string, total time.Duration, polls int, promptFallback bool) {
	if m == nil || m.executions == nil {
		return
	}
	profile = normalizeLabel(profile)
	m.executions.WithLabelValues(profile, normalizeLabel(finalState)).Inc()
	m.duration.WithLabelValues(profile).Observe(total.Seconds())
	m.polls.WithLabelValues(profile).Observe(float64(polls))
	if promptFallback {
		m.promptFallback.Inc()
	}
}

func (m *WorkflowMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil || m.stageDuration == nil {
		return
	}
	m.stageDuration.WithLabelValues(normalizeLabel(stage)).Observe(d.Seconds())
}

func (m *WorkflowMetrics) IncClaimConflict() {
	if m == nil || m.claimConflicts == nil {
		return
	}
	m.claimConflicts.Inc()
}

// TrackInFlight increments the in-flight gauge and returns the matching decrement.
func (m *WorkflowMetrics) TrackInFlight() func() {
	if m == nil || m.inFlight == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
