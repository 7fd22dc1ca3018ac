package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		flowsStartedTotal,
		flowsFinishedTotal,
		validationRejectionsTotal,
		flowStepTransitionsTotal,
	)
}

var (
	flowsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flows_started_total",
			Help: "Guided-form flows entered, by flow kind.",
		},
		[]string{"flow"},
	)

	flowsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flows_finished_total",
			Help: "Flows that reached a terminal state, by flow kind and outcome.",
		},
		[]string{"flow", "outcome"},
	)

	validationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_validation_rejections_total",
			Help: "Step inputs rejected by a validation rule, by step.",
		},
		[]string{"step"},
	)

	flowStepTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flow_step_transitions_total",
			Help: "Successful step transitions, by flow kind.",
		},
		[]string{"flow"},
	)
)

// Outcome labels for finished flows.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
	OutcomeExpired   = "expired"
)

func IncFlowStarted(flow string) {
	flowsStartedTotal.WithLabelValues(flow).Inc()
}

func IncFlowFinished(flow, outcome string) {
	flowsFinishedTotal.WithLabelValues(flow, outcome).Inc()
}

func IncValidationRejected(step string) {
	validationRejectionsTotal.WithLabelValues(step).Inc()
}

func IncStepTransition(flow string) {
	flowStepTransitionsTotal.WithLabelValues(flow).Inc()
}
