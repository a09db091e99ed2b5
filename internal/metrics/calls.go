package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"prepai/interview/internal/call"
	"prepai/interview/internal/models"
)

var (
	callsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "calls_started_total",
		Help:      "Total number of calls that began connecting",
	})

	callsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "calls_finished_total",
		Help:      "Total number of calls that finished, by termination signal",
	}, []string{"reason"})

	feedbackRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "interview",
		Name:      "feedback_requests_total",
		Help:      "Feedback handling outcomes for finished calls",
	}, []string{"outcome"})

	activeCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "interview",
		Name:      "active_calls",
		Help:      "Current number of calls in the ACTIVE state",
	})
)

// CallListener records call lifecycle metrics.
type CallListener struct{}

func (CallListener) StatusChanged(_ string, from, to call.Status, reason call.FinishReason) {
	switch to {
	case call.StatusConnecting:
		callsStarted.Inc()
	case call.StatusActive:
		activeCalls.Inc()
	case call.StatusFinished:
		callsFinished.WithLabelValues(string(reason)).Inc()
	}
	if from == call.StatusActive {
		activeCalls.Dec()
	}
}

func (CallListener) TurnAdded(string, models.Turn) {}

func (CallListener) SpeakingChanged(string, bool) {}

func (CallListener) FeedbackCompleted(_ string, outcome call.FeedbackOutcome) {
	feedbackRequests.WithLabelValues(string(outcome)).Inc()
}

// RegisterAgentGauge exposes the number of live agents held by this instance.
func RegisterAgentGauge(count func() int) prometheus.GaugeFunc {
	return promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "interview",
		Name:      "agents",
		Help:      "Live agents held by this instance",
	}, func() float64 { return float64(count()) })
}
