package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "quiz_game"

// Metrics holds the engine counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	GamesCreated     prometheus.Counter
	AnswersSubmitted *prometheus.CounterVec
	GamesFinished    prometheus.Counter
	ResultsResolved  *prometheus.CounterVec
	Failures         *prometheus.CounterVec
}

// New registers the engine counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		GamesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_created_total",
			Help:      "Number of games created.",
		}),
		AnswersSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_submitted_total",
			Help:      "Number of recorded answers by correctness.",
		}, []string{"correct"}),
		GamesFinished: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Number of submissions that finished a game.",
		}),
		ResultsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_resolved_total",
			Help:      "Number of result lookups by source.",
		}, []string{"source"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Number of failed engine operations by operation and error kind.",
		}, []string{"operation", "kind"}),
	}
}

func (m *Metrics) GameCreated() {
	if m == nil {
		return
	}
	m.GamesCreated.Inc()
}

func (m *Metrics) AnswerSubmitted(correct, finished bool) {
	if m == nil {
		return
	}
	label := "false"
	if correct {
		label = "true"
	}
	m.AnswersSubmitted.WithLabelValues(label).Inc()
	if finished {
		m.GamesFinished.Inc()
	}
}

func (m *Metrics) ResultResolved(cached bool) {
	if m == nil {
		return
	}
	source := "generated"
	if cached {
		source = "cached"
	}
	m.ResultsResolved.WithLabelValues(source).Inc()
}

func (m *Metrics) Failed(operation, kind string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(operation, kind).Inc()
}
