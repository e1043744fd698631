package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label values used by the counters.
const (
	DirectionForward  = "forward"
	DirectionBackward = "backward"

	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds the prometheus collectors for one process.
type Metrics struct {
	gatherer prometheus.Gatherer

	SessionsStarted    prometheus.Counter
	StepTransitions    *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmissionDuration prometheus.Histogram
	AdminLogins        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil registry gets a fresh one, which keeps tests isolated from the default registerer.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookclub_sessions_started_total",
			Help: "Total number of signup sessions opened",
		}),
		StepTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_step_transitions_total",
				Help: "Page flips by direction",
			},
			[]string{"direction"},
		),
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_submissions_total",
				Help: "Submissions handed to the record store, by result",
			},
			[]string{"result"},
		),
		SubmissionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookclub_submission_duration_seconds",
			Help:    "Duration of record store inserts",
			Buckets: prometheus.DefBuckets,
		}),
		AdminLogins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookclub_admin_logins_total",
				Help: "Admin sign-in attempts, by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.SessionsStarted, m.StepTransitions, m.Submissions, m.SubmissionDuration, m.AdminLogins)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.StepEvent) {
			m.SessionsStarted.Inc()
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			switch {
			case e.Step > e.From:
				m.StepTransitions.WithLabelValues(DirectionForward).Inc()
			case e.Step < e.From:
				m.StepTransitions.WithLabelValues(DirectionBackward).Inc()
			}
		},
		OnSubmitFinished: func(ctx context.Context, e *domain.SubmitEvent) {
			m.Submissions.WithLabelValues(result(!e.Failed())).Inc()
			m.SubmissionDuration.Observe(e.Duration.Seconds())
		},
	}
}

// ObserveLogin counts an admin sign-in attempt.
func (m *Metrics) ObserveLogin(ok bool) {
	m.AdminLogins.WithLabelValues(result(ok)).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}
