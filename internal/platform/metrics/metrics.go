package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PlayersRegistered prometheus.Counter
	LoginAttempts     *prometheus.CounterVec
	BindsStarted      prometheus.Counter
	BindOutcomes      *prometheus.CounterVec
	BindDuration      prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PlayersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "craftgate_players_registered_total",
			Help: "Total number of players registered",
		}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "craftgate_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),
		BindsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "craftgate_profile_binds_started_total",
			Help: "Profile bind sessions started",
		}),
		BindOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "craftgate_profile_bind_outcomes_total",
			Help: "Terminal profile bind outcomes by state",
		}, []string{"state"}),
		BindDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "craftgate_profile_bind_duration_seconds",
			Help:    "Wall time from bind start to terminal event",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 900},
		}),
	}
}

// ObserveLogin records a login attempt outcome.
func (m *Metrics) ObserveLogin(result string) {
	m.LoginAttempts.WithLabelValues(result).Inc()
}

// ObserveBindOutcome records a terminal bind state.
func (m *Metrics) ObserveBindOutcome(state string) {
	m.BindOutcomes.WithLabelValues(state).Inc()
}
