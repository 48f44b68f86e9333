package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"keying/internal/press"
)

// HoldBuckets are the key hold histogram buckets in seconds. They are
// dense around the default long-press threshold.
var HoldBuckets = []float64{0.025, 0.05, 0.075, 0.1, 0.125, 0.15, 0.175, 0.2, 0.3, 0.5, 1, 2}

// EngineMetrics records engine activity. It implements ime.Observer.
type EngineMetrics struct {
	KeyReleases   *prometheus.CounterVec
	Commits       *prometheus.CounterVec
	CommitRunes   *prometheus.CounterVec
	Degradations  *prometheus.CounterVec
	SessionsTotal prometheus.Counter
	HoldDuration  prometheus.Histogram
}

// NewEngineMetrics creates the engine metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		KeyReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "key_releases_total",
			Help:      "Character key releases by press kind.",
		}, []string{"kind"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commits_total",
			Help:      "Text commits by reason.",
		}, []string{"reason"}),
		CommitRunes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "commit_runes_total",
			Help:      "Characters committed by reason.",
		}, []string{"reason"}),
		Degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "degradations_total",
			Help:      "Handled edge cases by kind.",
		}, []string{"kind"}),
		SessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "sessions_total",
			Help:      "Editor sessions started.",
		}),
		HoldDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "key_hold_seconds",
			Help:      "Time between press and release of character keys.",
			Buckets:   HoldBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.KeyReleases, m.Commits, m.CommitRunes, m.Degradations, m.SessionsTotal, m.HoldDuration)
	}
	return m
}

// KeyReleased records a classified key release.
func (m *EngineMetrics) KeyReleased(kind press.Kind, held time.Duration) {
	m.KeyReleases.WithLabelValues(kind.String()).Inc()
	if held >= 0 {
		m.HoldDuration.Observe(held.Seconds())
	}
}

// Committed records a commit of runes characters.
func (m *EngineMetrics) Committed(reason string, runes int) {
	m.Commits.WithLabelValues(reason).Inc()
	m.CommitRunes.WithLabelValues(reason).Add(float64(runes))
}

// Degraded records a handled edge case.
func (m *EngineMetrics) Degraded(kind string) {
	m.Degradations.WithLabelValues(kind).Inc()
}

// SessionStarted records a new editor session.
func (m *EngineMetrics) SessionStarted() {
	m.SessionsTotal.Inc()
}
