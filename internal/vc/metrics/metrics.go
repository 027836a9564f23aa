package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the credential module.
// Tracks issuance/revocation counts, presentation outcomes by reason,
// and verification path durations.
type Metrics struct {
	ChallengesIssued    prometheus.Counter
	CredentialsIssued   prometheus.Counter
	CredentialsRevoked  prometheus.Counter
	PresentationResults *prometheus.CounterVec
	VerifyDuration      prometheus.Histogram
}

// New creates a new Metrics instance with all credential module metrics registered.
func New() *Metrics {
	return &Metrics{
		ChallengesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldpass_challenges_issued_total",
			Help: "Total number of presentation challenges issued",
		}),
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldpass_credentials_issued_total",
			Help: "Total number of credentials recorded as issued",
		}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worldpass_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		PresentationResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worldpass_presentation_results_total",
			Help: "Presentation verification outcomes by reason code",
		}, []string{"reason"}),
		VerifyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worldpass_verify_duration_seconds",
			Help:    "Duration of presentation verification (hot path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementChallengesIssued records a minted challenge nonce.
func (m *Metrics) IncrementChallengesIssued() {
	m.ChallengesIssued.Inc()
}

// IncrementCredentialsIssued records a successful issuance.
func (m *Metrics) IncrementCredentialsIssued() {
	m.CredentialsIssued.Inc()
}

// IncrementCredentialsRevoked records n revocations.
func (m *Metrics) IncrementCredentialsRevoked(n int) {
	m.CredentialsRevoked.Add(float64(n))
}

// RecordPresentationResult counts one verification outcome under its reason.
func (m *Metrics) RecordPresentationResult(reason string) {
	m.PresentationResults.WithLabelValues(reason).Inc()
}

// ObserveVerify records the duration of a presentation verification.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveVerify(start time.Time) {
	m.VerifyDuration.Observe(time.Since(start).Seconds())
}
