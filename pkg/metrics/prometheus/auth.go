// Package prometheus holds the concrete Prometheus collectors behind the
// pkg/metrics constructor hooks. Importing this package (the serve command
// does it for its side effect) installs the constructors.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/smbsec/pkg/metrics"
	smbauth "github.com/marmos91/smbsec/pkg/smb/auth"
)

func init() {
	metrics.RegisterAuthMetricsConstructor(NewAuthMetrics)
}

// authMetrics is the Prometheus implementation of auth.Metrics.
type authMetrics struct {
	handshakes     *prometheus.CounterVec
	successes      *prometheus.CounterVec
	failures       *prometheus.CounterVec
	guests         prometheus.Counter
	verifyDuration prometheus.Histogram
}

// NewAuthMetrics creates a Prometheus-backed auth.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewAuthMetrics() smbauth.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &authMetrics{
		handshakes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbsec_auth_handshakes_started_total",
				Help: "Total number of NTLM challenge legs issued by mechanism",
			},
			[]string{"mechanism"}, // "ntlm", "spnego"
		),
		successes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbsec_auth_success_total",
				Help: "Total number of successful authentications by protocol version",
			},
			[]string{"version"}, // "ntlmv1", "ntlmv2"
		),
		failures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbsec_auth_failures_total",
				Help: "Total number of rejected authentications by reason",
			},
			[]string{"reason"},
		),
		guests: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "smbsec_auth_guest_total",
				Help: "Total number of guest admissions",
			},
		),
		verifyDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "smbsec_auth_verify_duration_milliseconds",
				Help: "Time spent verifying one AUTHENTICATE message in milliseconds",
				Buckets: []float64{
					0.05, // 50us - single pending challenge
					0.1,
					0.5,
					1,
					5,
					10, // many outstanding challenges
					50,
					100,
				},
			},
		),
	}
}

func (m *authMetrics) RecordHandshakeStarted(mechanism string) {
	if m == nil {
		return
	}
	m.handshakes.WithLabelValues(mechanism).Inc()
}

func (m *authMetrics) RecordSuccess(version string) {
	if m == nil {
		return
	}
	m.successes.WithLabelValues(version).Inc()
}

func (m *authMetrics) RecordFailure(reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(reason).Inc()
}

func (m *authMetrics) RecordGuest() {
	if m == nil {
		return
	}
	m.guests.Inc()
}

func (m *authMetrics) ObserveVerifyDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.verifyDuration.Observe(d.Seconds() * 1000)
}
