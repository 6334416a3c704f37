package metrics

import (
	smbauth "github.com/marmos91/smbsec/pkg/smb/auth"
)

// NewAuthMetrics creates a Prometheus-backed auth.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called). The
// authenticator treats a nil Metrics as a no-op, so disabled deployments
// pay nothing:
//
//	metrics.InitRegistry()
//	authenticator := auth.NewAuthenticator(cfg, store, metrics.NewAuthMetrics())
//
//	// Without metrics (zero overhead)
//	authenticator := auth.NewAuthenticator(cfg, store, nil)
func NewAuthMetrics() smbauth.Metrics {
	if !IsEnabled() || newPrometheusAuthMetrics == nil {
		return nil
	}
	return newPrometheusAuthMetrics()
}

// newPrometheusAuthMetrics is installed by pkg/metrics/prometheus during
// package initialization. The indirection avoids an import cycle: this
// package hands out the interface, the prometheus package implements it
// against the registry held here.
var newPrometheusAuthMetrics func() smbauth.Metrics

// RegisterAuthMetricsConstructor registers the Prometheus auth metrics
// constructor. Called by pkg/metrics/prometheus during package
// initialization.
func RegisterAuthMetricsConstructor(constructor func() smbauth.Metrics) {
	newPrometheusAuthMetrics = constructor
}
