package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricLayerDegraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zinc",
		Name:      "config_layer_degraded_total",
		Help:      "Config layers that failed to load and contributed nothing to the merge.",
	}, []string{"layer"})
	metricOverrideDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zinc",
		Name:      "override_keys_dropped_total",
		Help:      "Override keys rejected by the whitelist.",
	}, []string{"engine_type"})
	metricEffectiveConfig = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zinc",
		Name:      "effective_config_resolutions_total",
		Help:      "Effective config resolutions by engine type and outcome.",
	}, []string{"engine_type", "outcome"})
	metricRuntimeResolution = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zinc",
		Name:      "runtime_resolutions_total",
		Help:      "Runtime model resolutions by role, resolved tier and fallback.",
	}, []string{"role_type", "resolved_tier", "fallback"})
	metricRuntimeFailure = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zinc",
		Name:      "runtime_resolution_failures_total",
		Help:      "Runtime model resolutions that failed, by reason.",
	}, []string{"reason"})
	metricHTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zinc",
		Name:      "http_requests_total",
		Help:      "Admin API requests by method, route pattern and status.",
	}, []string{"method", "route", "status"})
)

// RecordLayerDegraded counts a layer load that fell back to empty.
func RecordLayerDegraded(layer string) {
	metricLayerDegraded.WithLabelValues(layer).Inc()
}

// RecordDroppedOverride counts one override key rejected by the whitelist.
func RecordDroppedOverride(engineType string) {
	metricOverrideDropped.WithLabelValues(engineType).Inc()
}

// RecordEffectiveConfig counts a finished ConfigResolver call.
func RecordEffectiveConfig(engineType string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	metricEffectiveConfig.WithLabelValues(engineType, outcome).Inc()
}

// RecordRuntimeResolution counts a successful runtime model resolution.
func RecordRuntimeResolution(roleType, tier string, fallback bool) {
	fb := "false"
	if fallback {
		fb = "true"
	}
	metricRuntimeResolution.WithLabelValues(roleType, tier, fb).Inc()
}

// RecordRuntimeFailure counts a failed runtime model resolution.
func RecordRuntimeFailure(reason string) {
	metricRuntimeFailure.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest counts one admin API request.
func RecordHTTPRequest(method, route, status string) {
	metricHTTPRequests.WithLabelValues(method, route, status).Inc()
}
