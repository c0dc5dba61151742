// Package metrics provides Prometheus instrumentation for deployforge.
//
// A CLI process is short-lived, so collected series are written to a
// node_exporter textfile on exit instead of being served over HTTP.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enabled     bool
	serviceName string
	registry    *prometheus.Registry

	// Dispatch metrics
	taskDispatchTotal *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec

	// Collaborator metrics
	verificationTotal *prometheus.CounterVec
	compileTotal      *prometheus.CounterVec
)

// Init initializes the metrics system. Calling it again replaces the
// registry and all collectors.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		registry = nil
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(registry)

	// Task dispatch counter
	taskDispatchTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "task_dispatch_total",
			Help:        "Total number of task dispatches by terminal state",
			ConstLabels: prometheus.Labels{"service": svcName},
		},
		[]string{"task", "state"},
	)

	// Task duration histogram
	taskDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "task_duration_seconds",
			Help:        "Task execution latency in seconds",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: prometheus.Labels{"service": svcName},
		},
		[]string{"task"},
	)

	// Verification request counter
	verificationTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "verification_request_total",
			Help:        "Total number of verification submissions",
			ConstLabels: prometheus.Labels{"service": svcName},
		},
		[]string{"network", "result"},
	)

	// Compile counter
	compileTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "compile_total",
			Help:        "Total number of compiler invocations",
			ConstLabels: prometheus.Labels{"service": svcName},
		},
		[]string{"status"},
	)
}

// Registry returns the active registry, or nil when metrics are disabled.
func Registry() *prometheus.Registry {
	return registry
}

// WriteTextfile writes all collected series to path in the Prometheus text
// format. It is a no-op when metrics are disabled or path is empty.
func WriteTextfile(path string) error {
	if !enabled || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Enabled returns whether metrics are enabled.
func Enabled() bool {
	return enabled
}

// ServiceName returns the configured service name for metric labels.
func ServiceName() string {
	return serviceName
}
