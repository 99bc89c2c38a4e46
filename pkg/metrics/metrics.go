// Package metrics holds the Prometheus collectors of the API process.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "littlesteps"

// Metrics owns a private registry so that tests can build as many as they
// like without colliding on the default one.
type Metrics struct {
	registry *prometheus.Registry

	CleanupRuns          *prometheus.CounterVec
	CleanupUsersDeleted  prometheus.Counter
	VerificationsPurged  prometheus.Counter
	ChatCompletions      *prometheus.CounterVec
	ChatTokens           prometheus.Counter
	AccessDenied         *prometheus.CounterVec
	UsageLimitRejections prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CleanupRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_runs_total",
			Help:      "Cleanup job runs by outcome.",
		}, []string{"outcome"}),
		CleanupUsersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_users_deleted_total",
			Help:      "Inactive users deleted by the cleanup job.",
		}),
		VerificationsPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_purged_total",
			Help:      "Expired verification rows purged.",
		}),
		ChatCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_completions_total",
			Help:      "Completion provider calls by outcome.",
		}, []string{"outcome"}),
		ChatTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_tokens_total",
			Help:      "Total tokens reported by the completion provider.",
		}),
		AccessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_denied_total",
			Help:      "Requests denied by the route policy.",
		}, []string{"decision"}),
		UsageLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_limit_rejections_total",
			Help:      "Chat requests rejected by the weekly token cap.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heap_alloc_bytes",
			Help:      "Current heap allocation in bytes.",
		}, func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		}),
		m.CleanupRuns,
		m.CleanupUsersDeleted,
		m.VerificationsPurged,
		m.ChatCompletions,
		m.ChatTokens,
		m.AccessDenied,
		m.UsageLimitRejections,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
