// Package observability holds Prometheus metrics and tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedex_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// SignupsTotal counts completed user registrations.
	SignupsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cafedex_signups_total",
		Help: "Total number of successful user registrations",
	})

	// LoginsTotal counts login attempts by outcome.
	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedex_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	// LikeTogglesTotal counts like toggles by resulting action.
	LikeTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedex_like_toggles_total",
		Help: "Total number of like toggles by resulting action",
	}, []string{"action"})

	// CafeWritesTotal counts cafe create/edit operations.
	CafeWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedex_cafe_writes_total",
		Help: "Total number of cafe create and edit operations",
	}, []string{"operation"})

	// CacheRequests counts cache-aside lookups by result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cafedex_cache_requests_total",
		Help: "Total number of cache-aside lookups by result",
	}, []string{"result"})
)
