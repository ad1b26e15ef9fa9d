package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// KeyUpdatesTotal tracks update workflow outcomes
	KeyUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keywarden_key_updates_total",
		Help: "Total number of key update requests by outcome",
	}, []string{"outcome"})

	// InvalidationsTotal tracks post-commit cache invalidation signals
	InvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keywarden_cache_invalidations_total",
		Help: "Total number of usage-limiter invalidation signals by result",
	}, []string{"result"})

	// AuditEntriesTotal tracks committed audit log entries
	AuditEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "keywarden_audit_entries_total",
		Help: "Total number of audit log entries committed",
	})

	// AuthFailuresTotal tracks rejected management API requests
	AuthFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "keywarden_auth_failures_total",
		Help: "Total number of rejected management API requests by reason",
	}, []string{"reason"})
)
