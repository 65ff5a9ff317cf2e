package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkoutsLogged tracks workout state changes by resulting status.
	WorkoutsLogged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workouts_logged_total",
			Help: "Total workout status changes by resulting status",
		},
		[]string{"status"},
	)

	// MessagesSent tracks chat messages persisted.
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "messages_sent_total",
			Help: "Total chat messages sent",
		},
	)

	// RacesImported tracks race imports by source and outcome.
	RacesImported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "races_imported_total",
			Help: "Total races imported by source and result",
		},
		[]string{"source", "result"},
	)

	// SyncRunDuration tracks device-sync run latency per account.
	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "device_sync_run_duration_seconds",
			Help:    "Duration of a single integration account sync",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// SyncedActivities tracks activities pulled from providers.
	SyncedActivities = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "device_sync_activities_total",
			Help: "Total provider activities processed by outcome",
		},
		[]string{"outcome"},
	)

	// WebsocketConnections tracks currently connected chat clients.
	WebsocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Currently connected chat websocket clients",
		},
	)

	// DashboardCacheHits counts dashboard reads served from Redis.
	DashboardCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Dashboard reads served from the Redis cache",
		},
	)

	// DashboardCacheMisses counts dashboard reads assembled from PostgreSQL.
	DashboardCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_misses_total",
			Help: "Dashboard reads that fell through to PostgreSQL",
		},
	)
)
