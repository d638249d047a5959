package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_alert_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sensor_alert_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// Sensor feed
	ReadingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_alert_readings_total",
			Help: "Total number of simulated sensor readings",
		},
	)

	AlertsGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_alert_alerts_generated_total",
			Help: "Total number of alerts generated by threshold breaches",
		},
		[]string{"type"},
	)

	SimulatorCycleFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_alert_simulator_cycle_failures_total",
			Help: "Total number of sensor feed cycles that failed and backed off",
		},
	)

	SimulatorSkippedCycles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_alert_simulator_skipped_cycles_total",
			Help: "Total number of sensor feed cycles skipped for lack of a config",
		},
	)

	// Notification dispatch
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_alert_notifications_total",
			Help: "Total number of alert notifications per sink",
		},
		[]string{"sink", "status"}, // status: success, failed
	)

	NotificationsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sensor_alert_notifications_dropped_total",
			Help: "Total number of alerts dropped because the dispatch queue was full",
		},
	)

	NotificationQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sensor_alert_notification_queue_size",
			Help: "Current number of alerts waiting for dispatch",
		},
	)

	WebSocketSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sensor_alert_websocket_subscribers",
			Help: "Current number of connected dashboard subscribers",
		},
	)

	// Config cache
	ConfigCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_alert_config_cache_requests_total",
			Help: "Config cache lookups by result",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_alert_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
