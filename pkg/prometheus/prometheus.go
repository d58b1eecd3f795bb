package prometheus

import "github.com/prometheus/client_golang/prometheus"

var (
	CommandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Count of processed commands",
		},
		[]string{"command", "status"},
	)
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bot_command_duration_seconds",
			Help:    "Time taken to process command",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"command"},
	)
	ActiveDialogs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bot_active_dialogs_total",
			Help: "Current number of open dialog states",
		},
	)

	StoreFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_store_failures_total",
			Help: "Count of failed catalog store calls",
		},
		[]string{"operation"},
	)

	CacheOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_cache_operations_total",
			Help: "Movie cache lookups by outcome",
		},
		[]string{"result"}, // hit, miss, error
	)

	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_messages_sent_total",
			Help: "Count of sent messages",
		},
		[]string{"type"}, // text, media
	)
)

func Init() {
	prometheus.MustRegister(
		CommandCounter,
		CommandDuration,
		ActiveDialogs,
		StoreFailures,
		CacheOperations,
		MessagesSent,
	)
}
