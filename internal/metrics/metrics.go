package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsReceived tracks webhook events received from the provider
	EventsReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchbot_webhook_events_total",
			Help: "Total number of webhook events received",
		},
	)

	// EventsDeduplicated tracks events dropped as duplicate deliveries
	EventsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchbot_webhook_events_deduplicated_total",
			Help: "Total number of webhook events dropped as duplicates",
		},
	)

	// AlertsSent tracks alert messages delivered to chats
	AlertsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchbot_alerts_sent_total",
			Help: "Total number of alert messages sent",
		},
	)

	// AlertFailures tracks alert messages that could not be delivered
	AlertFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchbot_alert_failures_total",
			Help: "Total number of alert messages that failed to send",
		},
	)

	// WebhookRegistrations tracks subscription calls by outcome
	WebhookRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trenchbot_webhook_registrations_total",
			Help: "Total number of webhook registration attempts",
		},
		[]string{"status"},
	)

	// PaymentScans tracks on-chain premium payment verification scans
	PaymentScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchbot_payment_scans_total",
			Help: "Total number of premium payment verification scans",
		},
	)

	// PaymentsConfirmed tracks confirmed premium upgrades
	PaymentsConfirmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trenchbot_payments_confirmed_total",
			Help: "Total number of confirmed premium payments",
		},
	)

	// CommandsHandled tracks bot commands and callbacks by name
	CommandsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trenchbot_commands_handled_total",
			Help: "Total number of bot commands and callbacks handled",
		},
		[]string{"command"},
	)

	// DispatchLatency tracks webhook batch dispatch latency
	DispatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trenchbot_dispatch_latency_seconds",
			Help:    "Webhook batch dispatch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)
