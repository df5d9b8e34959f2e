package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventix_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_settlements_total",
			Help: "Settlement operations by kind and outcome",
		},
		[]string{"operation", "outcome"},
	)

	TicketsSoldTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventix_tickets_sold_total",
			Help: "Net tickets taken by bookings and resizes",
		},
	)

	TicketsReleasedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventix_tickets_released_total",
			Help: "Tickets returned to inventory by cancellations and downsizes",
		},
	)

	LedgerMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_ledger_movements_total",
			Help: "Wallet transactions appended, by kind",
		},
		[]string{"kind"},
	)

	LedgerVolume = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_ledger_volume_minor_units_total",
			Help: "Absolute money moved through wallets in minor units, by kind",
		},
		[]string{"kind"},
	)

	TopUpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_wallet_topups_total",
			Help: "Top-up confirmations by outcome",
		},
		[]string{"outcome"},
	)

	ReconciliationIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_reconciliation_issues_total",
			Help: "Settlement steps that could not be fully applied",
		},
		[]string{"kind"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventix_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventix_bus_events_published_total",
			Help: "Settlement events published to the message bus",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSettlement(operation, outcome string) {
	SettlementsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordTicketDelta counts a signed change in tickets held by bookings.
func RecordTicketDelta(delta int) {
	switch {
	case delta > 0:
		TicketsSoldTotal.Add(float64(delta))
	case delta < 0:
		TicketsReleasedTotal.Add(float64(-delta))
	}
}

func RecordLedgerMovement(kind string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	LedgerMovementsTotal.WithLabelValues(kind).Inc()
	LedgerVolume.WithLabelValues(kind).Add(float64(amount))
}

func RecordTopUp(outcome string) {
	TopUpsTotal.WithLabelValues(outcome).Inc()
}

func RecordReconciliationIssue(kind string) {
	ReconciliationIssuesTotal.WithLabelValues(kind).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordPublish(routingKey, status string) {
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}
