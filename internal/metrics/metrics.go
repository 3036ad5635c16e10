package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScanRunsTotal counts scan invocations by result (completed, partial, failed, locked)
	ScanRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadlinemind_scan_runs_total",
			Help: "Total number of expiry scans by result.",
		},
		[]string{"result"},
	)

	// ScanDuration records how long a scan took end to end
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deadlinemind_scan_duration_seconds",
			Help:    "Duration of expiry scans.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// NotificationsSentTotal counts successful dispatches
	NotificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadlinemind_notifications_sent_total",
			Help: "Notifications delivered to a provider, by channel and document type.",
		},
		[]string{"channel", "document"}, // channel: email/whatsapp, document: tax/insurance
	)

	// DispatchErrorsTotal counts failed dispatches by channel and error kind
	DispatchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadlinemind_dispatch_errors_total",
			Help: "Failed notification dispatches, by channel and error kind.",
		},
		[]string{"channel", "kind"},
	)

	// LedgerWriteFailuresTotal counts sends whose ledger timestamp could not be stored
	LedgerWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deadlinemind_ledger_write_failures_total",
			Help: "Notifications sent whose last-notified timestamp could not be recorded.",
		},
	)

	// DocumentOutcomesTotal counts (vehicle, document) evaluations by final lifecycle state
	DocumentOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deadlinemind_document_outcomes_total",
			Help: "Per-document scan outcomes by the last lifecycle state reached.",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(ScanRunsTotal)
	prometheus.MustRegister(ScanDuration)
	prometheus.MustRegister(NotificationsSentTotal)
	prometheus.MustRegister(DispatchErrorsTotal)
	prometheus.MustRegister(LedgerWriteFailuresTotal)
	prometheus.MustRegister(DocumentOutcomesTotal)
}
