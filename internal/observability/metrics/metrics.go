package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "rentledger_"

	resultSuccess = "success"
	resultError   = "error"
	resultPartial = "partial"
)

var (
	registerOnce sync.Once

	dashboardTotal   *prometheus.CounterVec
	dashboardLatency *prometheus.HistogramVec
	snapshotErrors   *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	invoiceTotal       *prometheus.CounterVec
	paymentVerifyTotal *prometheus.CounterVec

	waterRunTotal   *prometheus.CounterVec
	waterRunLatency *prometheus.HistogramVec

	maintenanceEventsTotal *prometheus.CounterVec

	consumerLag *prometheus.GaugeVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		dashboardTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dashboard_requests_total",
				Help: "Total dashboard overview requests by result",
			},
			[]string{"result"},
		)
		dashboardLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "dashboard_latency_seconds",
				Help:    "Dashboard overview latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		snapshotErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "snapshot_source_errors_total",
				Help: "Total snapshot source fetch errors by source",
			},
			[]string{"source"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report export operations by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		invoiceTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "invoice_operations_total",
				Help: "Total invoice operations by action and result",
			},
			[]string{"action", "result"},
		)
		paymentVerifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payment_verify_total",
				Help: "Total payment verifications by result",
			},
			[]string{"result"},
		)

		waterRunTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "water_billing_runs_total",
				Help: "Total water billing runs by result",
			},
			[]string{"result"},
		)
		waterRunLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "water_billing_run_latency_seconds",
				Help:    "Water billing run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		maintenanceEventsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "maintenance_events_total",
				Help: "Total maintenance request lifecycle events by type",
			},
			[]string{"event"},
		)

		consumerLag = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "event_consumer_lag_seconds",
				Help: "Consumer processing lag in seconds",
			},
			[]string{"consumer"},
		)

		prometheus.MustRegister(
			dashboardTotal,
			dashboardLatency,
			snapshotErrors,
			reportExportTotal,
			reportExportLatency,
			invoiceTotal,
			paymentVerifyTotal,
			waterRunTotal,
			waterRunLatency,
			maintenanceEventsTotal,
			consumerLag,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveDashboard records dashboard request duration and result.
func ObserveDashboard(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if dashboardTotal != nil {
		dashboardTotal.WithLabelValues(result).Inc()
	}
	if dashboardLatency != nil {
		dashboardLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncSnapshotError increments per-source snapshot fetch errors.
func IncSnapshotError(source string) {
	if source == "" {
		source = "unknown"
	}
	if snapshotErrors != nil {
		snapshotErrors.WithLabelValues(source).Inc()
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncInvoiceOp increments invoice operation counters.
func IncInvoiceOp(action, result string) {
	if action == "" {
		action = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if invoiceTotal != nil {
		invoiceTotal.WithLabelValues(action, result).Inc()
	}
}

// IncPaymentVerify increments payment verification counters.
func IncPaymentVerify(result string) {
	if result == "" {
		result = resultSuccess
	}
	if paymentVerifyTotal != nil {
		paymentVerifyTotal.WithLabelValues(result).Inc()
	}
}

// ObserveWaterRun records water billing run latency and result.
func ObserveWaterRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if waterRunTotal != nil {
		waterRunTotal.WithLabelValues(result).Inc()
	}
	if waterRunLatency != nil {
		waterRunLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncMaintenanceEvent increments maintenance lifecycle counters.
func IncMaintenanceEvent(event string) {
	if event == "" {
		event = "unknown"
	}
	if maintenanceEventsTotal != nil {
		maintenanceEventsTotal.WithLabelValues(event).Inc()
	}
}

// ObserveConsumerLag sets consumer lag in seconds.
func ObserveConsumerLag(consumer string, lag time.Duration) {
	if consumer == "" {
		consumer = "unknown"
	}
	if lag < 0 {
		lag = 0
	}
	if consumerLag != nil {
		consumerLag.WithLabelValues(consumer).Set(lag.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultPartial = resultPartial
)
