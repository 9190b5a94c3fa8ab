// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	payslipEmailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_payslip_emails_total",
			Help: "Payslip emails by delivery result",
		},
		[]string{"result"},
	)

	payslipRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payflow_failed_payslip_retries_total",
			Help: "Failed payslip retry attempts by result",
		},
		[]string{"result"},
	)

	payrollRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payflow_payroll_runs_total",
			Help: "Payroll records generated",
		},
	)

	pdfRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payflow_payslip_pdf_render_seconds",
			Help:    "Time spent rendering a payslip PDF",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

const (
	ResultSent     = "sent"
	ResultFailed   = "failed"
	ResultResolved = "resolved"
)

func RecordHTTP(method, route string, status int, duration time.Duration) {
	statusStr := strconv.Itoa(status)
	httpRequestDuration.WithLabelValues(method, route, statusStr).Observe(duration.Seconds())
	httpRequestsTotal.WithLabelValues(method, route, statusStr).Inc()
}

func PayslipEmail(result string) {
	payslipEmailsTotal.WithLabelValues(result).Inc()
}

func PayslipRetry(result string) {
	payslipRetriesTotal.WithLabelValues(result).Inc()
}

func PayrollRun() {
	payrollRunsTotal.Inc()
}

func ObservePDFRender(d time.Duration) {
	pdfRenderDuration.Observe(d.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
