package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// ReportMonthly labels the monthly breakdown computation.
	ReportMonthly = "monthly"
	// ReportSummary labels the summary computation.
	ReportSummary = "summary"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scorify",
			Name:      "reports_total",
			Help:      "Total number of report computations, partitioned by report and outcome.",
		},
		[]string{"report", "outcome"},
	)

	reportDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scorify",
			Name:      "report_seconds",
			Help:      "Report computation latency in seconds, store round-trips included.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"report"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scorify",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		},
		[]string{"route", "method", "code"},
	)
)

// Register attaches scorify collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reportsTotal,
		reportDurationSeconds,
		httpRequestsTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveReport records a report computation duration and its outcome.
func ObserveReport(report string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	reportsTotal.WithLabelValues(report, outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	reportDurationSeconds.WithLabelValues(report).Observe(duration.Seconds())
}

// ObserveRequest counts one served HTTP request.
func ObserveRequest(route, method string, code int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
}
