package metrics

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "platform_"

	resultSuccess = "success"
	resultError   = "error"
	resultStale   = "stale"
	resultAuth    = "auth_error"
	resultPartial = "partial"
)

var (
	registerOnce sync.Once

	dashboardLoads *prometheus.CounterVec

	sectionFetchTotal   *prometheus.CounterVec
	sectionFetchLatency *prometheus.HistogramVec

	chartRenderTotal *prometheus.CounterVec

	proxyRequests *prometheus.CounterVec

	upstreamLatency *prometheus.HistogramVec

	exportTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		dashboardLoads = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "dashboard_loads_total",
				Help: "Total dashboard loads by result",
			},
			[]string{"result"},
		)

		sectionFetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "section_fetch_total",
				Help: "Total dashboard source fetches by section and result",
			},
			[]string{"section", "result"},
		)
		sectionFetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "section_fetch_latency_seconds",
				Help:    "Dashboard source fetch latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"section"},
		)

		chartRenderTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "chart_render_total",
				Help: "Total chart renders by chart and format",
			},
			[]string{"chart", "format"},
		)

		proxyRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "proxy_requests_total",
				Help: "Total proxied requests by route and status",
			},
			[]string{"route", "status"},
		)

		upstreamLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "upstream_latency_seconds",
				Help:    "Upstream platform call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total profile exports by format and result",
			},
			[]string{"format", "result"},
		)

		prometheus.MustRegister(
			dashboardLoads,
			sectionFetchTotal,
			sectionFetchLatency,
			chartRenderTotal,
			proxyRequests,
			upstreamLatency,
			exportTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// registerDBMetrics exposes the number of cached snapshots per key.
func registerDBMetrics(db *sql.DB, logger *log.Logger) {
	snapshots := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: metricPrefix + "cache_snapshots",
			Help: "Number of cached dashboard snapshots",
		},
		func() float64 {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			var count int64
			if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboard_snapshots`).Scan(&count); err != nil {
				if logger != nil {
					logger.Printf("metrics: snapshot count error: %v", err)
				}
				return 0
			}
			return float64(count)
		},
	)
	prometheus.MustRegister(snapshots)
}

// IncDashboardLoad increments the dashboard load counter.
func IncDashboardLoad(result string) {
	if result == "" {
		result = resultSuccess
	}
	if dashboardLoads != nil {
		dashboardLoads.WithLabelValues(result).Inc()
	}
}

// ObserveSectionFetch records one source fetch.
func ObserveSectionFetch(section, result string, duration time.Duration) {
	if section == "" {
		section = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if sectionFetchTotal != nil {
		sectionFetchTotal.WithLabelValues(section, result).Inc()
	}
	if sectionFetchLatency != nil {
		sectionFetchLatency.WithLabelValues(section).Observe(duration.Seconds())
	}
}

// IncChartRender increments the chart render counter.
func IncChartRender(chart, format string) {
	if chart == "" {
		chart = "unknown"
	}
	if format == "" {
		format = "json"
	}
	if chartRenderTotal != nil {
		chartRenderTotal.WithLabelValues(chart, format).Inc()
	}
}

// IncProxyRequest increments the proxy request counter.
func IncProxyRequest(route, status string) {
	if route == "" {
		route = "unknown"
	}
	if proxyRequests != nil {
		proxyRequests.WithLabelValues(route, status).Inc()
	}
}

// ObserveUpstream records an upstream call latency.
func ObserveUpstream(op string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if upstreamLatency != nil {
		upstreamLatency.WithLabelValues(op).Observe(duration.Seconds())
	}
}

// IncExport increments the export counter.
func IncExport(format, result string) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultStale   = resultStale
	ResultAuth    = resultAuth
	ResultPartial = resultPartial
)
