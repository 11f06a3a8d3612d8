// Package metrics 提供 Prometheus helper，包含 HTTP 与业务指标模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantfabric/optionvault/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	SeriesCreatedTotal prometheus.Counter
	MintsTotal         prometheus.Counter
	BurnsTotal         prometheus.Counter
	ExercisesTotal     prometheus.Counter
	WithdrawalsTotal   prometheus.Counter
	ExpirationsTotal   prometheus.Counter
	ActiveSeries       prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		SeriesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "series_created_total",
			Help:      "Total option series created",
		}),
		MintsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "mints_total",
			Help:      "Total mint operations",
		}),
		BurnsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "burns_total",
			Help:      "Total burn operations",
		}),
		ExercisesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "exercises_total",
			Help:      "Total exercise operations",
		}),
		WithdrawalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "withdrawals_total",
			Help:      "Total withdrawal operations",
		}),
		ExpirationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "expirations_total",
			Help:      "Total series expirations observed",
		}),
		ActiveSeries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "optionvault",
			Subsystem: serviceName,
			Name:      "active_series",
			Help:      "Number of active option series",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.SeriesCreatedTotal,
		m.MintsTotal,
		m.BurnsTotal,
		m.ExercisesTotal,
		m.WithdrawalsTotal,
		m.ExpirationsTotal,
		m.ActiveSeries,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
