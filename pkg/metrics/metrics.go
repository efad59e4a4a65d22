// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/cryptotrading/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 事件存储指标
	EventsAppended     prometheus.Counter
	EventAppendLatency prometheus.Histogram

	// 业务指标
	CandlesIngested prometheus.Counter
	OrdersPlaced    *prometheus.CounterVec
	TradersCreated  prometheus.Counter

	// 投影消费指标
	ProjectionEvents prometheus.Counter
	ProjectionErrors prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		// HTTP 指标
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// 事件存储指标
		EventsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "events_appended_total",
			Help:      "Total domain events appended to the event store",
		}),
		EventAppendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "event_append_duration_seconds",
			Help:      "Event store append duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// 业务指标
		CandlesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "candles_ingested_total",
			Help:      "Total candle sticks ingested",
		}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "orders_placed_total",
			Help:      "Total orders placed by side",
		}, []string{"side"}),
		TradersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "traders_created_total",
			Help:      "Total traders created",
		}),

		// 投影消费指标
		ProjectionEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "projection_events_total",
			Help:      "Total events consumed by projections",
		}),
		ProjectionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "projection_errors_total",
			Help:      "Total projection handler errors",
		}),
	}
}

// Register 注册所有指标到 Prometheus
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventsAppended,
		m.EventAppendLatency,
		m.CandlesIngested,
		m.OrdersPlaced,
		m.TradersCreated,
		m.ProjectionEvents,
		m.ProjectionErrors,
	}

	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// ExposeHTTP 暴露 /metrics 端点
func ExposeHTTP(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "metrics endpoint listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(context.Background(), "metrics endpoint failed", "error", err)
	}
}
