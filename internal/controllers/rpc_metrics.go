package controllers

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RPCMetrics 记录过程调用次数、耗时与限流拒绝次数。
type RPCMetrics struct {
	registry  *prometheus.Registry
	calls     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	throttled prometheus.Counter
	batchSize prometheus.Histogram
}

// NewMetricsRegistry 构造进程级指标注册表，附带 Go 运行时与进程采集器。
func NewMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewRPCMetrics 在注册表上登记 RPC 指标。
func NewRPCMetrics(reg *prometheus.Registry) (*RPCMetrics, error) {
	m := &RPCMetrics{
		registry: reg,
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "yt_clone",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "RPC procedure calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "yt_clone",
			Subsystem: "rpc",
			Name:      "duration_seconds",
			Help:      "RPC procedure latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "yt_clone",
			Subsystem: "rpc",
			Name:      "rate_limited_total",
			Help:      "Protected calls rejected by the per-user rate limiter.",
		}),
		batchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "yt_clone",
			Subsystem: "rpc",
			Name:      "batch_size",
			Help:      "Number of calls per batch request.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),
	}
	for _, c := range []prometheus.Collector{m.calls, m.latency, m.throttled, m.batchSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *RPCMetrics) observe(procedure string, started time.Time, rpcErr *RPCError) {
	if m == nil {
		return
	}
	code := "OK"
	if rpcErr != nil {
		code = rpcErr.Code
	}
	m.calls.WithLabelValues(procedure, code).Inc()
	m.latency.WithLabelValues(procedure).Observe(time.Since(started).Seconds())
	if rpcErr != nil && rpcErr.HTTPStatus == http.StatusTooManyRequests {
		m.throttled.Inc()
	}
}

func (m *RPCMetrics) observeBatch(n int) {
	if m == nil {
		return
	}
	m.batchSize.Observe(float64(n))
}

// Handler 暴露 /metrics。
func (m *RPCMetrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
