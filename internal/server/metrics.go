package server

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/peviz/pkg/observability"
)

// Metrics implements the observability hooks with Prometheus collectors.
//
// Metrics:
//   - peviz_http_requests_total{method,route,status}
//   - peviz_http_request_duration_seconds{method,route}
//   - peviz_http_requests_in_flight
//   - peviz_http_errors_total{route,code}
//   - peviz_visualize_total{result}
//   - peviz_visualize_duration_seconds
//   - peviz_visualize_tokens
//   - peviz_render_total{viz_type,result}
//   - peviz_render_duration_seconds{viz_type}
//   - peviz_cache_operations_total{type,op}
//   - peviz_cache_bytes_written_total
//   - peviz_font_load_duration_seconds{source,result}
type Metrics struct {
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	errors        *prometheus.CounterVec
	visualizes    *prometheus.CounterVec
	visualizeTime prometheus.Histogram
	tokens        prometheus.Histogram
	renders       *prometheus.CounterVec
	renderTime    *prometheus.HistogramVec
	cacheOps      *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	fontLoad      *prometheus.HistogramVec
}

var (
	_ observability.PipelineHooks = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
	_ observability.HTTPHooks     = (*Metrics)(nil)
)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peviz_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		requestTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peviz_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "peviz_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peviz_http_errors_total",
			Help: "HTTP error responses by route and error code",
		}, []string{"route", "code"}),
		visualizes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peviz_visualize_total",
			Help: "Visualize runs by result",
		}, []string{"result"}),
		visualizeTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "peviz_visualize_duration_seconds",
			Help:    "Time to tokenize, encode, project and fit the view",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		tokens: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "peviz_visualize_tokens",
			Help:    "Tokens per visualized sentence",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peviz_render_total",
			Help: "Render runs by viz type and result",
		}, []string{"viz_type", "result"}),
		renderTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peviz_render_duration_seconds",
			Help:    "Time to render all requested formats",
			Buckets: prometheus.DefBuckets,
		}, []string{"viz_type"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "peviz_cache_operations_total",
			Help: "Cache hits, misses and sets by key type",
		}, []string{"type", "op"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "peviz_cache_bytes_written_total",
			Help: "Bytes written to the artifact cache",
		}),
		fontLoad: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "peviz_font_load_duration_seconds",
			Help:    "Font load time by source and result",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 6),
		}, []string{"source", "result"}),
	}
}

// Install registers m as the global pipeline, cache and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetPipelineHooks(m)
	observability.SetCacheHooks(m)
	observability.SetHTTPHooks(m)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnAssetLoaded implements observability.PipelineHooks.
func (m *Metrics) OnAssetLoaded(_ context.Context, source string, d time.Duration, err error) {
	m.fontLoad.WithLabelValues(source, result(err)).Observe(d.Seconds())
}

// OnVisualizeStart implements observability.PipelineHooks.
func (m *Metrics) OnVisualizeStart(context.Context, int) {}

// OnVisualizeComplete implements observability.PipelineHooks.
func (m *Metrics) OnVisualizeComplete(_ context.Context, _ int, tokens int, d time.Duration, err error) {
	m.visualizes.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.visualizeTime.Observe(d.Seconds())
		m.tokens.Observe(float64(tokens))
	}
}

// OnRenderStart implements observability.PipelineHooks.
func (m *Metrics) OnRenderStart(context.Context, string, []string) {}

// OnRenderComplete implements observability.PipelineHooks.
func (m *Metrics) OnRenderComplete(_ context.Context, vizType string, _ []string, d time.Duration, err error) {
	m.renders.WithLabelValues(vizType, result(err)).Inc()
	m.renderTime.WithLabelValues(vizType).Observe(d.Seconds())
}

// OnCacheHit implements observability.CacheHooks.
func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements observability.CacheHooks.
func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements observability.CacheHooks.
func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.Add(float64(size))
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(context.Context, string, string) {
	m.inFlight.Inc()
}

// OnResponse implements observability.HTTPHooks.
func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.inFlight.Dec()
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

// OnError implements observability.HTTPHooks.
func (m *Metrics) OnError(_ context.Context, _ string, route, code string) {
	m.errors.WithLabelValues(route, strings.ToUpper(code)).Inc()
}
