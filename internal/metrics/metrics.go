// Package metrics exports layout, cache, and HTTP events to Prometheus.
//
// Install wires the collectors into the observability hook registry:
//
//	metrics.Install()
//	router.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/matzehuels/nodegraph/pkg/errors"
	"github.com/matzehuels/nodegraph/pkg/observability"
)

var (
	LayoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodegraph_layouts_total",
		Help: "Total number of layout passes, labelled by result code.",
	}, []string{"code"})

	LayoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodegraph_layout_duration_seconds",
		Help:    "Duration of layout passes.",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})

	LayoutNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodegraph_layout_nodes",
		Help:    "Number of nodes per layout pass.",
		Buckets: prometheus.ExponentialBuckets(4, 2, 10),
	})

	BlockDataNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodegraph_block_data_nodes",
		Help:    "Number of data nodes placed per block.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 9),
	})

	CacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodegraph_cache_events_total",
		Help: "Cache lookups and writes, labelled by stage and event.",
	}, []string{"stage", "event"})

	CacheBytesWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodegraph_cache_bytes_written_total",
		Help: "Bytes written to the cache, labelled by stage.",
	}, []string{"stage"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nodegraph_http_requests_total",
		Help: "HTTP requests, labelled by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nodegraph_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	HTTPInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nodegraph_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
)

// Hooks implements the observability hook interfaces on the collectors above.
type Hooks struct{}

var (
	_ observability.LayoutHooks = Hooks{}
	_ observability.CacheHooks  = Hooks{}
	_ observability.HTTPHooks   = Hooks{}
)

// Install registers Hooks for layout, cache, and HTTP events.
func Install() {
	observability.SetLayoutHooks(Hooks{})
	observability.SetCacheHooks(Hooks{})
	observability.SetHTTPHooks(Hooks{})
}

func (Hooks) OnLayoutStart(_ context.Context, nodeCount, _ int) {
	LayoutNodes.Observe(float64(nodeCount))
}

func (Hooks) OnBlockPlaced(_ context.Context, _, _, dataCount int) {
	BlockDataNodes.Observe(float64(dataCount))
}

func (Hooks) OnLayoutComplete(_ context.Context, d time.Duration, err error) {
	code := "OK"
	if err != nil {
		code = string(errors.GetCode(err))
		if code == "" {
			code = "UNKNOWN"
		}
	}
	LayoutsTotal.WithLabelValues(code).Inc()
	LayoutDuration.Observe(d.Seconds())
}

func (Hooks) OnCacheHit(_ context.Context, stage string) {
	CacheEvents.WithLabelValues(stage, "hit").Inc()
}

func (Hooks) OnCacheMiss(_ context.Context, stage string) {
	CacheEvents.WithLabelValues(stage, "miss").Inc()
}

func (Hooks) OnCacheSet(_ context.Context, stage string, size int) {
	CacheEvents.WithLabelValues(stage, "set").Inc()
	CacheBytesWritten.WithLabelValues(stage).Add(float64(size))
}

func (Hooks) OnRequest(context.Context, string, string) {
	HTTPInFlight.Inc()
}

func (Hooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	HTTPInFlight.Dec()
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
