// Package metrics exposes passive Prometheus collectors for a running
// book/env (SPEC_FULL.md §2 domain stack). No HTTP exposition server
// is started here — that would itself be a network surface, and §1
// excludes a network protocol from this module. A caller that wants
// /metrics registers Registry() with its own promhttp handler.
//
// Grounded on the prometheus/client_golang dependency surfacing twice
// in the retrieval pack (DimaJoyti-ai-agentic-crypto-browser's
// pkg/observability/metrics.go and mselser95-polymarket-arb's
// internal/orderbook/manager.go), used here directly rather than
// through an OpenTelemetry bridge since this package has no tracing
// surface to justify one.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the passive counters/gauges that StepEnv.Step updates
// once per step when the collector is attached with WithMetrics.
type Collector struct {
	registry *prometheus.Registry

	tradesProcessed prometheus.Counter
	restingOrders   prometheus.Gauge
	stepDuration    prometheus.Histogram
	bestBidPrice    prometheus.Gauge
	bestAskPrice    prometheus.Gauge
}

// NewCollector builds a Collector registered on a fresh, private
// registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		tradesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glassbook",
			Name:      "trades_processed_total",
			Help:      "Total number of trades matched.",
		}),
		restingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glassbook",
			Name:      "resting_orders",
			Help:      "Current number of resident orders across both ladders.",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glassbook",
			Name:      "step_duration_ticks",
			Help:      "Duration of a single simulation step, in clock ticks.",
			Buckets:   prometheus.LinearBuckets(1, 5, 10),
		}),
		bestBidPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glassbook",
			Name:      "best_bid_price",
			Help:      "Current best bid price.",
		}),
		bestAskPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glassbook",
			Name:      "best_ask_price",
			Help:      "Current best ask price.",
		}),
	}
	c.registry.MustRegister(c.tradesProcessed, c.restingOrders, c.stepDuration, c.bestBidPrice, c.bestAskPrice)
	return c
}

// Registry returns the private registry a caller can mount behind its
// own promhttp handler.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveStep records one step's worth of passive metrics.
func (c *Collector) ObserveStep(tradeCount int, restingOrderCount int, durationTicks uint64, bestBid, bestAsk uint64) {
	c.tradesProcessed.Add(float64(tradeCount))
	c.restingOrders.Set(float64(restingOrderCount))
	c.stepDuration.Observe(float64(durationTicks))
	c.bestBidPrice.Set(float64(bestBid))
	c.bestAskPrice.Set(float64(bestAsk))
}
