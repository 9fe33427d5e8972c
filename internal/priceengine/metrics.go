package priceengine

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the engine's internal state as Prometheus gauges and
// counters, purely observational: nothing here feeds back into engine
// behavior.
type Metrics struct {
	CurrentMultiplier prometheus.Gauge
	CurrentDividend   prometheus.Gauge
	TotalSupply       prometheus.Gauge
	BlocksProcessed   *prometheus.CounterVec
	PricesRejected    prometheus.Counter
}

// NewMetrics constructs and registers the engine's metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CurrentMultiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "priceengine",
			Name:      "current_multiplier",
			Help:      "Coin-generation multiplier currently in effect.",
		}),
		CurrentDividend: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "priceengine",
			Name:      "current_dividend",
			Help:      "Per-block fee dividend currently in effect.",
		}),
		TotalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "priceengine",
			Name:      "total_supply",
			Help:      "Most recently recorded total supply.",
		}),
		BlocksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "priceengine",
			Name:      "blocks_processed_total",
			Help:      "Number of block notifications processed, by mode.",
		}, []string{"mode"}),
		PricesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "priceengine",
			Name:      "prices_rejected_total",
			Help:      "Number of price observations rejected by validation.",
		}),
	}
	reg.MustRegister(m.CurrentMultiplier, m.CurrentDividend, m.TotalSupply, m.BlocksProcessed, m.PricesRejected)
	return m
}

func (m *Metrics) observe(res observationInput) {
	if m == nil {
		return
	}
	m.CurrentMultiplier.Set(res.Multiplier)
	m.CurrentDividend.Set(float64(res.Dividend))
	m.TotalSupply.Set(float64(res.TotalSupply))
}

type observationInput struct {
	Multiplier  float64
	Dividend    uint64
	TotalSupply uint64
}
