package pool

import "github.com/prometheus/client_golang/prometheus"

// tier identifies which of the three storage tiers served a rent/return.
type tier string

const (
	tierThreadLocal tier = "thread_local"
	tierPerCore     tier = "per_core"
	tierReserve     tier = "reserve"
)

// poolMetrics is the prometheus collector set for a single Pool instance,
// grounded on other_examples/ecfb56a0_eltociear-hypersdk__mempool-mempool.go.go
// (a generic pooled-item container importing
// github.com/prometheus/client_golang/prometheus directly). Each Pool owns
// its own prometheus.Registry rather than registering against the global
// DefaultRegisterer, so multiple pools (and repeated construction in
// tests) never collide on metric names.
type poolMetrics struct {
	registry *prometheus.Registry

	rents         *prometheus.CounterVec
	returns       *prometheus.CounterVec
	factoryCalls  prometheus.Counter
	refills       prometheus.Counter
	refillItems   prometheus.Counter
	spills        prometheus.Counter
	spillItems    prometheus.Counter
	trims         prometheus.Counter
	trimDisposals prometheus.Counter
}

func newPoolMetrics(poolName string) *poolMetrics {
	if poolName == "" {
		poolName = "default"
	}
	labels := prometheus.Labels{"pool": poolName}

	m := &poolMetrics{
		registry: prometheus.NewRegistry(),
		rents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "rents_total",
			Help:        "Number of Rent calls satisfied, labelled by tier.",
			ConstLabels: labels,
		}, []string{"tier"}),
		returns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "returns_total",
			Help:        "Number of Return calls, labelled by the tier the element settled in.",
			ConstLabels: labels,
		}, []string{"tier"}),
		factoryCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "factory_calls_total",
			Help:        "Number of times Rent fell through to the factory.",
			ConstLabels: labels,
		}),
		refills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "refills_total",
			Help:        "Number of batch refills from the global reserve.",
			ConstLabels: labels,
		}),
		refillItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "refill_items_total",
			Help:        "Number of elements moved out of the reserve by batch refills.",
			ConstLabels: labels,
		}),
		spills: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "spills_total",
			Help:        "Number of batch spills into the global reserve.",
			ConstLabels: labels,
		}),
		spillItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "spill_items_total",
			Help:        "Number of elements moved into the reserve by batch spills.",
			ConstLabels: labels,
		}),
		trims: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "trims_total",
			Help:        "Number of trim passes executed.",
			ConstLabels: labels,
		}),
		trimDisposals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "gopool",
			Name:        "trim_disposals_total",
			Help:        "Number of elements disposed across all trim passes.",
			ConstLabels: labels,
		}),
	}

	m.registry.MustRegister(m.rents, m.returns, m.factoryCalls, m.refills, m.refillItems, m.spills, m.spillItems, m.trims, m.trimDisposals)
	return m
}

func (m *poolMetrics) observeRent(t tier)   { m.rents.WithLabelValues(string(t)).Inc() }
func (m *poolMetrics) observeReturn(t tier) { m.returns.WithLabelValues(string(t)).Inc() }
func (m *poolMetrics) observeFactory()      { m.factoryCalls.Inc() }

func (m *poolMetrics) observeRefill(n int) {
	m.refills.Inc()
	m.refillItems.Add(float64(n))
}

func (m *poolMetrics) observeSpill(n int) {
	m.spills.Inc()
	m.spillItems.Add(float64(n))
}

func (m *poolMetrics) observeTrim(disposed int) {
	m.trims.Inc()
	m.trimDisposals.Add(float64(disposed))
}

// Registry exposes the pool's private prometheus registry so callers can
// merge it into a larger scrape target.
func (m *poolMetrics) Registry() *prometheus.Registry { return m.registry }
