// Package pool implements a general-purpose, process-wide object pool
// optimized for high rent/return throughput under heavy multi-threaded
// contention. It caches recently returned instances across three tiers —
// a per-goroutine-affinity slot, a fixed-size per-core stack, and a
// dynamically sized global reserve — and hands them back on subsequent
// rents, amortizing allocation and construction cost for expensive
// elements.
//
// The design generalizes the internal structure of the standard library's
// sync.Pool (a per-P private slot plus a per-P shared structure plus a
// GC-reclaimed victim cache) to an explicit third overflow tier with its
// own growth/shrink heuristics, pluggable disposal, and pressure-graded
// trimming. See DESIGN.md for the full grounding.
package pool

import (
	"time"

	"go.uber.org/zap"
)

// noCopy may be embedded into structs that must not be copied after first
// use. The same marker field and doc comment as sync.Pool's.
//
//lint:ignore U1000 noCopy is used via go vet's copylocks check
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// PoolOption configures a Pool at construction time.
type PoolOption[T any] func(*engineConfig[T])

// WithPerCoreCapacity overrides C, the fixed capacity of each PerCoreStack
// (default DefaultPerCoreCapacity).
func WithPerCoreCapacity[T any](capacity int) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.perCoreCapacity = capacity }
}

// WithPerCoreCount overrides P, the number of PerCoreStacks (default
// min(runtime.NumCPU(), 64)).
func WithPerCoreCount[T any](count int) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.perCoreCount = count }
}

// WithReserveCapacity overrides the GlobalReserve's initial capacity
// (default DefaultReserveCapacity).
func WithReserveCapacity[T any](capacity int) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.reserveCapacity = capacity }
}

// WithDisposer supplies an explicit disposer callback, taking priority
// over automatic Disposable detection.
func WithDisposer[T any](disposer func(T)) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.disposer = disposer }
}

// WithAffinityProbe supplies a custom current-CPU-id probe, overriding the
// portable sync.Pool-backed default (see affinity.go).
func WithAffinityProbe[T any](probe AffinityProbe) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.affinity = probe }
}

// WithMaxConcurrentFactory bounds how many goroutines may be inside the
// factory callback at once, addressing the thundering-herd case where many
// goroutines observe all tiers dry at the same time. Grounded on
// other_examples/4c48fffb_kushsharma-go-sync__pool.go.go and
// other_examples/c91e6d8b_rocketlaunchr-go-pool__pool.go.go, both of which
// bound a generic pool with golang.org/x/sync/semaphore.
func WithMaxConcurrentFactory[T any](n int) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.maxConcurrentFactory = n }
}

// WithLogger supplies the zap logger used for the debug-level summary of
// each trim pass. Spills and refills are counted in the pool's metrics but
// not logged. Defaults to zap.NewNop().
func WithLogger[T any](logger *zap.Logger) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.logger = logger }
}

// WithName labels the pool's prometheus metrics and log lines.
func WithName[T any](name string) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.poolName = name }
}

// WithPressureProbe supplies the memory-pressure classifier. Defaults to
// DefaultPressureProbe.
func WithPressureProbe[T any](probe PressureProbe) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.pressureProbe = probe }
}

// WithPeriodicTrim starts a background ticker calling Trim(false) at the
// given interval, substituting a timer where no GC-event hook is
// available. Zero (the default) disables periodic trimming; callers may
// still invoke Trim explicitly.
func WithPeriodicTrim[T any](interval time.Duration) PoolOption[T] {
	return func(cfg *engineConfig[T]) { cfg.periodicTrim = interval }
}

// Pool is the public facade over the pooling engine. A Pool must not be
// copied after first use.
type Pool[T any] struct {
	_ noCopy

	engine  *engine[T]
	trimmer *trimmer[T]
	stopper func()
}

// New constructs a Pool whose factory is called whenever Rent would
// otherwise have to return a freshly constructed element. factory must
// never return the null-equivalent of T.
func New[T any](factory func() T, opts ...PoolOption[T]) *Pool[T] {
	cfg := engineConfig[T]{
		perCoreCapacity: DefaultPerCoreCapacity,
		perCoreCount:    defaultPerCoreCount(),
		reserveCapacity: DefaultReserveCapacity,
		factory:         factory,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	e, err := newEngine(cfg)
	if err != nil {
		panic(err)
	}

	t := newTrimmer(e, pressureProbeOrDefault(cfg.pressureProbe), e.logger)

	p := &Pool[T]{engine: e, trimmer: t}
	if cfg.periodicTrim > 0 {
		p.stopper = t.startPeriodic(cfg.periodicTrim)
	}
	return p
}

func pressureProbeOrDefault(p PressureProbe) func() Pressure {
	if p == nil {
		return DefaultPressureProbe
	}
	return func() Pressure { return p() }
}

func defaultPerCoreCount() int {
	n := numCPU()
	if n > 64 {
		n = 64
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Rent yields an object: a cached instance if one is available across any
// tier, or a freshly constructed one otherwise.
func (p *Pool[T]) Rent() T { return p.engine.rent() }

// Return offers x back to the pool; it may be accepted into a tier or
// dropped. Returning the null-equivalent of T is a fatal programming error
// and panics.
func (p *Pool[T]) Return(x T) { p.engine.doReturn(x) }

// Trim releases cached objects under memory pressure. force bypasses the
// pressure probe and applies the Forced row of the trim policy table.
func (p *Pool[T]) Trim(force bool) { p.trimmer.trim(force) }

// ApproximateCount sums tier counts without locking; it may over- or
// under-report by a bounded amount.
func (p *Pool[T]) ApproximateCount() int { return p.engine.approximateCount().Total() }

// Stats returns the same sum broken down per tier.
func (p *Pool[T]) Stats() Stats { return p.engine.approximateCount() }

// Close stops the background periodic trim goroutine started by
// WithPeriodicTrim, if any. Safe to call even if periodic trim was never
// enabled.
func (p *Pool[T]) Close() {
	if p.stopper != nil {
		p.stopper()
		p.stopper = nil
	}
}
