package pool

import (
	"context"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Stats is the per-tier breakdown behind ApproximateCount.
type Stats struct {
	ThreadLocal int
	PerCore     int
	Reserve     int
}

// Total sums the three tiers into a single approximate count.
func (s Stats) Total() int { return s.ThreadLocal + s.PerCore + s.Reserve }

// engine is the pooling orchestrator: the three-tier rent/return pipeline
// plus the trim entry points it shares with trimmer.
type engine[T any] struct {
	perCore []*perCoreStack[T] // length P, fixed for the engine's lifetime

	reserve  *globalReserve[T]
	registry *slotRegistry[T]

	localPtr atomic.Pointer[[]*slot[T]]
	localMu  sync.Mutex

	factory  func() T
	disposer disposerFunc[T]
	affinity AffinityProbe

	maxFactory *semaphore.Weighted // optional, WithMaxConcurrentFactory

	logger  *zap.Logger
	metrics *poolMetrics

	initialReserveCap int
}

type engineConfig[T any] struct {
	perCoreCapacity      int
	perCoreCount         int
	reserveCapacity      int
	factory              func() T
	disposer             disposerFunc[T]
	affinity             AffinityProbe
	maxConcurrentFactory int
	logger               *zap.Logger
	poolName             string
	pressureProbe        PressureProbe
	periodicTrim         time.Duration
}

func newEngine[T any](cfg engineConfig[T]) (*engine[T], error) {
	if cfg.factory == nil {
		panic("gopool: factory must not be nil")
	}
	if cfg.perCoreCapacity <= 0 || cfg.perCoreCount <= 0 || cfg.reserveCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	e := &engine[T]{
		perCore:           make([]*perCoreStack[T], cfg.perCoreCount),
		reserve:           newGlobalReserve[T](cfg.reserveCapacity),
		registry:          &slotRegistry[T]{},
		factory:           cfg.factory,
		disposer:          resolveDisposer(cfg.disposer),
		affinity:          cfg.affinity,
		logger:            cfg.logger,
		metrics:           newPoolMetrics(cfg.poolName),
		initialReserveCap: cfg.reserveCapacity,
	}
	if e.affinity == nil {
		e.affinity = defaultAffinityProbe
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	for i := range e.perCore {
		e.perCore[i] = newPerCoreStack[T](cfg.perCoreCapacity)
	}
	if cfg.maxConcurrentFactory > 0 {
		e.maxFactory = semaphore.NewWeighted(int64(cfg.maxConcurrentFactory))
	}
	return e, nil
}

// perCoreCount reports P, the fixed round-robin length.
func (e *engine[T]) perCoreCount() int { return len(e.perCore) }

// pinnedSlot returns the slot addressed by the given affinity hint, lazily
// creating the backing per-P array on first use.
func (e *engine[T]) pinnedSlot(affinity int) *slot[T] {
	locals := e.localPtr.Load()
	if locals != nil && len(*locals) > 0 {
		return (*locals)[affinity%len(*locals)]
	}
	return e.growLocal(affinity)
}

func (e *engine[T]) growLocal(affinity int) *slot[T] {
	e.localMu.Lock()
	defer e.localMu.Unlock()
	if locals := e.localPtr.Load(); locals != nil && len(*locals) > 0 {
		return (*locals)[affinity%len(*locals)]
	}
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	newLocals := make([]*slot[T], n)
	for i := range newLocals {
		s := &slot[T]{}
		e.registry.register(s)
		newLocals[i] = s
	}
	e.localPtr.Store(&newLocals)
	return newLocals[affinity%len(newLocals)]
}

// rotateLocal drops the primary per-P slot array entirely, the same thing
// sync.Pool's poolCleanup does to p.local on every GC. Slots that are not
// referenced elsewhere become unreachable and their weak registry entries
// die at the next GC — this is what makes per-goroutine slot reclamation
// observable in a language with no public thread-exit hook. Reserved for
// High/Forced trim passes (see trimmer.go), since Low/Medium passes must
// only evict individually stale values, not the slots themselves.
func (e *engine[T]) rotateLocal() {
	e.localMu.Lock()
	e.localPtr.Store(nil)
	e.localMu.Unlock()
}

// currentLocalSlots returns a snapshot of the live per-P slot array
// (without locking: a torn read here is at worst a stale snapshot for
// approximateCount/trim purposes).
func (e *engine[T]) currentLocalSlots() []*slot[T] {
	locals := e.localPtr.Load()
	if locals == nil {
		return nil
	}
	return *locals
}

// rent consults the slot, then walks PerCoreStacks round-robin (non-forced
// then forced on contention), then batch-refills from the reserve, and
// finally falls back to the factory.
func (e *engine[T]) rent() T {
	affinity := e.affinity()

	if x, ok := e.pinnedSlot(affinity).rent(); ok {
		e.metrics.observeRent(tierThreadLocal)
		return x
	}

	start := affinity % len(e.perCore)
	contended := false
	for i := 0; i < len(e.perCore); i++ {
		j := (start + i) % len(e.perCore)
		x, status := e.perCore[j].tryPop(false)
		if status == popStatusPopped {
			e.metrics.observeRent(tierPerCore)
			return x
		}
		if status == popStatusContended {
			contended = true
		}
	}

	if contended {
		for i := 0; i < len(e.perCore); i++ {
			j := (start + i) % len(e.perCore)
			x, status := e.perCore[j].tryPop(true)
			if status == popStatusPopped {
				e.metrics.observeRent(tierPerCore)
				return x
			}
		}
	}

	if e.reserve.approximateLen() > 0 {
		if x, ok := e.batchRefill(start); ok {
			e.metrics.observeRent(tierReserve)
			return x
		}
	}

	e.metrics.observeFactory()
	if e.maxFactory != nil {
		_ = e.maxFactory.Acquire(context.Background(), 1)
		defer e.maxFactory.Release(1)
	}
	return e.factory()
}

// batchRefill moves a batch of elements from the reserve into the single
// PerCoreStack at index start, returning one of them directly to the
// caller.
func (e *engine[T]) batchRefill(start int) (x T, ok bool) {
	s := e.perCore[start]
	count, acquired := s.acquire(true)
	if !acquired {
		return x, false
	}

	rs := e.reserve.acquire()
	if rs.count == 0 {
		e.reserve.release(rs)
		s.release(count)
		return x, false
	}

	rs.count--
	result := rs.items[rs.count]
	var zero T
	rs.items[rs.count] = zero

	room := len(s.items) - int(count)
	take := room
	if take > rs.count {
		take = rs.count
	}
	if take > 0 {
		copy(s.items[count:int(count)+take], rs.items[rs.count-take:rs.count])
		for i := rs.count - take; i < rs.count; i++ {
			rs.items[i] = zero
		}
		rs.count -= take
	}

	newCount := int(count) + take
	if count == 0 && newCount > 0 {
		s.lastNonEmptyTS.Store(0)
	}
	s.release(int32(newCount))
	e.reserve.release(rs)
	e.metrics.observeRefill(take + 1)
	return result, true
}

// doReturn swaps x into the slot, pushes whatever it evicted down through
// the PerCoreStacks round-robin, and spills to the reserve if every stack
// refuses it.
func (e *engine[T]) doReturn(x T) {
	if isNilElement(x) {
		panic(ErrNilElement)
	}

	now := nowMillis()
	affinity := e.affinity()

	evicted, hadPrevious := e.pinnedSlot(affinity).put(x, now)
	if !hadPrevious {
		e.metrics.observeReturn(tierThreadLocal)
		return
	}

	start := affinity % len(e.perCore)
	for i := 0; i < len(e.perCore); i++ {
		j := (start + i) % len(e.perCore)
		if e.perCore[j].tryPush(evicted, false) {
			e.metrics.observeReturn(tierPerCore)
			return
		}
	}

	lastVisited := (start + len(e.perCore) - 1) % len(e.perCore)
	e.batchSpill(lastVisited, evicted)
	e.metrics.observeReturn(tierReserve)
}

// batchSpill moves the entire contents of the PerCoreStack at idx into the
// reserve (growing it if needed), then appends overflow as the final entry.
func (e *engine[T]) batchSpill(idx int, overflow T) {
	s := e.perCore[idx]
	count, _ := s.acquire(true)

	rs := e.reserve.acquire()
	rs.grow(rs.count + int(count) + 1)
	copy(rs.items[rs.count:rs.count+int(count)], s.items[:count])
	rs.count += int(count)

	var zero T
	for i := 0; i < int(count); i++ {
		s.items[i] = zero
	}
	rs.items[rs.count] = overflow
	rs.count++

	s.lastNonEmptyTS.Store(0)
	s.release(0)
	e.reserve.release(rs)
	e.metrics.observeSpill(int(count) + 1)
}

// approximateCount sums each tier's occupancy without locking.
func (e *engine[T]) approximateCount() Stats {
	tl := 0
	for _, sl := range e.currentLocalSlots() {
		if sl.present() {
			tl++
		}
	}
	pc := 0
	for _, s := range e.perCore {
		pc += s.approximateLen()
	}
	return Stats{ThreadLocal: tl, PerCore: pc, Reserve: e.reserve.approximateLen()}
}

// isNilElement reports whether x is the null-equivalent sentinel;
// returning one is a fatal programming error, not a cache miss. Only
// nilable kinds (pointer, interface, slice, map, chan, func) can be nil;
// any other T can never trigger this.
func isNilElement[T any](x T) bool {
	v := reflect.ValueOf(x)
	if !v.IsValid() {
		// x's static type T is itself an interface type and x holds a
		// completely nil interface value.
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
