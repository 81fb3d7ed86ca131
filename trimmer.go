package pool

import (
	"time"

	"go.uber.org/zap"
)

// Pressure classifies memory pressure for the trimmer.
type Pressure int

const (
	PressureLow Pressure = iota
	PressureMedium
	PressureHigh
)

func (p Pressure) String() string {
	switch p {
	case PressureLow:
		return "low"
	case PressureMedium:
		return "medium"
	case PressureHigh:
		return "high"
	default:
		return "unknown"
	}
}

// trimParams is one row of the pressure-to-aggressiveness policy table.
type trimParams struct {
	perCoreDropAll  bool
	perCoreDrop     int
	perCoreThreshMs int64
	localThreshMs   int64
	reserveThreshMs int64
	reservePct      float64
}

var trimTable = map[Pressure]trimParams{
	PressureLow:    {perCoreDrop: 1, perCoreThreshMs: 60_000, localThreshMs: 30_000, reserveThreshMs: 90_000, reservePct: 0.10},
	PressureMedium: {perCoreDrop: 2, perCoreThreshMs: 60_000, localThreshMs: 15_000, reserveThreshMs: 45_000, reservePct: 0.30},
	PressureHigh:   {perCoreDropAll: true, reservePct: 1.0},
}

var forcedTrimParams = trimParams{perCoreDropAll: true, reservePct: 1.0}

// trimmer walks all three tiers under the pressure-classified policy in
// trimTable. Grounded on sync.Pool's poolCleanup (a stop-the-world walk of
// every live pool on each GC) generalized to a pressure-classified,
// periodic-or-forced walk, and on
// other_examples/8822b48e_bsm-pool__pool.go.go's ticker-driven reap/loop
// for the periodic-timer fallback below.
type trimmer[T any] struct {
	engine        *engine[T]
	pressureProbe func() Pressure
	logger        *zap.Logger
}

func newTrimmer[T any](e *engine[T], probe func() Pressure, logger *zap.Logger) *trimmer[T] {
	if probe == nil {
		probe = func() Pressure { return PressureHigh }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &trimmer[T]{engine: e, pressureProbe: probe, logger: logger}
}

// trim runs one trim pass. When force is true, the Forced row always
// applies, regardless of the pressure probe.
func (t *trimmer[T]) trim(force bool) {
	params := forcedTrimParams
	pressure := PressureHigh
	if !force {
		pressure = t.pressureProbe()
		params = trimTable[pressure]
	}

	now := nowMillis()

	disposedLocal := t.trimThreadLocal(now, params)
	disposedPerCore := t.trimPerCore(now, params)
	disposedReserve := t.trimReserve(now, params)

	if params.perCoreDropAll {
		// A full sweep: rotate the per-P slot array so orphaned slots can
		// be weakly reclaimed (see engine.rotateLocal's doc comment).
		t.engine.rotateLocal()
	}

	if ce := t.logger.Check(zap.DebugLevel, "gopool: trim pass"); ce != nil {
		ce.Write(
			zap.Bool("forced", force),
			zap.String("pressure", pressure.String()),
			zap.Int("disposed_thread_local", disposedLocal),
			zap.Int("disposed_per_core", disposedPerCore),
			zap.Int("disposed_reserve", disposedReserve),
		)
	}
	t.engine.metrics.observeTrim(disposedLocal + disposedPerCore + disposedReserve)
}

func (t *trimmer[T]) trimThreadLocal(now int64, params trimParams) int {
	disposed := 0
	for _, s := range t.engine.registry.liveSlots() {
		if params.localThreshMs <= 0 {
			if x, ok := s.evict(); ok {
				t.engine.disposer(x)
				disposed++
			}
			continue
		}
		if now-s.lastSeenTS.Load() <= params.localThreshMs {
			continue
		}
		if x, ok := s.evict(); ok {
			t.engine.disposer(x)
			disposed++
		}
	}
	return disposed
}

func (t *trimmer[T]) trimPerCore(now int64, params trimParams) int {
	disposed := 0
	for _, s := range t.engine.perCore {
		dropCount := params.perCoreDrop
		if params.perCoreDropAll {
			dropCount = s.capacity()
		}
		_, dropped := s.startTrim(now, params.perCoreThreshMs, dropCount)
		for _, x := range dropped {
			t.engine.disposer(x)
			disposed++
		}
	}
	return disposed
}

func (t *trimmer[T]) trimReserve(now int64, params trimParams) int {
	rs := t.engine.reserve.acquire()
	defer func() { t.engine.reserve.release(rs) }()

	if rs.count == 0 {
		return 0
	}
	if params.reserveThreshMs > 0 && now-rs.lastTrimTS <= params.reserveThreshMs {
		return 0
	}

	dropN := int(float64(rs.count) * params.reservePct)
	if dropN <= 0 {
		rs.lastTrimTS = now
		return 0
	}
	if dropN > rs.count {
		dropN = rs.count
	}

	disposed := make([]T, dropN)
	copy(disposed, rs.items[rs.count-dropN:rs.count])
	var zero T
	for i := rs.count - dropN; i < rs.count; i++ {
		rs.items[i] = zero
	}
	rs.count -= dropN
	rs.lastTrimTS = now

	if rs.shouldShrink(t.engine.initialReserveCap) {
		rs.shrink()
	}

	for _, x := range disposed {
		t.engine.disposer(x)
	}
	return dropN
}

// startPeriodic registers a ticker-driven non-forced trim, in the absence
// of a direct GC-event hook (Go exposes GOGC tuning and
// runtime.ReadMemStats, but no portable per-major-GC callback outside the
// runtime package itself).
func (t *trimmer[T]) startPeriodic(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				t.trim(false)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
