package pool

import (
	"fmt"
	"sync"
)

// ArrayPoolOption configures every per-length Pool[[]T] an ArrayPool[T]
// lazily creates.
type ArrayPoolOption[T any] = PoolOption[[]T]

// ArrayPool is the exact-length array variant of the core: the same
// three-tier engine parameterized over slices and keyed by length. Each
// distinct length gets its own independent Pool[[]T], created lazily on
// the first Rent or Return for that length.
//
// A per-thread length→pool lookup has no portable equivalent in Go (see
// affinity.go's note on the lack of thread-local storage), so this uses a
// sync.Map shared across goroutines instead — the idiomatic concurrent
// substitute, and still lock-free on the read path for lengths that
// already have a pool.
type ArrayPool[T any] struct {
	_ noCopy

	pools sync.Map // map[int]*Pool[[]T]
	opts  []ArrayPoolOption[T]
}

// NewArrayPool constructs an ArrayPool. opts configure every per-length
// Pool[[]T] it lazily creates (capacity, disposer, logger, and so on).
// No option sets a factory: each per-length pool's factory is synthesized
// by poolFor as `make([]T, length)`.
func NewArrayPool[T any](opts ...ArrayPoolOption[T]) *ArrayPool[T] {
	return &ArrayPool[T]{opts: opts}
}

// poolFor returns (creating if necessary) the Pool[[]T] backing the given
// exact length.
func (a *ArrayPool[T]) poolFor(length int) *Pool[[]T] {
	if p, ok := a.pools.Load(length); ok {
		return p.(*Pool[[]T])
	}

	factory := func() []T { return make([]T, length) }
	p := New(factory, a.opts...)
	actual, loaded := a.pools.LoadOrStore(length, p)
	if loaded {
		return actual.(*Pool[[]T])
	}
	return p
}

// Rent returns an array of exactly the requested length, reused from the
// pool keyed by that length or freshly allocated.
func (a *ArrayPool[T]) Rent(length int) []T {
	return a.poolFor(length).Rent()
}

// Return offers arr back to the pool keyed by len(arr).
func (a *ArrayPool[T]) Return(arr []T) {
	a.poolFor(len(arr)).Return(arr)
}

// ReturnExpecting returns arr, first checking that its length matches
// expectedLength; a mismatch is a fatal precondition violation and panics
// with ErrLengthMismatch.
func (a *ArrayPool[T]) ReturnExpecting(arr []T, expectedLength int) {
	if len(arr) != expectedLength {
		panic(fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(arr), expectedLength))
	}
	a.Return(arr)
}

// ApproximateCount sums the approximate counts of every length-keyed pool
// created so far.
func (a *ArrayPool[T]) ApproximateCount() int {
	total := 0
	a.pools.Range(func(_, v any) bool {
		total += v.(*Pool[[]T]).ApproximateCount()
		return true
	})
	return total
}

// Trim forwards to every length-keyed pool created so far.
func (a *ArrayPool[T]) Trim(force bool) {
	a.pools.Range(func(_, v any) bool {
		v.(*Pool[[]T]).Trim(force)
		return true
	})
}
