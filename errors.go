package pool

import "errors"

// Fatal precondition violations. These are programmer errors, not
// transient conditions, and are surfaced as panics (from Return,
// ArrayPool.ReturnExpecting and New) — the same way sync.Mutex panics on
// "unlock of unlocked mutex" rather than returning an error.
var (
	// ErrNilElement is the reason Return panics when handed a null-equivalent
	// element. A pool can always tell apart "nothing cached" from "someone
	// returned nothing"; the second is a caller bug.
	ErrNilElement = errors.New("gopool: nil element returned to pool")

	// ErrLengthMismatch is the reason ArrayPool.ReturnExpecting panics when
	// the supplied slice's length does not match the expected length.
	// ArrayPool.Return never panics with it: it routes by len(arr).
	ErrLengthMismatch = errors.New("gopool: returned slice length does not match pool length")

	// ErrInvalidCapacity is returned by newEngine, and New panics with it,
	// when a capacity or reserve parameter is out of range.
	ErrInvalidCapacity = errors.New("gopool: capacity parameter out of range")
)
