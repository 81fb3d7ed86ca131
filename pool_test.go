package pool_test

import (
	"sync"
	"testing"
	"time"

	pool "github.com/enderlook/gopool"
)

type widget struct {
	id int
}

func TestPoolRentReturnLocality(t *testing.T) {
	calls := 0
	p := pool.New(func() *widget { calls++; return &widget{id: calls} })

	x := p.Rent()
	p.Return(x)
	y := p.Rent()
	if y != x {
		t.Fatal("expected the same instance back after a single-thread rent/return")
	}
	if calls != 1 {
		t.Fatalf("got %d factory calls; want 1", calls)
	}
}

func TestPoolReturnNilPanics(t *testing.T) {
	p := pool.New(func() *widget { return &widget{} })
	defer func() {
		if recover() == nil {
			t.Fatal("expected Return(nil) to panic")
		}
	}()
	p.Return(nil)
}

func TestPoolStatsSumsToApproximateCount(t *testing.T) {
	p := pool.New(func() *widget { return &widget{} }, pool.WithPerCoreCapacity[*widget](4), pool.WithPerCoreCount[*widget](2))
	for i := 0; i < 20; i++ {
		p.Return(&widget{id: i})
	}
	stats := p.Stats()
	if stats.Total() != p.ApproximateCount() {
		t.Fatalf("got Stats total %d, ApproximateCount %d; want equal", stats.Total(), p.ApproximateCount())
	}
	if stats.Total() == 0 {
		t.Fatal("expected some cached elements after returning 20 objects")
	}
}

// TestPoolCrossGoroutineMigration is scenario 3 of spec.md §8: a value
// returned by one goroutine must eventually be retrievable by another.
func TestPoolCrossGoroutineMigration(t *testing.T) {
	p := pool.New(func() *widget { return &widget{} }, pool.WithPerCoreCount[*widget](8))

	marker := &widget{id: 42}
	done := make(chan struct{})
	go func() {
		p.Return(marker)
		close(done)
	}()
	<-done

	found := false
	var rented []*widget
	for i := 0; i < 64; i++ {
		x := p.Rent()
		rented = append(rented, x)
		if x == marker {
			found = true
			break
		}
	}
	for _, x := range rented {
		p.Return(x)
	}
	if !found {
		t.Fatal("expected the returned marker to be retrievable within a bounded number of rents")
	}
}

func TestPoolForcedTrimDisposesEverything(t *testing.T) {
	var disposed int
	var mu sync.Mutex
	p := pool.New(func() *widget { return &widget{} }, pool.WithDisposer(func(*widget) {
		mu.Lock()
		disposed++
		mu.Unlock()
	}))

	const n = 500
	for i := 0; i < n; i++ {
		p.Return(&widget{id: i})
	}
	p.Trim(true)

	if got := p.ApproximateCount(); got != 0 {
		t.Fatalf("got %d cached after forced trim; want 0", got)
	}
	if disposed != n {
		t.Fatalf("got %d disposals; want %d", disposed, n)
	}
}

func TestPoolConcurrentRentReturnStress(t *testing.T) {
	p := pool.New(func() *widget { return &widget{} })
	const goroutines = 32
	n := 10000
	if testing.Short() {
		n = 100
	}

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < n; i++ {
				x := p.Rent()
				if x == nil {
					t.Error("rent must never yield the null-equivalent element")
					return
				}
				p.Return(x)
			}
		}()
	}
	wg.Wait()
}

func TestPoolPeriodicTrimStopsOnClose(t *testing.T) {
	p := pool.New(func() *widget { return &widget{} }, pool.WithPeriodicTrim[*widget](5*time.Millisecond))
	p.Return(&widget{})
	time.Sleep(20 * time.Millisecond)
	p.Close()
	p.Close() // must be safe to call twice
}

func TestFastPoolNoopDisposal(t *testing.T) {
	calls := 0
	p := pool.NewFast(func() *widget { return &widget{} }, pool.WithDisposer(func(*widget) { calls++ }))
	p.Return(&widget{})
	p.Trim(true)
	if calls != 0 {
		t.Fatalf("got %d disposer calls; want 0, NewFast must override any supplied disposer with a noop", calls)
	}
}

func TestLeaseCloseReturnsOnlyOnce(t *testing.T) {
	p := pool.New(func() *widget { return &widget{} })
	p.Return(&widget{})

	l := p.RentLease()
	if l.Value == nil {
		t.Fatal("expected RentLease to yield a non-nil value")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("got %v; want nil", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("got %v; want nil on second Close", err)
	}
}
