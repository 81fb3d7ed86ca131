package pool

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPoolMetricsObserveRent(t *testing.T) {
	m := newPoolMetrics("widgets")
	m.observeRent(tierThreadLocal)
	m.observeRent(tierThreadLocal)
	m.observeRent(tierReserve)

	if got := testutil.ToFloat64(m.rents.WithLabelValues(string(tierThreadLocal))); got != 2 {
		t.Fatalf("got %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.rents.WithLabelValues(string(tierReserve))); got != 1 {
		t.Fatalf("got %v; want 1", got)
	}
}

func TestPoolMetricsObserveTrim(t *testing.T) {
	m := newPoolMetrics("widgets")
	m.observeTrim(5)
	m.observeTrim(3)

	if got := testutil.ToFloat64(m.trims); got != 2 {
		t.Fatalf("got %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.trimDisposals); got != 8 {
		t.Fatalf("got %v; want 8", got)
	}
}

func TestPoolMetricsPerPoolRegistryAvoidsCollisions(t *testing.T) {
	// Two pools with the same name must not collide: each owns its own
	// private registry rather than registering against a shared default.
	a := newPoolMetrics("same-name")
	b := newPoolMetrics("same-name")
	a.observeFactory()
	b.observeFactory()
	b.observeFactory()

	if got := testutil.ToFloat64(a.factoryCalls); got != 1 {
		t.Fatalf("got %v; want 1", got)
	}
	if got := testutil.ToFloat64(b.factoryCalls); got != 2 {
		t.Fatalf("got %v; want 2", got)
	}
}
