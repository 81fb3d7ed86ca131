package pool

import "testing"

type disposableValue struct {
	disposed *int
}

func (d disposableValue) Dispose() { *d.disposed++ }

type disposablePtr struct {
	disposed int
}

func (d *disposablePtr) Dispose() { d.disposed++ }

func TestResolveDisposerExplicitWins(t *testing.T) {
	calls := 0
	explicit := func(int) { calls++ }
	d := resolveDisposer[int](explicit)
	d(1)
	if calls != 1 {
		t.Fatalf("got %d; want 1", calls)
	}
}

func TestResolveDisposerValueReceiver(t *testing.T) {
	d := resolveDisposer[disposableValue](nil)
	n := 0
	d(disposableValue{disposed: &n})
	if n != 1 {
		t.Fatalf("got %d; want 1", n)
	}
}

func TestResolveDisposerPointerReceiver(t *testing.T) {
	d := resolveDisposer[disposablePtr](nil)
	v := disposablePtr{}
	d(v)
	if v.disposed != 0 {
		t.Fatal("dispatch on an addressable copy must not mutate the caller's value")
	}
}

func TestResolveDisposerNoop(t *testing.T) {
	d := resolveDisposer[int](nil)
	d(1) // must not panic
}

func TestIsNilElement(t *testing.T) {
	if isNilElement(1) {
		t.Fatal("an int is never nil")
	}
	var p *int
	if !isNilElement(p) {
		t.Fatal("expected a nil pointer to be reported nil")
	}
	x := 1
	p = &x
	if isNilElement(p) {
		t.Fatal("a non-nil pointer must not be reported nil")
	}
	var s []int
	if !isNilElement(s) {
		t.Fatal("expected a nil slice to be reported nil")
	}
	var i interface{}
	if !isNilElement[interface{}](i) {
		t.Fatal("expected a nil interface value to be reported nil")
	}
}
