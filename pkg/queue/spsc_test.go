package queue

import (
	"sync"
	"testing"
)

func TestSPSC_PushPopOrder(t *testing.T) {
	q := New[int](16)

	for i := 0; i < 10; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
	}

	var out int
	for i := 0; i < 10; i++ {
		if !q.TryPop(&out) {
			t.Fatalf("pop %d failed unexpectedly", i)
		}
		if out != i {
			t.Fatalf("pop order violated: got %d want %d", out, i)
		}
	}

	if q.TryPop(&out) {
		t.Fatal("pop succeeded on empty queue")
	}
}

func TestSPSC_FullAtCapacity(t *testing.T) {
	q := New[int](16)

	for i := 0; i < 16; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d should have succeeded, capacity not yet reached", i)
		}
	}
	if q.TryPush(99) {
		t.Fatal("push succeeded past capacity")
	}
	if !q.FullApprox() {
		t.Error("FullApprox should report true at capacity")
	}
}

func TestSPSC_InvalidCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on non-power-of-two capacity")
		}
	}()
	New[int](15)
}

func TestSPSC_TryPopBatch(t *testing.T) {
	q := New[int](16)
	for i := 0; i < 5; i++ {
		q.TryPush(i)
	}

	dst := make([]int, 3)
	n := q.TryPopBatch(dst)
	if n != 3 {
		t.Fatalf("expected 3 popped, got %d", n)
	}
	for i := 0; i < 3; i++ {
		if dst[i] != i {
			t.Errorf("batch[%d] = %d; want %d", i, dst[i], i)
		}
	}

	n = q.TryPopBatch(dst)
	if n != 2 {
		t.Fatalf("expected remaining 2 popped, got %d", n)
	}
}

func TestSPSC_ConcurrentNonLossNonDuplication(t *testing.T) {
	const n = 200_000
	q := New[int](1024)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			for !q.TryPush(i) {
			}
		}
	}()

	seen := make([]bool, n)
	go func() {
		defer wg.Done()
		var out int
		count := 0
		for count < n {
			if q.TryPop(&out) {
				if seen[out] {
					t.Errorf("duplicate delivery of %d", out)
				}
				seen[out] = true
				count++
			}
		}
	}()

	wg.Wait()

	for i, ok := range seen {
		if !ok {
			t.Fatalf("item %d was never delivered", i)
		}
	}
}

// Pushing 0..31 into a 16-slot queue one push ahead of one pop at a time
// wraps the ring index twice; order must still come out 0..31 with every
// push succeeding and nothing left behind.
func TestSPSC_WraparoundPreservesOrder(t *testing.T) {
	q := New[int](16)

	var out int
	for i := 0; i < 32; i++ {
		if !q.TryPush(i) {
			t.Fatalf("push %d failed unexpectedly", i)
		}
		if !q.TryPop(&out) {
			t.Fatalf("pop after push %d failed unexpectedly", i)
		}
		if out != i {
			t.Fatalf("pop order violated at step %d: got %d", i, out)
		}
	}

	if q.SizeApprox() != 0 {
		t.Errorf("SizeApprox() = %d; want 0 after draining", q.SizeApprox())
	}
}

func TestSPSC_SizeApprox(t *testing.T) {
	q := New[int](16)
	if !q.EmptyApprox() {
		t.Error("expected empty on fresh queue")
	}
	q.TryPush(1)
	q.TryPush(2)
	if q.SizeApprox() != 2 {
		t.Errorf("SizeApprox() = %d; want 2", q.SizeApprox())
	}
}
