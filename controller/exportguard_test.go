package controller

import (
	"sync"
	"testing"
)

func TestExportGuardSingleFlight(t *testing.T) {
	g := newExportGuard()

	if !g.tryAcquire(7) {
		t.Fatal("first acquire should succeed")
	}
	if g.tryAcquire(7) {
		t.Error("second acquire for the same invoice should fail while busy")
	}
	if !g.tryAcquire(8) {
		t.Error("acquire for a different invoice should succeed")
	}

	g.release(7)
	if !g.tryAcquire(7) {
		t.Error("acquire after release should succeed")
	}
}

func TestExportGuardConcurrent(t *testing.T) {
	g := newExportGuard()

	const workers = 50
	var wg sync.WaitGroup
	acquired := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.tryAcquire(1) {
				acquired <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(acquired)

	n := 0
	for range acquired {
		n++
	}
	if n != 1 {
		t.Errorf("exactly one worker should win, got %d", n)
	}
}
