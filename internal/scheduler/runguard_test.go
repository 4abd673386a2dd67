package scheduler

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestRunGuard_SingleFlight(t *testing.T) {
	var g RunGuard

	release, ok := g.TryAcquire()
	if !ok {
		t.Fatal("first acquire should succeed")
	}
	if _, ok := g.TryAcquire(); ok {
		t.Fatal("second acquire should fail while held")
	}

	release()
	release() // idempotent

	release2, ok := g.TryAcquire()
	if !ok {
		t.Fatal("acquire after release should succeed")
	}
	release()
	if !g.Running() {
		t.Error("stale release must not free a newer holder")
	}
	release2()
	if g.Running() {
		t.Error("guard should be free")
	}
}

func TestRunGuard_ConcurrentAcquire(t *testing.T) {
	var g RunGuard
	var winners atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := g.TryAcquire(); ok {
				winners.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := winners.Load(); got != 1 {
		t.Errorf("winners = %d, want 1", got)
	}
}
