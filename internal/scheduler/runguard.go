package scheduler

import "sync/atomic"

// RunGuard is a process-local single-flight guard. The zero value is ready
// to use. It is owned by one job instance.
type RunGuard struct {
	running atomic.Bool
}

// TryAcquire claims the guard. When ok is false another run holds it and
// release is nil. The returned release is idempotent.
func (g *RunGuard) TryAcquire() (release func(), ok bool) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, false
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			g.running.Store(false)
		}
	}, true
}

// Running reports whether a run currently holds the guard.
func (g *RunGuard) Running() bool {
	return g.running.Load()
}
