package loader

import "sync/atomic"

// Lock is a non-blocking mutex guarding a Loader against overlapping loads.
type Lock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
func (l *Lock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Only the holder may call it.
func (l *Lock) Release() {
	l.state.Store(0)
}
