package radio

import "sync"

// irqLock is the single exclusive-access primitive covering fields shared
// between interrupt and run context. Holding it plays the role of masking
// the radio interrupt sources: an interrupt (backend goroutine) attempting to
// publish a completion blocks until the guard is released.
type irqLock struct {
	mu sync.Mutex
}

// Guard is a scoped token of exclusive access to the shared buffer state,
// handed out by ScheduledRadio.Lock. It is released exactly once via Unlock,
// on every exit path (use defer). Nesting is not supported: acquiring a
// second Guard while holding one deadlocks, as re-arming interrupts from a
// masked section would on hardware.
type Guard struct {
	lock     *irqLock
	released bool
}

// Lock acquires exclusive access to the fields shared between interrupt and
// run context. Intended for the buffer management collaborator and for the
// radio's own interrupt/run paths; protocol logic never needs it directly.
func (r *ScheduledRadio) Lock() *Guard {
	r.guarded.lock.mu.Lock()
	return &Guard{lock: &r.guarded.lock}
}

// Unlock releases the guard and restores interrupt delivery. Releasing twice
// is a programming error and panics.
func (g *Guard) Unlock() {
	if g.released {
		panic("radio: guard released twice")
	}
	g.released = true
	g.lock.mu.Unlock()
}
