package grpctransport

import "sync"

// armed is a FIFO of registered-but-unclaimed call slots. Arming never
// blocks (it runs on engine workers); claiming blocks until a slot is
// available or the list is closed.
type armed[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	slots  []T
	closed bool
}

func newArmed[T any]() *armed[T] {
	a := &armed[T]{}
	a.cond = sync.NewCond(&a.mu)
	return a
}

// put arms one slot. Reports false if the list is closed.
func (a *armed[T]) put(v T) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.slots = append(a.slots, v)
	a.cond.Signal()
	return true
}

// take claims the oldest armed slot, blocking until one is available. The
// second result is false once the list is closed.
func (a *armed[T]) take() (T, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.slots) == 0 && !a.closed {
		a.cond.Wait()
	}
	var zero T
	if a.closed {
		return zero, false
	}
	v := a.slots[0]
	a.slots = a.slots[1:]
	return v, true
}

// close rejects future puts and takes, returning the slots still armed.
func (a *armed[T]) close() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	rest := a.slots
	a.slots = nil
	a.cond.Broadcast()
	return rest
}
