package engine

import "sync"

// shutdownFlag is the per-worker stop signal: one writer (Stop), one reader
// (the owning worker). Set once, never cleared.
type shutdownFlag struct {
	mu  sync.Mutex
	set bool
}

func (f *shutdownFlag) raise() {
	f.mu.Lock()
	f.set = true
	f.mu.Unlock()
}

func (f *shutdownFlag) raised() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

// worker drains one queue until end-of-stream or until it observes its
// shutdown flag after a completion. The flag check comes before any reset:
// once shutdown is requested no slot is re-armed, even if its lifecycle
// just terminated.
func (s *Server) worker(rank int) {
	defer s.wg.Done()
	q := s.queues[rank]
	flag := s.flags[rank]
	for {
		c, ok := q.Next()
		if !ok {
			return
		}
		ctx := s.contexts[c.Tag]
		stillGoing := ctx.advance(c.OK)
		if flag.raised() {
			return
		}
		if !stillGoing {
			ctx.reset()
		}
	}
}
