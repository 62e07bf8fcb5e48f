package engine

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/qusijun/grpc/internal/cq"
	"github.com/qusijun/grpc/pkg/log"
)

// Config describes one engine instance.
type Config struct {
	// Runtime is the transport to drive. Required.
	Runtime Runtime
	// Threads is the number of workers, each owning one queue. Zero or
	// negative selects the CPU count.
	Threads int
	// MaxInflight is the total number of pre-armed call slots, i.e. the
	// maximum number of concurrent in-flight accepts. Divided evenly
	// across workers and enabled shapes; every worker must end up with at
	// least one slot per enabled shape.
	MaxInflight int
	// Unary and Streaming select the call shapes to serve.
	Unary     bool
	Streaming bool
	// Handler processes every request, for both shapes. Required.
	Handler Handler
	// Logger defaults to a no-op logger.
	Logger log.Logger
}

// Server multiplexes a fixed pool of pre-armed call slots over per-worker
// completion queues. Construction starts accepting immediately; Stop is the
// only other lifecycle operation.
type Server struct {
	rt       Runtime
	queues   []*cq.Queue
	flags    []*shutdownFlag
	contexts []callContext
	wg       sync.WaitGroup
	logger   log.Logger
	stopOnce sync.Once
}

// New validates cfg, pre-populates the slot pool, and starts the workers.
func New(cfg Config) (*Server, error) {
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("engine: Runtime is required")
	}
	if cfg.Handler == nil {
		return nil, fmt.Errorf("engine: Handler is required")
	}
	if !cfg.Unary && !cfg.Streaming {
		return nil, fmt.Errorf("engine: at least one call shape must be enabled")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
		logger.Info("sizing engine to CPU count", log.Int("threads", threads))
	}

	shapes := 0
	if cfg.Unary {
		shapes++
	}
	if cfg.Streaming {
		shapes++
	}
	perWorker := cfg.MaxInflight / (threads * shapes)
	if perWorker == 0 {
		return nil, fmt.Errorf("engine: maxInflight %d cannot cover %d workers x %d shapes", cfg.MaxInflight, threads, shapes)
	}

	s := &Server{
		rt:     cfg.Runtime,
		queues: make([]*cq.Queue, threads),
		flags:  make([]*shutdownFlag, threads),
		logger: logger,
	}
	for i := range s.queues {
		s.queues[i] = cq.New()
		s.flags[i] = &shutdownFlag{}
	}

	// Round-robin the pool across queues: every worker gets perWorker
	// slots of each enabled shape. Arming happens inside the constructors,
	// so the server has its full accept window open before any worker
	// starts.
	for i := 0; i < perWorker; i++ {
		for j := 0; j < threads; j++ {
			if cfg.Unary {
				tag := cq.Tag(len(s.contexts))
				s.contexts = append(s.contexts, newUnaryContext(s.rt, s.queues[j], tag, cfg.Handler, logger))
			}
			if cfg.Streaming {
				tag := cq.Tag(len(s.contexts))
				s.contexts = append(s.contexts, newStreamContext(s.rt, s.queues[j], tag, cfg.Handler, logger))
			}
		}
	}

	s.wg.Add(threads)
	for i := 0; i < threads; i++ {
		go s.worker(i)
	}
	logger.Info("engine started",
		log.Int("threads", threads),
		log.Int("slots", len(s.contexts)),
		log.Bool("unary", cfg.Unary),
		log.Bool("streaming", cfg.Streaming),
	)
	return s, nil
}

// Slots returns the number of pre-armed call slots.
func (s *Server) Slots() int { return len(s.contexts) }

// Stop executes the shutdown sequence and blocks until complete: raise
// every worker's flag, shut the runtime down (which completes all armed
// slots with ok=false, guaranteeing each worker a wake-up), join the
// workers, then shut down and drain every queue, and finally release the
// slots. Draining after the join guarantees no slot is released while a
// worker could still touch it. Idempotent.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		for _, f := range s.flags {
			f.raise()
		}
		s.rt.Shutdown()
		s.wg.Wait()
		dropped := 0
		for _, q := range s.queues {
			q.Shutdown()
			dropped += q.Drain()
		}
		s.contexts = nil
		s.logger.Info("engine stopped", log.Int("drained", dropped))
	})
}
