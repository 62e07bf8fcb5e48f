package engine

import (
	"testing"
	"time"

	"github.com/qusijun/grpc/internal/cq"
)

func TestNewValidation(t *testing.T) {
	rt := &fakeRuntime{}
	if _, err := New(Config{Runtime: rt, Handler: EchoHandler()}); err == nil {
		t.Fatalf("no shapes enabled must fail")
	}
	if _, err := New(Config{Runtime: rt, Unary: true}); err == nil {
		t.Fatalf("missing handler must fail")
	}
	if _, err := New(Config{Handler: EchoHandler(), Unary: true, MaxInflight: 10, Threads: 1}); err == nil {
		t.Fatalf("missing runtime must fail")
	}
	// 100 slots cannot cover 64 workers x 2 shapes.
	if _, err := New(Config{Runtime: rt, Handler: EchoHandler(), Unary: true, Streaming: true, Threads: 64, MaxInflight: 100}); err == nil {
		t.Fatalf("under-provisioned pool must fail instead of arming zero slots")
	}
}

func TestPoolDistribution(t *testing.T) {
	rt := &fakeRuntime{}
	s, err := New(Config{Runtime: rt, Handler: EchoHandler(), Unary: true, Threads: 4, MaxInflight: 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Stop()

	if s.Slots() != 100 {
		t.Fatalf("slots = %d, want 100", s.Slots())
	}
	perQueue := make(map[*cq.Queue]int)
	for _, c := range rt.armedUnary() {
		perQueue[c.q]++
	}
	if len(perQueue) != 4 {
		t.Fatalf("queues used = %d, want 4", len(perQueue))
	}
	for q, n := range perQueue {
		if n != 25 {
			t.Fatalf("queue %p got %d slots, want 25", q, n)
		}
	}
}

func TestStopBeforeTrafficReleasesEverything(t *testing.T) {
	rt := &fakeRuntime{}
	s, err := New(Config{Runtime: rt, Handler: EchoHandler(), Unary: true, Threads: 4, MaxInflight: 100})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	done := make(chan struct{})
	go func() { s.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("stop did not complete")
	}

	if s.Slots() != 0 {
		t.Fatalf("slots not released: %d", s.Slots())
	}
	// Shutdown completes every armed slot exactly once with ok=false; no
	// slot may have been re-armed afterwards.
	if got := len(rt.armedUnary()); got != 100 {
		t.Fatalf("armed registrations = %d, want the original 100", got)
	}
	for _, c := range rt.armedUnary() {
		if c.finishCount != 0 {
			t.Fatalf("no finish may be issued during teardown")
		}
	}
	// All queues fully drained.
	for _, q := range s.queues {
		if _, ok := q.Next(); ok {
			t.Fatalf("queue not drained")
		}
	}

	// Idempotent.
	s.Stop()
}

func TestStopIsIdempotentConcurrently(t *testing.T) {
	rt := &fakeRuntime{}
	s, err := New(Config{Runtime: rt, Handler: EchoHandler(), Unary: true, Streaming: true, Threads: 2, MaxInflight: 40})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() { s.Stop(); done <- struct{}{} }()
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatalf("concurrent stop hung")
		}
	}
}

func TestWorkerExitsWithoutResetAfterShutdownFlag(t *testing.T) {
	rt := &fakeRuntime{}
	s, err := New(Config{Runtime: rt, Handler: EchoHandler(), Unary: true, Threads: 1, MaxInflight: 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Raise the flag first, then terminate the slot's lifecycle with a
	// failed accept. The worker must exit without re-arming.
	s.flags[0].raise()
	s.queues[0].Push(0, false)

	exited := make(chan struct{})
	go func() { s.wg.Wait(); close(exited) }()
	select {
	case <-exited:
	case <-time.After(5 * time.Second):
		t.Fatalf("worker did not exit on flag")
	}
	if got := len(rt.armedUnary()); got != 1 {
		t.Fatalf("armed = %d; shutdown must win over reset", got)
	}
	s.Stop()
}

func TestServedCallThenStop(t *testing.T) {
	rt := &fakeRuntime{}
	s, err := New(Config{Runtime: rt, Handler: EchoHandler(), Unary: true, Threads: 1, MaxInflight: 2})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	slot := rt.armedUnary()[0]
	slot.accept([]byte("ping"))

	// The worker accepts, invokes, finishes, and resets the slot, arming a
	// third registration.
	deadline := time.After(5 * time.Second)
	for len(rt.armedUnary()) < 3 {
		select {
		case <-deadline:
			t.Fatalf("slot was not reset after a served call; armed = %d", len(rt.armedUnary()))
		case <-time.After(time.Millisecond):
		}
	}
	if slot.finishCount != 1 {
		t.Fatalf("finish count = %d, want 1", slot.finishCount)
	}
	s.Stop()
}
