package cq

import (
	"testing"
	"time"
)

func TestPushNextOrder(t *testing.T) {
	q := New()
	q.Push(1, true)
	q.Push(2, false)
	q.Push(3, true)
	for i, want := range []Completion{{1, true}, {2, false}, {3, true}} {
		c, ok := q.Next()
		if !ok {
			t.Fatalf("next %d: unexpected end of stream", i)
		}
		if c != want {
			t.Fatalf("next %d: got %+v want %+v", i, c, want)
		}
	}
}

func TestNextBlocksUntilPush(t *testing.T) {
	q := New()
	got := make(chan Completion, 1)
	go func() {
		c, ok := q.Next()
		if ok {
			got <- c
		}
	}()
	select {
	case <-got:
		t.Fatalf("next returned before push")
	case <-time.After(20 * time.Millisecond):
	}
	q.Push(7, true)
	select {
	case c := <-got:
		if c.Tag != 7 || !c.OK {
			t.Fatalf("got %+v", c)
		}
	case <-time.After(time.Second):
		t.Fatalf("next did not observe push")
	}
}

func TestShutdownDrainsBufferedCompletions(t *testing.T) {
	q := New()
	q.Push(1, true)
	q.Push(2, true)
	q.Shutdown()
	if ok := q.Push(3, true); ok {
		t.Fatalf("push after shutdown must be rejected")
	}
	if n := q.Drain(); n != 2 {
		t.Fatalf("drained %d, want 2", n)
	}
	if _, ok := q.Next(); ok {
		t.Fatalf("next after drain must report end of stream")
	}
}

func TestShutdownUnblocksConsumer(t *testing.T) {
	q := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Next()
		done <- ok
	}()
	time.Sleep(10 * time.Millisecond)
	q.Shutdown()
	q.Shutdown() // idempotent
	select {
	case ok := <-done:
		if ok {
			t.Fatalf("expected end of stream")
		}
	case <-time.After(time.Second):
		t.Fatalf("shutdown did not unblock consumer")
	}
}
