package engine

import (
	"sync"

	"github.com/qusijun/grpc/internal/cq"
)

// fakeRuntime records registrations and lets tests complete operations by
// hand, standing in for a real transport.
type fakeRuntime struct {
	mu      sync.Mutex
	unary   []*fakeUnaryCall
	streams []*fakeStreamCall
	down    bool
}

func (rt *fakeRuntime) RequestUnary(q *cq.Queue, tag cq.Tag) UnaryCall {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	c := &fakeUnaryCall{q: q, tag: tag}
	if rt.down {
		c.dead = true
		q.Push(tag, false)
	}
	rt.unary = append(rt.unary, c)
	return c
}

func (rt *fakeRuntime) RequestStream(q *cq.Queue, tag cq.Tag) StreamCall {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	c := &fakeStreamCall{q: q, tag: tag}
	if rt.down {
		c.dead = true
		q.Push(tag, false)
	}
	rt.streams = append(rt.streams, c)
	return c
}

// Shutdown fails every armed slot that has not been accepted, mirroring a
// real transport cancelling pending accepts.
func (rt *fakeRuntime) Shutdown() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.down {
		return
	}
	rt.down = true
	for _, c := range rt.unary {
		if !c.accepted && !c.dead {
			c.dead = true
			c.q.Push(c.tag, false)
		}
	}
	for _, c := range rt.streams {
		if !c.accepted && !c.dead {
			c.dead = true
			c.q.Push(c.tag, false)
		}
	}
}

func (rt *fakeRuntime) armedUnary() []*fakeUnaryCall {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]*fakeUnaryCall{}, rt.unary...)
}

func (rt *fakeRuntime) armedStreams() []*fakeStreamCall {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]*fakeStreamCall{}, rt.streams...)
}

type fakeUnaryCall struct {
	q        *cq.Queue
	tag      cq.Tag
	req      []byte
	accepted bool
	dead     bool

	finishCount  int
	finishResp   []byte
	finishStatus Status
}

// accept delivers a request and posts the accept completion.
func (c *fakeUnaryCall) accept(req []byte) {
	c.req = req
	c.accepted = true
	c.q.Push(c.tag, true)
}

func (c *fakeUnaryCall) Request() []byte { return c.req }

func (c *fakeUnaryCall) Finish(resp []byte, st Status) {
	c.finishCount++
	c.finishResp = resp
	c.finishStatus = st
	c.q.Push(c.tag, true)
}

type fakeStreamCall struct {
	q        *cq.Queue
	tag      cq.Tag
	req      []byte
	accepted bool
	dead     bool

	pending [][]byte // messages the peer will send, nil entry = end of input
	reads   int
	writes  [][]byte
	writeOK bool

	finishCount  int
	finishStatus Status
}

func (c *fakeStreamCall) accept(messages ...[]byte) {
	c.pending = nil
	c.pending = append(c.pending, messages...)
	c.writeOK = true
	c.accepted = true
	c.q.Push(c.tag, true)
}

func (c *fakeStreamCall) Read() {
	c.reads++
	if len(c.pending) == 0 {
		c.q.Push(c.tag, false)
		return
	}
	c.req = c.pending[0]
	c.pending = c.pending[1:]
	c.q.Push(c.tag, true)
}

func (c *fakeStreamCall) Request() []byte { return c.req }

func (c *fakeStreamCall) Write(resp []byte) {
	c.writes = append(c.writes, resp)
	c.q.Push(c.tag, c.writeOK)
}

func (c *fakeStreamCall) Finish(st Status) {
	c.finishCount++
	c.finishStatus = st
	c.q.Push(c.tag, true)
}

// countingHandler wraps a handler and counts invocations.
type countingHandler struct {
	mu    sync.Mutex
	calls int
	inner Handler
}

func (h *countingHandler) fn(req []byte) ([]byte, Status) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return h.inner(req)
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}
