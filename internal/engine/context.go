package engine

import (
	"github.com/google/uuid"

	"github.com/qusijun/grpc/internal/cq"
	"github.com/qusijun/grpc/pkg/log"
)

// callContext is the capability every call shape exposes to the worker
// loop. advance runs the next state transition for a completion and reports
// whether the lifecycle is still going; reset re-arms a terminated slot for
// the next call. Neither is safe for concurrent use; a slot belongs to
// exactly one worker.
type callContext interface {
	advance(ok bool) bool
	reset()
}

type unaryState int

const (
	unaryAwaitingRequest unaryState = iota
	unaryFinishing
	unaryTerminated
)

// unaryContext drives one unary slot:
// AwaitingRequest -> Finishing -> Terminated.
type unaryContext struct {
	rt      Runtime
	q       *cq.Queue
	tag     cq.Tag
	handler Handler
	logger  log.Logger

	state  unaryState
	call   UnaryCall
	callID string
}

func newUnaryContext(rt Runtime, q *cq.Queue, tag cq.Tag, handler Handler, logger log.Logger) *unaryContext {
	c := &unaryContext{rt: rt, q: q, tag: tag, handler: handler, logger: logger}
	c.arm()
	return c
}

// arm issues the request registration for the next call, giving the slot a
// fresh per-call handle and lifecycle id.
func (c *unaryContext) arm() {
	c.callID = uuid.NewString()
	c.state = unaryAwaitingRequest
	c.call = c.rt.RequestUnary(c.q, c.tag)
}

func (c *unaryContext) advance(ok bool) bool {
	switch c.state {
	case unaryAwaitingRequest:
		if !ok {
			// Listener torn down while armed; nothing to respond to.
			c.state = unaryTerminated
			return false
		}
		resp, st := c.handler(c.call.Request())
		c.state = unaryFinishing
		c.call.Finish(resp, st)
		return true
	case unaryFinishing:
		// One response per unary call; any finish completion terminates.
		c.logger.Debug("unary call finished", log.Str("call_id", c.callID), log.Bool("ok", ok))
		c.state = unaryTerminated
		return false
	default:
		return false
	}
}

func (c *unaryContext) reset() { c.arm() }

type streamState int

const (
	streamAwaitingStart streamState = iota
	streamReadPending
	streamWritePending
	streamFinishing
	streamTerminated
)

// streamContext drives one bidirectional slot:
// AwaitingStart -> ReadPending <-> WritePending -> Finishing -> Terminated.
// The read/write loop runs once per exchanged pair; a failed read is the
// peer's end-of-input signal and the loop's only exit.
type streamContext struct {
	rt      Runtime
	q       *cq.Queue
	tag     cq.Tag
	handler Handler
	logger  log.Logger

	state  streamState
	call   StreamCall
	callID string
}

func newStreamContext(rt Runtime, q *cq.Queue, tag cq.Tag, handler Handler, logger log.Logger) *streamContext {
	c := &streamContext{rt: rt, q: q, tag: tag, handler: handler, logger: logger}
	c.arm()
	return c
}

func (c *streamContext) arm() {
	c.callID = uuid.NewString()
	c.state = streamAwaitingStart
	c.call = c.rt.RequestStream(c.q, c.tag)
}

func (c *streamContext) advance(ok bool) bool {
	switch c.state {
	case streamAwaitingStart:
		if !ok {
			c.state = streamTerminated
			return false
		}
		c.state = streamReadPending
		c.call.Read()
		return true
	case streamReadPending:
		if ok {
			resp, _ := c.handler(c.call.Request())
			c.state = streamWritePending
			c.call.Write(resp)
		} else {
			// Peer finished sending; close the stream.
			c.state = streamFinishing
			c.call.Finish(StatusOK)
		}
		return true
	case streamWritePending:
		if ok {
			c.state = streamReadPending
			c.call.Read()
		} else {
			c.state = streamFinishing
			c.call.Finish(StatusOK)
		}
		return true
	case streamFinishing:
		c.logger.Debug("stream finished", log.Str("call_id", c.callID), log.Bool("ok", ok))
		c.state = streamTerminated
		return false
	default:
		return false
	}
}

func (c *streamContext) reset() { c.arm() }
