package engine

import "github.com/qusijun/grpc/internal/cq"

// Status is the terminal outcome a handler reports for a call. Codes follow
// gRPC numbering so transports can map them one to one.
type Status struct {
	Code    uint32
	Message string
}

// OK reports whether the status is the zero (success) status.
func (s Status) OK() bool { return s.Code == CodeOK }

// Status codes used by the engine and its built-in handlers.
const (
	CodeOK       uint32 = 0
	CodeInternal uint32 = 13
)

// StatusOK is the zero status.
var StatusOK = Status{}

// Handler is the user-supplied RPC processing function. It runs
// synchronously on the worker goroutine that observed the request, so its
// latency directly stalls that worker's queue.
type Handler func(req []byte) ([]byte, Status)

// Runtime is the transport this engine drives. Every operation is
// asynchronous: the runtime reports completion by pushing (tag, ok) onto
// the queue bound at registration time. ok=false means the operation did
// not complete normally (listener torn down, peer finished sending); no
// structured error crosses this boundary.
type Runtime interface {
	// RequestUnary arms one unary call slot. When a call arrives the
	// runtime fills the returned handle and pushes an accept completion.
	RequestUnary(q *cq.Queue, tag cq.Tag) UnaryCall

	// RequestStream arms one streaming call slot. When a stream starts the
	// runtime pushes an accept completion on q.
	RequestStream(q *cq.Queue, tag cq.Tag) StreamCall

	// Shutdown stops the runtime from accepting new calls and completes
	// every still-armed slot with ok=false so queues drain. It blocks
	// until in-flight transport work has wound down.
	Shutdown()
}

// UnaryCall is the per-lifecycle handle for one unary slot.
type UnaryCall interface {
	// Request returns the decoded request. Valid only after the accept
	// completion reported ok=true.
	Request() []byte
	// Finish asynchronously sends the response and status, then pushes a
	// completion. Exactly one Finish per lifecycle. Must not block.
	Finish(resp []byte, st Status)
}

// StreamCall is the per-lifecycle handle for one streaming slot.
type StreamCall interface {
	// Read asynchronously reads the next message; the completion reports
	// ok=false when the peer has finished sending. Must not block.
	Read()
	// Request returns the message delivered by the last successful Read.
	Request() []byte
	// Write asynchronously sends one response message. Must not block.
	Write(resp []byte)
	// Finish asynchronously closes the stream with st. Must not block.
	Finish(st Status)
}
