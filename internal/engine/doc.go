// Package engine implements the asynchronous call dispatch core: a fixed
// pool of worker goroutines, each draining one completion queue, driving a
// per-slot state machine through the steps of one RPC lifecycle (accept,
// invoke, respond, loop for streams, re-arm).
//
// The engine owns when the next asynchronous step of an accepted call is
// issued; the transport behind the Runtime interface owns how. A fixed
// number of call slots is pre-armed at construction, bounding the server's
// concurrency. Each slot has at most one outstanding operation at any time,
// identified by its arena index, so a completion maps back to its slot in
// O(1) and a slot is only ever touched by the one worker owning its queue.
//
// Example:
//
//	srv, err := engine.New(engine.Config{
//	    Runtime:     rt,
//	    Threads:     4,
//	    MaxInflight: 1000,
//	    Unary:       true,
//	    Streaming:   true,
//	    Handler:     engine.SizedPayloadHandler(1 << 20),
//	})
//	if err != nil {
//	    return err
//	}
//	defer srv.Stop()
package engine
