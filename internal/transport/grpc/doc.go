// Package grpctransport implements the engine's Runtime interface on top
// of google.golang.org/grpc.
//
// grpc-go delivers calls to synchronous handler functions, while the
// engine drives calls through completion queues. The bridge between the
// two is the armed-slot list: every RequestUnary/RequestStream arms one
// slot, an incoming RPC claims the oldest armed slot of its shape, posts
// the accept completion, and then services the engine's read/write/finish
// operations from the handler goroutine until the call retires. When no
// slot is armed the handler blocks, so an under-provisioned engine pool
// queues acceptances inside the transport.
//
// The service surface is a single benchmark service assembled by hand
// (no codegen), exchanging wrapperspb.BytesValue messages:
//
//	/qusijun.grpc.v1.Benchmark/UnaryCall
//	/qusijun.grpc.v1.Benchmark/StreamingCall
package grpctransport
