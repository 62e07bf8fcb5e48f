package grpctransport

import (
	"context"
	"errors"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/qusijun/grpc/internal/cq"
	"github.com/qusijun/grpc/internal/engine"
	"github.com/qusijun/grpc/pkg/log"
)

// Benchmark service surface, assembled by hand.
const (
	ServiceName         = "qusijun.grpc.v1.Benchmark"
	UnaryCallMethod     = "/qusijun.grpc.v1.Benchmark/UnaryCall"
	StreamingCallMethod = "/qusijun.grpc.v1.Benchmark/StreamingCall"
)

// StreamDesc describes the streaming method for raw clients.
var StreamDesc = grpc.StreamDesc{
	StreamName:    "StreamingCall",
	ServerStreams: true,
	ClientStreams: true,
}

type benchmarkServer interface{}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*benchmarkServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "UnaryCall", Handler: unaryCallHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamingCall", Handler: streamingCallHandler, ServerStreams: true, ClientStreams: true},
	},
	Metadata: "qusijun/grpc/v1/benchmark.proto",
}

// Runtime implements engine.Runtime over a grpc.Server.
type Runtime struct {
	srv         *grpc.Server
	unarySlots  *armed[*unarySlot]
	streamSlots *armed[*streamSlot]
	closed      chan struct{}
	logger      log.Logger
	lis         net.Listener
	once        sync.Once
}

// New builds a runtime and its gRPC server. Transport credentials are
// supplied as a grpc.Creds server option.
func New(logger log.Logger, opts ...grpc.ServerOption) *Runtime {
	if logger == nil {
		logger = log.NewNop()
	}
	rt := &Runtime{
		unarySlots:  newArmed[*unarySlot](),
		streamSlots: newArmed[*streamSlot](),
		closed:      make(chan struct{}),
		logger:      logger,
	}
	rt.srv = grpc.NewServer(opts...)
	rt.srv.RegisterService(&serviceDesc, rt)
	return rt
}

// Serve starts accepting connections on lis in the background.
func (rt *Runtime) Serve(lis net.Listener) {
	rt.lis = lis
	go func() {
		if err := rt.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			rt.logger.Error("grpc serve", log.Err(err))
		}
	}()
}

// Listen binds addr and starts serving. A bind failure (e.g. address
// already in use) is the constructing caller's only failure path.
func (rt *Runtime) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	rt.logger.Info("grpc transport listening", log.Str("addr", addr))
	rt.Serve(l)
	return nil
}

// RequestUnary implements engine.Runtime.
func (rt *Runtime) RequestUnary(q *cq.Queue, tag cq.Tag) engine.UnaryCall {
	s := &unarySlot{q: q, tag: tag, done: make(chan unaryResult, 1)}
	if !rt.unarySlots.put(s) {
		q.Push(tag, false)
	}
	return s
}

// RequestStream implements engine.Runtime.
func (rt *Runtime) RequestStream(q *cq.Queue, tag cq.Tag) engine.StreamCall {
	s := &streamSlot{q: q, tag: tag, cmds: make(chan streamCmd, 2)}
	if !rt.streamSlots.put(s) {
		q.Push(tag, false)
	}
	return s
}

// Shutdown implements engine.Runtime: stop accepting, fail every armed
// slot so the engine's queues see their completions, and wait for in-flight
// handlers to wind down.
func (rt *Runtime) Shutdown() {
	rt.once.Do(func() {
		close(rt.closed)
		for _, s := range rt.unarySlots.close() {
			s.q.Push(s.tag, false)
		}
		for _, s := range rt.streamSlots.close() {
			s.q.Push(s.tag, false)
		}
		rt.srv.GracefulStop()
		if rt.lis != nil {
			_ = rt.lis.Close()
		}
		rt.logger.Info("grpc transport stopped")
	})
}

type unaryResult struct {
	resp []byte
	st   engine.Status
}

// unarySlot is one armed unary registration. The engine side fills done via
// Finish; the handler goroutine owns req and the completion pushes.
type unarySlot struct {
	q    *cq.Queue
	tag  cq.Tag
	req  []byte
	done chan unaryResult
}

func (s *unarySlot) Request() []byte { return s.req }

// Finish hands the response to the handler goroutine. The channel holds one
// result, so this never blocks a worker.
func (s *unarySlot) Finish(resp []byte, st engine.Status) {
	s.done <- unaryResult{resp: resp, st: st}
}

func (rt *Runtime) unaryCall(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	slot, ok := rt.unarySlots.take()
	if !ok {
		return nil, status.Error(codes.Unavailable, "server is shutting down")
	}
	slot.req = in.GetValue()
	if !slot.q.Push(slot.tag, true) {
		return nil, status.Error(codes.Unavailable, "server is shutting down")
	}
	select {
	case res := <-slot.done:
		// Response handed to the transport; report the finish completion.
		slot.q.Push(slot.tag, true)
		if !res.st.OK() {
			return nil, status.Error(codes.Code(res.st.Code), res.st.Message)
		}
		return wrapperspb.Bytes(res.resp), nil
	case <-rt.closed:
		slot.q.Push(slot.tag, false)
		return nil, status.Error(codes.Unavailable, "server is shutting down")
	}
}

type streamCmdKind int

const (
	cmdRead streamCmdKind = iota
	cmdWrite
	cmdFinish
)

type streamCmd struct {
	kind streamCmdKind
	resp []byte
	st   engine.Status
}

// streamSlot is one armed streaming registration. Engine operations become
// commands serviced by the handler goroutine, which performs the blocking
// transport work and posts the matching completion.
type streamSlot struct {
	q    *cq.Queue
	tag  cq.Tag
	req  []byte
	cmds chan streamCmd
}

// The command channel must never block an engine worker. At most one
// operation is outstanding per slot, but when the handler abandons the
// stream at shutdown it stops consuming: a just-issued read or write can be
// left buffered, and the worker still sends one terminal finish when it
// sees the handler's failed completion. Capacity 2 holds that worst case.
func (s *streamSlot) Read()                   { s.cmds <- streamCmd{kind: cmdRead} }
func (s *streamSlot) Request() []byte         { return s.req }
func (s *streamSlot) Write(resp []byte)       { s.cmds <- streamCmd{kind: cmdWrite, resp: resp} }
func (s *streamSlot) Finish(st engine.Status) { s.cmds <- streamCmd{kind: cmdFinish, st: st} }

func (rt *Runtime) streamingCall(stream grpc.ServerStream) error {
	slot, ok := rt.streamSlots.take()
	if !ok {
		return status.Error(codes.Unavailable, "server is shutting down")
	}
	if !slot.q.Push(slot.tag, true) {
		return status.Error(codes.Unavailable, "server is shutting down")
	}
	for {
		select {
		case cmd := <-slot.cmds:
			switch cmd.kind {
			case cmdRead:
				in := new(wrapperspb.BytesValue)
				if err := stream.RecvMsg(in); err != nil {
					// End of the peer's input, reported as a failed
					// read, not an error.
					slot.q.Push(slot.tag, false)
					continue
				}
				slot.req = in.GetValue()
				slot.q.Push(slot.tag, true)
			case cmdWrite:
				err := stream.SendMsg(wrapperspb.Bytes(cmd.resp))
				slot.q.Push(slot.tag, err == nil)
			case cmdFinish:
				slot.q.Push(slot.tag, true)
				if !cmd.st.OK() {
					return status.Error(codes.Code(cmd.st.Code), cmd.st.Message)
				}
				return nil
			}
		case <-rt.closed:
			slot.q.Push(slot.tag, false)
			return status.Error(codes.Unavailable, "server is shutting down")
		}
	}
}

func unaryCallHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	rt := srv.(*Runtime)
	if interceptor == nil {
		return rt.unaryCall(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UnaryCallMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return rt.unaryCall(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func streamingCallHandler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(*Runtime).streamingCall(stream)
}
