package serverrun

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	cfgpkg "github.com/qusijun/grpc/internal/config"
	"github.com/qusijun/grpc/internal/engine"
	grpctransport "github.com/qusijun/grpc/internal/transport/grpc"
	logpkg "github.com/qusijun/grpc/pkg/log"
)

// maxResponseBytes caps the payload size the built-in benchmark handler
// will produce.
const maxResponseBytes = 4 << 20

// Options bundles everything Run needs.
type Options struct {
	Config cfgpkg.Config
	Log    logpkg.Config
	// Handler overrides the built-in benchmark handler when set.
	Handler engine.Handler
}

// Run starts the transport and engine and blocks until ctx is cancelled,
// then executes the full shutdown sequence.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logpkg.ApplyConfig(&opts.Log)
	if err != nil {
		return err
	}

	var grpcOpts []grpc.ServerOption
	if cfg.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return err
		}
		grpcOpts = append(grpcOpts, grpc.Creds(creds))
	}

	handler := opts.Handler
	if handler == nil {
		handler = engine.SizedPayloadHandler(maxResponseBytes)
	}

	rt := grpctransport.New(logger.WithComponent("transport"), grpcOpts...)
	eng, err := engine.New(engine.Config{
		Runtime:     rt,
		Threads:     cfg.EffectiveThreads(),
		MaxInflight: cfg.MaxInflight,
		Unary:       cfg.Unary,
		Streaming:   cfg.Streaming,
		Handler:     handler,
		Logger:      logger.WithComponent("engine"),
	})
	if err != nil {
		return err
	}

	// Listen after the pool is armed so the first call always finds a slot
	// waiting.
	if err := rt.Listen(cfg.ListenAddr); err != nil {
		eng.Stop()
		return err
	}
	logger.Info("grpcd started",
		logpkg.Str("addr", cfg.ListenAddr),
		logpkg.Int("threads", cfg.EffectiveThreads()),
		logpkg.Int("max_inflight", cfg.MaxInflight),
		logpkg.Bool("tls", cfg.TLSCert != ""),
	)

	<-sctx.Done()
	eng.Stop()
	logger.Info("grpcd stopped")
	return nil
}
