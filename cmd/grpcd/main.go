package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/qusijun/grpc/internal/cmd/client"
	serverrun "github.com/qusijun/grpc/internal/cmd/server"
	cfgpkg "github.com/qusijun/grpc/internal/config"
	logpkg "github.com/qusijun/grpc/pkg/log"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "grpcd",
		Short: "Asynchronous gRPC dispatch server",
		Long:  "grpcd serves a benchmark gRPC surface through a completion-queue dispatch engine. This CLI manages the server and basic probes.",
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the grpcd server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			threads, _ := cmd.Flags().GetInt("threads")
			maxInflight, _ := cmd.Flags().GetInt("max-inflight")
			unary, _ := cmd.Flags().GetBool("unary")
			streaming, _ := cmd.Flags().GetBool("streaming")
			tlsCert, _ := cmd.Flags().GetString("tls-cert")
			tlsKey, _ := cmd.Flags().GetString("tls-key")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			logFile, _ := cmd.Flags().GetString("log-file")

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			// Flags win over file and environment.
			if cmd.Flags().Changed("grpc") {
				cfg.ListenAddr = grpcAddr
			}
			if cmd.Flags().Changed("threads") {
				cfg.Threads = threads
			}
			if cmd.Flags().Changed("max-inflight") {
				cfg.MaxInflight = maxInflight
			}
			if cmd.Flags().Changed("unary") {
				cfg.Unary = unary
			}
			if cmd.Flags().Changed("streaming") {
				cfg.Streaming = streaming
			}
			if tlsCert != "" {
				cfg.TLSCert = tlsCert
			}
			if tlsKey != "" {
				cfg.TLSKey = tlsKey
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return serverrun.Run(ctx, serverrun.Options{
				Config: cfg,
				Log: logpkg.Config{
					Level:  logLevel,
					Format: logFormat,
					File:   logFile,
				},
			})
		},
	}
	serverStartCmd.Flags().String("config", "", "Path to JSON config file")
	serverStartCmd.Flags().String("grpc", ":50051", "gRPC listen address")
	serverStartCmd.Flags().Int("threads", 0, "Worker count (0 = CPU count)")
	serverStartCmd.Flags().Int("max-inflight", 10000, "Total pre-armed call slots across all workers")
	serverStartCmd.Flags().Bool("unary", true, "Serve unary calls")
	serverStartCmd.Flags().Bool("streaming", true, "Serve streaming calls")
	serverStartCmd.Flags().String("tls-cert", os.Getenv("GRPCD_TLS_CERT"), "TLS certificate file (enables TLS with --tls-key)")
	serverStartCmd.Flags().String("tls-key", os.Getenv("GRPCD_TLS_KEY"), "TLS key file")
	serverStartCmd.Flags().String("log-level", os.Getenv("GRPCD_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("GRPCD_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().String("log-file", os.Getenv("GRPCD_LOG_FILE"), "Optional rotating log file")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	rootCmd.AddCommand(clientcmd.NewPingCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
