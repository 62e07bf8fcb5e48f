package client

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	grpctransport "github.com/qusijun/grpc/internal/transport/grpc"
)

// grpcAddrFromEnv returns the server address from GRPCD_ADDR or a default.
func grpcAddrFromEnv() string {
	if addr := os.Getenv("GRPCD_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:50051"
}

// NewPingCommand returns the "ping" subcommand: issues N unary or streaming
// calls and prints latency percentiles.
func NewPingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Probe a grpcd server with unary or streaming calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			count, _ := cmd.Flags().GetInt("count")
			size, _ := cmd.Flags().GetInt("size")
			streaming, _ := cmd.Flags().GetBool("streaming")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			if addr == "" {
				addr = grpcAddrFromEnv()
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			var lat []time.Duration
			if streaming {
				lat, err = pingStreaming(ctx, conn, count, size)
			} else {
				lat, err = pingUnary(ctx, conn, count, size)
			}
			if err != nil {
				return err
			}
			report(cmd, addr, streaming, lat)
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Server address (default GRPCD_ADDR or 127.0.0.1:50051)")
	cmd.Flags().Int("count", 10, "Number of calls to issue")
	cmd.Flags().Int("size", 64, "Requested response payload size in bytes")
	cmd.Flags().Bool("streaming", false, "Use one streaming call instead of unary calls")
	cmd.Flags().Duration("timeout", 30*time.Second, "Overall deadline")
	return cmd
}

// sizedRequest encodes the requested response size the way the benchmark
// handler expects it.
func sizedRequest(size int) *wrapperspb.BytesValue {
	req := make([]byte, 4)
	binary.BigEndian.PutUint32(req, uint32(size))
	return wrapperspb.Bytes(req)
}

func pingUnary(ctx context.Context, conn *grpc.ClientConn, count, size int) ([]time.Duration, error) {
	lat := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		start := time.Now()
		out := new(wrapperspb.BytesValue)
		if err := conn.Invoke(ctx, grpctransport.UnaryCallMethod, sizedRequest(size), out); err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		lat = append(lat, time.Since(start))
	}
	return lat, nil
}

func pingStreaming(ctx context.Context, conn *grpc.ClientConn, count, size int) ([]time.Duration, error) {
	cs, err := conn.NewStream(ctx, &grpctransport.StreamDesc, grpctransport.StreamingCallMethod)
	if err != nil {
		return nil, err
	}
	lat := make([]time.Duration, 0, count)
	for i := 0; i < count; i++ {
		start := time.Now()
		if err := cs.SendMsg(sizedRequest(size)); err != nil {
			return nil, fmt.Errorf("send %d: %w", i, err)
		}
		if err := cs.RecvMsg(new(wrapperspb.BytesValue)); err != nil {
			return nil, fmt.Errorf("recv %d: %w", i, err)
		}
		lat = append(lat, time.Since(start))
	}
	if err := cs.CloseSend(); err != nil {
		return nil, err
	}
	return lat, nil
}

func report(cmd *cobra.Command, addr string, streaming bool, lat []time.Duration) {
	shape := "unary"
	if streaming {
		shape = "streaming"
	}
	sorted := append([]time.Duration{}, lat...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	pct := func(p float64) time.Duration {
		if len(sorted) == 0 {
			return 0
		}
		idx := int(float64(len(sorted)-1) * p)
		return sorted[idx]
	}
	ok := color.New(color.FgGreen).SprintFunc()
	cmd.Printf("%s %d %s calls to %s\n", ok("ok:"), len(lat), shape, addr)
	cmd.Printf("p50=%v p90=%v p99=%v max=%v\n", pct(0.50), pct(0.90), pct(0.99), pct(1.0))
}
