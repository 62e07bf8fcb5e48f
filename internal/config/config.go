package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// ListenAddr is the gRPC listen address.
	ListenAddr string `json:"listenAddr"`
	// Threads is the number of worker goroutines, each owning one
	// completion queue. Zero or negative selects the CPU count.
	Threads int `json:"threads"`
	// MaxInflight is the total number of pre-armed call slots across all
	// queues, i.e. the server's maximum concurrency. Divided evenly
	// across workers at startup.
	MaxInflight int `json:"maxInflight"`
	// Unary and Streaming enable the respective call shapes. At least one
	// must be enabled.
	Unary     bool `json:"unary"`
	Streaming bool `json:"streaming"`
	// TLSCert/TLSKey, when both set, enable TLS on the listener.
	TLSCert string `json:"tlsCert"`
	TLSKey  string `json:"tlsKey"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		ListenAddr:  ":50051",
		Threads:     0,
		MaxInflight: 10000,
		Unary:       true,
		Streaming:   true,
	}
}

// Load reads configuration from a JSON file. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EffectiveThreads resolves the worker count, falling back to the CPU count
// when Threads is unset.
func (c Config) EffectiveThreads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return runtime.NumCPU()
}

// Validate checks the concurrency parameters. MaxInflight must cover at
// least one slot per worker per enabled shape; silently distributing zero
// slots to a worker would strand it with nothing to accept.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listenAddr must not be empty")
	}
	if !c.Unary && !c.Streaming {
		return fmt.Errorf("at least one of unary/streaming must be enabled")
	}
	threads := c.EffectiveThreads()
	if c.MaxInflight < threads {
		return fmt.Errorf("maxInflight %d is below thread count %d; every worker needs at least one slot", c.MaxInflight, threads)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tlsCert and tlsKey must be set together")
	}
	return nil
}
