package config

import (
	"os"
	"strconv"
)

// FromEnv overlays GRPCD_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("GRPCD_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GRPCD_THREADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Threads = n
		}
	}
	if v := os.Getenv("GRPCD_MAX_INFLIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxInflight = n
		}
	}
	if v := os.Getenv("GRPCD_UNARY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Unary = b
		}
	}
	if v := os.Getenv("GRPCD_STREAMING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Streaming = b
		}
	}
	if v := os.Getenv("GRPCD_TLS_CERT"); v != "" {
		cfg.TLSCert = v
	}
	if v := os.Getenv("GRPCD_TLS_KEY"); v != "" {
		cfg.TLSKey = v
	}
}
