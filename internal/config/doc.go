// Package config provides loading and environment overlay for grpcd server
// configuration. It exposes a Default() baseline, JSON file loading, a
// GRPCD_* environment overlay, and validation of the concurrency settings.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/grpcd.json"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
package config
