// Package log provides the structured logging facade used across grpcd.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Output is a pipeline of a Formatter
// (text or JSON) feeding one or more Outputs (console, rotating file).
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("engine"), log.Int("workers", 4))
//	l.Info("server started", log.Str("addr", ":50051"))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting
// JSON or text formatting and console plus optional rotating-file output.
package log
