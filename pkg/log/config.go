package log

import "fmt"

// Config declaratively describes a logger.
type Config struct {
	Level  string `json:"level"`  // debug|info|warn|error (default info)
	Format string `json:"format"` // text|json (default text)
	// File, when set, adds a rotating file output alongside the console.
	File           string `json:"file"`
	FileMaxSizeMB  int    `json:"fileMaxSizeMB"`
	FileMaxBackups int    `json:"fileMaxBackups"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	level := InfoLevel
	if cfg.Level != "" {
		l, err := ParseLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		level = l
	}

	var formatter Formatter
	switch cfg.Format {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	opts := []LoggerOption{
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(NewConsoleOutput()),
	}
	if cfg.File != "" {
		opts = append(opts, WithOutput(NewFileOutput(cfg.File, cfg.FileMaxSizeMB, cfg.FileMaxBackups)))
	}
	return NewLogger(opts...), nil
}
