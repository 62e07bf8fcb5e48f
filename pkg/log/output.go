package log

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleOutput writes formatted entries to stderr (warn and above) or
// stdout (everything else).
type ConsoleOutput struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer
}

// NewConsoleOutput returns a ConsoleOutput bound to os.Stdout/os.Stderr.
func NewConsoleOutput() *ConsoleOutput {
	return &ConsoleOutput{out: os.Stdout, err: os.Stderr}
}

// Write implements Output.
func (c *ConsoleOutput) Write(entry *Entry, formatted []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	w := c.out
	if entry.Level >= WarnLevel {
		w = c.err
	}
	_, err := w.Write(formatted)
	return err
}

// Close implements Output. Console streams are not owned by the logger.
func (c *ConsoleOutput) Close() error { return nil }

// FileOutput writes formatted entries to a size-rotated log file.
type FileOutput struct {
	mu sync.Mutex
	lj *lumberjack.Logger
}

// NewFileOutput returns a FileOutput rotating at maxSizeMB megabytes and
// keeping maxBackups old files. Zero values select lumberjack defaults.
func NewFileOutput(path string, maxSizeMB, maxBackups int) *FileOutput {
	return &FileOutput{lj: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}}
}

// Write implements Output.
func (f *FileOutput) Write(_ *Entry, formatted []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.lj.Write(formatted)
	return err
}

// Close implements Output.
func (f *FileOutput) Close() error { return f.lj.Close() }
