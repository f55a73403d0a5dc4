// Package logging hands out component-scoped structured loggers that share
// one handler and one level.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	level                = new(slog.LevelVar)
	handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
)

// New returns a logger tagged with component=name.
func New(component string) *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slog.New(handler).With(slog.String("component", component))
}

// SetLevel changes the level of every logger, including existing ones.
func SetLevel(l slog.Level) {
	level.Set(l)
}

// SetOutput redirects loggers created after the call.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
