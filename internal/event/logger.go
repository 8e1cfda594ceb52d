package event

import (
	"fmt"
	"log/slog"
)

// logger routes PostHog client noise through slog at debug level.
type logger struct{}

func (logger) Logf(format string, args ...any) {
	slog.Debug("PostHog: " + fmt.Sprintf(format, args...))
}

func (logger) Errorf(format string, args ...any) {
	slog.Error("PostHog: " + fmt.Sprintf(format, args...))
}
