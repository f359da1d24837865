// Package logging adapts pkg/logger to the application's port.Logger.
package logging

import (
	"context"

	"github.com/hapkiduki/stone-feeder/internal/application/port"
	"github.com/hapkiduki/stone-feeder/pkg/logger"
)

// adapter adapts the logger.Logger to the port.Logger interface.
type adapter struct {
	*logger.Logger
}

// Adapt wraps l as a port.Logger.
func Adapt(l *logger.Logger) port.Logger {
	return &adapter{l}
}

// Nop returns a port.Logger that discards everything.
func Nop() port.Logger {
	return Adapt(logger.NewNop())
}

// With implements port.Logger.
func (a *adapter) With(keysAndValues ...any) port.Logger {
	return &adapter{a.Logger.With(keysAndValues...)}
}

// WithContext implements port.Logger.
func (a *adapter) WithContext(ctx context.Context) port.Logger {
	return &adapter{a.Logger.WithContext(ctx)}
}
