// Package logging provides the process-wide structured logger used by every
// other package in the engine. It is a thin wrapper over zerolog so that
// call sites never import zerolog directly.
package logging

import (
	"context"

	"github.com/rs/zerolog"
)

var Logger zerolog.Logger

func init() {
	SetGlobalLogger(zerolog.Nop())
}

// SetGlobalLogger replaces the process-wide logger and makes it the default
// logger attached to a bare context.Context via zerolog.Ctx.
func SetGlobalLogger(logger zerolog.Logger) {
	Logger = logger
	zerolog.DefaultContextLogger = &Logger
}

func With() zerolog.Context { return Logger.With() }

func Err(err error) *zerolog.Event { return Logger.Err(err) }

func Trace() *zerolog.Event { return Logger.Trace() }

func Debug() *zerolog.Event { return Logger.Debug() }

func Info() *zerolog.Event { return Logger.Info() }

func Warn() *zerolog.Event { return Logger.Warn() }

func Error() *zerolog.Event { return Logger.Error() }

func WithLevel(level zerolog.Level) *zerolog.Event { return Logger.WithLevel(level) }

// Ctx returns the logger attached to ctx, or the global logger if none is
// attached.
func Ctx(ctx context.Context) *zerolog.Logger { return zerolog.Ctx(ctx) }
