package httplog

import (
	"context"
	"fmt"

	"cdr.dev/slog"
)

type writeFunc = func(ctx context.Context, msg string, args ...any)

// emitter writes log lines at a fixed severity and keeps any failure on the
// logging path away from the caller.
type emitter struct {
	logger slog.Logger
	write  writeFunc
}

func newEmitter(logger slog.Logger, level Level) emitter {
	writers := map[Level]writeFunc{
		LevelDebug: logger.Debug,
		LevelInfo:  logger.Info,
		LevelWarn:  logger.Warn,
		LevelError: logger.Error,
	}
	write, ok := writers[level]
	if !ok {
		write = logger.Debug
	}
	return emitter{logger: logger, write: write}
}

// emit writes the line produced by build. If build or the sink panics, the
// panic is logged once as a warning under failMsg and false is returned.
func (e emitter) emit(ctx context.Context, failMsg string, build func() (string, []any)) bool {
	return e.guard(ctx, failMsg, func() {
		msg, fields := build()
		e.write(ctx, msg, fields...)
	})
}

// guard runs fn, turning a panic into a single warning under failMsg.
func (e emitter) guard(ctx context.Context, failMsg string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			e.warn(ctx, failMsg, slog.Error(fmt.Errorf("panic: %v", r)))
		}
	}()

	fn()
	return true
}

// warn logs at LevelWarn regardless of the configured severity. A panicking
// sink is ignored.
func (e emitter) warn(ctx context.Context, msg string, args ...any) {
	defer func() {
		_ = recover()
	}()
	e.logger.Warn(ctx, msg, args...)
}

// debug is warn at LevelDebug.
func (e emitter) debug(ctx context.Context, msg string, args ...any) {
	defer func() {
		_ = recover()
	}()
	e.logger.Debug(ctx, msg, args...)
}
