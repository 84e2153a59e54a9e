package sim

import (
	"log"
)

// LogHookBase holds the logger of a hook that reports what happens during a
// simulation. A hook without a logger stays silent.
type LogHookBase struct {
	Logger *log.Logger
}

// Logf writes a line into the logger.
func (h *LogHookBase) Logf(format string, args ...any) {
	if h.Logger == nil {
		return
	}

	h.Logger.Printf(format, args...)
}

// TickLogger is a hook that prints which component is about to be clocked in
// which cycle. It should be attached to an engine.
type TickLogger struct {
	LogHookBase

	cycles CycleTeller
}

// NewTickLogger returns a new TickLogger which will write in to the logger
func NewTickLogger(logger *log.Logger, cycles CycleTeller) *TickLogger {
	return &TickLogger{
		LogHookBase: LogHookBase{Logger: logger},
		cycles:      cycles,
	}
}

// Func writes the clocking information into the logger
func (h *TickLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeClock {
		return
	}

	comp, ok := ctx.Item.(Component)
	if !ok {
		return
	}

	h.Logf("%d, %s", h.cycles.CurrentCycle(), comp.Name())
}
