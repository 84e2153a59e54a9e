package tracing

import (
	"log"

	"github.com/sarchlab/cachesim/sim"
)

// LogTracer prints the task events into a logger, prefixed by the cycle
// number.
type LogTracer struct {
	sim.LogHookBase

	cycles sim.CycleTeller
}

// NewLogTracer creates a LogTracer.
func NewLogTracer(logger *log.Logger, cycles sim.CycleTeller) *LogTracer {
	return &LogTracer{
		LogHookBase: sim.LogHookBase{Logger: logger},
		cycles:      cycles,
	}
}

// StartTask prints the start of the task.
func (t *LogTracer) StartTask(task Task) {
	t.Logf("%d, start, %s, %s, %s, %s",
		t.cycles.CurrentCycle(), task.Where, task.ID, task.Kind, task.What)
}

// TagTask prints the tag of the task.
func (t *LogTracer) TagTask(task Task) {
	t.Logf("%d, tag, %s, %s, %s",
		t.cycles.CurrentCycle(), task.Where, task.ID, task.Tags[0].What)
}

// EndTask prints the end of the task.
func (t *LogTracer) EndTask(task Task) {
	t.Logf("%d, end, %s, %s",
		t.cycles.CurrentCycle(), task.Where, task.ID)
}
