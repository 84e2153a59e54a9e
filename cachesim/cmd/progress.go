package cmd

import (
	"github.com/sarchlab/cachesim/mem/acceptancetests/memaccessagent"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/sim"
)

// progressHook moves the progress bar forward after the agent is clocked.
type progressHook struct {
	agent    *memaccessagent.MemAccessAgent
	bar      *monitoring.ProgressBar
	reported uint64
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterClock || ctx.Item != h.agent {
		return
	}

	done := completedAccesses(h.agent)
	if done > h.reported {
		h.bar.IncrementFinished(done - h.reported)
		h.reported = done
	}
}

func completedAccesses(p sim.CounterProvider) uint64 {
	var done uint64

	for _, c := range p.Counters() {
		if c.Name == "reads_done" || c.Name == "writes_done" {
			done += c.Value
		}
	}

	return done
}
