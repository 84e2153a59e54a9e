package tracing

import (
	"log"
	"slices"

	"github.com/sarchlab/cachesim/sim"
)

// A Tracer receives the tasks reported by the domains it is attached to.
type Tracer interface {
	StartTask(task Task)
	TagTask(task Task)
	EndTask(task Task)
}

// CollectTrace attaches the tracer to the domain. A tracer can be attached to
// a domain only once.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	attached := slices.ContainsFunc(domain.Hooks(), func(h sim.Hook) bool {
		th, ok := h.(traceHook)
		return ok && th.tracer == tracer
	})
	if attached {
		log.Panicf("domain %s already has tracer %T", domain.Name(), tracer)
	}

	domain.AcceptHook(traceHook{tracer: tracer})
}

// traceHook forwards the task hook positions to a tracer.
type traceHook struct {
	tracer Tracer
}

func (h traceHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(task)
	case HookPosTaskTag:
		h.tracer.TagTask(task)
	case HookPosTaskEnd:
		h.tracer.EndTask(task)
	}
}
