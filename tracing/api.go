// Package tracing collects the tasks that components report through hooks.
package tracing

import (
	"log"

	"github.com/sarchlab/cachesim/sim"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	sim.Named
	sim.Hookable
}

// Hook positions at which tasks are reported. The item of the hook context is
// a Task.
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskTag   = &sim.HookPos{Name: "HookPosTaskTag"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// StartTask reports that the domain starts working on a task. The id, kind,
// and what of the task must not be empty.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if domain.NumHooks() == 0 {
		return
	}

	for field, value := range map[string]string{
		"id":     id,
		"domain": domain.Name(),
		"kind":   kind,
		"what":   what,
	} {
		if value == "" {
			log.Panicf("task %s must not be empty", field)
		}
	}

	notify(domain, HookPosTaskStart, Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Detail:   detail,
	})
}

// TagTask reports that something happened to a task, for example, a cache
// hit.
func TagTask(id string, domain NamedHookable, what string) {
	if domain.NumHooks() == 0 {
		return
	}

	notify(domain, HookPosTaskTag, Task{
		ID:   id,
		Tags: []TaskTag{{What: what}},
	})
}

// EndTask reports that the domain finished a task.
func EndTask(id string, domain NamedHookable) {
	if domain.NumHooks() == 0 {
		return
	}

	notify(domain, HookPosTaskEnd, Task{ID: id})
}

func notify(domain NamedHookable, pos *sim.HookPos, task Task) {
	task.Where = domain.Name()

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Pos:    pos,
		Item:   task,
	})
}

// MsgIDAtReceiver generates a standard ID for the message task at the
// message receiver.
func MsgIDAtReceiver(msg sim.Msg, domain NamedHookable) string {
	return msg.Meta().ID + "@" + domain.Name()
}

// ReqInTaskID returns the ID of the task that a component spends on serving
// an incoming request.
func ReqInTaskID(reqID string) string {
	return reqID + "_req_in"
}

// ReqOutTaskID returns the ID of the task that tracks an outgoing request.
func ReqOutTaskID(reqID string) string {
	return reqID + "_req_out"
}
