package cache

import (
	"reflect"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/tracing"
)

func (c *Comp) traceReqStart(req mem.AccessReq) {
	tracing.StartTask(
		tracing.ReqInTaskID(req.Meta().ID),
		tracing.ReqOutTaskID(req.Meta().ID),
		c,
		"req_in",
		reflect.TypeOf(req).String(),
		req,
	)
}

func (c *Comp) traceReqEnd(req mem.AccessReq) {
	tracing.EndTask(tracing.ReqInTaskID(req.Meta().ID), c)
}

func (c *Comp) traceReqToBottomStart(req, parent mem.AccessReq) {
	parentID := ""
	if parent != nil {
		parentID = tracing.ReqInTaskID(parent.Meta().ID)
	}

	tracing.StartTask(
		tracing.ReqOutTaskID(req.Meta().ID),
		parentID,
		c,
		"req_to_bottom",
		reflect.TypeOf(req).String(),
		req,
	)
}

func (c *Comp) traceReqToBottomEnd(req mem.AccessReq) {
	tracing.EndTask(tracing.ReqOutTaskID(req.Meta().ID), c)
}

func (c *Comp) tagMSHRHit(req mem.AccessReq) {
	tracing.TagTask(tracing.ReqInTaskID(req.Meta().ID), c, "mshr_hit")
}

func (c *Comp) tagCacheHit(req mem.AccessReq) {
	tracing.TagTask(tracing.ReqInTaskID(req.Meta().ID), c, "cache_hit")
}

func (c *Comp) tagCacheMiss(req mem.AccessReq) {
	tracing.TagTask(tracing.ReqInTaskID(req.Meta().ID), c, "cache_miss")
}
