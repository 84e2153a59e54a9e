package cache

import (
	"log"

	"github.com/sarchlab/cachesim/mem"
)

// bottomInteraction is a middleware that handles the interaction between the
// cache and the next level.
type bottomInteraction struct {
	*Comp
}

func (b *bottomInteraction) Tick() bool {
	if b.bottomConn == nil {
		return false
	}

	madeProgress := false

	madeProgress = b.bottomUp() || madeProgress
	madeProgress = b.topDown() || madeProgress

	return madeProgress
}

func (b *bottomInteraction) topDown() bool {
	item := b.writebackBuf.Peek()
	if item == nil {
		return false
	}

	if !b.bottomConn.CanSendReq() {
		return false
	}

	req := item.(*mem.WriteReq)

	err := b.bottomConn.SendReq(req)
	if err != nil {
		log.Panicf("%s: %v", b.Name(), err)
	}

	b.writebackBuf.Pop()
	b.inflightWritebacks[req.ID] = req
	b.stats.Writebacks++
	b.traceReqToBottomStart(req, nil)

	return true
}

func (b *bottomInteraction) bottomUp() bool {
	item := b.bottomConn.PeekRsp()
	if item == nil {
		return false
	}

	switch rsp := item.(type) {
	case *mem.DataReadyRsp:
		return b.processDataReadyRsp(rsp)
	case *mem.WriteDoneRsp:
		return b.processWriteDoneRsp(rsp)
	default:
		log.Panicf("%s: unexpected response type %T", b.Name(), rsp)
	}

	return false
}

func (b *bottomInteraction) processDataReadyRsp(rsp *mem.DataReadyRsp) bool {
	pending := b.mshr.LookupByReqID(rsp.RespondTo)
	if pending == nil {
		log.Panicf("%s: no pending miss for response to %s",
			b.Name(), rsp.RespondTo)
	}

	if !b.canEvictInto(pending.Address, b.mshr.Len()-1) {
		return false
	}

	b.bottomConn.RetrieveRsp()

	line, victim, evicted := b.memory.Fill(pending.Address, rsp.Value)
	if evicted {
		b.evict(victim)
	}

	b.traceReqToBottomEnd(pending.ReadReq)

	for _, w := range pending.Waiters {
		conn := b.conns.Connection(w.Conn)
		read := w.Req.(*mem.ReadReq)

		reply := mem.DataReadyRspBuilder{}.
			WithSrc(b.Name()).
			WithDst(read.Src).
			WithRspTo(read.ID).
			WithValue(line.Value).
			Build()
		b.respond(conn, read, reply)

		delete(b.parked, w.Conn)
	}

	err := b.mshr.RemoveEntry(pending.Address)
	if err != nil {
		log.Panicf("%s: %v", b.Name(), err)
	}

	return true
}

func (b *bottomInteraction) processWriteDoneRsp(rsp *mem.WriteDoneRsp) bool {
	req, found := b.inflightWritebacks[rsp.RespondTo]
	if !found {
		log.Panicf("%s: no writeback for response to %s",
			b.Name(), rsp.RespondTo)
	}

	b.bottomConn.RetrieveRsp()
	delete(b.inflightWritebacks, rsp.RespondTo)
	b.traceReqToBottomEnd(req)

	return true
}
