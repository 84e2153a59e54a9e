package cache

import (
	"log"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

// topParser takes requests from the requesters. A request is only taken when
// everything it needs is available, so a response can always be sent.
type topParser struct {
	*Comp
}

func (p *topParser) Tick() bool {
	if p.flushing {
		return false
	}

	madeProgress := false
	stalled := false

	for _, conn := range p.conns.Connections() {
		if p.parked[conn.ID()] {
			continue
		}

		msg := conn.PeekReq()
		if msg == nil {
			continue
		}

		if p.parseReq(conn, msg) {
			madeProgress = true
		} else {
			stalled = true
		}
	}

	if stalled {
		p.stats.StallCycles++
	}

	return madeProgress
}

func (p *topParser) parseReq(conn *sim.Connection, msg sim.Msg) bool {
	if !conn.CanSendRsp() {
		return false
	}

	switch req := msg.(type) {
	case *mem.ReadReq:
		return p.handleRead(conn, req)
	case *mem.WriteReq:
		return p.handleWrite(conn, req)
	default:
		log.Panicf("%s: cannot handle request of type %T", p.Name(), msg)
	}

	return false
}

func (p *topParser) accept(conn *sim.Connection, req mem.AccessReq) {
	conn.RetrieveReq()
	p.traceReqStart(req)
}

func (p *topParser) handleRead(conn *sim.Connection, req *mem.ReadReq) bool {
	entry, hit := p.Read(req.Address)
	if hit {
		p.accept(conn, req)
		p.stats.Reads++
		p.stats.ReadHits++
		p.tagCacheHit(req)
		p.respond(conn, req, p.dataReady(req, entry.Value, true))

		return true
	}

	lineAddr := p.memory.AlignToLine(req.Address)

	if pending := p.mshr.Lookup(lineAddr); pending != nil {
		p.accept(conn, req)
		p.stats.Reads++
		p.stats.MSHRHits++
		p.tagMSHRHit(req)
		pending.AddWaiter(conn.ID(), req)
		p.parked[conn.ID()] = true

		return true
	}

	if p.IsLastLevel() {
		return p.handleLastLevelReadMiss(conn, req)
	}

	return p.handleReadMiss(conn, req, lineAddr)
}

func (p *topParser) handleLastLevelReadMiss(
	conn *sim.Connection,
	req *mem.ReadReq,
) bool {
	p.accept(conn, req)
	p.stats.Reads++
	p.stats.ReadMisses++
	p.tagCacheMiss(req)

	entry, victim, evicted := p.memory.Fill(req.Address, 0)
	if evicted {
		p.evict(victim)
	}

	p.respond(conn, req, p.dataReady(req, entry.Value, false))

	return true
}

func (p *topParser) handleReadMiss(
	conn *sim.Connection,
	req *mem.ReadReq,
	lineAddr uint64,
) bool {
	// Queued writebacks must reach the next level before later fetches. The
	// new miss also needs a writeback slot for the eviction of its fill.
	if p.mshr.IsFull() ||
		p.writebackBuf.Size() > 0 ||
		p.freeWritebackSlots() <= p.mshr.Len() ||
		!p.bottomConn.CanSendReq() {
		return false
	}

	p.accept(conn, req)
	p.stats.Reads++
	p.stats.ReadMisses++
	p.tagCacheMiss(req)

	readToBottom := mem.ReadReqBuilder{}.
		WithSrc(p.Name()).
		WithDst(p.nextLevel.Name()).
		WithAddress(lineAddr).
		Build()

	pending, err := p.mshr.AddEntry(readToBottom)
	if err != nil {
		log.Panicf("%s: %v", p.Name(), err)
	}

	pending.AddWaiter(conn.ID(), req)
	p.parked[conn.ID()] = true

	err = p.bottomConn.SendReq(readToBottom)
	if err != nil {
		log.Panicf("%s: request slot of %s was checked: %v",
			p.Name(), p.bottomConn.Name(), err)
	}

	p.traceReqToBottomStart(readToBottom, req)

	return true
}

func (p *topParser) handleWrite(conn *sim.Connection, req *mem.WriteReq) bool {
	lineAddr := p.memory.AlignToLine(req.Address)
	if p.mshr.Lookup(lineAddr) != nil {
		return false
	}

	if _, present := p.memory.GetEntry(req.Address); !present &&
		!p.canEvictInto(req.Address, p.mshr.Len()) {
		return false
	}

	p.accept(conn, req)
	p.stats.Writes++

	hit := p.Write(req.Address, req.Value)
	if hit {
		p.stats.WriteHits++
		p.tagCacheHit(req)
	} else {
		p.stats.WriteMisses++
		p.tagCacheMiss(req)
	}

	rsp := mem.WriteDoneRspBuilder{}.
		WithSrc(p.Name()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithHit(hit).
		Build()
	p.respond(conn, req, rsp)

	return true
}

func (p *topParser) dataReady(
	req *mem.ReadReq,
	value uint64,
	hit bool,
) *mem.DataReadyRsp {
	return mem.DataReadyRspBuilder{}.
		WithSrc(p.Name()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithValue(value).
		WithHit(hit).
		Build()
}
