package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
	"github.com/sarchlab/cachesim/tracing"
)

type memMiddleware struct {
	*Comp
}

func (m *memMiddleware) Tick() bool {
	madeProgress := false

	for _, conn := range m.conns.Connections() {
		madeProgress = m.handleReq(conn) || madeProgress
	}

	return madeProgress
}

func (m *memMiddleware) handleReq(conn *sim.Connection) bool {
	msg := conn.PeekReq()
	if msg == nil || !conn.CanSendRsp() {
		return false
	}

	conn.RetrieveReq()

	taskID := tracing.MsgIDAtReceiver(msg, m)
	tracing.StartTask(taskID, "", m, "req_in", reflect.TypeOf(msg).String(), msg)

	var rsp sim.Msg

	switch req := msg.(type) {
	case *mem.ReadReq:
		rsp = m.handleReadReq(req)
	case *mem.WriteReq:
		rsp = m.handleWriteReq(req)
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	err := conn.SendRsp(rsp)
	if err != nil {
		log.Panic(err)
	}

	tracing.EndTask(taskID, m)

	return true
}

func (m *memMiddleware) handleReadReq(req *mem.ReadReq) sim.Msg {
	value, err := m.Storage.ReadUint64(req.Address)
	if err != nil {
		log.Panic(err)
	}

	m.reads++

	return mem.DataReadyRspBuilder{}.
		WithSrc(m.Name()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithValue(value).
		WithHit(true).
		Build()
}

func (m *memMiddleware) handleWriteReq(req *mem.WriteReq) sim.Msg {
	err := m.Storage.WriteUint64(req.Address, req.Value)
	if err != nil {
		log.Panic(err)
	}

	m.writes++

	return mem.WriteDoneRspBuilder{}.
		WithSrc(m.Name()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithHit(true).
		Build()
}
