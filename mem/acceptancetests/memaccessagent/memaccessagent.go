// Package memaccessagent provides a requester that checks a memory system by
// generating a large number of read and write requests.
package memaccessagent

import (
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"reflect"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

var dumpLog = false

const maxAddressTrials = 16

// A MemAccessAgent is a Component that can help testing the cache and the
// memory controllers by generating a large number of read and write requests.
// All the addresses are aligned to lines. The agent remembers the last value
// written to every line and compares the values that reads return against it.
type MemAccessAgent struct {
	*sim.ComponentBase

	LowModule  sim.Connectable
	MaxAddress uint64
	LineSize   uint64
	CheckValue bool

	WriteLeft       int
	ReadLeft        int
	KnownMemValue   map[uint64]uint64
	PendingReadReq  map[string]*mem.ReadReq
	PendingWriteReq map[string]*mem.WriteReq
	Mismatches      int

	conn         *sim.Connection
	rng          *rand.Rand
	writtenLines []uint64
	readsDone    uint64
	writesDone   uint64
}

// NewMemAccessAgent creates a new agent. It needs to be connected to a low
// module before it is clocked.
func NewMemAccessAgent(name string, seed int64) *MemAccessAgent {
	agent := &MemAccessAgent{
		ComponentBase:   sim.NewComponentBase(name),
		LineSize:        64,
		CheckValue:      true,
		KnownMemValue:   make(map[uint64]uint64),
		PendingReadReq:  make(map[string]*mem.ReadReq),
		PendingWriteReq: make(map[string]*mem.WriteReq),
		rng:             rand.New(rand.NewPCG(uint64(seed), 1)),
	}

	return agent
}

// ConnectLowModule connects the agent to the module that serves its
// requests.
func (a *MemAccessAgent) ConnectLowModule(low sim.Connectable) {
	a.LowModule = low
	a.conn = low.Connection(low.Connect())
}

// Clock processes one response and issues one new request.
func (a *MemAccessAgent) Clock() bool {
	if a.conn == nil {
		log.Panicf("%s: not connected to a low module", a.Name())
	}

	madeProgress := false

	madeProgress = a.processMsgRsp() || madeProgress

	if a.ReadLeft == 0 && a.WriteLeft == 0 {
		return madeProgress
	}

	if a.shouldRead() {
		madeProgress = a.doRead() || madeProgress
	} else {
		madeProgress = a.doWrite() || madeProgress
	}

	return madeProgress
}

// Finished tells if all the requests are issued and answered.
func (a *MemAccessAgent) Finished() bool {
	return a.ReadLeft == 0 && a.WriteLeft == 0 &&
		len(a.PendingReadReq) == 0 && len(a.PendingWriteReq) == 0
}

func (a *MemAccessAgent) processMsgRsp() bool {
	msg := a.conn.RetrieveRsp()
	if msg == nil {
		return false
	}

	switch msg := msg.(type) {
	case *mem.WriteDoneRsp:
		write := a.PendingWriteReq[msg.RespondTo]
		delete(a.PendingWriteReq, msg.RespondTo)
		a.writesDone++

		if dumpLog {
			log.Printf("%s, write complete, 0x%X\n", a.Name(), write.Address)
		}

		return true
	case *mem.DataReadyRsp:
		req := a.PendingReadReq[msg.RespondTo]
		delete(a.PendingReadReq, msg.RespondTo)
		a.readsDone++

		if dumpLog {
			log.Printf("%s, read complete, 0x%X, %d\n",
				a.Name(), req.Address, msg.Value)
		}

		a.checkReadResult(req, msg)

		return true
	default:
		log.Panicf("cannot process message of type %s", reflect.TypeOf(msg))
	}

	return false
}

func (a *MemAccessAgent) checkReadResult(
	req *mem.ReadReq,
	rsp *mem.DataReadyRsp,
) {
	if !a.CheckValue {
		return
	}

	expected := a.KnownMemValue[a.lineOf(req.Address)]
	if rsp.Value != expected {
		a.Mismatches++
		log.Printf("%s: mismatch at address 0x%X, expected %d, got %d",
			a.Name(), req.Address, expected, rsp.Value)
	}
}

func (a *MemAccessAgent) shouldRead() bool {
	if len(a.writtenLines) == 0 {
		return false
	}

	if a.ReadLeft == 0 {
		return false
	}

	if a.WriteLeft == 0 {
		return true
	}

	return a.rng.Float64() > 0.5
}

func (a *MemAccessAgent) lineOf(addr uint64) uint64 {
	return addr &^ (a.LineSize - 1)
}

func (a *MemAccessAgent) doRead() bool {
	address, found := a.pickAddress(func() uint64 {
		return a.writtenLines[a.rng.IntN(len(a.writtenLines))]
	})
	if !found {
		return false
	}

	readReq := mem.ReadReqBuilder{}.
		WithSrc(a.Name()).
		WithDst(a.LowModule.Name()).
		WithAddress(address).
		Build()

	err := a.conn.SendReq(readReq)
	if err != nil {
		return false
	}

	a.PendingReadReq[readReq.ID] = readReq
	a.ReadLeft--

	if dumpLog {
		log.Printf("%s, read, 0x%X\n", a.Name(), address)
	}

	return true
}

func (a *MemAccessAgent) doWrite() bool {
	address, found := a.pickAddress(func() uint64 {
		return a.rng.Uint64N(a.MaxAddress/a.LineSize) * a.LineSize
	})
	if !found {
		return false
	}

	writeReq := mem.WriteReqBuilder{}.
		WithSrc(a.Name()).
		WithDst(a.LowModule.Name()).
		WithAddress(address).
		WithValue(a.rng.Uint64()).
		Build()

	err := a.conn.SendReq(writeReq)
	if err != nil {
		return false
	}

	line := a.lineOf(address)
	if _, written := a.KnownMemValue[line]; !written {
		a.writtenLines = append(a.writtenLines, line)
	}

	a.KnownMemValue[line] = writeReq.Value
	a.PendingWriteReq[writeReq.ID] = writeReq
	a.WriteLeft--

	if dumpLog {
		log.Printf("%s, write, 0x%X, %d\n", a.Name(), address, writeReq.Value)
	}

	return true
}

// pickAddress draws addresses until one is on a line without an outstanding
// request.
func (a *MemAccessAgent) pickAddress(draw func() uint64) (uint64, bool) {
	for i := 0; i < maxAddressTrials; i++ {
		addr := draw()
		if !a.isLineInPendingReq(a.lineOf(addr)) {
			return addr, true
		}
	}

	return 0, false
}

func (a *MemAccessAgent) isLineInPendingReq(line uint64) bool {
	for _, write := range a.PendingWriteReq {
		if a.lineOf(write.Address) == line {
			return true
		}
	}

	for _, read := range a.PendingReadReq {
		if a.lineOf(read.Address) == line {
			return true
		}
	}

	return false
}

// Flush does nothing.
func (a *MemAccessAgent) Flush() {}

// Counters returns the number of completed reads, completed writes, and
// mismatching reads.
func (a *MemAccessAgent) Counters() []sim.Counter {
	return []sim.Counter{
		{Name: "reads_done", Value: a.readsDone},
		{Name: "writes_done", Value: a.writesDone},
		{Name: "mismatches", Value: uint64(a.Mismatches)},
	}
}

// PrintStatistics writes the counters in a human-readable format.
func (a *MemAccessAgent) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "%s\n", a.Name())

	for _, counter := range a.Counters() {
		fmt.Fprintf(w, "\t%-16s %d\n", counter.Name, counter.Value)
	}
}
