// Package cache provides a set-associative cache that can be wired into a
// simulated memory hierarchy.
package cache

import (
	"fmt"
	"log"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/mem/cache/internal/mshr"
	"github.com/sarchlab/cachesim/sim"
)

// CompParams lists the parameters understood by Comp in addition to
// MemoryParams.
var CompParams = []ParamInfo{
	{"queueDepth", sim.KindInt, "4", "slots on each side of a connection"},
	{"mshrEntries", sim.KindInt, "4", "lines that can be fetched at once"},
	{"writebackDepth", sim.KindInt, "8", "dirty lines waiting to be written back"},
}

// A Comp is a cache component. Requesters connect to it with Connect and
// exchange requests and responses through the returned connection.
type Comp struct {
	*sim.ComponentBase
	sim.MiddlewareHolder

	memory *Memory
	params map[string]sim.ConfigValue
	setUp  bool

	queueDepth     int
	mshrEntries    int
	writebackDepth int

	conns      *sim.ConnectionTable
	nextLevel  sim.Connectable
	bottomConn *sim.Connection

	mshr               *mshr.MSHR
	writebackBuf       sim.Buffer
	inflightWritebacks map[string]*mem.WriteReq
	parked             map[sim.ConnID]bool

	flushing    bool
	flushCursor int

	stats Statistics
}

// NewComp creates a cache that still needs to be configured and set up.
// Use a Builder unless the parameters come from a generic source.
func NewComp(name string) *Comp {
	c := &Comp{
		ComponentBase:      sim.NewComponentBase(name),
		memory:             NewMemory(name),
		params:             make(map[string]sim.ConfigValue),
		inflightWritebacks: make(map[string]*mem.WriteReq),
		parked:             make(map[sim.ConnID]bool),
	}

	return c
}

// SetConfigParameter records a parameter of the cache.
func (c *Comp) SetConfigParameter(name string, value sim.ConfigValue) error {
	info, found := findParam(CompParams, name)
	if !found {
		return c.memory.SetConfigParameter(name, value)
	}

	if c.setUp {
		return sim.NewConfigError(c.Name(), name, sim.ErrAlreadySetUp)
	}

	if value.Kind() != info.Kind {
		return sim.NewConfigError(c.Name(), name,
			fmt.Errorf("%w: want %s, got %s",
				sim.ErrWrongValueType, info.Kind, value.Kind()))
	}

	c.params[name] = value

	return nil
}

// SetNextLevel sets the component that serves the misses of the cache.
// Without a next level, the cache is the last level of the hierarchy.
func (c *Comp) SetNextLevel(next sim.Connectable) {
	if c.setUp {
		log.Panicf("%s: cannot set next level after setup", c.Name())
	}

	c.nextLevel = next
}

// UsePolicy replaces the replacement policy that FinishSetup would create.
func (c *Comp) UsePolicy(p ReplacementPolicy) {
	c.memory.UsePolicy(p)
}

func (c *Comp) positiveParam(name string, def int) (int, error) {
	v, found := c.params[name]
	if !found {
		return def, nil
	}

	i, _ := v.AsInt()
	if i < 1 {
		return 0, sim.NewConfigError(c.Name(), name,
			fmt.Errorf("%w: must be at least 1, got %d",
				sim.ErrInvalidConfig, i))
	}

	return int(i), nil
}

// FinishSetup validates the parameters and allocates the state of the cache.
// It connects to the next level if there is one.
func (c *Comp) FinishSetup() error {
	if c.setUp {
		return sim.NewConfigError(c.Name(), "", sim.ErrAlreadySetUp)
	}

	var err error

	c.queueDepth, err = c.positiveParam("queueDepth", 4)
	if err != nil {
		return err
	}

	c.mshrEntries, err = c.positiveParam("mshrEntries", 4)
	if err != nil {
		return err
	}

	c.writebackDepth, err = c.positiveParam("writebackDepth", 8)
	if err != nil {
		return err
	}

	err = c.memory.FinishSetup()
	if err != nil {
		return err
	}

	c.conns = sim.NewConnectionTable(c.Name(), c.queueDepth)
	c.mshr = mshr.New(c.mshrEntries)
	c.writebackBuf = sim.NewBuffer(c.Name()+".WritebackBuf", c.writebackDepth)

	if c.nextLevel != nil {
		c.bottomConn = c.nextLevel.Connection(c.nextLevel.Connect())
	}

	c.AddMiddleware(&bottomInteraction{Comp: c})
	c.AddMiddleware(&flusher{Comp: c})
	c.AddMiddleware(&topParser{Comp: c})

	c.setUp = true

	return nil
}

func (c *Comp) mustBeSetUp() {
	if !c.setUp {
		log.Panicf("%s: cache is not set up", c.Name())
	}
}

// Connect creates a connection for a requester and returns its id. IDs are
// assigned from 0 in call order and decide the service order.
func (c *Comp) Connect() sim.ConnID {
	c.mustBeSetUp()

	return c.conns.Connect()
}

// Connection returns the connection with the id.
func (c *Comp) Connection(id sim.ConnID) *sim.Connection {
	c.mustBeSetUp()

	return c.conns.Connection(id)
}

// Memory returns the storage model of the cache.
func (c *Comp) Memory() *Memory {
	return c.memory
}

// IsLastLevel tells if the cache has no next level.
func (c *Comp) IsLastLevel() bool {
	return c.nextLevel == nil
}

// IsFlushing tells if a flush is in progress.
func (c *Comp) IsFlushing() bool {
	return c.flushing
}

// NumPendingMisses returns the number of lines being fetched.
func (c *Comp) NumPendingMisses() int {
	c.mustBeSetUp()

	return c.mshr.Len()
}

// Buffers returns all the queues of the cache.
func (c *Comp) Buffers() []sim.Buffer {
	c.mustBeSetUp()

	bufs := []sim.Buffer{c.writebackBuf}
	for _, conn := range c.conns.Connections() {
		bufs = append(bufs, conn.ReqBuf(), conn.RspBuf())
	}

	return bufs
}

// Clock processes one cycle. Every connection is visited in ascending id
// order and at most one request is taken from each.
func (c *Comp) Clock() bool {
	c.mustBeSetUp()

	return c.MiddlewareHolder.Tick()
}

// Flush writes back every dirty line and then invalidates the whole cache.
// Requests are not accepted until the flush completes.
func (c *Comp) Flush() {
	c.mustBeSetUp()

	c.flushing = true
	c.flushCursor = 0
}

// Read looks up the line that holds the address and records the access on a
// hit.
func (c *Comp) Read(addr uint64) (*Block, bool) {
	c.mustBeSetUp()

	return c.memory.Read(addr)
}

// Write stores the value in the line that holds the address and marks the
// line dirty. If the line is not present, it is installed in an empty entry
// or in place of a victim chosen by the replacement policy.
func (c *Comp) Write(addr, value uint64) (hit bool) {
	c.mustBeSetUp()

	entry, hit := c.memory.Read(addr)
	if !hit {
		var (
			victim  Block
			evicted bool
		)

		entry, victim, evicted = c.memory.Fill(addr, value)
		if evicted {
			c.evict(victim)
		}
	}

	entry.Value = value
	entry.Dirty = true

	return hit
}

func (c *Comp) evict(victim Block) {
	c.stats.Evictions++

	if !victim.Dirty || c.bottomConn == nil {
		return
	}

	c.queueWriteback(victim)
}

func (c *Comp) queueWriteback(line Block) {
	req := mem.WriteReqBuilder{}.
		WithSrc(c.Name()).
		WithDst(c.nextLevel.Name()).
		WithAddress(c.memory.LineAddress(line.Tag, line.SetID)).
		WithValue(line.Value).
		Build()

	c.writebackBuf.Push(req)
}

// canEvictInto tells if installing the line of the address cannot get stuck
// on a full writeback queue. Each outstanding miss keeps one writeback slot
// reserved for the eviction its fill may cause, so reserved slots are not
// available to the caller.
func (c *Comp) canEvictInto(addr uint64, reserved int) bool {
	if c.bottomConn == nil {
		return true
	}

	if _, found := c.memory.FindEmptyEntry(addr); found {
		return true
	}

	return c.freeWritebackSlots() > reserved
}

func (c *Comp) freeWritebackSlots() int {
	return c.writebackBuf.Capacity() - c.writebackBuf.Size()
}

func (c *Comp) respond(conn *sim.Connection, req mem.AccessReq, rsp sim.Msg) {
	err := conn.SendRsp(rsp)
	if err != nil {
		log.Panicf("%s: response slot of %s was reserved: %v",
			c.Name(), conn.Name(), err)
	}

	c.stats.RequestsServed++
	c.traceReqEnd(req)
}
