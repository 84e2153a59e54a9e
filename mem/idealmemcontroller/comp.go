// Package idealmemcontroller provides a memory that answers every request in
// the cycle it arrives.
package idealmemcontroller

import (
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

// Params lists the parameters understood by Comp.
var Params = map[string]sim.ValueKind{
	"capacity":   sim.KindInt,
	"queueDepth": sim.KindInt,
}

// A Comp is an ideal memory controller. It takes at most one request from
// each connection per cycle and responds in the same cycle.
type Comp struct {
	*sim.ComponentBase
	sim.MiddlewareHolder

	Storage *mem.Storage

	params     map[string]sim.ConfigValue
	setUp      bool
	queueDepth int
	conns      *sim.ConnectionTable

	reads  uint64
	writes uint64
}

// NewComp creates a memory controller that still needs to be set up.
func NewComp(name string) *Comp {
	return &Comp{
		ComponentBase: sim.NewComponentBase(name),
		params:        make(map[string]sim.ConfigValue),
	}
}

// SetConfigParameter records a parameter of the memory controller.
func (c *Comp) SetConfigParameter(name string, value sim.ConfigValue) error {
	if c.setUp {
		return sim.NewConfigError(c.Name(), name, sim.ErrAlreadySetUp)
	}

	kind, found := Params[name]
	if !found {
		return sim.NewConfigError(c.Name(), name, sim.ErrUnknownParameter)
	}

	if value.Kind() != kind {
		return sim.NewConfigError(c.Name(), name,
			fmt.Errorf("%w: want %s, got %s",
				sim.ErrWrongValueType, kind, value.Kind()))
	}

	c.params[name] = value

	return nil
}

func (c *Comp) positiveParam(name string, def int64) (int64, error) {
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

	return i, nil
}

// FinishSetup validates the parameters and creates the storage, unless one is
// already given.
func (c *Comp) FinishSetup() error {
	if c.setUp {
		return sim.NewConfigError(c.Name(), "", sim.ErrAlreadySetUp)
	}

	capacity, err := c.positiveParam("capacity", int64(4*mem.GB))
	if err != nil {
		return err
	}

	queueDepth, err := c.positiveParam("queueDepth", 4)
	if err != nil {
		return err
	}

	if c.Storage == nil {
		c.Storage = mem.NewStorage(uint64(capacity))
	}

	c.queueDepth = int(queueDepth)
	c.conns = sim.NewConnectionTable(c.Name(), c.queueDepth)
	c.AddMiddleware(&memMiddleware{Comp: c})
	c.setUp = true

	return nil
}

func (c *Comp) mustBeSetUp() {
	if !c.setUp {
		log.Panicf("%s: memory controller is not set up", c.Name())
	}
}

// Connect creates a connection for a requester.
func (c *Comp) Connect() sim.ConnID {
	c.mustBeSetUp()

	return c.conns.Connect()
}

// Connection returns the connection with the id.
func (c *Comp) Connection(id sim.ConnID) *sim.Connection {
	c.mustBeSetUp()

	return c.conns.Connection(id)
}

// Buffers returns the queues of all the connections.
func (c *Comp) Buffers() []sim.Buffer {
	c.mustBeSetUp()

	var bufs []sim.Buffer
	for _, conn := range c.conns.Connections() {
		bufs = append(bufs, conn.ReqBuf(), conn.RspBuf())
	}

	return bufs
}

// Clock serves the requests that arrived.
func (c *Comp) Clock() bool {
	c.mustBeSetUp()

	return c.MiddlewareHolder.Tick()
}

// Flush does nothing. The controller does not hold transient state.
func (c *Comp) Flush() {}

// Counters returns the number of reads and writes served.
func (c *Comp) Counters() []sim.Counter {
	return []sim.Counter{
		{Name: "reads", Value: c.reads},
		{Name: "writes", Value: c.writes},
	}
}

// PrintStatistics writes the counters in a human-readable format.
func (c *Comp) PrintStatistics(w io.Writer) {
	fmt.Fprintf(w, "%s\n", c.Name())

	for _, counter := range c.Counters() {
		fmt.Fprintf(w, "\t%-16s %d\n", counter.Name, counter.Value)
	}
}
