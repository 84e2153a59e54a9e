package idealmemcontroller

import (
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

// Builder builds ideal memory controllers.
type Builder struct {
	capacity   uint64
	queueDepth int
	storage    *mem.Storage
}

// MakeBuilder returns a new Builder
func MakeBuilder() Builder {
	return Builder{
		capacity:   4 * mem.GB,
		queueDepth: 4,
	}
}

// WithNewStorage sets the capacity of the memory controller
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	return b
}

// WithStorage sets the storage of the memory controller
func (b Builder) WithStorage(storage *mem.Storage) Builder {
	b.storage = storage
	return b
}

// WithQueueDepth sets the number of messages each side of a connection can
// hold.
func (b Builder) WithQueueDepth(n int) Builder {
	b.queueDepth = n
	return b
}

// Build builds a new Comp
func (b Builder) Build(name string) (*Comp, error) {
	c := NewComp(name)
	c.Storage = b.storage

	capacity, err := sim.UintValue(b.capacity)
	if err != nil {
		return nil, sim.NewConfigError(name, "capacity", err)
	}

	err = c.SetConfigParameter("capacity", capacity)
	if err != nil {
		return nil, err
	}

	err = c.SetConfigParameter("queueDepth", sim.IntValue(int64(b.queueDepth)))
	if err != nil {
		return nil, err
	}

	err = c.FinishSetup()
	if err != nil {
		return nil, err
	}

	return c, nil
}
