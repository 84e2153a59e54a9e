package memaccessagent

import (
	"github.com/sarchlab/cachesim/sim"
)

// Builder builds MemAccessAgents.
type Builder struct {
	seed       int64
	maxAddress uint64
	lineSize   uint64
	writeLeft  int
	readLeft   int
	checkValue bool
	lowModule  sim.Connectable
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() *Builder {
	return &Builder{
		maxAddress: 1024 * 1024,
		lineSize:   64,
		writeLeft:  1000,
		readLeft:   1000,
		checkValue: true,
	}
}

// WithSeed sets the seed of the address and value generator.
func (b *Builder) WithSeed(seed int64) *Builder {
	b.seed = seed
	return b
}

// WithMaxAddress sets the upper bound, exclusive, of the generated addresses.
func (b *Builder) WithMaxAddress(addr uint64) *Builder {
	b.maxAddress = addr
	return b
}

// WithLineSize sets the granularity at which written values are tracked.
func (b *Builder) WithLineSize(lineSize uint64) *Builder {
	b.lineSize = lineSize
	return b
}

// WithWriteLeft sets the number of writes to issue.
func (b *Builder) WithWriteLeft(write int) *Builder {
	b.writeLeft = write
	return b
}

// WithReadLeft sets the number of reads to issue.
func (b *Builder) WithReadLeft(read int) *Builder {
	b.readLeft = read
	return b
}

// WithValueCheck sets if read results are compared with the written values.
func (b *Builder) WithValueCheck(check bool) *Builder {
	b.checkValue = check
	return b
}

// WithLowModule sets the module that serves the requests.
func (b *Builder) WithLowModule(low sim.Connectable) *Builder {
	b.lowModule = low
	return b
}

// Build creates the agent and connects it to the low module.
func (b *Builder) Build(name string) *MemAccessAgent {
	agent := NewMemAccessAgent(name, b.seed)
	agent.MaxAddress = b.maxAddress
	agent.LineSize = b.lineSize
	agent.WriteLeft = b.writeLeft
	agent.ReadLeft = b.readLeft
	agent.CheckValue = b.checkValue

	if b.lowModule != nil {
		agent.ConnectLowModule(b.lowModule)
	}

	return agent
}
