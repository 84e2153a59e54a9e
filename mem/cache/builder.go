package cache

import (
	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

// Builder can build caches.
type Builder struct {
	numSets        int
	numWays        int
	lineSize       int
	capacity       uint64
	policy         PolicyKind
	seed           int64
	seeded         bool
	queueDepth     int
	mshrEntries    int
	writebackDepth int
	nextLevel      sim.Connectable
}

// MakeBuilder creates a builder with the default parameters. The default
// cache is a 16 KB, 4-way, LRU cache with 64-byte lines.
func MakeBuilder() Builder {
	return Builder{
		numWays:        4,
		lineSize:       64,
		capacity:       16 * mem.KB,
		policy:         PolicyLRU,
		queueDepth:     4,
		mshrEntries:    4,
		writebackDepth: 8,
	}
}

// WithSets sets the number of sets. It replaces the capacity set earlier.
func (b Builder) WithSets(n int) Builder {
	b.numSets = n
	b.capacity = 0

	return b
}

// WithWays sets the associativity.
func (b Builder) WithWays(n int) Builder {
	b.numWays = n
	return b
}

// WithLineSize sets the number of bytes in a line.
func (b Builder) WithLineSize(n int) Builder {
	b.lineSize = n
	return b
}

// WithCapacity sets the total size of the cache in bytes. The number of sets
// is derived from it.
func (b Builder) WithCapacity(byteSize uint64) Builder {
	b.capacity = byteSize
	b.numSets = 0

	return b
}

// WithPolicy sets the replacement policy.
func (b Builder) WithPolicy(kind PolicyKind) Builder {
	b.policy = kind
	return b
}

// WithSeed sets the seed of the random replacement policy.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	b.seeded = true

	return b
}

// WithQueueDepth sets the number of messages each side of a connection can
// hold.
func (b Builder) WithQueueDepth(n int) Builder {
	b.queueDepth = n
	return b
}

// WithMSHREntries sets the number of lines that can be fetched from the next
// level at the same time.
func (b Builder) WithMSHREntries(n int) Builder {
	b.mshrEntries = n
	return b
}

// WithWritebackDepth sets the number of dirty lines that can wait to be
// written to the next level.
func (b Builder) WithWritebackDepth(n int) Builder {
	b.writebackDepth = n
	return b
}

// WithNextLevel sets the component that serves the misses.
func (b Builder) WithNextLevel(next sim.Connectable) Builder {
	b.nextLevel = next
	return b
}

// Build creates and sets up a cache.
func (b Builder) Build(name string) (*Comp, error) {
	c := NewComp(name)

	params, err := b.params()
	if err != nil {
		return nil, sim.NewConfigError(name, "capacity", err)
	}

	for _, p := range params {
		err = c.SetConfigParameter(p.name, p.value)
		if err != nil {
			return nil, err
		}
	}

	if b.nextLevel != nil {
		c.SetNextLevel(b.nextLevel)
	}

	err = c.FinishSetup()
	if err != nil {
		return nil, err
	}

	return c, nil
}

type namedValue struct {
	name  string
	value sim.ConfigValue
}

func (b Builder) params() ([]namedValue, error) {
	params := []namedValue{
		{"ways", sim.IntValue(int64(b.numWays))},
		{"lineSize", sim.IntValue(int64(b.lineSize))},
		{"policy", sim.StringValue(string(b.policy))},
		{"queueDepth", sim.IntValue(int64(b.queueDepth))},
		{"mshrEntries", sim.IntValue(int64(b.mshrEntries))},
		{"writebackDepth", sim.IntValue(int64(b.writebackDepth))},
	}

	if b.numSets > 0 {
		params = append(params,
			namedValue{"sets", sim.IntValue(int64(b.numSets))})
	}

	if b.capacity > 0 {
		capacity, err := sim.UintValue(b.capacity)
		if err != nil {
			return nil, err
		}

		params = append(params, namedValue{"capacity", capacity})
	}

	if b.seeded {
		params = append(params, namedValue{"seed", sim.IntValue(b.seed)})
	}

	return params, nil
}
