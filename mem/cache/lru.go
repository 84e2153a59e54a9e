package cache

// LRU evicts the least recently used way. Each way has a counter that grows
// every time another way in the same set is used.
type LRU struct {
	numWays  int
	counters []uint64
}

// NewLRU creates an LRU policy for the given geometry.
func NewLRU(numSets, numWays int) *LRU {
	return &LRU{
		numWays:  numWays,
		counters: make([]uint64, numSets*numWays),
	}
}

// Access resets the counter of the used way after aging the whole set.
func (p *LRU) Access(entry *Block) {
	set := p.set(entry.SetID)

	for i := range set {
		set[i]++
	}

	set[entry.WayID] = 0
}

// SelectVictim returns the way with the largest counter. The lowest way wins
// ties.
func (p *LRU) SelectVictim(_ uint64, setID int) (set, way int) {
	counters := p.set(setID)

	victim := 0
	for i := 1; i < len(counters); i++ {
		if counters[i] > counters[victim] {
			victim = i
		}
	}

	return setID, victim
}

// Counters returns the counters of a set.
func (p *LRU) Counters(setID int) []uint64 {
	return p.set(setID)
}

func (p *LRU) set(setID int) []uint64 {
	base := setID * p.numWays
	return p.counters[base : base+p.numWays]
}
