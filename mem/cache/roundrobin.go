package cache

// RoundRobin evicts the ways of a set in turn. Accesses do not change its
// state.
type RoundRobin struct {
	numWays int
	cursors []int
}

// NewRoundRobin creates a RoundRobin policy for the given geometry.
func NewRoundRobin(numSets, numWays int) *RoundRobin {
	return &RoundRobin{
		numWays: numWays,
		cursors: make([]int, numSets),
	}
}

// Access does nothing.
func (p *RoundRobin) Access(*Block) {}

// SelectVictim returns the way under the cursor and moves the cursor to the
// next way.
func (p *RoundRobin) SelectVictim(_ uint64, setID int) (set, way int) {
	way = p.cursors[setID]
	p.cursors[setID] = (way + 1) % p.numWays

	return setID, way
}
