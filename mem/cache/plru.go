package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/sim"
)

// PseudoLRU approximates LRU with a binary tree of direction bits per set.
// Node i has children 2i+1 and 2i+2. A false bit points to the left half and
// a true bit points to the right half. The bits always point to the half that
// was used least recently.
type PseudoLRU struct {
	numWays  int
	numNodes int
	bits     []bool
	ranges   [][2]int
}

// NewPseudoLRU creates a PseudoLRU policy. The number of ways must be a power
// of two.
func NewPseudoLRU(numSets, numWays int) (*PseudoLRU, error) {
	if numWays <= 0 || numWays&(numWays-1) != 0 {
		return nil, fmt.Errorf("%w: plru requires a power-of-two number "+
			"of ways, got %d", sim.ErrInvalidConfig, numWays)
	}

	p := &PseudoLRU{
		numWays:  numWays,
		numNodes: numWays - 1,
		bits:     make([]bool, numSets*(numWays-1)),
		ranges:   make([][2]int, numWays-1),
	}

	p.buildRanges(0, 0, numWays-1)

	return p, nil
}

func (p *PseudoLRU) buildRanges(node, l, r int) {
	if l == r {
		return
	}

	p.ranges[node] = [2]int{l, r}
	mid := (l + r) / 2
	p.buildRanges(2*node+1, l, mid)
	p.buildRanges(2*node+2, mid+1, r)
}

// Access points every node on the path to the accessed way at the other
// half.
func (p *PseudoLRU) Access(entry *Block) {
	bits := p.set(entry.SetID)
	way := entry.WayID

	node := 0
	for node < p.numNodes {
		l, r := p.ranges[node][0], p.ranges[node][1]
		mid := (l + r) / 2

		if way <= mid {
			bits[node] = true
			node = 2*node + 1
		} else {
			bits[node] = false
			node = 2*node + 2
		}
	}
}

// SelectVictim follows the bits from the root and flips each bit it passes.
func (p *PseudoLRU) SelectVictim(_ uint64, setID int) (set, way int) {
	bits := p.set(setID)

	node := 0
	l, r := 0, p.numWays-1
	for node < p.numNodes {
		mid := (l + r) / 2
		goRight := bits[node]
		bits[node] = !goRight

		if goRight {
			l = mid + 1
			node = 2*node + 2
		} else {
			r = mid
			node = 2*node + 1
		}
	}

	return setID, l
}

// Bits returns the direction bits of a set, in heap order.
func (p *PseudoLRU) Bits(setID int) []bool {
	return p.set(setID)
}

func (p *PseudoLRU) set(setID int) []bool {
	base := setID * p.numNodes
	return p.bits[base : base+p.numNodes]
}
