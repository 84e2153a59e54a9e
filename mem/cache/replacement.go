package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/sarchlab/cachesim/sim"
)

// A ReplacementPolicy decides which way to evict when a set is full.
type ReplacementPolicy interface {
	// Access records that the entry is used. It is called on every hit and
	// on every fill.
	Access(entry *Block)

	// SelectVictim picks the way to evict from the set. It is only called
	// when the set has no empty entry.
	SelectVictim(tag uint64, setID int) (set, way int)
}

// PolicyKind names a replacement policy.
type PolicyKind string

// All the replacement policies.
const (
	PolicyLRU        PolicyKind = "lru"
	PolicyRandom     PolicyKind = "random"
	PolicyRoundRobin PolicyKind = "roundrobin"
	PolicyPseudoLRU  PolicyKind = "plru"
)

// PolicyKinds lists all the replacement policies that can be configured.
var PolicyKinds = []PolicyKind{
	PolicyLRU, PolicyRandom, PolicyRoundRobin, PolicyPseudoLRU,
}

// ParsePolicyKind converts a policy name into a PolicyKind.
func ParsePolicyKind(name string) (PolicyKind, error) {
	kind := PolicyKind(strings.ToLower(name))

	for _, k := range PolicyKinds {
		if k == kind {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: unknown replacement policy %q",
		sim.ErrInvalidConfig, name)
}

type policyOptions struct {
	seed   int64
	seeded bool
}

func newReplacementPolicy(
	kind PolicyKind,
	numSets, numWays int,
	opts policyOptions,
) (ReplacementPolicy, error) {
	switch kind {
	case PolicyLRU:
		return NewLRU(numSets, numWays), nil
	case PolicyRoundRobin:
		return NewRoundRobin(numSets, numWays), nil
	case PolicyRandom:
		seed := opts.seed
		if !opts.seeded {
			seed = time.Now().UnixNano()
		}

		return NewRandom(numWays, seed), nil
	case PolicyPseudoLRU:
		return NewPseudoLRU(numSets, numWays)
	default:
		return nil, fmt.Errorf("%w: unknown replacement policy %q",
			sim.ErrInvalidConfig, kind)
	}
}
