package cache

import (
	"fmt"
	"log"
	"math/bits"

	"github.com/sarchlab/cachesim/sim"
)

// ParamInfo describes a configuration parameter.
type ParamInfo struct {
	Name    string
	Kind    sim.ValueKind
	Default string
	Usage   string
}

// MemoryParams lists the parameters understood by Memory.
var MemoryParams = []ParamInfo{
	{"sets", sim.KindInt, "", "number of sets, derived from capacity if omitted"},
	{"ways", sim.KindInt, "", "associativity"},
	{"lineSize", sim.KindInt, "64", "bytes per line, a power of two"},
	{"capacity", sim.KindInt, "", "total bytes, cross-checked against sets"},
	{"policy", sim.KindString, "lru", "lru, random, roundrobin, or plru"},
	{"seed", sim.KindInt, "wall clock", "seed of the random policy"},
}

// Memory models the addressable storage of a set-associative cache. It owns
// the entries and the replacement policy that decides evictions.
type Memory struct {
	name string

	// Parameters, only used at FinishSetup.
	params map[string]sim.ConfigValue
	policy ReplacementPolicy

	setUp      bool
	numSets    int
	numWays    int
	lineSize   int
	offsetBits int
	policyKind PolicyKind
	entries    []Block
}

// NewMemory creates a Memory that is not set up yet. The name is only used
// in error messages.
func NewMemory(name string) *Memory {
	return &Memory{
		name:   name,
		params: make(map[string]sim.ConfigValue),
	}
}

// SetConfigParameter records a parameter. Parameters may arrive in any order
// and take effect at FinishSetup.
func (m *Memory) SetConfigParameter(name string, value sim.ConfigValue) error {
	if m.setUp {
		return sim.NewConfigError(m.name, name, sim.ErrAlreadySetUp)
	}

	info, found := findParam(MemoryParams, name)
	if !found {
		return sim.NewConfigError(m.name, name, sim.ErrUnknownParameter)
	}

	if value.Kind() != info.Kind {
		return sim.NewConfigError(m.name, name,
			fmt.Errorf("%w: want %s, got %s",
				sim.ErrWrongValueType, info.Kind, value.Kind()))
	}

	m.params[name] = value

	return nil
}

// UsePolicy replaces the replacement policy that FinishSetup would create.
// It must be sized for the final geometry of the cache.
func (m *Memory) UsePolicy(p ReplacementPolicy) {
	if m.setUp {
		log.Panicf("%s: cannot change policy after setup", m.name)
	}

	m.policy = p
}

func findParam(params []ParamInfo, name string) (ParamInfo, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}

	return ParamInfo{}, false
}

func (m *Memory) intParam(name string, def int64) (int64, bool) {
	v, found := m.params[name]
	if !found {
		return def, false
	}

	i, _ := v.AsInt()

	return i, true
}

// FinishSetup validates the parameters, allocates the entries, and creates
// the replacement policy.
func (m *Memory) FinishSetup() error {
	if m.setUp {
		return sim.NewConfigError(m.name, "", sim.ErrAlreadySetUp)
	}

	ways, hasWays := m.intParam("ways", 0)
	if !hasWays {
		return sim.NewConfigError(m.name, "ways", sim.ErrMissingParameter)
	}

	if ways < 1 {
		return m.invalid("ways", "must be at least 1, got %d", ways)
	}

	lineSize, _ := m.intParam("lineSize", 64)
	if lineSize < 1 || lineSize&(lineSize-1) != 0 {
		return m.invalid("lineSize", "must be a power of two, got %d",
			lineSize)
	}

	sets, err := m.resolveSets(ways, lineSize)
	if err != nil {
		return err
	}

	kind := PolicyLRU
	if v, found := m.params["policy"]; found {
		s, _ := v.AsString()

		kind, err = ParsePolicyKind(s)
		if err != nil {
			return sim.NewConfigError(m.name, "policy", err)
		}
	}

	if kind == PolicyPseudoLRU && ways&(ways-1) != 0 {
		return m.invalid("ways",
			"plru requires a power-of-two number of ways, got %d", ways)
	}

	seed, seeded := m.intParam("seed", 0)
	if seeded && kind != PolicyRandom {
		return m.invalid("seed", "only applies to the random policy")
	}

	policy := m.policy
	if policy == nil {
		policy, err = newReplacementPolicy(kind, int(sets), int(ways),
			policyOptions{seed: seed, seeded: seeded})
		if err != nil {
			return sim.NewConfigError(m.name, "ways", err)
		}
	}

	m.numSets = int(sets)
	m.numWays = int(ways)
	m.lineSize = int(lineSize)
	m.offsetBits = bits.TrailingZeros64(uint64(lineSize))
	m.policyKind = kind
	m.policy = policy
	m.allocateEntries()
	m.setUp = true

	return nil
}

func (m *Memory) resolveSets(ways, lineSize int64) (int64, error) {
	sets, hasSets := m.intParam("sets", 0)
	capacity, hasCapacity := m.intParam("capacity", 0)

	if hasCapacity {
		setBytes := ways * lineSize
		if capacity <= 0 || capacity%setBytes != 0 {
			return 0, m.invalid("capacity",
				"%d bytes is not a whole number of %d-byte sets",
				capacity, setBytes)
		}

		derived := capacity / setBytes
		if hasSets && sets != derived {
			return 0, m.invalid("capacity",
				"%d bytes holds %d sets, but sets is %d",
				capacity, derived, sets)
		}

		sets = derived
		hasSets = true
	}

	if !hasSets {
		return 0, sim.NewConfigError(m.name, "sets", sim.ErrMissingParameter)
	}

	if sets < 1 {
		return 0, m.invalid("sets", "must be at least 1, got %d", sets)
	}

	return sets, nil
}

func (m *Memory) invalid(param, format string, args ...any) error {
	return sim.NewConfigError(m.name, param,
		fmt.Errorf("%w: "+format, append([]any{sim.ErrInvalidConfig}, args...)...))
}

func (m *Memory) allocateEntries() {
	m.entries = make([]Block, m.numSets*m.numWays)

	for set := 0; set < m.numSets; set++ {
		for way := 0; way < m.numWays; way++ {
			e := &m.entries[set*m.numWays+way]
			e.SetID = set
			e.WayID = way
		}
	}
}

// IsSetUp tells if FinishSetup has completed successfully.
func (m *Memory) IsSetUp() bool {
	return m.setUp
}

func (m *Memory) mustBeSetUp() {
	if !m.setUp {
		log.Panicf("%s: memory is not set up", m.name)
	}
}

// NumSets returns the number of sets.
func (m *Memory) NumSets() int {
	return m.numSets
}

// NumWays returns the associativity.
func (m *Memory) NumWays() int {
	return m.numWays
}

// LineSize returns the number of bytes in a line.
func (m *Memory) LineSize() int {
	return m.lineSize
}

// PolicyKind returns the configured replacement policy.
func (m *Memory) PolicyKind() PolicyKind {
	return m.policyKind
}

// Policy returns the replacement policy paired with the memory.
func (m *Memory) Policy() ReplacementPolicy {
	return m.policy
}

// GetIndex returns the set that the address maps to.
func (m *Memory) GetIndex(addr uint64) int {
	m.mustBeSetUp()

	return int((addr >> m.offsetBits) % uint64(m.numSets))
}

// GetTag returns the tag bits of the address.
func (m *Memory) GetTag(addr uint64) uint64 {
	m.mustBeSetUp()

	return (addr >> m.offsetBits) / uint64(m.numSets)
}

// LineAddress rebuilds the address of the first byte of a line from its tag
// and set.
func (m *Memory) LineAddress(tag uint64, set int) uint64 {
	m.mustBeSetUp()

	return (tag*uint64(m.numSets) + uint64(set)) << m.offsetBits
}

// AlignToLine clears the offset bits of the address.
func (m *Memory) AlignToLine(addr uint64) uint64 {
	m.mustBeSetUp()

	return addr &^ (uint64(m.lineSize) - 1)
}

// Entry returns the entry at the given position.
func (m *Memory) Entry(set, way int) *Block {
	m.mustBeSetUp()

	return &m.entries[set*m.numWays+way]
}

func (m *Memory) set(set int) []Block {
	base := set * m.numWays
	return m.entries[base : base+m.numWays]
}

// GetEntry looks up the line that holds the address. On a miss it returns the
// first entry of the set and false. It returns nil and false before setup.
func (m *Memory) GetEntry(addr uint64) (*Block, bool) {
	if !m.setUp {
		return nil, false
	}

	set := m.GetIndex(addr)
	tag := m.GetTag(addr)
	entries := m.set(set)

	for i := range entries {
		if entries[i].Valid && entries[i].Tag == tag {
			return &entries[i], true
		}
	}

	return &entries[0], false
}

// FindEmptyEntry returns the first invalid entry of the set that the address
// maps to.
func (m *Memory) FindEmptyEntry(addr uint64) (*Block, bool) {
	if !m.setUp {
		return nil, false
	}

	entries := m.set(m.GetIndex(addr))

	for i := range entries {
		if !entries[i].Valid {
			return &entries[i], true
		}
	}

	return nil, false
}

// Install overwrites an entry in place. The entry must belong to the set, and
// no other valid entry of the set may hold the tag.
func (m *Memory) Install(entry *Block, tag uint64, set int, value uint64) {
	m.mustBeSetUp()

	if entry.SetID != set {
		log.Panicf("%s: installing set %d into an entry of set %d",
			m.name, set, entry.SetID)
	}

	for i, e := range m.set(set) {
		if i != entry.WayID && e.Valid && e.Tag == tag {
			log.Panicf("%s: tag 0x%x is already in set %d way %d",
				m.name, tag, set, i)
		}
	}

	entry.Tag = tag
	entry.Valid = true
	entry.Dirty = false
	entry.Value = value
}

// Read looks up the address and records the access on a hit.
func (m *Memory) Read(addr uint64) (*Block, bool) {
	entry, hit := m.GetEntry(addr)
	if hit {
		m.policy.Access(entry)
	}

	return entry, hit
}

// Fill installs the line of the address, which must not be present. An empty
// entry is used if the set has one. Otherwise, the replacement policy picks a
// victim, and a copy of the victim is returned with evicted set to true.
func (m *Memory) Fill(
	addr uint64,
	value uint64,
) (entry *Block, victim Block, evicted bool) {
	m.mustBeSetUp()

	tag := m.GetTag(addr)
	set := m.GetIndex(addr)

	entry, found := m.FindEmptyEntry(addr)
	if !found {
		victimSet, victimWay := m.policy.SelectVictim(tag, set)
		if victimSet != set || victimWay < 0 || victimWay >= m.numWays {
			log.Panicf("%s: policy selected set %d way %d for set %d",
				m.name, victimSet, victimWay, set)
		}

		entry = m.Entry(victimSet, victimWay)
		victim = *entry
		evicted = true
	}

	m.Install(entry, tag, set, value)
	m.policy.Access(entry)

	return entry, victim, evicted
}

// Invalidate marks an entry empty.
func (m *Memory) Invalidate(entry *Block) {
	entry.Valid = false
	entry.Dirty = false
}

// InvalidateAll marks every entry empty.
func (m *Memory) InvalidateAll() {
	for i := range m.entries {
		m.Invalidate(&m.entries[i])
	}
}

// ValidCount returns the number of valid entries in a set.
func (m *Memory) ValidCount(set int) int {
	m.mustBeSetUp()

	count := 0

	for _, e := range m.set(set) {
		if e.Valid {
			count++
		}
	}

	return count
}

// NextDirtyEntry returns the first valid dirty entry at or after the flat
// position from, and the position after it.
func (m *Memory) NextDirtyEntry(from int) (*Block, int, bool) {
	for i := from; i < len(m.entries); i++ {
		if m.entries[i].Valid && m.entries[i].Dirty {
			return &m.entries[i], i + 1, true
		}
	}

	return nil, len(m.entries), false
}
