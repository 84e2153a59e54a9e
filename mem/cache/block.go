package cache

// A Block is one slot of the cache array. SetID and WayID are the position
// of the block and never change after the array is allocated.
type Block struct {
	Tag   uint64
	SetID int
	WayID int
	Valid bool
	Dirty bool
	Value uint64
}
