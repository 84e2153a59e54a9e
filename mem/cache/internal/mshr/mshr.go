// Package mshr provides the miss-status holding registers that track the
// cache lines being fetched from the next level.
package mshr

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem"
	"github.com/sarchlab/cachesim/sim"
)

// A Waiter is a request that waits for a line to arrive.
type Waiter struct {
	Conn sim.ConnID
	Req  mem.AccessReq
}

// An Entry tracks one line that is being fetched.
type Entry struct {
	Address uint64
	ReadReq *mem.ReadReq
	Waiters []Waiter
}

// AddWaiter appends a request that will be answered when the line arrives.
func (e *Entry) AddWaiter(conn sim.ConnID, req mem.AccessReq) {
	e.Waiters = append(e.Waiters, Waiter{Conn: conn, Req: req})
}

// MSHR records cache's request to bottom memory.
type MSHR struct {
	capacity int
	entries  []*Entry
}

// New creates a new MSHR that can track up to capacity lines.
func New(capacity int) *MSHR {
	if capacity <= 0 {
		panic("MSHR capacity must be positive")
	}

	return &MSHR{
		capacity: capacity,
	}
}

// Lookup returns the entry of the line address, or nil if the line is not
// being fetched.
func (m *MSHR) Lookup(addr uint64) *Entry {
	for _, e := range m.entries {
		if e.Address == addr {
			return e
		}
	}

	return nil
}

// LookupByReqID returns the entry whose request to the next level has the
// given ID.
func (m *MSHR) LookupByReqID(reqID string) *Entry {
	for _, e := range m.entries {
		if e.ReadReq.ID == reqID {
			return e
		}
	}

	return nil
}

// AddEntry starts tracking the line requested by readToBottom.
func (m *MSHR) AddEntry(readToBottom *mem.ReadReq) (*Entry, error) {
	if m.Lookup(readToBottom.Address) != nil {
		return nil, fmt.Errorf(
			"trying to add an address that is already in MSHR")
	}

	if m.IsFull() {
		return nil, fmt.Errorf("trying to add to a full MSHR")
	}

	entry := &Entry{
		Address: readToBottom.Address,
		ReadReq: readToBottom,
	}

	m.entries = append(m.entries, entry)

	return entry, nil
}

// RemoveEntry stops tracking the line address.
func (m *MSHR) RemoveEntry(addr uint64) error {
	for i, e := range m.entries {
		if e.Address == addr {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("trying to remove an non-exist entry")
}

// Entries returns the entries in the order they are added.
func (m *MSHR) Entries() []*Entry {
	return m.entries
}

// Len returns the number of lines being tracked.
func (m *MSHR) Len() int {
	return len(m.entries)
}

// Capacity returns the maximum number of lines that can be tracked.
func (m *MSHR) Capacity() int {
	return m.capacity
}

// IsFull tells if no more line can be tracked.
func (m *MSHR) IsFull() bool {
	return len(m.entries) >= m.capacity
}

// Reset drops all the entries.
func (m *MSHR) Reset() {
	m.entries = nil
}
