package monitoring

import (
	"encoding/json"
	"sync"
	"time"
)

// A ProgressBar tracks how much of a known amount of work is done. It is
// safe to update from the simulation while the server reads it.
type ProgressBar struct {
	lock sync.Mutex

	id         string
	name       string
	startTime  time.Time
	total      uint64
	finished   uint64
	inProgress uint64
}

// NewProgressBar creates a progress bar that expects total items.
func NewProgressBar(id, name string, total uint64) *ProgressBar {
	return &ProgressBar{
		id:        id,
		name:      name,
		startTime: time.Now(),
		total:     total,
	}
}

// ProgressSnapshot is the state of a progress bar at one moment.
type ProgressSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// Snapshot returns a copy of the current state.
func (b *ProgressBar) Snapshot() ProgressSnapshot {
	b.lock.Lock()
	defer b.lock.Unlock()

	return ProgressSnapshot{
		ID:         b.id,
		Name:       b.name,
		StartTime:  b.startTime,
		Total:      b.total,
		Finished:   b.finished,
		InProgress: b.inProgress,
	}
}

// MarshalJSON encodes a snapshot of the bar.
func (b *ProgressBar) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Snapshot())
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.inProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.finished += amount
}

// MoveInProgressToFinished moves items from in progress to finished. No more
// items than are in progress are moved.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	amount = min(amount, b.inProgress)
	b.inProgress -= amount
	b.finished += amount
}
