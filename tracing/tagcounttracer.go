package tracing

import (
	"slices"
	"sync"
)

// TagCountTracer counts how many times each tag is attached to the tasks that
// pass the filter. Tags on tasks that already ended are ignored.
type TagCountTracer struct {
	filter TaskFilter

	lock sync.Mutex

	// Tags seen so far on every unfinished task.
	taskTags map[string]map[string]bool

	tagNames  []string
	tagCount  map[string]uint64
	taskCount map[string]uint64
}

// NewTagCountTracer creates a new TagCountTracer
func NewTagCountTracer(filter TaskFilter) *TagCountTracer {
	return &TagCountTracer{
		filter:    filter,
		taskTags:  make(map[string]map[string]bool),
		tagCount:  make(map[string]uint64),
		taskCount: make(map[string]uint64),
	}
}

// GetTagNames returns all the tag names collected, in the order they are
// first seen.
func (t *TagCountTracer) GetTagNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return slices.Clone(t.tagNames)
}

// GetTagCount returns the number of times a tag is recorded.
func (t *TagCountTracer) GetTagCount(tagName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tagCount[tagName]
}

// GetTaskCount returns the number of tasks that carry the tag.
func (t *TagCountTracer) GetTaskCount(tagName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount[tagName]
}

// StartTask starts tracking the task if it passes the filter.
func (t *TagCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.taskTags[task.ID] = make(map[string]bool)
}

// TagTask counts the tags if the task is tracked.
func (t *TagCountTracer) TagTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen, tracked := t.taskTags[task.ID]
	if !tracked {
		return
	}

	for _, tag := range task.Tags {
		if _, known := t.tagCount[tag.What]; !known {
			t.tagNames = append(t.tagNames, tag.What)
		}

		t.tagCount[tag.What]++

		if !seen[tag.What] {
			seen[tag.What] = true
			t.taskCount[tag.What]++
		}
	}
}

// EndTask stops tracking the task
func (t *TagCountTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.taskTags, task.ID)
}
