package sim

import "io"

// A Component is an element that is being simulated. The engine clocks every
// component once per cycle.
type Component interface {
	Named
	Hookable

	// Clock lets the component process one cycle of work. It returns true if
	// the component made progress.
	Clock() bool

	// Flush resets the transient state of the component.
	Flush()

	// PrintStatistics dumps the counters of the component in a human-readable
	// format.
	PrintStatistics(w io.Writer)
}

// Counter is a named statistic value.
type Counter struct {
	Name  string
	Value uint64
}

// A CounterProvider exposes its statistics as a list of counters.
type CounterProvider interface {
	Named
	Counters() []Counter
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	HookableBase

	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	NameMustBeValid(name)

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the BasicComponent
func (c *ComponentBase) Name() string {
	return c.name
}
