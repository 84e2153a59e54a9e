package sim

import "errors"

// ErrCycleLimit is returned by Run when the simulation is still making
// progress after the allowed number of cycles.
var ErrCycleLimit = errors.New("cycle limit reached")

// TimeTeller can be used to get the current time.
type TimeTeller interface {
	CurrentTime() VTimeInSec
}

// CycleTeller can be used to get the current cycle.
type CycleTeller interface {
	CurrentCycle() uint64
}

// A SimulationEndHandler is a handler that is called after the simulation ends.
type SimulationEndHandler interface {
	Handle(now VTimeInSec)
}

// An Engine is a unit that keeps the tick-driven simulation running.
type Engine interface {
	Hookable
	TimeTeller
	CycleTeller

	// RegisterComponent adds a component to the clocking order. Components
	// are clocked in registration order every cycle.
	RegisterComponent(c Component)

	// Tick clocks every component exactly once. It returns true if any of
	// the components made progress.
	Tick() bool

	// Run ticks until a whole cycle makes no progress. A positive maxCycles
	// bounds the number of cycles run.
	Run(maxCycles uint64) error

	// Pause will pause the simulation until continue is called.
	Pause()

	// Continue will continue the paused simulation
	Continue()

	// RegisterSimulationEndHandler registers a handler that perform some
	// actions after the simulation is finished.
	RegisterSimulationEndHandler(handler SimulationEndHandler)

	// Finished invokes all the registered SimulationEndHandler
	Finished()
}
