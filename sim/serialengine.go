package sim

import (
	"log"
	"sync"
)

// A SerialEngine clocks all the components one after another, in the order
// they are registered.
type SerialEngine struct {
	HookableBase

	freq Freq

	cycleLock sync.RWMutex
	cycle     uint64

	components []Component
	compNames  map[string]bool

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	simulationEndHandlers []SimulationEndHandler
}

// NewSerialEngine creates a SerialEngine that runs at the given frequency.
func NewSerialEngine(freq Freq) *SerialEngine {
	if freq <= 0 {
		log.Panic("frequency must be positive")
	}

	e := new(SerialEngine)
	e.freq = freq
	e.compNames = make(map[string]bool)

	return e
}

// RegisterComponent appends a component to the clocking order.
func (e *SerialEngine) RegisterComponent(c Component) {
	if e.compNames[c.Name()] {
		log.Panicf("component %s already registered", c.Name())
	}

	e.compNames[c.Name()] = true
	e.components = append(e.components, c)
}

// Components returns the components in clocking order.
func (e *SerialEngine) Components() []Component {
	return e.components
}

// Tick clocks every registered component exactly once and advances the
// cycle count.
func (e *SerialEngine) Tick() bool {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	progress := false

	for _, c := range e.components {
		if e.NumHooks() > 0 {
			e.InvokeHook(HookCtx{
				Domain: e,
				Pos:    HookPosBeforeClock,
				Item:   c,
			})
		}

		madeProgress := c.Clock()
		progress = madeProgress || progress

		if e.NumHooks() > 0 {
			e.InvokeHook(HookCtx{
				Domain: e,
				Pos:    HookPosAfterClock,
				Item:   c,
				Detail: madeProgress,
			})
		}
	}

	e.cycleLock.Lock()
	e.cycle++
	e.cycleLock.Unlock()

	return progress
}

// Run ticks until no component makes progress in a cycle. If maxCycles is
// positive and the simulation has not settled after that many cycles, Run
// returns ErrCycleLimit.
func (e *SerialEngine) Run(maxCycles uint64) error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	start := e.CurrentCycle()

	for {
		if maxCycles > 0 && e.CurrentCycle()-start >= maxCycles {
			return ErrCycleLimit
		}

		if !e.Tick() {
			return nil
		}
	}
}

// Pause prevents the SerialEngine from running more cycles.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue allows the SerialEngine to run more cycles.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// IsPaused tells whether the engine is paused.
func (e *SerialEngine) IsPaused() bool {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	return e.isPaused
}

// CurrentCycle returns the number of cycles that have completed.
func (e *SerialEngine) CurrentCycle() uint64 {
	e.cycleLock.RLock()
	defer e.cycleLock.RUnlock()

	return e.cycle
}

// CurrentTime returns the simulated time of the current cycle.
func (e *SerialEngine) CurrentTime() VTimeInSec {
	return e.freq.TimeOf(e.CurrentCycle())
}

// Freq returns the frequency the engine runs at.
func (e *SerialEngine) Freq() Freq {
	return e.freq
}

// RegisterSimulationEndHandler registers a handler to be called by Finished.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.simulationEndHandlers = append(e.simulationEndHandlers, handler)
}

// Finished should be called after the simulation ends. This function
// calls all the registered SimulationEndHandler.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.simulationEndHandlers {
		h.Handle(now)
	}
}
