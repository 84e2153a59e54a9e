package sim

import "log"

// A Simulation groups the engine with the components it clocks so that tools
// such as the monitor can look them up by name.
type Simulation struct {
	engine        *SerialEngine
	components    []Component
	compNameIndex map[string]int
}

// NewSimulation creates a new simulation driven by the given engine.
func NewSimulation(engine *SerialEngine) *Simulation {
	return &Simulation{
		engine:        engine,
		compNameIndex: make(map[string]int),
	}
}

// Engine returns the engine of the simulation.
func (s *Simulation) Engine() *SerialEngine {
	return s.engine
}

// RegisterComponent registers a component with the simulation and appends
// it to the engine's clocking order.
func (s *Simulation) RegisterComponent(c Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		log.Panicf("component %s already registered", compName)
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	s.engine.RegisterComponent(c)
}

// Components returns all the registered components in clocking order.
func (s *Simulation) Components() []Component {
	return s.components
}

// GetComponentByName returns the component with the given name, or nil if no
// such component is registered.
func (s *Simulation) GetComponentByName(name string) Component {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}
