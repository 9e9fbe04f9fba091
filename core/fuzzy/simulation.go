package fuzzy

import (
	"fmt"
	"maps"

	"example.com/fuzzy-signal/base/floats"
)

type State int

const (
	Created State = iota
	InputsBound
	Computed
	Failed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case InputsBound:
		return "inputs bound"
	case Computed:
		return "computed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Simulation binds crisp inputs to a ControlSystem for one evaluation and
// holds the crisp outputs once computed. A Simulation must not be used from
// more than one goroutine at a time.
type Simulation struct {
	cs      *ControlSystem
	inputs  map[string]float64
	outputs map[string]float64
	state   State
}

func (s *Simulation) State() State { return s.state }

func (s *Simulation) checkInput(name string, value float64) error {
	v, ok := s.cs.vars[name]
	if !ok || v.role != Antecedent {
		return fmt.Errorf("%w: %q is not an antecedent", ErrUnknownVariable, name)
	}
	if !floats.IsFinite(value) {
		return fmt.Errorf("%w: %s = %v", ErrInvalidInput, name, value)
	}
	return nil
}

func (s *Simulation) bind() {
	clear(s.outputs)
	s.state = InputsBound
}

// SetInput binds a crisp value to the antecedent name, replacing any earlier
// value. Outputs of a previous Compute are discarded.
func (s *Simulation) SetInput(name string, value float64) error {
	err := s.checkInput(name, value)
	if err != nil {
		return err
	}
	s.inputs[name] = value
	s.bind()
	return nil
}

// SetInputs binds several inputs at once. Either all of them are bound or,
// on error, none.
func (s *Simulation) SetInputs(inputs map[string]float64) error {
	for name, value := range inputs {
		err := s.checkInput(name, value)
		if err != nil {
			return err
		}
	}
	maps.Copy(s.inputs, inputs)
	s.bind()
	return nil
}

func (s *Simulation) Input(name string) (float64, bool) {
	x, ok := s.inputs[name]
	return x, ok
}

// Reset drops all inputs and outputs.
func (s *Simulation) Reset() {
	clear(s.inputs)
	clear(s.outputs)
	s.state = Created
}

// Compute evaluates the bound inputs. On success every consequent has an
// output; on failure no output is published.
func (s *Simulation) Compute() error {
	outputs, err := s.cs.compute(s.inputs)
	clear(s.outputs)
	if err != nil {
		s.state = Failed
		return err
	}
	maps.Copy(s.outputs, outputs)
	s.state = Computed
	return nil
}

func (s *Simulation) Output(name string) (float64, bool) {
	y, ok := s.outputs[name]
	return y, ok
}

// Outputs returns a copy of the crisp outputs, empty unless the last
// Compute succeeded.
func (s *Simulation) Outputs() map[string]float64 {
	return maps.Clone(s.outputs)
}
