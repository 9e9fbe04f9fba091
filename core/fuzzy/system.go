package fuzzy

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/base/floats"
	"example.com/fuzzy-signal/base/zaplog"
)

type options struct {
	clipToBounds bool
	log          *zap.Logger
}

type Option func(*options)

// WithClipToBounds clamps crisp inputs to their universe before
// fuzzification. Without it, inputs outside the universe are evaluated
// as-is.
func WithClipToBounds(clip bool) Option {
	return func(o *options) { o.clipToBounds = clip }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// ControlSystem is a Mamdani inference engine over a fixed rule base:
// min conjunction, min implication, max aggregation and centroid
// defuzzification. It is immutable after construction and safe for
// concurrent use; per-evaluation state lives in a Simulation.
type ControlSystem struct {
	opts        options
	vars        map[string]*Variable
	antecedents []*Variable
	consequents []*Variable
	rules       []*Rule
	required    []string
}

func NewControlSystem(vars []*Variable, rules []*Rule, opts ...Option) (*ControlSystem, error) {
	cs := &ControlSystem{
		vars: make(map[string]*Variable, len(vars)),
	}
	for _, opt := range opts {
		opt(&cs.opts)
	}
	cs.opts.log = zaplog.Or(cs.opts.log)

	for _, v := range vars {
		if v == nil {
			return nil, fmt.Errorf("%w: nil variable", errInvalidVariable)
		}
		if _, ok := cs.vars[v.name]; ok {
			return nil, fmt.Errorf("%w: %s", errDuplicateVariable, v.name)
		}
		cs.vars[v.name] = v
		switch v.role {
		case Antecedent:
			cs.antecedents = append(cs.antecedents, v)
		case Consequent:
			cs.consequents = append(cs.consequents, v)
		default:
			return nil, fmt.Errorf("%w: %s has role %s", errInvalidVariable, v.name, v.role)
		}
	}
	if len(cs.consequents) == 0 {
		return nil, errNoConsequents
	}

	required := make(map[string]struct{})
	for i, r := range rules {
		if r == nil || len(r.antecedent) == 0 || len(r.consequents) == 0 {
			return nil, fmt.Errorf("%w: rule %d is empty", ErrMalformedRule, i+1)
		}
		for _, c := range r.antecedent {
			if cs.vars[c.Variable.name] != c.Variable {
				return nil, fmt.Errorf("%w: rule %d, %s", errForeignVariable, i+1, c.Variable.name)
			}
			required[c.Variable.name] = struct{}{}
		}
		for _, c := range r.consequents {
			if cs.vars[c.Variable.name] != c.Variable {
				return nil, fmt.Errorf("%w: rule %d, %s", errForeignVariable, i+1, c.Variable.name)
			}
		}
	}
	cs.rules = slices.Clone(rules)
	for name := range required {
		cs.required = append(cs.required, name)
	}
	slices.Sort(cs.required)

	return cs, nil
}

func (cs *ControlSystem) ClipToBounds() bool { return cs.opts.clipToBounds }

func (cs *ControlSystem) Antecedents() []*Variable { return slices.Clone(cs.antecedents) }

func (cs *ControlSystem) Consequents() []*Variable { return slices.Clone(cs.consequents) }

func (cs *ControlSystem) Rules() []*Rule { return slices.Clone(cs.rules) }

// Required returns the sorted names of antecedents referenced by at least
// one rule. Compute fails unless all of them are bound.
func (cs *ControlSystem) Required() []string { return slices.Clone(cs.required) }

func (cs *ControlSystem) Variable(name string) (*Variable, bool) {
	v, ok := cs.vars[name]
	return v, ok
}

func (cs *ControlSystem) Curves(name string) (Curves, error) {
	v, ok := cs.vars[name]
	if !ok {
		return Curves{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return v.Curves(), nil
}

// RuleListing renders the rule base, one numbered rule per line.
func (cs *ControlSystem) RuleListing() string {
	var b strings.Builder
	for i, r := range cs.rules {
		fmt.Fprintf(&b, "Rule %d: %s\n", i+1, r)
	}
	return b.String()
}

func (cs *ControlSystem) checkInputs(inputs map[string]float64) error {
	for name, x := range inputs {
		v, ok := cs.vars[name]
		if !ok || v.role != Antecedent {
			return fmt.Errorf("%w: %q is not an antecedent", ErrUnknownVariable, name)
		}
		if !floats.IsFinite(x) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidInput, name, x)
		}
	}
	var missing []string
	for _, name := range cs.required {
		if _, ok := inputs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) != 0 {
		return fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}
	return nil
}

func (cs *ControlSystem) fuzzify(inputs map[string]float64) Degrees {
	ds := make(Degrees)
	for _, v := range cs.antecedents {
		x, ok := inputs[v.name]
		if !ok {
			continue
		}
		for term, d := range v.Fuzzify(x, cs.opts.clipToBounds) {
			ds[TermRef{Variable: v.name, Term: term}] = d
		}
	}
	return ds
}

// aggregate runs fuzzification, rule firing, implication and aggregation.
// The result holds one curve per consequent, sampled on its universe grid.
func (cs *ControlSystem) aggregate(inputs map[string]float64) (map[string][]float64, error) {
	err := cs.checkInputs(inputs)
	if err != nil {
		return nil, err
	}
	ds := cs.fuzzify(inputs)

	agg := make(map[string][]float64, len(cs.consequents))
	for _, v := range cs.consequents {
		agg[v.name] = make([]float64, v.universe.Len())
	}
	for i, r := range cs.rules {
		s := r.Fire(ds)
		if ce := cs.opts.log.Check(zap.DebugLevel, "rule fired"); ce != nil {
			ce.Write(zap.Int("rule", i+1), zap.Stringer("expr", r), zap.Float64("strength", s))
		}
		if s == 0 {
			continue
		}
		for _, c := range r.consequents {
			t, _ := c.Variable.Term(c.Term)
			curve := agg[c.Variable.name]
			for j, x := range c.Variable.universe.grid {
				d := t.MF.Degree(x)
				if d > s {
					d = s
				}
				if d > curve[j] {
					curve[j] = d
				}
			}
		}
	}
	return agg, nil
}

// Aggregate returns the aggregated output fuzzy set of every consequent for
// the given inputs.
func (cs *ControlSystem) Aggregate(inputs map[string]float64) (map[string][]float64, error) {
	return cs.aggregate(inputs)
}

func centroid(grid, mu []float64) (float64, bool) {
	var num, den float64
	for i, x := range grid {
		num += x * mu[i]
		den += mu[i]
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

func (cs *ControlSystem) compute(inputs map[string]float64) (map[string]float64, error) {
	agg, err := cs.aggregate(inputs)
	if err != nil {
		return nil, err
	}
	outputs := make(map[string]float64, len(cs.consequents))
	var errs []error
	for _, v := range cs.consequents {
		y, ok := centroid(v.universe.grid, agg[v.name])
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoRuleFired, v.name))
			continue
		}
		outputs[v.name] = y
	}
	if len(errs) != 0 {
		return nil, errors.Join(errs...)
	}
	if ce := cs.opts.log.Check(zap.DebugLevel, "computed outputs"); ce != nil {
		ce.Write(zap.Any("inputs", inputs), zap.Any("outputs", outputs))
	}
	return outputs, nil
}

// NewSimulation returns a fresh evaluation bound to cs.
func (cs *ControlSystem) NewSimulation() *Simulation {
	return &Simulation{
		cs:      cs,
		inputs:  make(map[string]float64, len(cs.antecedents)),
		outputs: make(map[string]float64, len(cs.consequents)),
	}
}
