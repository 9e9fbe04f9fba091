package fuzzy

import (
	"fmt"

	"example.com/fuzzy-signal/core/mf"
)

type Role int

const (
	Antecedent Role = iota + 1
	Consequent
)

func (r Role) String() string {
	switch r {
	case Antecedent:
		return "antecedent"
	case Consequent:
		return "consequent"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Term is a named fuzzy set of a linguistic variable.
type Term struct {
	Name string
	MF   mf.Triangle
}

// Variable is a linguistic variable: a named universe carrying named terms.
// A Variable is immutable after construction and may be shared between
// goroutines.
type Variable struct {
	name     string
	role     Role
	universe Universe
	terms    []Term
	index    map[string]int
}

func newVariable(name string, role Role, u Universe, terms []Term) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", errInvalidVariable)
	}
	if u.Len() < 2 {
		return nil, fmt.Errorf("%w: %s has no universe", errInvalidVariable, name)
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: %s has no terms", errInvalidVariable, name)
	}
	v := &Variable{
		name:     name,
		role:     role,
		universe: u,
		terms:    make([]Term, len(terms)),
		index:    make(map[string]int, len(terms)),
	}
	for i, t := range terms {
		if t.Name == "" {
			return nil, fmt.Errorf("%w: %s has a term without name", errInvalidVariable, name)
		}
		if _, ok := v.index[t.Name]; ok {
			return nil, fmt.Errorf("%w: %s[%s]", errDuplicateTerm, name, t.Name)
		}
		v.terms[i] = t
		v.index[t.Name] = i
	}
	return v, nil
}

func NewAntecedent(name string, u Universe, terms ...Term) (*Variable, error) {
	return newVariable(name, Antecedent, u, terms)
}

func NewConsequent(name string, u Universe, terms ...Term) (*Variable, error) {
	return newVariable(name, Consequent, u, terms)
}

func (v *Variable) Name() string { return v.name }

func (v *Variable) Role() Role { return v.role }

func (v *Variable) Universe() Universe { return v.universe }

// Terms returns the terms in declaration order.
func (v *Variable) Terms() []Term {
	ts := make([]Term, len(v.terms))
	copy(ts, v.terms)
	return ts
}

func (v *Variable) Term(name string) (Term, bool) {
	i, ok := v.index[name]
	if !ok {
		return Term{}, false
	}
	return v.terms[i], true
}

// Is returns the clause "v is term" for use in rules.
func (v *Variable) Is(term string) Clause {
	return Clause{Variable: v, Term: term}
}

// Fuzzify evaluates every term of v at x. With clip set, x is first clamped
// to the universe bounds; without it, x outside the universe has degree 0 in
// every term.
func (v *Variable) Fuzzify(x float64, clip bool) map[string]float64 {
	if clip {
		x = v.universe.Clamp(x)
	}
	outside := !v.universe.Contains(x)
	ds := make(map[string]float64, len(v.terms))
	for _, t := range v.terms {
		if outside {
			ds[t.Name] = 0
			continue
		}
		ds[t.Name] = t.MF.Degree(x)
	}
	return ds
}

type TermCurve struct {
	Term    string
	Degrees []float64
}

// Curves holds the membership curves of a variable sampled on its universe
// grid, for display.
type Curves struct {
	Variable string
	Grid     []float64
	Terms    []TermCurve
}

func (v *Variable) Curves() Curves {
	grid := v.universe.Grid()
	c := Curves{
		Variable: v.name,
		Grid:     grid,
		Terms:    make([]TermCurve, len(v.terms)),
	}
	for i, t := range v.terms {
		c.Terms[i] = TermCurve{Term: t.Name, Degrees: t.MF.Curve(grid)}
	}
	return c
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s %s %s", v.role, v.name, v.universe)
}
