package fuzzy

import (
	"fmt"
	"strings"
)

// TermRef names a term of a variable.
type TermRef struct {
	Variable string
	Term     string
}

func (r TermRef) String() string {
	return r.Variable + "[" + r.Term + "]"
}

// Degrees maps antecedent terms to their membership degree for one set of
// crisp inputs.
type Degrees map[TermRef]float64

// Clause is a reference "variable is term" inside a rule.
type Clause struct {
	Variable *Variable
	Term     string
}

func (c Clause) Ref() TermRef {
	if c.Variable == nil {
		return TermRef{Term: c.Term}
	}
	return TermRef{Variable: c.Variable.name, Term: c.Term}
}

func (c Clause) String() string {
	return c.Ref().String()
}

func checkClause(c Clause, role Role) error {
	if c.Variable == nil {
		return fmt.Errorf("%w: clause %s without variable", ErrMalformedRule, c)
	}
	if c.Variable.role != role {
		return fmt.Errorf("%w: %s is %s, expected %s",
			ErrMalformedRule, c.Variable.name, c.Variable.role, role)
	}
	if _, ok := c.Variable.Term(c.Term); !ok {
		return fmt.Errorf("%w: %s has no term %q", ErrMalformedRule, c.Variable.name, c.Term)
	}
	return nil
}

// Rule maps a conjunction of antecedent clauses to one or more consequent
// clauses. Rules are immutable.
type Rule struct {
	antecedent  []Clause
	consequents []Clause
}

func NewRule(antecedent []Clause, consequents ...Clause) (*Rule, error) {
	if len(antecedent) == 0 {
		return nil, fmt.Errorf("%w: empty antecedent", ErrMalformedRule)
	}
	if len(consequents) == 0 {
		return nil, fmt.Errorf("%w: no consequent", ErrMalformedRule)
	}
	for _, c := range antecedent {
		if err := checkClause(c, Antecedent); err != nil {
			return nil, err
		}
	}
	for _, c := range consequents {
		if err := checkClause(c, Consequent); err != nil {
			return nil, err
		}
	}
	r := &Rule{
		antecedent:  make([]Clause, len(antecedent)),
		consequents: make([]Clause, len(consequents)),
	}
	copy(r.antecedent, antecedent)
	copy(r.consequents, consequents)
	return r, nil
}

func (r *Rule) Antecedent() []Clause {
	cs := make([]Clause, len(r.antecedent))
	copy(cs, r.antecedent)
	return cs
}

func (r *Rule) Consequents() []Clause {
	cs := make([]Clause, len(r.consequents))
	copy(cs, r.consequents)
	return cs
}

// Fire returns the firing strength of r, the minimum degree over its
// antecedent clauses. Clauses absent from ds count as degree 0.
func (r *Rule) Fire(ds Degrees) float64 {
	s := 1.0
	for _, c := range r.antecedent {
		d := ds[c.Ref()]
		if d < s {
			s = d
		}
	}
	return s
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString("IF ")
	for i, c := range r.antecedent {
		if i != 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(c.String())
	}
	b.WriteString(" THEN ")
	for i, c := range r.consequents {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.String())
	}
	return b.String()
}
