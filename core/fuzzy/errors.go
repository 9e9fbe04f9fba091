package fuzzy

import (
	"errors"
)

var (
	ErrMalformedRule   = errors.New("malformed rule")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrMissingInput    = errors.New("missing input")
	ErrNoRuleFired     = errors.New("no rule fired")
	ErrInvalidInput    = errors.New("invalid input")

	errInvalidUniverse   = errors.New("invalid universe")
	errInvalidVariable   = errors.New("invalid variable")
	errDuplicateTerm     = errors.New("duplicate term")
	errDuplicateVariable = errors.New("duplicate variable")
	errNoConsequents     = errors.New("no consequent variables")
	errForeignVariable   = errors.New("rule references variable not in control system")
)
