package config

import (
	"errors"
)

var (
	errUnknownRole     = errors.New("unknown variable role")
	errInvalidTerm     = errors.New("invalid term")
	errInvalidDSCP     = errors.New("DSCP out of range [0, 63]")
	errInvalidWorkers  = errors.New("number of workers must be positive")
	errIncompleteTLS   = errors.New("TLS certificate and key must be given together")
	errNoVariables     = errors.New("no variables")
	errUnknownVariable = errors.New("unknown variable")
)
