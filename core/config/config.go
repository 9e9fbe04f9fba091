package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/base/zaplog"

	"example.com/fuzzy-signal/core/fuzzy"
	"example.com/fuzzy-signal/core/mf"
)

// DSCP is the Differentiated Services Codepoint value used for evaluation
// responses unless the service configuration sets one. Valid values must be
// in range [0, 63].
const DSCP = 46

const (
	roleAntecedent = "antecedent"
	roleConsequent = "consequent"
)

//go:embed traffic.toml
var trafficSystem []byte

type Term struct {
	Name string  `toml:"name"`
	A    float64 `toml:"a"`
	B    float64 `toml:"b"`
	C    float64 `toml:"c"`
}

type Variable struct {
	Name  string  `toml:"name"`
	Role  string  `toml:"role"`
	Min   float64 `toml:"min"`
	Max   float64 `toml:"max"`
	Step  float64 `toml:"step"`
	Terms []Term  `toml:"terms"`
}

type Clause struct {
	Variable string `toml:"variable"`
	Term     string `toml:"term"`
}

type Rule struct {
	If   []Clause `toml:"if"`
	Then []Clause `toml:"then"`
}

type Service struct {
	LocalAddr   string `toml:"local_address,omitempty"`
	QUICAddr    string `toml:"quic_address,omitempty"`
	MetricsAddr string `toml:"metrics_address,omitempty"`
	DSCP        *int   `toml:"dscp,omitempty"`
	Workers     int    `toml:"workers,omitempty"`
	TLSCertFile string `toml:"tls_cert_file,omitempty"`
	TLSKeyFile  string `toml:"tls_key_file,omitempty"`
}

type Config struct {
	ClipToBounds bool       `toml:"clip_to_bounds"`
	Variables    []Variable `toml:"variables"`
	Rules        []Rule     `toml:"rules"`
	Service      Service    `toml:"service"`
}

// Decode reads a configuration. Keys that map to no field are rejected.
func Decode(r io.Reader) (Config, error) {
	var cfg Config
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		return Config{}, err
	}
	err = cfg.Service.validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Load(configFile string) (Config, error) {
	raw, err := os.ReadFile(configFile)
	if err != nil {
		return Config{}, err
	}
	return Decode(bytes.NewReader(raw))
}

// Default returns the traffic signal system.
func Default() Config {
	cfg, err := Decode(bytes.NewReader(trafficSystem))
	if err != nil {
		panic(err)
	}
	return cfg
}

func (s Service) validate() error {
	if s.DSCP != nil && (*s.DSCP < 0 || *s.DSCP > 63) {
		return fmt.Errorf("%w: %d", errInvalidDSCP, *s.DSCP)
	}
	if s.Workers < 0 {
		return fmt.Errorf("%w: %d", errInvalidWorkers, s.Workers)
	}
	if (s.TLSCertFile == "") != (s.TLSKeyFile == "") {
		return errIncompleteTLS
	}
	return nil
}

// TrafficClass returns the DSCP value for outgoing packets.
func (s Service) TrafficClass() uint8 {
	if s.DSCP == nil {
		return DSCP
	}
	return uint8(*s.DSCP)
}

// NumWorkers returns the number of UDP sockets to serve on.
func (s Service) NumWorkers() int {
	if s.Workers == 0 {
		return 1
	}
	return s.Workers
}

func newVariable(v Variable) (*fuzzy.Variable, error) {
	u, err := fuzzy.NewUniverse(v.Min, v.Max, v.Step)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", v.Name, err)
	}
	terms := make([]fuzzy.Term, len(v.Terms))
	for i, t := range v.Terms {
		tri, err := mf.NewTriangle(t.A, t.B, t.C)
		if err != nil {
			return nil, fmt.Errorf("%w: %s[%s]: %w", errInvalidTerm, v.Name, t.Name, err)
		}
		terms[i] = fuzzy.Term{Name: t.Name, MF: tri}
	}
	switch v.Role {
	case roleAntecedent:
		return fuzzy.NewAntecedent(v.Name, u, terms...)
	case roleConsequent:
		return fuzzy.NewConsequent(v.Name, u, terms...)
	default:
		return nil, fmt.Errorf("%w: %s has role %q", errUnknownRole, v.Name, v.Role)
	}
}

func clauses(vars map[string]*fuzzy.Variable, cs []Clause) ([]fuzzy.Clause, error) {
	res := make([]fuzzy.Clause, len(cs))
	for i, c := range cs {
		v, ok := vars[c.Variable]
		if !ok {
			return nil, fmt.Errorf("%w: %w %q", fuzzy.ErrMalformedRule, errUnknownVariable, c.Variable)
		}
		res[i] = v.Is(c.Term)
	}
	return res, nil
}

// NewControlSystem builds the inference engine described by cfg.
func NewControlSystem(cfg Config, log *zap.Logger) (*fuzzy.ControlSystem, error) {
	log = zaplog.Or(log)
	if len(cfg.Variables) == 0 {
		return nil, errNoVariables
	}
	vars := make([]*fuzzy.Variable, len(cfg.Variables))
	byName := make(map[string]*fuzzy.Variable, len(cfg.Variables))
	for i, v := range cfg.Variables {
		fv, err := newVariable(v)
		if err != nil {
			return nil, err
		}
		vars[i] = fv
		byName[v.Name] = fv
	}

	rules := make([]*fuzzy.Rule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		antecedent, err := clauses(byName, r.If)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		consequents, err := clauses(byName, r.Then)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		rules[i], err = fuzzy.NewRule(antecedent, consequents...)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
	}

	cs, err := fuzzy.NewControlSystem(vars, rules,
		fuzzy.WithClipToBounds(cfg.ClipToBounds), fuzzy.WithLogger(log))
	if err != nil {
		return nil, err
	}
	log.Debug("built control system",
		zap.Int("variables", len(vars)),
		zap.Int("rules", len(rules)),
		zap.Bool("clip_to_bounds", cfg.ClipToBounds),
	)
	return cs, nil
}
