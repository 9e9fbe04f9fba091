package config_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"example.com/fuzzy-signal/core/config"
	"example.com/fuzzy-signal/core/fuzzy"
)

const minimal = `
[[variables]]
name = "load"
role = "antecedent"
min = 0.0
max = 10.0
step = 1.0
terms = [
  { name = "low", a = 0.0, b = 0.0, c = 10.0 },
  { name = "high", a = 0.0, b = 10.0, c = 10.0 },
]

[[variables]]
name = "speed"
role = "consequent"
min = 0.0
max = 10.0
step = 1.0
terms = [
  { name = "slow", a = 0.0, b = 0.0, c = 10.0 },
  { name = "fast", a = 0.0, b = 10.0, c = 10.0 },
]

[[rules]]
if = [{ variable = "load", term = "high" }]
then = [{ variable = "speed", term = "fast" }]
`

func TestDefault(t *testing.T) {
	cfg := config.Default()
	if !cfg.ClipToBounds {
		t.Errorf("ClipToBounds = false, want true")
	}
	if len(cfg.Variables) != 7 || len(cfg.Rules) != 10 {
		t.Fatalf("got %d variables and %d rules, want 7 and 10", len(cfg.Variables), len(cfg.Rules))
	}
	if cfg.Service.TrafficClass() != config.DSCP {
		t.Errorf("TrafficClass() = %d, want %d", cfg.Service.TrafficClass(), config.DSCP)
	}
	if cfg.Service.NumWorkers() != 1 {
		t.Errorf("NumWorkers() = %d, want 1", cfg.Service.NumWorkers())
	}

	cs, err := config.NewControlSystem(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewControlSystem failed: %v", err)
	}
	if !cs.ClipToBounds() {
		t.Errorf("control system does not clip to bounds")
	}
	if len(cs.Antecedents()) != 5 || len(cs.Consequents()) != 2 {
		t.Errorf("got %d antecedents and %d consequents", len(cs.Antecedents()), len(cs.Consequents()))
	}

	sim := cs.NewSimulation()
	err = sim.SetInputs(map[string]float64{
		"traffic_density":   80,
		"pedestrian_count":  80,
		"weather_condition": 80,
		"time_of_day":       10,
		"emergency":         0,
	})
	if err != nil {
		t.Fatalf("SetInputs failed: %v", err)
	}
	err = sim.Compute()
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	want := map[string]float64{
		"green_light_duration": 101.69483568075113,
		"priority_level":       67.20568561872905,
	}
	for name, y := range want {
		if got, _ := sim.Output(name); math.Abs(got-y) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, y)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system.toml")
	data := minimal + `
[service]
local_address = "0.0.0.0:9000"
dscp = 0
workers = 4
`
	err := os.WriteFile(path, []byte(data), 0o600)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ClipToBounds {
		t.Errorf("ClipToBounds = true, want default false")
	}
	if cfg.Service.LocalAddr != "0.0.0.0:9000" {
		t.Errorf("LocalAddr = %q", cfg.Service.LocalAddr)
	}
	if cfg.Service.TrafficClass() != 0 {
		t.Errorf("TrafficClass() = %d, want 0", cfg.Service.TrafficClass())
	}
	if cfg.Service.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", cfg.Service.NumWorkers())
	}

	cs, err := config.NewControlSystem(cfg, nil)
	if err != nil {
		t.Fatalf("NewControlSystem failed: %v", err)
	}
	if got := cs.RuleListing(); got != "Rule 1: IF load[high] THEN speed[fast]\n" {
		t.Errorf("RuleListing() = %q", got)
	}

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	if err == nil {
		t.Errorf("Load of a missing file succeeded")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Unknown key", minimal + "\nthreshold = 3\n"},
		{"Unknown service key", minimal + "\n[service]\nport = 80\n"},
		{"DSCP range", minimal + "\n[service]\ndscp = 64\n"},
		{"Negative workers", minimal + "\n[service]\nworkers = -1\n"},
		{"Certificate without key", minimal + "\n[service]\ntls_cert_file = \"cert.pem\"\n"},
		{"Syntax", "[[variables]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Decode(strings.NewReader(tt.data))
			if err == nil {
				t.Errorf("Decode() succeeded, want error")
			}
		})
	}
}

func TestNewControlSystemErrors(t *testing.T) {
	tests := []struct {
		name      string
		edit      func(string) string
		malformed bool
	}{
		{
			name: "Unknown role",
			edit: func(s string) string { return strings.Replace(s, `"consequent"`, `"output"`, 1) },
		},
		{
			name: "Unordered triangle",
			edit: func(s string) string {
				return strings.Replace(s, `{ name = "low", a = 0.0, b = 0.0, c = 10.0 }`,
					`{ name = "low", a = 5.0, b = 0.0, c = 10.0 }`, 1)
			},
		},
		{
			name: "Zero step",
			edit: func(s string) string { return strings.Replace(s, "step = 1.0", "step = 0.0", 1) },
		},
		{
			name: "Huge universe",
			edit: func(s string) string { return strings.Replace(s, "step = 1.0", "step = 1e-300", 1) },
		},
		{
			name: "Duplicate term",
			edit: func(s string) string { return strings.Replace(s, `name = "high"`, `name = "low"`, 1) },
		},
		{
			name:      "Unknown term",
			edit:      func(s string) string { return strings.Replace(s, `term = "fast"`, `term = "rapid"`, 1) },
			malformed: true,
		},
		{
			name:      "Unknown variable",
			edit:      func(s string) string { return strings.Replace(s, `variable = "load"`, `variable = "weight"`, 1) },
			malformed: true,
		},
		{
			name:      "Antecedent in consequent",
			edit:      func(s string) string { return strings.Replace(s, `variable = "speed", term = "fast"`, `variable = "load", term = "low"`, 1) },
			malformed: true,
		},
		{
			name:      "Empty antecedent",
			edit:      func(s string) string { return strings.Replace(s, `if = [{ variable = "load", term = "high" }]`, `if = []`, 1) },
			malformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Decode(strings.NewReader(tt.edit(minimal)))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			_, err = config.NewControlSystem(cfg, zaptest.NewLogger(t))
			if err == nil {
				t.Fatalf("NewControlSystem() succeeded, want error")
			}
			if errors.Is(err, fuzzy.ErrMalformedRule) != tt.malformed {
				t.Errorf("NewControlSystem() = %v, malformed rule: %v", err, !tt.malformed)
			}
		})
	}

	_, err := config.NewControlSystem(config.Config{}, nil)
	if err == nil {
		t.Errorf("NewControlSystem() of an empty configuration succeeded")
	}
}
