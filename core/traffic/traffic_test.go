package traffic_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"go.uber.org/zap/zaptest"

	"example.com/fuzzy-signal/base/metrics"
	"example.com/fuzzy-signal/core/config"
	"example.com/fuzzy-signal/core/fuzzy"
	"example.com/fuzzy-signal/core/mf"
	"example.com/fuzzy-signal/core/traffic"
)

func newController(t *testing.T) *traffic.Controller {
	t.Helper()
	log := zaptest.NewLogger(t)
	cs, err := config.NewControlSystem(config.Default(), log)
	if err != nil {
		t.Fatalf("NewControlSystem failed: %v", err)
	}
	c, err := traffic.NewController(cs, log)
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	return c
}

func TestDecide(t *testing.T) {
	c := newController(t)

	tests := []struct {
		name string
		in   traffic.Inputs
		want traffic.Decision
	}{
		{
			name: "Busy",
			in:   traffic.Inputs{TrafficDensity: 80, PedestrianCount: 80, WeatherCondition: 80, TimeOfDay: 10},
			want: traffic.Decision{GreenLight: 101.69483568075113, Priority: 67.20568561872905},
		},
		{
			name: "Quiet",
			in:   traffic.Inputs{TrafficDensity: 10, PedestrianCount: 10, WeatherCondition: 90, TimeOfDay: 10},
			want: traffic.Decision{GreenLight: 26.9344262295082, Priority: 30.78399179066188},
		},
		{
			name: "Emergency",
			in:   traffic.Inputs{TrafficDensity: 50, PedestrianCount: 50, WeatherCondition: 50, TimeOfDay: 12, Emergency: 1},
			want: traffic.Decision{GreenLight: 65, Priority: 67.27967198964178},
		},
		{
			name: "Saturated sensor",
			in:   traffic.Inputs{TrafficDensity: 150, PedestrianCount: 80, WeatherCondition: 80, TimeOfDay: 10},
			want: traffic.Decision{GreenLight: 101.69483568075113, Priority: 69.97854291417167},
		},
		{
			name: "Negative sensor",
			in:   traffic.Inputs{TrafficDensity: -20, PedestrianCount: 10, WeatherCondition: 90, TimeOfDay: 10},
			want: traffic.Decision{GreenLight: 26.9344262295082, Priority: 30.021457085828345},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Decide(tt.in)
			if err != nil {
				t.Fatalf("Decide(%+v) failed: %v", tt.in, err)
			}
			if math.Abs(got.GreenLight-tt.want.GreenLight) > 1e-9 ||
				math.Abs(got.Priority-tt.want.Priority) > 1e-9 {
				t.Errorf("Decide(%+v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecideNoRuleFired(t *testing.T) {
	c := newController(t)
	// Saturated traffic with medium pedestrians matches no green light rule.
	_, err := c.Decide(traffic.Inputs{TrafficDensity: 100, PedestrianCount: 50, WeatherCondition: 50, TimeOfDay: 12})
	if !errors.Is(err, fuzzy.ErrNoRuleFired) {
		t.Errorf("Decide() = %v, want ErrNoRuleFired", err)
	}
}

func TestEvaluate(t *testing.T) {
	c := newController(t)

	before := errorCount(t, "missing_input")
	_, err := c.Evaluate(map[string]float64{traffic.TrafficDensity: 80})
	if !errors.Is(err, fuzzy.ErrMissingInput) {
		t.Fatalf("Evaluate() = %v, want ErrMissingInput", err)
	}
	if got := errorCount(t, "missing_input"); got != before+1 {
		t.Errorf("missing input errors counted %v, want %v", got, before+1)
	}

	_, err = c.Evaluate(map[string]float64{traffic.GreenLightDuration: 80})
	if !errors.Is(err, fuzzy.ErrUnknownVariable) {
		t.Errorf("Evaluate() = %v, want ErrUnknownVariable", err)
	}

	in := traffic.Inputs{TrafficDensity: 80, PedestrianCount: 80, WeatherCondition: 80, TimeOfDay: 10}
	want, err := c.Decide(in)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	got, err := c.Evaluate(in.Map())
	if err != nil || got != want {
		t.Errorf("Evaluate() = %+v, %v, want %+v", got, err, want)
	}
}

func errorCount(t *testing.T, reason string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != metrics.ControllerErrorsN {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == metrics.ControllerErrorsReasonLabel && l.GetValue() == reason {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestNewControllerIncompatible(t *testing.T) {
	u, err := fuzzy.NewUniverse(0, 100, 1)
	if err != nil {
		t.Fatal(err)
	}
	low := fuzzy.Term{Name: "low", MF: mf.Triangle{A: 0, B: 0, C: 50}}
	density, err := fuzzy.NewAntecedent(traffic.TrafficDensity, u, low)
	if err != nil {
		t.Fatal(err)
	}
	priority, err := fuzzy.NewConsequent(traffic.PriorityLevel, u, low)
	if err != nil {
		t.Fatal(err)
	}
	r, err := fuzzy.NewRule([]fuzzy.Clause{density.Is("low")}, priority.Is("low"))
	if err != nil {
		t.Fatal(err)
	}
	cs, err := fuzzy.NewControlSystem([]*fuzzy.Variable{density, priority}, []*fuzzy.Rule{r})
	if err != nil {
		t.Fatal(err)
	}
	_, err = traffic.NewController(cs, nil)
	if err == nil {
		t.Errorf("NewController() accepted a system without traffic signal variables")
	}
}

func TestInputs(t *testing.T) {
	in := traffic.Inputs{TrafficDensity: 1, PedestrianCount: 2, WeatherCondition: 3, TimeOfDay: 4, Emergency: 1}
	m := in.Map()
	if len(m) != len(traffic.InputNames) {
		t.Fatalf("Map() has %d entries, want %d", len(m), len(traffic.InputNames))
	}
	for i, x := range in.Values() {
		if m[traffic.InputNames[i]] != x {
			t.Errorf("Map()[%s] = %v, want %v", traffic.InputNames[i], m[traffic.InputNames[i]], x)
		}
	}
	if m[traffic.TimeOfDay] != 4 {
		t.Errorf("Map()[%s] = %v, want 4", traffic.TimeOfDay, m[traffic.TimeOfDay])
	}

	d := traffic.Decision{GreenLight: 26.5}
	if got := d.GreenLightDuration(); got != 26500*time.Millisecond {
		t.Errorf("GreenLightDuration() = %v, want 26.5s", got)
	}
}

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "none"},
		{fmt.Errorf("%w: emergency", fuzzy.ErrMissingInput), "missing_input"},
		{fuzzy.ErrInvalidInput, "invalid_input"},
		{fuzzy.ErrUnknownVariable, "unknown_variable"},
		{errors.Join(fuzzy.ErrNoRuleFired, fuzzy.ErrNoRuleFired), "no_rule_fired"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := traffic.Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
