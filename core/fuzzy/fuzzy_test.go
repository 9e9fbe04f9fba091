package fuzzy_test

import (
	"testing"

	"example.com/fuzzy-signal/core/fuzzy"
	"example.com/fuzzy-signal/core/mf"
)

type termDef struct {
	name    string
	a, b, c float64
}

func mustUniverse(t testing.TB, min, max, step float64) fuzzy.Universe {
	t.Helper()
	u, err := fuzzy.NewUniverse(min, max, step)
	if err != nil {
		t.Fatalf("NewUniverse(%v, %v, %v) failed: %v", min, max, step, err)
	}
	return u
}

func terms(defs ...termDef) []fuzzy.Term {
	ts := make([]fuzzy.Term, len(defs))
	for i, s := range defs {
		ts[i] = fuzzy.Term{Name: s.name, MF: mf.Triangle{A: s.a, B: s.b, C: s.c}}
	}
	return ts
}

func mustAntecedent(t testing.TB, name string, u fuzzy.Universe, ts []fuzzy.Term) *fuzzy.Variable {
	t.Helper()
	v, err := fuzzy.NewAntecedent(name, u, ts...)
	if err != nil {
		t.Fatalf("NewAntecedent(%s) failed: %v", name, err)
	}
	return v
}

func mustConsequent(t testing.TB, name string, u fuzzy.Universe, ts []fuzzy.Term) *fuzzy.Variable {
	t.Helper()
	v, err := fuzzy.NewConsequent(name, u, ts...)
	if err != nil {
		t.Fatalf("NewConsequent(%s) failed: %v", name, err)
	}
	return v
}

func mustRule(t testing.TB, antecedent []fuzzy.Clause, consequents ...fuzzy.Clause) *fuzzy.Rule {
	t.Helper()
	r, err := fuzzy.NewRule(antecedent, consequents...)
	if err != nil {
		t.Fatalf("NewRule failed: %v", err)
	}
	return r
}

type trafficSystem struct {
	traffic, pedestrian, weather, hour, emergency *fuzzy.Variable
	green, priority                               *fuzzy.Variable
	vars                                          []*fuzzy.Variable
	rules                                         []*fuzzy.Rule
}

func newTrafficSystem(t testing.TB) *trafficSystem {
	t.Helper()
	lmh := terms(
		termDef{"low", 0, 0, 50},
		termDef{"medium", 25, 50, 75},
		termDef{"high", 50, 100, 100},
	)
	s := &trafficSystem{
		traffic:    mustAntecedent(t, "traffic_density", mustUniverse(t, 0, 100, 1), lmh),
		pedestrian: mustAntecedent(t, "pedestrian_count", mustUniverse(t, 0, 100, 1), lmh),
		weather: mustAntecedent(t, "weather_condition", mustUniverse(t, 0, 100, 1), terms(
			termDef{"bad", 0, 0, 50},
			termDef{"moderate", 25, 50, 75},
			termDef{"good", 50, 100, 100},
		)),
		hour: mustAntecedent(t, "time_of_day", mustUniverse(t, 0, 24, 1), terms(
			termDef{"morning", 0, 0, 12},
			termDef{"noon", 8, 12, 16},
			termDef{"evening", 12, 24, 24},
		)),
		emergency: mustAntecedent(t, "emergency", mustUniverse(t, 0, 1, 1), terms(
			termDef{"no", 0, 0, 1},
			termDef{"yes", 0, 1, 1},
		)),
		green: mustConsequent(t, "green_light_duration", mustUniverse(t, 10, 120, 1), terms(
			termDef{"short", 10, 10, 60},
			termDef{"medium", 40, 65, 90},
			termDef{"long", 70, 120, 120},
		)),
		priority: mustConsequent(t, "priority_level", mustUniverse(t, 0, 100, 1), lmh),
	}
	s.vars = []*fuzzy.Variable{
		s.traffic, s.pedestrian, s.weather, s.hour, s.emergency, s.green, s.priority,
	}
	s.rules = []*fuzzy.Rule{
		mustRule(t, []fuzzy.Clause{s.traffic.Is("high"), s.pedestrian.Is("high")}, s.green.Is("long")),
		mustRule(t, []fuzzy.Clause{s.traffic.Is("medium"), s.pedestrian.Is("medium")}, s.green.Is("medium")),
		mustRule(t, []fuzzy.Clause{s.traffic.Is("low"), s.pedestrian.Is("low")}, s.green.Is("short")),
		mustRule(t, []fuzzy.Clause{s.emergency.Is("yes")}, s.priority.Is("high")),
		mustRule(t, []fuzzy.Clause{s.emergency.Is("no"), s.traffic.Is("low")}, s.priority.Is("low")),
		mustRule(t, []fuzzy.Clause{s.weather.Is("bad"), s.hour.Is("morning")}, s.green.Is("long")),
		mustRule(t, []fuzzy.Clause{s.weather.Is("good"), s.traffic.Is("low")}, s.green.Is("short")),
		mustRule(t, []fuzzy.Clause{s.hour.Is("noon")}, s.priority.Is("medium")),
		mustRule(t, []fuzzy.Clause{s.pedestrian.Is("high")}, s.priority.Is("high")),
		mustRule(t, []fuzzy.Clause{s.traffic.Is("high")}, s.priority.Is("high")),
	}
	return s
}

func (s *trafficSystem) build(t testing.TB, opts ...fuzzy.Option) *fuzzy.ControlSystem {
	t.Helper()
	cs, err := fuzzy.NewControlSystem(s.vars, s.rules, opts...)
	if err != nil {
		t.Fatalf("NewControlSystem failed: %v", err)
	}
	return cs
}

func inputs(traffic, pedestrian, weather, hour, emergency float64) map[string]float64 {
	return map[string]float64{
		"traffic_density":   traffic,
		"pedestrian_count":  pedestrian,
		"weather_condition": weather,
		"time_of_day":       hour,
		"emergency":         emergency,
	}
}
