// Package traffic binds the traffic signal variables to a fuzzy control
// system.
package traffic

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"example.com/fuzzy-signal/base/metrics"
	"example.com/fuzzy-signal/base/zaplog"
	"example.com/fuzzy-signal/core/fuzzy"
)

const (
	TrafficDensity   = "traffic_density"
	PedestrianCount  = "pedestrian_count"
	WeatherCondition = "weather_condition"
	TimeOfDay        = "time_of_day"
	Emergency        = "emergency"

	GreenLightDuration = "green_light_duration"
	PriorityLevel      = "priority_level"
)

// InputNames lists the antecedents in wire order.
var InputNames = [...]string{TrafficDensity, PedestrianCount, WeatherCondition, TimeOfDay, Emergency}

var errIncompatibleSystem = errors.New("control system lacks traffic signal variables")

type controllerMetrics struct {
	decisions  prometheus.Counter
	errors     *prometheus.CounterVec
	latency    prometheus.Histogram
	greenLight prometheus.Histogram
}

func newControllerMetrics() *controllerMetrics {
	return &controllerMetrics{
		decisions: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.ControllerDecisionsN,
			Help: metrics.ControllerDecisionsH,
		}),
		errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.ControllerErrorsN,
			Help: metrics.ControllerErrorsH,
		}, []string{metrics.ControllerErrorsReasonLabel}),
		latency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    metrics.ControllerLatencyN,
			Help:    metrics.ControllerLatencyH,
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		greenLight: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    metrics.ControllerGreenLightN,
			Help:    metrics.ControllerGreenLightH,
			Buckets: prometheus.LinearBuckets(10, 10, 12),
		}),
	}
}

var controllerMtrcs atomic.Pointer[controllerMetrics]

func init() {
	controllerMtrcs.Store(newControllerMetrics())
}

// Inputs are the crisp sensor readings of one intersection.
type Inputs struct {
	TrafficDensity   float64 // 0 to 100
	PedestrianCount  float64 // 0 to 100
	WeatherCondition float64 // 0 (bad) to 100 (good)
	TimeOfDay        float64 // hour, 0 to 24
	Emergency        float64 // 0 or 1
}

func (in Inputs) Values() [len(InputNames)]float64 {
	return [...]float64{in.TrafficDensity, in.PedestrianCount, in.WeatherCondition, in.TimeOfDay, in.Emergency}
}

func (in Inputs) Map() map[string]float64 {
	m := make(map[string]float64, len(InputNames))
	for i, x := range in.Values() {
		m[InputNames[i]] = x
	}
	return m
}

func (in Inputs) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for i, x := range in.Values() {
		enc.AddFloat64(InputNames[i], x)
	}
	return nil
}

// Decision is the crisp controller output.
type Decision struct {
	GreenLight float64 // seconds, 10 to 120
	Priority   float64 // 0 to 100
}

func (d Decision) GreenLightDuration() time.Duration {
	return time.Duration(d.GreenLight * float64(time.Second))
}

func (d Decision) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64(GreenLightDuration, d.GreenLight)
	enc.AddFloat64(PriorityLevel, d.Priority)
	return nil
}

// Controller computes traffic signal decisions. It is safe for concurrent
// use.
type Controller struct {
	cs  *fuzzy.ControlSystem
	log *zap.Logger
}

func NewController(cs *fuzzy.ControlSystem, log *zap.Logger) (*Controller, error) {
	for _, name := range InputNames {
		v, ok := cs.Variable(name)
		if !ok || v.Role() != fuzzy.Antecedent {
			return nil, fmt.Errorf("%w: antecedent %s", errIncompatibleSystem, name)
		}
	}
	for _, name := range []string{GreenLightDuration, PriorityLevel} {
		v, ok := cs.Variable(name)
		if !ok || v.Role() != fuzzy.Consequent {
			return nil, fmt.Errorf("%w: consequent %s", errIncompatibleSystem, name)
		}
	}
	log = zaplog.Or(log)
	return &Controller{cs: cs, log: log}, nil
}

func (c *Controller) System() *fuzzy.ControlSystem { return c.cs }

func (c *Controller) Decide(in Inputs) (Decision, error) {
	return c.Evaluate(in.Map())
}

// Evaluate computes a decision from a partial set of inputs, keyed by
// variable name.
func (c *Controller) Evaluate(inputs map[string]float64) (Decision, error) {
	mtrcs := controllerMtrcs.Load()
	t0 := time.Now()

	sim := c.cs.NewSimulation()
	err := sim.SetInputs(inputs)
	if err == nil {
		err = sim.Compute()
	}
	if err != nil {
		mtrcs.errors.WithLabelValues(Reason(err)).Inc()
		c.log.Debug("failed to compute decision", zap.Any("inputs", inputs), zap.Error(err))
		return Decision{}, err
	}

	var d Decision
	d.GreenLight, _ = sim.Output(GreenLightDuration)
	d.Priority, _ = sim.Output(PriorityLevel)

	mtrcs.latency.Observe(time.Since(t0).Seconds())
	mtrcs.greenLight.Observe(d.GreenLight)
	mtrcs.decisions.Inc()
	return d, nil
}

// Reason classifies an evaluation error for metrics and wire status.
func Reason(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, fuzzy.ErrMissingInput):
		return "missing_input"
	case errors.Is(err, fuzzy.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, fuzzy.ErrUnknownVariable):
		return "unknown_variable"
	case errors.Is(err, fuzzy.ErrNoRuleFired):
		return "no_rule_fired"
	default:
		return "other"
	}
}
