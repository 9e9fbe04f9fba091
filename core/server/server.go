package server

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/fuzzy-signal/base/metrics"

	"example.com/fuzzy-signal/core/fuzzy"
	"example.com/fuzzy-signal/core/traffic"

	"example.com/fuzzy-signal/net/flc"
)

type ipServerMetrics struct {
	pktsReceived prometheus.Counter
	reqsAccepted prometheus.Counter
	reqsServed   prometheus.Counter
	reqsFailed   *prometheus.CounterVec
}

func newIPServerMetrics() *ipServerMetrics {
	return &ipServerMetrics{
		pktsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.IPServerPktsReceivedN,
			Help: metrics.IPServerPktsReceivedH,
		}),
		reqsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.IPServerReqsAcceptedN,
			Help: metrics.IPServerReqsAcceptedH,
		}),
		reqsServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.IPServerReqsServedN,
			Help: metrics.IPServerReqsServedH,
		}),
		reqsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.IPServerReqsFailedN,
			Help: metrics.IPServerReqsFailedH,
		}, []string{metrics.ServerStatusLabel}),
	}
}

type quicServerMetrics struct {
	connsAccepted prometheus.Counter
	reqsAccepted  prometheus.Counter
	reqsServed    prometheus.Counter
	reqsFailed    *prometheus.CounterVec
}

func newQUICServerMetrics() *quicServerMetrics {
	return &quicServerMetrics{
		connsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.QUICServerConnsAcceptedN,
			Help: metrics.QUICServerConnsAcceptedH,
		}),
		reqsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.QUICServerReqsAcceptedN,
			Help: metrics.QUICServerReqsAcceptedH,
		}),
		reqsServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.QUICServerReqsServedN,
			Help: metrics.QUICServerReqsServedH,
		}),
		reqsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.QUICServerReqsFailedN,
			Help: metrics.QUICServerReqsFailedH,
		}, []string{metrics.ServerStatusLabel}),
	}
}

var (
	ipMetrics   atomic.Pointer[ipServerMetrics]
	quicMetrics atomic.Pointer[quicServerMetrics]
)

func init() {
	ipMetrics.Store(newIPServerMetrics())
	quicMetrics.Store(newQUICServerMetrics())
}

func statusFor(err error) uint8 {
	switch {
	case err == nil:
		return flc.StatusOK
	case errors.Is(err, fuzzy.ErrMissingInput):
		return flc.StatusMissing
	case errors.Is(err, fuzzy.ErrInvalidInput):
		return flc.StatusInvalid
	case errors.Is(err, fuzzy.ErrNoRuleFired):
		return flc.StatusNoRuleFired
	default:
		return flc.StatusBadRequest
	}
}

// HandleRequest evaluates req and fills resp. Requests that fail validation
// are answered with StatusBadRequest.
func HandleRequest(c *traffic.Controller, req *flc.Packet, resp *flc.Packet) {
	err := flc.ValidateRequest(req)
	if err != nil {
		*resp = flc.NewResponse(req, flc.StatusBadRequest)
		return
	}

	inputs := make(map[string]float64, flc.NumValues)
	for i, name := range traffic.InputNames {
		if req.Has(i) {
			inputs[name] = req.Values[i]
		}
	}

	d, err := c.Evaluate(inputs)
	*resp = flc.NewResponse(req, statusFor(err))
	if err != nil {
		return
	}
	resp.SetValue(flc.GreenLight, d.GreenLight)
	resp.SetValue(flc.Priority, d.Priority)
}
