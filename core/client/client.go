package client

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"example.com/fuzzy-signal/base/metrics"

	"example.com/fuzzy-signal/core/fuzzy"
	"example.com/fuzzy-signal/core/traffic"

	"example.com/fuzzy-signal/net/flc"
)

type ipClientMetrics struct {
	reqsSent      prometheus.Counter
	pktsReceived  prometheus.Counter
	respsAccepted prometheus.Counter
}

func newIPClientMetrics() *ipClientMetrics {
	return &ipClientMetrics{
		reqsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.IPClientReqsSentN,
			Help: metrics.IPClientReqsSentH,
		}),
		pktsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.IPClientPktsReceivedN,
			Help: metrics.IPClientPktsReceivedH,
		}),
		respsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.IPClientRespsAcceptedN,
			Help: metrics.IPClientRespsAcceptedH,
		}),
	}
}

type quicClientMetrics struct {
	reqsSent      prometheus.Counter
	respsAccepted prometheus.Counter
}

func newQUICClientMetrics() *quicClientMetrics {
	return &quicClientMetrics{
		reqsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.QUICClientReqsSentN,
			Help: metrics.QUICClientReqsSentH,
		}),
		respsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: metrics.QUICClientRespsAcceptedN,
			Help: metrics.QUICClientRespsAcceptedH,
		}),
	}
}

var (
	ipMetrics   atomic.Pointer[ipClientMetrics]
	quicMetrics atomic.Pointer[quicClientMetrics]
)

func init() {
	ipMetrics.Store(newIPClientMetrics())
	quicMetrics.Store(newQUICClientMetrics())
}

func newRequest(id uint32, in traffic.Inputs) flc.Packet {
	req := flc.NewRequest(id)
	for i, x := range in.Values() {
		req.SetValue(i, x)
	}
	return req
}

// decision maps a validated response to a decision or to the error the
// server reported. Evaluation failures wrap the matching fuzzy error.
func decision(resp *flc.Packet) (traffic.Decision, error) {
	switch resp.Status {
	case flc.StatusOK:
		return traffic.Decision{
			GreenLight: resp.Values[flc.GreenLight],
			Priority:   resp.Values[flc.Priority],
		}, nil
	case flc.StatusMissing:
		return traffic.Decision{}, fmt.Errorf("server: %w", fuzzy.ErrMissingInput)
	case flc.StatusNoRuleFired:
		return traffic.Decision{}, fmt.Errorf("server: %w", fuzzy.ErrNoRuleFired)
	case flc.StatusInvalid:
		return traffic.Decision{}, fmt.Errorf("server: %w", fuzzy.ErrInvalidInput)
	default:
		return traffic.Decision{}, errBadRequest
	}
}
