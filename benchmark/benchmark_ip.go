package benchmark

import (
	"context"
	"math/rand/v2"
	"net"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/client"
)

const ipRequestTimeout = time.Second

// RunIP measures round trip times of n UDP evaluation requests to
// remoteAddr spread over workers goroutines.
func RunIP(log *zap.Logger, localAddr, remoteAddr *net.UDPAddr, n, workers int) Result {
	newHistogram := func() *hdrhistogram.Histogram {
		return hdrhistogram.New(1, 50000, 5)
	}
	return run(log, "us", n, workers, newHistogram,
		func(r *rand.Rand, hg *hdrhistogram.Histogram, n int) (errs int64) {
			c := &client.IPClient{Histo: hg}
			for range n {
				ctx, cancel := context.WithTimeout(context.Background(), ipRequestTimeout)
				_, err := c.Evaluate(ctx, log, localAddr, remoteAddr, randomInputs(r))
				cancel()
				if err != nil {
					log.Debug("failed to evaluate", zap.Stringer("to", remoteAddr), zap.Error(err))
					errs++
				}
			}
			return errs
		})
}
