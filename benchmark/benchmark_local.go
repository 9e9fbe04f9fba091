package benchmark

import (
	"math/rand/v2"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/traffic"
)

// RunLocal measures in-process decision latency with n requests spread over
// workers goroutines sharing c.
func RunLocal(log *zap.Logger, c *traffic.Controller, n, workers int) Result {
	newHistogram := func() *hdrhistogram.Histogram {
		return hdrhistogram.New(1, int64(time.Second), 3)
	}
	return run(log, "ns", n, workers, newHistogram,
		func(r *rand.Rand, hg *hdrhistogram.Histogram, n int) (errs int64) {
			for range n {
				in := randomInputs(r)
				t0 := time.Now()
				_, err := c.Decide(in)
				d := time.Since(t0)
				if err != nil {
					errs++
					continue
				}
				_ = hg.RecordValue(d.Nanoseconds())
			}
			return errs
		})
}
