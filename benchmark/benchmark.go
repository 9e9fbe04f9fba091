package benchmark

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"go.uber.org/zap"

	"example.com/fuzzy-signal/core/traffic"
)

const seed = 0x5eed

// Result summarizes a benchmark run. Latencies are in the unit of the run
// (nanoseconds for local runs, microseconds for network runs).
type Result struct {
	Unit      string
	Requests  int64
	Errors    int64
	Elapsed   time.Duration
	Histogram *hdrhistogram.Histogram
}

func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Requests-r.Errors) / r.Elapsed.Seconds()
}

func (r Result) Print(w io.Writer) {
	fmt.Fprintf(w, "requests: %d, errors: %d, elapsed: %v, throughput: %.0f/s\n",
		r.Requests, r.Errors, r.Elapsed, r.Throughput())
	fmt.Fprintf(w, "latency (%s): min %d, p50 %d, p90 %d, p99 %d, max %d\n", r.Unit,
		r.Histogram.Min(),
		r.Histogram.ValueAtQuantile(50),
		r.Histogram.ValueAtQuantile(90),
		r.Histogram.ValueAtQuantile(99),
		r.Histogram.Max(),
	)
	r.Histogram.PercentilesPrint(w, 1, 1.0)
}

// randomInputs draws inputs uniformly from the variable domains.
func randomInputs(r *rand.Rand) traffic.Inputs {
	return traffic.Inputs{
		TrafficDensity:   100 * r.Float64(),
		PedestrianCount:  100 * r.Float64(),
		WeatherCondition: 100 * r.Float64(),
		TimeOfDay:        24 * r.Float64(),
		Emergency:        float64(r.IntN(2)),
	}
}

type worker func(r *rand.Rand, hg *hdrhistogram.Histogram, n int) (errs int64)

func run(log *zap.Logger, unit string, n, workers int, newHistogram func() *hdrhistogram.Histogram, w worker) Result {
	if workers <= 0 {
		workers = 1
	}
	res := Result{
		Unit:      unit,
		Histogram: newHistogram(),
	}
	var mu sync.Mutex
	sg := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		m := n / workers
		if i < n%workers {
			m++
		}
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewPCG(seed, uint64(i)))
			hg := newHistogram()
			<-sg
			errs := w(r, hg, m)
			mu.Lock()
			defer mu.Unlock()
			res.Requests += int64(m)
			res.Errors += errs
			dropped := res.Histogram.Merge(hg)
			if dropped != 0 {
				log.Info("failed to merge histogram values", zap.Int64("dropped", dropped))
			}
		}()
	}
	t0 := time.Now()
	close(sg)
	wg.Wait()
	res.Elapsed = time.Since(t0)
	log.Info("benchmark finished",
		zap.Int64("requests", res.Requests),
		zap.Int64("errors", res.Errors),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res
}
