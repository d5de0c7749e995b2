package analyzer

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/logtriage/logtriage/pkg/event"
)

// LatencyStats summarizes the response time distribution of a record set, in
// milliseconds.
type LatencyStats struct {
	Count int
	Mean  float64
	P50   float64
	P90   float64
	P99   float64
}

// LatencySummary computes mean and percentile response times over all records.
func LatencySummary(records []event.Request) LatencyStats {
	if len(records) == 0 {
		return LatencyStats{}
	}
	sample := make([]float64, len(records))
	for i, r := range records {
		sample[i] = float64(r.ResponseTime)
	}
	sort.Float64s(sample)
	return LatencyStats{
		Count: len(sample),
		Mean:  stat.Mean(sample, nil),
		P50:   stat.Quantile(0.5, stat.Empirical, sample, nil),
		P90:   stat.Quantile(0.9, stat.Empirical, sample, nil),
		P99:   stat.Quantile(0.99, stat.Empirical, sample, nil),
	}
}
