package kb

import (
	"sort"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// OrbitStatistics summarises an orbit series for status output.
type OrbitStatistics struct {
	Epochs         int
	WithVelocity   int
	Start, End     time.Time
	MedianSampling time.Duration
	// Gaps counts steps longer than 1.5 times the median sampling.
	Gaps int
}

// ComputeOrbitStatistics summarises series.
func ComputeOrbitStatistics(series model.OrbitSeries) OrbitStatistics {
	stats := OrbitStatistics{Epochs: len(series)}
	if len(series) == 0 {
		return stats
	}
	stats.Start = series[0].Time
	stats.End = series[len(series)-1].Time

	steps := make([]time.Duration, 0, len(series))
	for i, e := range series {
		if e.HasVelocity() {
			stats.WithVelocity++
		}
		if i > 0 {
			steps = append(steps, e.Time.Sub(series[i-1].Time))
		}
	}
	if len(steps) == 0 {
		return stats
	}

	sorted := append([]time.Duration(nil), steps...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	stats.MedianSampling = sorted[len(sorted)/2]

	for _, d := range steps {
		if d*2 > stats.MedianSampling*3 {
			stats.Gaps++
		}
	}
	return stats
}
