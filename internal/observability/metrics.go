package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConversionCollector bundles the Prometheus metrics of a conversion run. It
// satisfies sp3.MetricsRecorder and is nil-safe.
type ConversionCollector struct {
	gatherer prometheus.Gatherer

	Lines         *prometheus.CounterVec
	SeriesEntries *prometheus.CounterVec
	Diagnostics   *prometheus.CounterVec
	Files         *prometheus.CounterVec
	FileDuration  prometheus.Histogram
	Outputs       *prometheus.CounterVec
	Satellites    prometheus.Gauge
}

// NewConversionCollector registers conversion metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewConversionCollector(reg prometheus.Registerer) (*ConversionCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	lines, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sp3_lines_total",
		Help: "Total number of SP3 lines read, labeled by record kind.",
	}, []string{"kind"}), "sp3_lines_total")
	if err != nil {
		return nil, err
	}

	entries, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sp3_series_entries_total",
		Help: "Total number of series entries stored, labeled by series kind.",
	}, []string{"kind"}), "sp3_series_entries_total")
	if err != nil {
		return nil, err
	}

	diags, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sp3_diagnostics_total",
		Help: "Total number of diagnostics raised, labeled by severity.",
	}, []string{"severity"}), "sp3_diagnostics_total")
	if err != nil {
		return nil, err
	}

	files, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sp3_files_total",
		Help: "Total number of input files parsed, labeled by outcome.",
	}, []string{"status"}), "sp3_files_total")
	if err != nil {
		return nil, err
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sp3_file_parse_duration_seconds",
		Help:    "Time spent parsing one SP3 file.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}), "sp3_file_parse_duration_seconds")
	if err != nil {
		return nil, err
	}

	outputs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sp3_outputs_written_total",
		Help: "Total number of series outputs written, labeled by series kind.",
	}, []string{"kind"}), "sp3_outputs_written_total")
	if err != nil {
		return nil, err
	}

	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sp3_satellites",
		Help: "Number of satellites with at least one stored entry.",
	}), "sp3_satellites")
	if err != nil {
		return nil, err
	}

	return &ConversionCollector{
		gatherer:      gatherer,
		Lines:         lines,
		SeriesEntries: entries,
		Diagnostics:   diags,
		Files:         files,
		FileDuration:  duration,
		Outputs:       outputs,
		Satellites:    satellites,
	}, nil
}

// IncLine counts one classified line.
func (c *ConversionCollector) IncLine(kind string) {
	if c == nil || c.Lines == nil {
		return
	}
	c.Lines.WithLabelValues(kind).Inc()
}

// IncEntry counts one stored series entry.
func (c *ConversionCollector) IncEntry(kind string) {
	if c == nil || c.SeriesEntries == nil {
		return
	}
	c.SeriesEntries.WithLabelValues(kind).Inc()
}

// IncDiagnostic counts one diagnostic.
func (c *ConversionCollector) IncDiagnostic(severity string) {
	if c == nil || c.Diagnostics == nil {
		return
	}
	c.Diagnostics.WithLabelValues(severity).Inc()
}

// ObserveFile records the outcome and duration of one parsed file.
func (c *ConversionCollector) ObserveFile(status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Files != nil {
		c.Files.WithLabelValues(status).Inc()
	}
	if c.FileDuration != nil {
		c.FileDuration.Observe(elapsed.Seconds())
	}
}

// IncOutput counts one written output.
func (c *ConversionCollector) IncOutput(kind string) {
	if c == nil || c.Outputs == nil {
		return
	}
	c.Outputs.WithLabelValues(kind).Inc()
}

// SetSatellites updates the satellite gauge.
func (c *ConversionCollector) SetSatellites(n int) {
	if c == nil || c.Satellites == nil {
		return
	}
	c.Satellites.Set(float64(n))
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *ConversionCollector) Gatherer() prometheus.Gatherer {
	if c == nil || c.gatherer == nil {
		return prometheus.DefaultGatherer
	}
	return c.gatherer
}

// WriteTextfile writes the gathered metrics in the text exposition format
// to path, for pickup by the node exporter textfile collector.
func (c *ConversionCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.Gatherer()); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
