package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/signalsfoundry/sp3-orbit-converter/sp3"
)

var _ sp3.MetricsRecorder = (*ConversionCollector)(nil)

const sampleSP3 = `+    1   L09  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0
++         5  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0  0
*  2020  1  1  0  0  0.00000000
PL09   7000.000000      0.000000      0.000000     12.500000
VL09      0.000000  75000.000000      0.000000 999999.999999
EOF
`

func TestCollectorRecordsParserMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewConversionCollector(reg)
	if err != nil {
		t.Fatalf("NewConversionCollector: %v", err)
	}

	res, err := sp3.Run(context.Background(),
		[]sp3.Input{{Name: "a.sp3", Reader: strings.NewReader(sampleSP3)}},
		nil, sp3.WithMetricsRecorder(collector))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Abort != nil {
		t.Fatalf("Abort: %v", res.Abort)
	}

	if got := testutil.ToFloat64(collector.Lines.WithLabelValues("position")); got != 1 {
		t.Fatalf("sp3_lines_total{kind=position} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.SeriesEntries.WithLabelValues("orbit")); got != 1 {
		t.Fatalf("sp3_series_entries_total{kind=orbit} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.SeriesEntries.WithLabelValues("velocity")); got != 1 {
		t.Fatalf("sp3_series_entries_total{kind=velocity} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Files.WithLabelValues("ok")); got != 1 {
		t.Fatalf("sp3_files_total{status=ok} = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "sp3_file_parse_duration_seconds", nil); count != 1 {
		t.Fatalf("sp3_file_parse_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestCollectorCountsDiagnostics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewConversionCollector(reg)
	if err != nil {
		t.Fatalf("NewConversionCollector: %v", err)
	}
	collector.IncDiagnostic("warning")
	collector.IncDiagnostic("warning")
	collector.IncDiagnostic("error")
	collector.ObserveFile("error", 10*time.Millisecond)

	if got := testutil.ToFloat64(collector.Diagnostics.WithLabelValues("warning")); got != 2 {
		t.Fatalf("sp3_diagnostics_total{severity=warning} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.Files.WithLabelValues("error")); got != 1 {
		t.Fatalf("sp3_files_total{status=error} = %v, want 1", got)
	}
}

func TestNewCollectorReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewConversionCollector(reg)
	if err != nil {
		t.Fatalf("first NewConversionCollector: %v", err)
	}
	second, err := NewConversionCollector(reg)
	if err != nil {
		t.Fatalf("second NewConversionCollector: %v", err)
	}
	second.IncOutput("orbit")
	if got := testutil.ToFloat64(first.Outputs.WithLabelValues("orbit")); got != 1 {
		t.Fatalf("shared sp3_outputs_written_total = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *ConversionCollector
	c.IncLine("position")
	c.IncEntry("orbit")
	c.IncDiagnostic("warning")
	c.ObserveFile("ok", time.Second)
	c.IncOutput("orbit")
	c.SetSatellites(3)
}

func TestWriteTextfileExposesConversionMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewConversionCollector(reg)
	if err != nil {
		t.Fatalf("NewConversionCollector: %v", err)
	}
	collector.IncLine("epoch")
	collector.IncEntry("clock")
	collector.IncDiagnostic("info")
	collector.ObserveFile("ok", time.Millisecond)
	collector.IncOutput("covariance")
	collector.SetSatellites(7)

	path := filepath.Join(t.TempDir(), "sp3conv.prom")
	if err := collector.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	for _, metric := range []string{
		"sp3_lines_total",
		"sp3_series_entries_total",
		"sp3_diagnostics_total",
		"sp3_files_total",
		"sp3_file_parse_duration_seconds",
		"sp3_outputs_written_total",
		"sp3_satellites 7",
	} {
		if !strings.Contains(string(data), metric) {
			t.Fatalf("expected %q in textfile output", metric)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
