package kb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// SeriesWriter persists one selected series. It is invoked once per output.
type SeriesWriter interface {
	WriteOrbit(ctx context.Context, path string, series model.OrbitSeries) error
	WriteClock(ctx context.Context, path string, series model.ClockSeries) error
	WriteCovariance(ctx context.Context, path string, series model.CovarianceSeries) error
}

// OutputPaths names the base output for each series kind. An empty path
// disables that kind.
type OutputPaths struct {
	Orbit      string
	Clock      string
	Covariance string
}

// Output is one series bound for one path.
type Output[S any] struct {
	Satellite model.SatelliteID
	Path      string
	Series    S
}

// Plan lists every write the selection policy asks for.
type Plan struct {
	Identifier  string
	Orbits      []Output[model.OrbitSeries]
	Clocks      []Output[model.ClockSeries]
	Covariances []Output[model.CovarianceSeries]
}

// Len returns the number of planned writes.
func (p Plan) Len() int {
	return len(p.Orbits) + len(p.Clocks) + len(p.Covariances)
}

// Plan applies the selection policy. With identifier == model.AllSatellites
// every non-empty series is selected and the satellite id is appended to the
// base name of its path. Otherwise only identifier is selected and its paths
// are used as given; an empty orbit series for it yields a warning.
func (s *SeriesStore) Plan(identifier string, paths OutputPaths) (Plan, []model.Diagnostic) {
	plan := Plan{Identifier: identifier}
	var diags []model.Diagnostic

	if identifier == model.AllSatellites {
		for _, id := range s.Satellites() {
			if orbit := s.Orbit(id); paths.Orbit != "" && len(orbit) > 0 {
				plan.Orbits = append(plan.Orbits, Output[model.OrbitSeries]{id, AppendBaseName(paths.Orbit, string(id)), orbit})
			}
			if clock := s.Clock(id); paths.Clock != "" && len(clock) > 0 {
				plan.Clocks = append(plan.Clocks, Output[model.ClockSeries]{id, AppendBaseName(paths.Clock, string(id)), clock})
			}
			if cov := s.Covariance(id); paths.Covariance != "" && len(cov) > 0 {
				plan.Covariances = append(plan.Covariances, Output[model.CovarianceSeries]{id, AppendBaseName(paths.Covariance, string(id)), cov})
			}
		}
		return plan, diags
	}

	id := model.SatelliteID(identifier)
	orbit := s.Orbit(id)
	if len(orbit) == 0 {
		diags = append(diags, model.Diagnostic{
			Severity: model.SeverityWarning,
			Message:  fmt.Sprintf("no data found for identifier=%q", identifier),
		})
	}
	if paths.Orbit != "" && len(orbit) > 0 {
		plan.Orbits = append(plan.Orbits, Output[model.OrbitSeries]{id, paths.Orbit, orbit})
	}
	if clock := s.Clock(id); paths.Clock != "" && len(clock) > 0 {
		plan.Clocks = append(plan.Clocks, Output[model.ClockSeries]{id, paths.Clock, clock})
	}
	if cov := s.Covariance(id); paths.Covariance != "" && len(cov) > 0 {
		plan.Covariances = append(plan.Covariances, Output[model.CovarianceSeries]{id, paths.Covariance, cov})
	}
	return plan, diags
}

// Emit hands every planned output to w in plan order and stops at the first
// write error. A nil log falls back to the logger carried by ctx.
func Emit(ctx context.Context, plan Plan, w SeriesWriter, log logging.Logger) error {
	if log == nil {
		log = logging.LoggerFromContext(ctx)
	}
	if log == nil {
		log = logging.Noop()
	}
	for _, o := range plan.Orbits {
		log.Info(ctx, "write orbit data", logging.String("path", o.Path), logging.String("satellite", string(o.Satellite)))
		if err := w.WriteOrbit(ctx, o.Path, o.Series); err != nil {
			return fmt.Errorf("write orbit %s: %w", o.Path, err)
		}
		if plan.Identifier != model.AllSatellites {
			stats := ComputeOrbitStatistics(o.Series)
			log.Info(ctx, "orbit statistics",
				logging.Int("epochs", stats.Epochs),
				logging.Int("with_velocity", stats.WithVelocity),
				logging.Any("start", stats.Start),
				logging.Any("end", stats.End),
				logging.Any("median_sampling", stats.MedianSampling),
				logging.Int("gaps", stats.Gaps),
			)
		}
	}
	for _, o := range plan.Clocks {
		log.Info(ctx, "write clock data", logging.String("path", o.Path), logging.String("satellite", string(o.Satellite)))
		if err := w.WriteClock(ctx, o.Path, o.Series); err != nil {
			return fmt.Errorf("write clock %s: %w", o.Path, err)
		}
	}
	for _, o := range plan.Covariances {
		log.Info(ctx, "write covariance data", logging.String("path", o.Path), logging.String("satellite", string(o.Satellite)))
		if err := w.WriteCovariance(ctx, o.Path, o.Series); err != nil {
			return fmt.Errorf("write covariance %s: %w", o.Path, err)
		}
	}
	return nil
}

// AppendBaseName inserts "."+suffix between the base name and extension of
// path: "out/orbit.dat" -> "out/orbit.L09.dat".
func AppendBaseName(path, suffix string) string {
	dir, file := filepath.Split(path)
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return dir + base + "." + suffix + ext
}
