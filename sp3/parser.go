package sp3

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/signalsfoundry/sp3-orbit-converter/core"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/kb"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
	"github.com/signalsfoundry/sp3-orbit-converter/timescale"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// ErrVelocityWithoutPosition indicates a velocity record whose satellite
	// has no orbit entry for the current epoch.
	ErrVelocityWithoutPosition = errors.New("velocity record without preceding position record")
	// ErrCovarianceWithoutSatellite indicates a covariance record before any
	// position record in the file.
	ErrCovarianceWithoutSatellite = errors.New("covariance record without preceding position record")
	// ErrUnreadableInput wraps I/O failures of an input stream.
	ErrUnreadableInput = errors.New("unreadable input")
	// ErrNoInputs is returned by Run when no inputs are given.
	ErrNoInputs = errors.New("no input files")
)

// ParseError is a structural error tied to one input line.
type ParseError struct {
	File string
	Line int
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s record: %v", e.File, e.Line, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Maximum accepted line length; SP3 lines are 80 columns.
const maxLineBytes = 1 << 16

// MetricsRecorder receives parser counters. Implementations must tolerate
// being called for every line.
type MetricsRecorder interface {
	IncLine(kind string)
	IncEntry(kind string)
	IncDiagnostic(severity string)
	ObserveFile(status string, elapsed time.Duration)
}

// Parser streams SP3 files into a shared kb.SeriesStore. One Parser serves
// one run: satellite auto-detection persists across the files it parses.
type Parser struct {
	pipeline Pipeline
	store    *kb.SeriesStore
	log      logging.Logger
	metrics  MetricsRecorder

	configured string
	detected   model.SatelliteID

	diags []model.Diagnostic
}

// ParserOption customises Parser construction.
type ParserOption func(*Parser)

// WithIdentifier sets the configured satellite identifier: an id,
// model.AllSatellites, or "" to auto-detect from the satellite list.
func WithIdentifier(id string) ParserOption {
	return func(p *Parser) {
		p.configured = id
	}
}

// WithEarthRotation rotates all output into the frame of r.
func WithEarthRotation(r core.EarthRotation) ParserOption {
	return func(p *Parser) {
		p.pipeline.Rotation = r
	}
}

// WithGravityField enables the CM2CE correction from g.
func WithGravityField(g core.GravityField) ParserOption {
	return func(p *Parser) {
		p.pipeline.Gravity = g
	}
}

// WithTimeScale overrides the UTC -> GPS converter.
func WithTimeScale(ts timescale.Converter) ParserOption {
	return func(p *Parser) {
		p.pipeline.TimeScale = ts
	}
}

// WithStore accumulates into an existing store.
func WithStore(s *kb.SeriesStore) ParserOption {
	return func(p *Parser) {
		p.store = s
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ParserOption {
	return func(p *Parser) {
		p.metrics = m
	}
}

// NewParser constructs a Parser.
func NewParser(log logging.Logger, opts ...ParserOption) *Parser {
	if log == nil {
		log = logging.Noop()
	}
	p := &Parser{log: log}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.pipeline.TimeScale == nil {
		p.pipeline.TimeScale = timescale.Default()
	}
	if p.store == nil {
		p.store = kb.NewSeriesStore()
	}
	if p.metrics != nil {
		p.store.Subscribe(func(ev kb.Event) {
			p.metrics.IncEntry(ev.Type.String())
		})
	}
	return p
}

// Store returns the store the parser accumulates into.
func (p *Parser) Store() *kb.SeriesStore { return p.store }

// Diagnostics returns the diagnostics collected so far.
func (p *Parser) Diagnostics() []model.Diagnostic {
	return append([]model.Diagnostic(nil), p.diags...)
}

// Identifier returns the configured identifier, or the auto-detected one
// when none was configured. It is empty when nothing was detected.
func (p *Parser) Identifier() string {
	if p.configured != "" {
		return p.configured
	}
	return string(p.detected)
}

// fileState is the per-file parsing state.
type fileState struct {
	name    string
	lineNo  int
	epoch   EpochContext
	slots   []model.SatelliteID // from "+" lines, in order
	accSeen int                 // "++" slots consumed so far

	// noData is the satellite whose position in the current epoch was the
	// all-zero vector.
	noData model.SatelliteID
}

// ParseFile streams one SP3 file into the store. It returns a *ParseError
// for structural problems; records stored before the error are kept.
func (p *Parser) ParseFile(ctx context.Context, name string, r io.Reader) (err error) {
	ctx, span := startSpan(ctx, "sp3.ParseFile", attribute.String("file", name))
	start := time.Now()
	st := &fileState{name: name, epoch: NewEpochContext()}
	defer func() {
		span.SetAttributes(attribute.Int("lines", st.lineNo))
		status := "ok"
		if err != nil {
			status = "error"
		}
		if p.metrics != nil {
			p.metrics.ObserveFile(status, time.Since(start))
		}
		endSpan(span, err)
	}()

	p.log.Info(ctx, "read file", logging.String("file", name))

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 128), maxLineBytes)
	for sc.Scan() {
		st.lineNo++
		line := sc.Text()
		kind := Classify(line)
		if p.metrics != nil {
			p.metrics.IncLine(kind.String())
		}

		switch kind {
		case KindEndOfFile:
			return nil
		case KindHeader, KindUnknown:
			continue
		}

		rec, err := Decode(kind, line)
		if err != nil {
			return &ParseError{File: name, Line: st.lineNo, Kind: kind, Err: err}
		}
		if err := p.apply(ctx, st, rec); err != nil {
			return &ParseError{File: name, Line: st.lineNo, Kind: kind, Err: err}
		}

		if kind == KindTimeSystem {
			// second line of the %c pair carries nothing we use
			if sc.Scan() {
				st.lineNo++
			}
		}
	}
	if err := sc.Err(); err != nil {
		return &ParseError{File: name, Line: st.lineNo, Err: fmt.Errorf("%w: %v", ErrUnreadableInput, err)}
	}
	return nil
}

// apply routes one decoded record.
func (p *Parser) apply(ctx context.Context, st *fileState, rec Record) error {
	switch rec := rec.(type) {
	case TimeSystemRecord:
		st.epoch.System = rec.System
		if !rec.Known {
			p.diagnose(ctx, model.Diagnostic{
				Severity: model.SeverityWarning,
				File:     st.name,
				Line:     st.lineNo,
				Message:  fmt.Sprintf("unknown time system (%s), assuming GPS time", rec.Tag),
			})
		}

	case SatelliteListRecord:
		st.slots = append(st.slots, rec.Slots...)

	case AccuracyRecord:
		for i, acc := range rec.Slots {
			idx := st.accSeen + i
			if p.configured != "" || p.detected != "" {
				break
			}
			if idx < len(st.slots) && st.slots[idx] != "" && acc > 0 {
				p.detected = st.slots[idx]
				p.log.Info(ctx, "selected satellite from header",
					logging.String("satellite", string(p.detected)),
					logging.String("file", st.name),
					logging.Int("accuracy", acc),
				)
			}
		}
		st.accSeen += len(rec.Slots)

	case EpochRecord:
		p.pipeline.EnterEpoch(&st.epoch, rec)
		st.noData = ""

	case PositionRecord:
		st.epoch.Satellite = rec.Satellite
		st.noData = ""
		if rec.Position.IsZero() {
			st.noData = rec.Satellite
		} else {
			p.store.AppendOrbit(rec.Satellite, model.OrbitEpoch{
				Time:     st.epoch.Time,
				Position: st.epoch.Position(rec.Position),
			})
		}
		if rec.HasClock {
			p.store.AppendClock(rec.Satellite, model.ClockEpoch{Time: st.epoch.Time, Bias: rec.ClockBias})
		}

	case VelocityRecord:
		if rec.Velocity.IsZero() {
			return nil
		}
		if rec.Satellite == st.noData {
			p.diagnose(ctx, model.Diagnostic{
				Severity: model.SeverityWarning,
				File:     st.name,
				Line:     st.lineNo,
				Message:  fmt.Sprintf("velocity of %s skipped, its position is missing in this epoch", rec.Satellite),
			})
			return nil
		}
		last, ok := p.store.LastOrbit(rec.Satellite)
		if !ok || !last.Time.Equal(st.epoch.Time) {
			return fmt.Errorf("%w: satellite %s at %s", ErrVelocityWithoutPosition, rec.Satellite, st.epoch.Time.Format(time.RFC3339Nano))
		}
		return p.store.SetLastVelocity(rec.Satellite, st.epoch.Velocity(rec.Velocity, last.Position))

	case CovarianceRecord:
		if st.epoch.Satellite == "" {
			return ErrCovarianceWithoutSatellite
		}
		p.store.AppendCovariance(st.epoch.Satellite, model.CovarianceEpoch{
			Time:       st.epoch.Time,
			Covariance: st.epoch.Covariance(rec.Covariance),
		})
	}
	return nil
}

func (p *Parser) diagnose(ctx context.Context, d model.Diagnostic) {
	p.diags = append(p.diags, d)
	if p.metrics != nil {
		p.metrics.IncDiagnostic(d.Severity.String())
	}
	fields := []logging.Field{logging.String("file", d.File)}
	if d.Line > 0 {
		fields = append(fields, logging.Int("line", d.Line))
	}
	switch d.Severity {
	case model.SeverityError:
		p.log.Error(ctx, d.Message, fields...)
	case model.SeverityWarning:
		p.log.Warn(ctx, d.Message, fields...)
	default:
		p.log.Info(ctx, d.Message, fields...)
	}
}
