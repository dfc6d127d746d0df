package sp3

import (
	"context"
	"fmt"
	"io"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/kb"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
	"go.opentelemetry.io/otel/attribute"
)

// Input is one SP3 byte stream.
type Input struct {
	Name   string
	Reader io.Reader
}

// Result is what a run aggregated.
type Result struct {
	Store *kb.SeriesStore
	// Identifier is the configured identifier, or the auto-detected one.
	Identifier string
	// FilesParsed counts the files read to completion.
	FilesParsed int
	// Abort is the structural error that stopped the run early, if any.
	Abort       error
	Diagnostics []model.Diagnostic
}

// Run parses inputs in order. The first structural error stops the run:
// remaining inputs are skipped, and the error is reported in Result.Abort
// and as a diagnostic while the data aggregated so far is still returned.
// The returned error is only non-nil for invalid arguments.
func Run(ctx context.Context, inputs []Input, log logging.Logger, opts ...ParserOption) (res *Result, err error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, span := startSpan(ctx, "sp3.Run", attribute.Int("inputs", len(inputs)))
	defer func() {
		if res != nil {
			endSpan(span, res.Abort)
			return
		}
		endSpan(span, err)
	}()

	p := NewParser(log, opts...)
	res = &Result{Store: p.Store()}

	for i, in := range inputs {
		if cerr := ctx.Err(); cerr != nil {
			res.Abort = &ParseError{File: in.Name, Err: fmt.Errorf("%w: %w", ErrUnreadableInput, cerr)}
		} else if perr := p.ParseFile(ctx, in.Name, in.Reader); perr != nil {
			res.Abort = perr
		}
		if res.Abort != nil {
			p.diagnose(ctx, model.Diagnostic{
				Severity: model.SeverityError,
				File:     in.Name,
				Message:  fmt.Sprintf("%v; skipping %d remaining file(s)", res.Abort, len(inputs)-i-1),
			})
			break
		}
		res.FilesParsed++
	}

	res.Identifier = p.Identifier()
	if res.Identifier == "" {
		p.diagnose(ctx, model.Diagnostic{
			Severity: model.SeverityWarning,
			Message:  "no satellite identifier configured and none detected in the satellite list",
		})
	}
	res.Diagnostics = p.Diagnostics()
	return res, nil
}
