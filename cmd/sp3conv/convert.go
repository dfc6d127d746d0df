package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/config"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/observability"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/store"
	"github.com/signalsfoundry/sp3-orbit-converter/kb"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
	"github.com/signalsfoundry/sp3-orbit-converter/sp3"
	"github.com/signalsfoundry/sp3-orbit-converter/timescale"
)

// ErrAborted is returned when a structural error stopped the run. The data
// read before the error has been written.
var ErrAborted = errors.New("conversion aborted")

func newConvertCmd(opts *options, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [flags] FILE...",
		Short: "Convert SP3 files into SQLite series databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			_, err = runConvert(cmd.Context(), cfg, newLogger(cfg, stderr), cmd.OutOrStdout())
			return err
		},
	}
	cmd.Flags().StringVarP(&opts.orbit, "orbit", "o", "", "orbit output database (required)")
	cmd.Flags().StringVar(&opts.clock, "clock", "", "clock output database")
	cmd.Flags().StringVar(&opts.covariance, "covariance", "", "covariance output database")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file after the run")
	cmd.Flags().BoolVar(&opts.tracing, "tracing", false, "enable OpenTelemetry tracing")
	return cmd
}

// pipelineOptions builds the parser options for cfg.
func pipelineOptions(cfg *config.Config) ([]sp3.ParserOption, error) {
	ts := timescale.Default()
	opts := []sp3.ParserOption{
		sp3.WithIdentifier(cfg.Satellite),
		sp3.WithTimeScale(ts),
	}

	rot, err := cfg.Frame.EarthRotation(ts.GPSToUTC)
	if err != nil {
		return nil, err
	}
	if rot != nil {
		opts = append(opts, sp3.WithEarthRotation(rot))
	}

	field, err := cfg.Frame.Gravity.Field()
	if err != nil {
		return nil, err
	}
	if field != nil {
		opts = append(opts, sp3.WithGravityField(field))
	}
	return opts, nil
}

// runConvert parses cfg.Inputs, writes the selected series and returns the
// plan that was emitted.
func runConvert(ctx context.Context, cfg *config.Config, log logging.Logger, stdout io.Writer) (kb.Plan, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, log = logging.WithRunLogger(ctx, log)
	ctx = logging.ContextWithLogger(ctx, log)

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return kb.Plan{}, err
	}
	defer observability.ShutdownWithTimeout(context.WithoutCancel(ctx), shutdown, log)

	collector, err := observability.NewConversionCollector(prometheus.NewRegistry())
	if err != nil {
		return kb.Plan{}, err
	}

	parserOpts, err := pipelineOptions(cfg)
	if err != nil {
		return kb.Plan{}, err
	}
	parserOpts = append(parserOpts, sp3.WithMetricsRecorder(collector))

	inputs, closeInputs := openInputs(cfg.Inputs)
	defer closeInputs()

	res, err := sp3.Run(ctx, inputs, log, parserOpts...)
	if err != nil {
		return kb.Plan{}, err
	}
	collector.SetSatellites(len(res.Store.Satellites()))

	var plan kb.Plan
	if res.Identifier != "" {
		var diags []model.Diagnostic
		plan, diags = res.Store.Plan(res.Identifier, kb.OutputPaths{
			Orbit:      cfg.Output.Orbit,
			Clock:      cfg.Output.Clock,
			Covariance: cfg.Output.Covariance,
		})
		for _, d := range diags {
			log.Warn(ctx, d.Message, logging.String("satellite", res.Identifier))
			collector.IncDiagnostic(d.Severity.String())
		}

		w := &meteredWriter{SeriesWriter: store.NewSQLiteWriter(log), metrics: collector}
		if err := kb.Emit(ctx, plan, w, log); err != nil {
			return plan, err
		}
		printPlan(stdout, plan)
	}

	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.Warn(ctx, "failed to write metrics textfile", logging.String("path", cfg.Metrics.Textfile), logging.Err(err))
		}
	}

	log.Info(ctx, "conversion finished",
		logging.Int("files", res.FilesParsed),
		logging.Int("satellites", len(res.Store.Satellites())),
		logging.Int("outputs", plan.Len()),
	)
	if res.Abort != nil {
		return plan, fmt.Errorf("%w: %w", ErrAborted, res.Abort)
	}
	return plan, nil
}

func printPlan(w io.Writer, plan kb.Plan) {
	for _, o := range plan.Orbits {
		fmt.Fprintf(w, "orbit\t%s\t%d epochs\t%s\n", o.Satellite, len(o.Series), o.Path)
	}
	for _, o := range plan.Clocks {
		fmt.Fprintf(w, "clock\t%s\t%d epochs\t%s\n", o.Satellite, len(o.Series), o.Path)
	}
	for _, o := range plan.Covariances {
		fmt.Fprintf(w, "covariance\t%s\t%d epochs\t%s\n", o.Satellite, len(o.Series), o.Path)
	}
}

// meteredWriter counts successful writes.
type meteredWriter struct {
	kb.SeriesWriter
	metrics *observability.ConversionCollector
}

func (w *meteredWriter) WriteOrbit(ctx context.Context, path string, s model.OrbitSeries) error {
	if err := w.SeriesWriter.WriteOrbit(ctx, path, s); err != nil {
		return err
	}
	w.metrics.IncOutput("orbit")
	return nil
}

func (w *meteredWriter) WriteClock(ctx context.Context, path string, s model.ClockSeries) error {
	if err := w.SeriesWriter.WriteClock(ctx, path, s); err != nil {
		return err
	}
	w.metrics.IncOutput("clock")
	return nil
}

func (w *meteredWriter) WriteCovariance(ctx context.Context, path string, s model.CovarianceSeries) error {
	if err := w.SeriesWriter.WriteCovariance(ctx, path, s); err != nil {
		return err
	}
	w.metrics.IncOutput("covariance")
	return nil
}
