package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/config"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/store"
	"github.com/signalsfoundry/sp3-orbit-converter/kb"
	"github.com/signalsfoundry/sp3-orbit-converter/model"
	"github.com/signalsfoundry/sp3-orbit-converter/sp3"
)

type chartOptions struct {
	enabled bool
	width   int
	height  int
}

func newInspectCmd(opts *options, stderr io.Writer) *cobra.Command {
	var (
		chart  chartOptions
		stored bool
	)
	cmd := &cobra.Command{
		Use:   "inspect [flags] FILE...",
		Short: "List the satellites and series found in SP3 files or written databases",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			if len(cfg.Inputs) == 0 {
				return config.ErrNoInputs
			}
			if stored {
				return runInspectStored(cmd.Context(), cfg.Inputs, cmd.OutOrStdout(), chart)
			}
			return runInspect(cmd.Context(), cfg, newLogger(cfg, stderr), cmd.OutOrStdout(), chart)
		},
	}
	cmd.Flags().BoolVar(&stored, "stored", false, "read databases written by convert instead of SP3 files")
	cmd.Flags().BoolVar(&chart.enabled, "chart", false, "plot the orbit radius of the selected satellite")
	cmd.Flags().IntVar(&chart.width, "width", 72, "chart width in columns")
	cmd.Flags().IntVar(&chart.height, "height", 12, "chart height in rows")
	return cmd
}

func runInspect(ctx context.Context, cfg *config.Config, log logging.Logger, stdout io.Writer, chart chartOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, log = logging.WithRunLogger(ctx, log)

	parserOpts, err := pipelineOptions(cfg)
	if err != nil {
		return err
	}
	inputs, closeInputs := openInputs(cfg.Inputs)
	defer closeInputs()

	res, err := sp3.Run(ctx, inputs, log, parserOpts...)
	if err != nil {
		return err
	}

	printCounts(stdout, res)

	id := res.Identifier
	if id != "" && id != model.AllSatellites {
		orbit := res.Store.Orbit(model.SatelliteID(id))
		printStatistics(stdout, id, kb.ComputeOrbitStatistics(orbit))
		if chart.enabled {
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, renderRadiusChart(orbit, chart.width, chart.height, fmt.Sprintf("%s orbit radius (km)", id)))
		}
	}

	if res.Abort != nil {
		return fmt.Errorf("%w: %w", ErrAborted, res.Abort)
	}
	return nil
}

// printCounts writes one row per satellite; the selected one is starred.
func printCounts(w io.Writer, res *sp3.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SATELLITE\tORBIT\tVELOCITY\tCLOCK\tCOVARIANCE")
	for _, id := range res.Store.Satellites() {
		c := res.Store.Counts(id)
		mark := ""
		if string(id) == res.Identifier {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%d\t%d\t%d\t%d\n", id, mark, c.Orbit, c.Velocity, c.Clock, c.Covariance)
	}
	_ = tw.Flush()
}

func printStatistics(w io.Writer, id string, s kb.OrbitStatistics) {
	if s.Epochs == 0 {
		fmt.Fprintf(w, "\n%s: no orbit data\n", id)
		return
	}
	fmt.Fprintf(w, "\n%s: %d epochs (%d with velocity) from %s to %s, sampling %s, %d gap(s)\n",
		id, s.Epochs, s.WithVelocity,
		s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339),
		s.MedianSampling, s.Gaps)
}

type storedSeries struct {
	path  string
	orbit model.OrbitSeries
	clock model.ClockSeries
	cov   model.CovarianceSeries
}

func readStored(ctx context.Context, path string) (storedSeries, error) {
	// the store creates missing databases on open
	if _, err := os.Stat(path); err != nil {
		return storedSeries{}, err
	}
	s := storedSeries{path: path}
	var err error
	if s.orbit, err = store.ReadOrbit(ctx, path); err != nil {
		return s, err
	}
	if s.clock, err = store.ReadClock(ctx, path); err != nil {
		return s, err
	}
	s.cov, err = store.ReadCovariance(ctx, path)
	return s, err
}

// runInspectStored summarises series databases previously written by convert.
func runInspectStored(ctx context.Context, paths []string, stdout io.Writer, chart chartOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	all := make([]storedSeries, 0, len(paths))
	for _, path := range paths {
		s, err := readStored(ctx, path)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", path, err)
		}
		all = append(all, s)
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATABASE\tORBIT\tVELOCITY\tCLOCK\tCOVARIANCE")
	for _, s := range all {
		stats := kb.ComputeOrbitStatistics(s.orbit)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.path, stats.Epochs, stats.WithVelocity, len(s.clock), len(s.cov))
	}
	_ = tw.Flush()

	for _, s := range all {
		if len(s.orbit) == 0 {
			continue
		}
		name := filepath.Base(s.path)
		printStatistics(stdout, name, kb.ComputeOrbitStatistics(s.orbit))
		if chart.enabled {
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, renderRadiusChart(s.orbit, chart.width, chart.height, fmt.Sprintf("%s orbit radius (km)", name)))
		}
	}
	return nil
}
