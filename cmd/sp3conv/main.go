// Command sp3conv converts SP3 orbit files into per-satellite orbit, clock
// and covariance series.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/sp3-orbit-converter/internal/config"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
)

// options are the flags shared by all commands. Flags that were set on the
// command line take precedence over the config file and the environment.
type options struct {
	configPath string
	logLevel   string
	logFormat  string

	satellite     string
	orbit         string
	clock         string
	covariance    string
	earthRotation string
	gravity       string
	metricsFile   string
	tracing       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "sp3conv",
		Short: "Convert SP3 orbit files into per-satellite series",
		Long: `sp3conv reads SP3 ephemeris files and extracts orbit (position and
velocity), clock bias and position covariance series per satellite.
Positions are taken from the terrestrial frame of the file into the
celestial frame when an earth rotation model is set, and corrected from
centre of Earth to centre of mass when a gravity field is set.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")
	root.PersistentFlags().StringVarP(&opts.satellite, "satellite", "s", "", `satellite id, "<all>", or empty to use the header`)
	root.PersistentFlags().StringVar(&opts.earthRotation, "earth-rotation", "", "earth rotation model (none, gmst)")
	root.PersistentFlags().StringVar(&opts.gravity, "gravity", "", "gravity field model (none, static, tidal)")

	root.AddCommand(newConvertCmd(opts, stderr))
	root.AddCommand(newInspectCmd(opts, stderr))
	return root
}

// resolveConfig layers the config file, the environment and the flags.
func resolveConfig(cmd *cobra.Command, opts *options, args []string) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if len(args) > 0 {
		cfg.Inputs = args
	}
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	set("log-level", &cfg.Logging.Level, opts.logLevel)
	set("log-format", &cfg.Logging.Format, opts.logFormat)
	set("satellite", &cfg.Satellite, opts.satellite)
	set("earth-rotation", &cfg.Frame.EarthRotation, opts.earthRotation)
	set("gravity", &cfg.Frame.Gravity.Model, opts.gravity)
	set("orbit", &cfg.Output.Orbit, opts.orbit)
	set("clock", &cfg.Output.Clock, opts.clock)
	set("covariance", &cfg.Output.Covariance, opts.covariance)
	set("metrics-textfile", &cfg.Metrics.Textfile, opts.metricsFile)
	if flags.Changed("tracing") {
		cfg.Tracing.Enabled = opts.tracing
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) logging.Logger {
	lc := cfg.LoggerConfig()
	lc.Output = stderr
	return logging.New(lc)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
