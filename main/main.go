package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phil-mansfield/ssbar/config"
	"github.com/phil-mansfield/ssbar/logging"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	logger *zap.Logger
	prof   *os.File
}

// Close flushes the logger and stops the profiler.
func (fg *FileGroup) Close() error {
	var err error
	if fg.prof != nil {
		pprof.StopCPUProfile()
		err = fg.prof.Close()
	}
	if fg.logger != nil {
		// Syncing stderr fails on some platforms; only file errors matter.
		_ = fg.logger.Sync()
	}
	return err
}

// flags which override configuration file values.
type overrides struct {
	workers  int
	logLevel string
}

func (o *overrides) apply(shared *config.SharedConfig, an *config.AnalysisConfig) {
	if o.logLevel != "" {
		shared.LogLevel = o.logLevel
	}
	if an != nil && o.workers > 0 {
		an.Workers = o.workers
	}
}

// setup opens the files named by the shared configuration variables.
func setup(con *config.SharedConfig) (*FileGroup, error) {
	logger, err := logging.New(con.Logging())
	if err != nil {
		return nil, err
	}
	fg := &FileGroup{logger: logger}

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			return nil, errors.Wrap(err, "creating profile file")
		}
		if err = pprof.StartCPUProfile(fg.prof); err != nil {
			fg.prof.Close()
			return nil, errors.Wrap(err, "starting profiler")
		}
	}
	return fg, nil
}

func newRootCmd() *cobra.Command {
	o := &overrides{}
	root := &cobra.Command{
		Use:   "ssbar",
		Short: "Strangeness correlation analysis of generated collision events",
		Long: `ssbar generates toy collision events and measures two-particle
angular correlations between strange hadrons, subtracting same-sign pairs as
a background estimate. Each mode is configured by a file; run
'ssbar example-config <mode>' for a documented example.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVarP(&o.workers, "workers", "w", 0,
		"Number of worker goroutines. Overrides the config file.")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "",
		"One of [Debug | Info | Warn | Error]. Overrides the config file.")

	root.AddCommand(
		&cobra.Command{
			Use:   "generate -c config",
			Short: "Generate a dataset of strange hadrons",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGenerate(cmd.Context(), configFlag(cmd), o)
			},
		},
		&cobra.Command{
			Use:   "correlate -c config",
			Short: "Measure trigger-associate angular correlations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCorrelate(cmd.Context(), configFlag(cmd), o)
			},
		},
		&cobra.Command{
			Use:   "spectra -c config",
			Short: "Measure identity-code and momentum spectra",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSpectra(cmd.Context(), configFlag(cmd), o)
			},
		},
		&cobra.Command{
			Use:   "plot histdir outdir",
			Short: "Plot every one-dimensional histogram in a directory",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPlot(args[0], args[1], o)
			},
		},
		&cobra.Command{
			Use:   "example-config mode",
			Short: "Print an example config file for [Generate | Correlate | Spectra]",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := config.Example(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			},
		},
	)

	for _, name := range []string{"generate", "correlate", "spectra"} {
		cmd, _, _ := root.Find([]string{name})
		cmd.Flags().StringP("config", "c", "", "Configuration file.")
		cmd.MarkFlagRequired("config")
	}
	return root
}

func configFlag(cmd *cobra.Command) string {
	s, _ := cmd.Flags().GetString("config")
	return s
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
