package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/phil-mansfield/ssbar/analysis"
	"github.com/phil-mansfield/ssbar/config"
	"github.com/phil-mansfield/ssbar/dataset"
	"github.com/phil-mansfield/ssbar/gen"
	"github.com/phil-mansfield/ssbar/hist"
	"github.com/phil-mansfield/ssbar/logging"
	"github.com/phil-mansfield/ssbar/metrics"
	"github.com/phil-mansfield/ssbar/plot"
)

func runGenerate(ctx context.Context, fname string, o *overrides) error {
	con, err := config.ReadGenerate(fname)
	if err != nil {
		return err
	}
	o.apply(&con.SharedConfig, nil)

	fg, err := setup(&con.SharedConfig)
	if err != nil {
		return err
	}
	defer fg.Close()
	log := fg.logger

	g, err := gen.New(con.Gen())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(con.Output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	w, err := dataset.Create(con.Output, con.DatasetFormat(), g.Header())
	if err != nil {
		return err
	}

	log.Info("Generating events",
		zap.Stringer("run", g.RunID()), zap.Int("events", con.Events),
		zap.Int64("seed", g.Seed()), zap.String("output", con.Output))

	rec := metrics.New("generate")
	start := time.Now()
	stats, err := g.Run(ctx, w, log, rec)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	sum := &Summary{
		RunID:     g.RunID().String(),
		Mode:      "generate",
		Output:    con.Output,
		Started:   start,
		Seed:      g.Seed(),
		Events:    stats.Generated,
		Written:   stats.Written,
		Particles: stats.Particles,
		Empty:     stats.Empty,
		Duration:  stats.Elapsed.String(),
	}
	if con.ValidHistDir() {
		hs := g.Monitor.Histograms()
		if err := hist.WriteDir(con.HistDir, hs...); err != nil {
			return err
		}
		sum.Histograms = histNames(hs)
	}
	if err := sum.Write(summaryFile(con.Output)); err != nil {
		return err
	}
	if err := writeMetrics(&con.SharedConfig, rec); err != nil {
		return err
	}

	log.Info("Finished generating",
		zap.Int64("generated", stats.Generated),
		zap.Int64("written", stats.Written),
		zap.Int64("particles", stats.Particles),
		zap.Duration("elapsed", stats.Elapsed))
	return nil
}

func runCorrelate(ctx context.Context, fname string, o *overrides) error {
	con, err := config.ReadCorrelate(fname)
	if err != nil {
		return err
	}
	o.apply(&con.SharedConfig, &con.AnalysisConfig)

	corr, err := analysis.NewCorrelator(con.Options())
	if err != nil {
		return err
	}
	sum, rec, err := runAnalysis(ctx, "correlate", &con.AnalysisConfig, corr)
	if err != nil {
		return err
	}

	rec.Correlations(corr.Triggers(), corr.SignalPairs(), corr.BackgroundPairs())
	sum.Correlations = &Correlations{
		Triggers:        corr.Triggers(),
		Pairs:           corr.Pairs(),
		SignalPairs:     corr.SignalPairs(),
		BackgroundPairs: corr.BackgroundPairs(),
	}
	return finishAnalysis(&con.AnalysisConfig, sum, rec, corr.Histograms())
}

func runSpectra(ctx context.Context, fname string, o *overrides) error {
	con, err := config.ReadSpectra(fname)
	if err != nil {
		return err
	}
	o.apply(&con.SharedConfig, &con.AnalysisConfig)

	spectra, err := analysis.NewSpectra(con.PTAxis())
	if err != nil {
		return err
	}
	sum, rec, err := runAnalysis(ctx, "spectra", &con.AnalysisConfig, spectra)
	if err != nil {
		return err
	}
	sum.Particles = spectra.Particles()
	return finishAnalysis(&con.AnalysisConfig, sum, rec, spectra.Histograms())
}

// runAnalysis feeds every input file through acc.
func runAnalysis(
	ctx context.Context, mode string,
	con *config.AnalysisConfig, acc analysis.Accumulator,
) (*Summary, *metrics.Recorder, error) {
	fg, err := setup(&con.SharedConfig)
	if err != nil {
		return nil, nil, err
	}
	defer fg.Close()
	log := fg.logger

	files, err := dataset.Glob(con.Input...)
	if err != nil {
		return nil, nil, err
	}
	chain := dataset.NewChain(con.DatasetFormat(), files...)
	defer chain.Close()

	runID := uuid.New()
	log.Info("Starting run", zap.String("mode", mode),
		zap.Stringer("run", runID), zap.Int("files", len(files)),
		zap.Int("workers", con.Workers), zap.Stringer("policy", con.RunPolicy()))

	rec := metrics.New(mode)
	start := time.Now()
	stats, err := analysis.Run(ctx, chain, acc, analysis.RunOptions{
		Workers:       con.Workers,
		Policy:        con.RunPolicy(),
		ProgressEvery: con.ProgressEvery,
		Logger:        log,
		Metrics:       rec,
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info("Finished run", zap.Int64("events", stats.Events),
		zap.Int64("skipped", stats.Skipped),
		zap.Duration("elapsed", stats.Elapsed))
	if c, ok := acc.(*analysis.Correlator); ok {
		log.Info("Correlations", zap.Int64("triggers", c.Triggers()),
			zap.Int64("signal pairs", c.SignalPairs()),
			zap.Int64("background pairs", c.BackgroundPairs()))
	}

	return &Summary{
		RunID:    runID.String(),
		Mode:     mode,
		Inputs:   files,
		Output:   con.Output,
		Started:  start,
		Policy:   con.RunPolicy().String(),
		Workers:  con.Workers,
		Events:   stats.Events,
		Skipped:  stats.Skipped,
		Duration: stats.Elapsed.String(),
	}, rec, nil
}

func finishAnalysis(
	con *config.AnalysisConfig, sum *Summary,
	rec *metrics.Recorder, hs []hist.Hist,
) error {
	if err := hist.WriteDir(con.Output, hs...); err != nil {
		return err
	}
	sum.Histograms = histNames(hs)
	if err := sum.Write(filepath.Join(con.Output, SummaryName)); err != nil {
		return err
	}
	return writeMetrics(&con.SharedConfig, rec)
}

func runPlot(histDir, outDir string, o *overrides) error {
	log, err := logging.New(logging.Config{Level: o.logLevel})
	if err != nil {
		return err
	}
	defer log.Sync()

	targets, skipped, err := plot.Targets(histDir, outDir)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		log.Info("Not plotting multi-dimensional histogram", zap.String("file", s))
	}
	if len(targets) == 0 {
		return errors.Errorf("no one-dimensional histograms in %s", histDir)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrapf(err, "creating %s", outDir)
	}
	if err := plot.Dir(targets); err != nil {
		return err
	}
	log.Info("Plotting", zap.Int("histograms", len(targets)),
		zap.String("output", outDir))
	plot.Execute()
	return nil
}

func writeMetrics(con *config.SharedConfig, rec *metrics.Recorder) error {
	if !con.ValidMetricsFile() {
		return nil
	}
	return rec.WriteTextfile(con.MetricsFile)
}

func histNames(hs []hist.Hist) []string {
	names := make([]string, len(hs))
	for i, h := range hs {
		names[i] = h.HistName()
	}
	return names
}
