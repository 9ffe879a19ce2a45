// Package config reads the INI-style configuration files of the ssbar
// commands. Each command has a wrapper struct holding a single section, a
// Default*Wrapper constructor which fills in optional values, and an example
// file documenting every variable.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/ssbar/analysis"
	"github.com/phil-mansfield/ssbar/dataset"
	"github.com/phil-mansfield/ssbar/gen"
	"github.com/phil-mansfield/ssbar/hist"
	"github.com/phil-mansfield/ssbar/kin"
	"github.com/phil-mansfield/ssbar/logging"
	"github.com/phil-mansfield/ssbar/pdg"
)

const (
	ExampleGenerateFile = `[Generate]

#######################
# Required Parameters #
#######################

# File which generated events will be written to. Files ending in .ssb are
# written in the binary format, anything else as a text table.
Output = path/to/events.ssb

# Number of events to generate.
Events = 10000

#######################
# Optional Parameters #
#######################

# Random seed. 0 (the default) derives a seed from the clock and process ID.
# Seed = 0

# Kinematic acceptance. Particles with PT < PtMin or |Eta| > EtaMax are not
# written.
# PtMin = 0.15
# EtaMax = 4

# Mean hadron multiplicity, probability of a correlated Xi pair per event and
# the fraction of hadrons marked as decayed.
# Multiplicity = 60
# PairRate = 0.2
# NonFinal = 0.1

# Do not write events with no accepted particles.
# SkipEmpty = false

# Directory which the monitoring histograms (hSize, hStrangePart,
# hidStrange) will be written to.
# HistDir = path/to/hist/dir

# Format can be one of [ Auto | Binary | Table ].
# Format = Auto

# Output files which are useful for monitoring and profiling. LogLevel can
# be one of [ Debug | Info | Warn | Error ].
# LogFile = log.out
# LogLevel = Info
# MetricsFile = ssbar.prom
# ProfileFile = prof.out`

	ExampleCorrelateFile = `[Correlate]

#######################
# Required Parameters #
#######################

# Dataset files. Input may be given several times and may contain glob
# patterns. Files are read in order.
Input = path/to/events_*.ssb
# Directory which the output histograms will be written to.
Output = path/to/output/dir

#######################
# Optional Parameters #
#######################

# Identity codes of trigger and associate particles. Codes are matched on
# their absolute value and may be given several times. Default is 3312 (Xi)
# for both.
# TriggerSpecies = 3312
# AssociateSpecies = 3312

# Use every strange hadron as an associate instead of AssociateSpecies.
# AssociateAnyStrange = false

# Momentum windows, PtMin <= PT < PtMax. A PtMax of 0 means no upper limit.
# TriggerPtMin = 0
# TriggerPtMax = 0
# AssociatePtMin = 0
# AssociatePtMax = 0

# Histogram binning. PT axes cover [0, PtMax), Delta phi covers
# [-pi/2, 3pi/2) and Delta eta covers [-DEtaMax, DEtaMax).
# PtBins = 100
# PtMax = 50
# DPhiBins = 100
# DEtaBins = 80
# DEtaMax = 8

# What to do with malformed events. Must be one of [ Halt | Skip ].
# Policy = Halt

# Number of worker goroutines.
# Workers = 1

# Log a progress line every ProgressEvery events. 0 disables progress lines.
# ProgressEvery = 100000

# Format can be one of [ Auto | Binary | Table ].
# Format = Auto

# LogFile = log.out
# LogLevel = Info
# MetricsFile = ssbar.prom
# ProfileFile = prof.out`

	ExampleSpectraFile = `[Spectra]

#######################
# Required Parameters #
#######################

Input = path/to/events_*.ssb
Output = path/to/output/dir

#######################
# Optional Parameters #
#######################

# Binning of the hPt histogram, [0, PtMax).
# PtBins = 100
# PtMax = 50

# Policy = Halt
# Workers = 1
# ProgressEvery = 100000
# Format = Auto

# LogFile = log.out
# LogLevel = Info
# MetricsFile = ssbar.prom
# ProfileFile = prof.out`
)

// SharedConfig holds the variables every command understands.
type SharedConfig struct {
	Output string
	Format string

	LogFile, LogLevel, MetricsFile, ProfileFile string
}

func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidFormat() bool {
	_, err := dataset.ParseFormat(con.Format)
	return err == nil
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidLogLevel() bool {
	_, err := logging.ParseLevel(con.LogLevel)
	return err == nil
}
func (con *SharedConfig) ValidMetricsFile() bool {
	return con.MetricsFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// DatasetFormat returns the parsed Format value.
func (con *SharedConfig) DatasetFormat() dataset.Format {
	f, _ := dataset.ParseFormat(con.Format)
	return f
}

// Logging returns the logger settings.
func (con *SharedConfig) Logging() logging.Config {
	return logging.Config{Level: con.LogLevel, File: con.LogFile}
}

func (con *SharedConfig) check() error {
	if !con.ValidOutput() {
		return errors.New("Invalid/non-existent 'Output' value.")
	} else if !con.ValidFormat() {
		return errors.Errorf("Invalid 'Format' value, '%s'.", con.Format)
	} else if !con.ValidLogLevel() {
		return errors.Errorf("Invalid 'LogLevel' value, '%s'.", con.LogLevel)
	}
	return nil
}

type GenerateConfig struct {
	SharedConfig

	// Required
	Events int

	// Optional
	Seed                             int64
	PtMin, EtaMax                    float64
	Multiplicity, PairRate, NonFinal float64
	SkipEmpty                        bool
	HistDir                          string
}

type GenerateWrapper struct {
	Generate GenerateConfig
}

func DefaultGenerateWrapper() *GenerateWrapper {
	def := gen.DefaultConfig()
	con := GenerateConfig{}
	con.Events = -1
	con.PtMin = def.PtMin
	con.EtaMax = def.EtaMax
	con.Multiplicity = def.Multiplicity
	con.PairRate = def.PairRate
	con.NonFinal = def.NonFinal
	return &GenerateWrapper{con}
}

func (con *GenerateConfig) ValidEvents() bool {
	return con.Events >= 0
}
func (con *GenerateConfig) ValidHistDir() bool {
	return con.HistDir != ""
}

// Gen returns the generator settings.
func (con *GenerateConfig) Gen() gen.Config {
	return gen.Config{
		Events:       con.Events,
		Seed:         con.Seed,
		PtMin:        con.PtMin,
		EtaMax:       con.EtaMax,
		Multiplicity: con.Multiplicity,
		PairRate:     con.PairRate,
		NonFinal:     con.NonFinal,
		SkipEmpty:    con.SkipEmpty,
	}
}

// Check returns an error describing the first invalid variable.
func (con *GenerateConfig) Check() error {
	if err := con.check(); err != nil {
		return err
	} else if !con.ValidEvents() {
		return errors.New("Invalid/non-existent 'Events' value.")
	}
	cfg := con.Gen()
	return cfg.Validate()
}

// AnalysisConfig holds the variables shared by the commands which read
// datasets.
type AnalysisConfig struct {
	SharedConfig

	// Required
	Input []string

	// Optional
	Policy        string
	Workers       int
	ProgressEvery int64
	PtBins        int
	PtMax         float64
}

func defaultAnalysisConfig() AnalysisConfig {
	con := AnalysisConfig{}
	def := analysis.DefaultBinning()
	con.Workers = 1
	con.ProgressEvery = 100000
	con.PtBins = def.PT.Bins
	con.PtMax = def.PT.Max
	return con
}

func (con *AnalysisConfig) ValidInput() bool {
	if len(con.Input) == 0 {
		return false
	}
	for _, in := range con.Input {
		if in == "" {
			return false
		}
	}
	return true
}
func (con *AnalysisConfig) ValidPolicy() bool {
	_, err := analysis.ParsePolicy(con.Policy)
	return err == nil
}
func (con *AnalysisConfig) ValidWorkers() bool {
	return con.Workers > 0
}
func (con *AnalysisConfig) ValidPtBinning() bool {
	return con.PtBins > 0 && con.PtMax > 0
}

// RunPolicy returns the parsed Policy value.
func (con *AnalysisConfig) RunPolicy() analysis.Policy {
	p, _ := analysis.ParsePolicy(con.Policy)
	return p
}

// PTAxis returns the binning of momentum histograms.
func (con *AnalysisConfig) PTAxis() hist.Info {
	return hist.NewInfo(con.PtBins, 0, con.PtMax)
}

func (con *AnalysisConfig) check() error {
	if !con.ValidInput() {
		return errors.New("Invalid/non-existent 'Input' value.")
	} else if err := con.SharedConfig.check(); err != nil {
		return err
	} else if !con.ValidPolicy() {
		return errors.Errorf("Invalid 'Policy' value, '%s'.", con.Policy)
	} else if !con.ValidWorkers() {
		return errors.New("Invalid 'Workers' value.")
	} else if !con.ValidPtBinning() {
		return errors.New("Invalid 'PtBins'/'PtMax' values.")
	}
	return nil
}

type CorrelateConfig struct {
	AnalysisConfig

	// Optional
	TriggerSpecies, AssociateSpecies []int
	AssociateAnyStrange              bool
	TriggerPtMin, TriggerPtMax       float64
	AssociatePtMin, AssociatePtMax   float64
	DPhiBins, DEtaBins               int
	DEtaMax                          float64
}

type CorrelateWrapper struct {
	Correlate CorrelateConfig
}

func DefaultCorrelateWrapper() *CorrelateWrapper {
	def := analysis.DefaultBinning()
	con := CorrelateConfig{AnalysisConfig: defaultAnalysisConfig()}
	con.DPhiBins = def.DPhi.Bins
	con.DEtaBins = def.DEta.Bins
	con.DEtaMax = def.DEta.Max
	return &CorrelateWrapper{con}
}

func (con *CorrelateConfig) ValidTriggerSpecies() bool {
	return validSpecies(con.TriggerSpecies)
}
func (con *CorrelateConfig) ValidAssociateSpecies() bool {
	return validSpecies(con.AssociateSpecies)
}
func (con *CorrelateConfig) ValidPtWindows() bool {
	return validWindow(con.TriggerPtMin, con.TriggerPtMax) &&
		validWindow(con.AssociatePtMin, con.AssociatePtMax)
}
func (con *CorrelateConfig) ValidAngleBinning() bool {
	return con.DPhiBins > 0 && con.DEtaBins > 0 && con.DEtaMax > 0
}

func validSpecies(codes []int) bool {
	for _, c := range codes {
		if c == 0 {
			return false
		}
	}
	return true
}

func validWindow(min, max float64) bool {
	return min >= 0 && (max == 0 || max > min)
}

// Binning returns the histogram axes.
func (con *CorrelateConfig) Binning() analysis.Binning {
	return analysis.Binning{
		PT:   con.PTAxis(),
		DPhi: hist.NewInfo(con.DPhiBins, kin.DeltaPhiMin, kin.DeltaPhiMax),
		DEta: hist.NewInfo(con.DEtaBins, -con.DEtaMax, con.DEtaMax),
	}
}

// Options returns the correlator settings. Empty species lists select Xi.
func (con *CorrelateConfig) Options() analysis.Options {
	trig := con.TriggerSpecies
	if len(trig) == 0 {
		trig = []int{pdg.Xi}
	}
	assoc := analysis.Species(pdg.Xi)
	if con.AssociateAnyStrange {
		assoc = analysis.Strange()
	} else if len(con.AssociateSpecies) > 0 {
		assoc = analysis.Species(con.AssociateSpecies...)
	}

	return analysis.Options{
		Trigger: analysis.And(
			analysis.Species(trig...),
			analysis.PTRange(con.TriggerPtMin, con.TriggerPtMax),
		),
		Associate: analysis.And(
			assoc,
			analysis.PTRange(con.AssociatePtMin, con.AssociatePtMax),
		),
		Binning: con.Binning(),
	}
}

// Check returns an error describing the first invalid variable.
func (con *CorrelateConfig) Check() error {
	if err := con.AnalysisConfig.check(); err != nil {
		return err
	} else if !con.ValidTriggerSpecies() {
		return errors.New("Invalid 'TriggerSpecies' value.")
	} else if !con.ValidAssociateSpecies() {
		return errors.New("Invalid 'AssociateSpecies' value.")
	} else if !con.ValidPtWindows() {
		return errors.New("Invalid PtMin/PtMax window.")
	} else if !con.ValidAngleBinning() {
		return errors.New("Invalid 'DPhiBins'/'DEtaBins'/'DEtaMax' values.")
	}
	b := con.Binning()
	return b.Validate()
}

type SpectraConfig struct {
	AnalysisConfig
}

type SpectraWrapper struct {
	Spectra SpectraConfig
}

func DefaultSpectraWrapper() *SpectraWrapper {
	return &SpectraWrapper{SpectraConfig{defaultAnalysisConfig()}}
}

// Check returns an error describing the first invalid variable.
func (con *SpectraConfig) Check() error {
	return con.AnalysisConfig.check()
}

// ReadGenerate reads and checks a [Generate] file.
func ReadGenerate(fname string) (*GenerateConfig, error) {
	wrap := DefaultGenerateWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	if err := wrap.Generate.Check(); err != nil {
		return nil, errors.Wrap(err, fname)
	}
	return &wrap.Generate, nil
}

// ReadCorrelate reads and checks a [Correlate] file.
func ReadCorrelate(fname string) (*CorrelateConfig, error) {
	wrap := DefaultCorrelateWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	if err := wrap.Correlate.Check(); err != nil {
		return nil, errors.Wrap(err, fname)
	}
	return &wrap.Correlate, nil
}

// ReadSpectra reads and checks a [Spectra] file.
func ReadSpectra(fname string) (*SpectraConfig, error) {
	wrap := DefaultSpectraWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	if err := wrap.Spectra.Check(); err != nil {
		return nil, errors.Wrap(err, fname)
	}
	return &wrap.Spectra, nil
}

// Example returns the example file for a mode, matched case-insensitively.
func Example(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "generate":
		return ExampleGenerateFile, nil
	case "correlate":
		return ExampleCorrelateFile, nil
	case "spectra":
		return ExampleSpectraFile, nil
	}
	return "", errors.Errorf(
		"mode must be one of [Generate | Correlate | Spectra], got '%s'", mode,
	)
}
