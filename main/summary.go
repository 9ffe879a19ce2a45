package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SummaryName is the name of the run summary written to analysis output
// directories.
const SummaryName = "summary.yaml"

// Summary records what a run did. It is written next to the run's output.
type Summary struct {
	RunID   string    `yaml:"run_id"`
	Mode    string    `yaml:"mode"`
	Started time.Time `yaml:"started"`

	Inputs  []string `yaml:"inputs,omitempty"`
	Output  string   `yaml:"output"`
	Seed    int64    `yaml:"seed,omitempty"`
	Policy  string   `yaml:"policy,omitempty"`
	Workers int      `yaml:"workers,omitempty"`

	Events    int64 `yaml:"events"`
	Skipped   int64 `yaml:"skipped"`
	Written   int64 `yaml:"written,omitempty"`
	Empty     int64 `yaml:"empty,omitempty"`
	Particles int64 `yaml:"particles,omitempty"`

	// Correlations is set by correlate runs only. Its counts are always
	// written, including zeros.
	Correlations *Correlations `yaml:"correlations,omitempty"`

	Histograms []string `yaml:"histograms,omitempty"`
	Duration   string   `yaml:"duration"`
}

// Correlations holds the counters of a correlate run.
type Correlations struct {
	Triggers        int64 `yaml:"triggers"`
	Pairs           int64 `yaml:"pairs"`
	SignalPairs     int64 `yaml:"signal_pairs"`
	BackgroundPairs int64 `yaml:"background_pairs"`
}

func (s *Summary) Write(fname string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encoding run summary")
	}
	return errors.Wrapf(os.WriteFile(fname, b, 0644),
		"writing run summary %s", fname)
}

// ReadSummary reads a summary written by Summary.Write.
func ReadSummary(fname string) (*Summary, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	s := &Summary{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", fname)
	}
	return s, nil
}

// summaryFile is the summary path of a generated dataset: the dataset name
// with its extension replaced.
func summaryFile(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".summary.yaml"
}
