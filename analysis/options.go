package analysis

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/hist"
	"github.com/phil-mansfield/ssbar/kin"
	"github.com/phil-mansfield/ssbar/pdg"
)

// ErrInvalidConfig is matched by every configuration error returned before
// an analysis starts.
var ErrInvalidConfig = errors.New("invalid analysis configuration")

// Policy says what a run does with events that fail validation.
type Policy int

const (
	// Halt stops the run at the first malformed event.
	Halt Policy = iota
	// Skip logs malformed events, counts them and continues.
	Skip
)

func (p Policy) String() string {
	switch p {
	case Halt:
		return "Halt"
	case Skip:
		return "Skip"
	}
	return "Unknown"
}

// ParsePolicy converts a (case-insensitive) policy name into a Policy. The
// empty string means Halt.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "halt":
		return Halt, nil
	case "skip":
		return Skip, nil
	}
	return Halt, errors.Wrapf(ErrInvalidConfig,
		"malformed event policy must be one of [Halt | Skip], got '%s'", s)
}

// Binning holds the axes of the correlation histograms.
type Binning struct {
	PT, DPhi, DEta hist.Info
}

// DefaultBinning returns the reference binning: 100 bins in [0, 50) GeV/c
// for momenta, 100 bins over the full Delta phi range and 80 bins in [-8, 8)
// for Delta eta.
func DefaultBinning() Binning {
	return Binning{
		PT:   hist.NewInfo(100, 0, 50),
		DPhi: hist.NewInfo(100, kin.DeltaPhiMin, kin.DeltaPhiMax),
		DEta: hist.NewInfo(80, -8, 8),
	}
}

// Validate checks every axis.
func (b *Binning) Validate() error {
	axes := []struct {
		name string
		info *hist.Info
	}{{"PT", &b.PT}, {"DPhi", &b.DPhi}, {"DEta", &b.DEta}}
	for _, a := range axes {
		if err := a.info.Validate(); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "%s binning: %v", a.name, err)
		}
	}
	return nil
}

// Options configures a Correlator.
type Options struct {
	Trigger, Associate Selector
	Binning            Binning
}

// DefaultOptions returns the reference Xi-Xi correlation: both trigger and
// associate are |ID| == 3312, with the reference binning.
func DefaultOptions() Options {
	return Options{
		Trigger:   Species(pdg.Xi),
		Associate: Species(pdg.Xi),
		Binning:   DefaultBinning(),
	}
}

func (o *Options) validate() error {
	if o.Trigger == nil {
		return errors.Wrap(ErrInvalidConfig, "no trigger selector")
	} else if o.Associate == nil {
		return errors.Wrap(ErrInvalidConfig, "no associate selector")
	}
	return o.Binning.Validate()
}

