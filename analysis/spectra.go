package analysis

import (
	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/hist"
)

// Names of the spectra histograms.
const (
	PDGName = "hPDG"
	PTName  = "hPt"
)

// PDGAxis covers every code up to |5999| with one bin per integer.
func PDGAxis() hist.Info { return hist.NewInfo(11999, -5999.5, 5999.5) }

// Spectra accumulates the identity-code and momentum spectra of every
// particle, with no selection.
type Spectra struct {
	PDG, PT *hist.H1D

	particles int64
}

// NewSpectra returns empty spectra with the given momentum binning.
func NewSpectra(pt hist.Info) (*Spectra, error) {
	if err := pt.Validate(); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "PT binning: %v", err)
	}
	return &Spectra{
		PDG: hist.NewH1D(PDGName, "PDG code; pdg code; Counts", PDGAxis()),
		PT:  hist.NewH1D(PTName, "Transverse momentum; p_T (GeV/c); Counts", pt),
	}, nil
}

func (s *Spectra) Process(ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	for i := 0; i < ev.Len(); i++ {
		s.PDG.Fill(float64(ev.ID[i]), 1)
		s.PT.Fill(ev.PT[i], 1)
	}
	s.particles += int64(ev.Len())
	return nil
}

// Particles returns the number of particles seen.
func (s *Spectra) Particles() int64 { return s.particles }

func (s *Spectra) Clone() Accumulator {
	return &Spectra{PDG: s.PDG.Clone(), PT: s.PT.Clone()}
}

func (s *Spectra) Merge(other Accumulator) error {
	o, ok := other.(*Spectra)
	if !ok {
		return errors.Errorf("cannot merge %T into *Spectra", other)
	}
	if err := s.PDG.Merge(o.PDG); err != nil {
		return err
	}
	if err := s.PT.Merge(o.PT); err != nil {
		return err
	}
	s.particles += o.particles
	return nil
}

func (s *Spectra) Histograms() []hist.Hist { return []hist.Hist{s.PDG, s.PT} }
