package analysis

import (
	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/hist"
	"github.com/phil-mansfield/ssbar/kin"
)

// Names of the correlation histograms.
const (
	TriggerPTName = "hTrPt"
	DPhiName      = "hDPhi"
	DPhiDEtaName  = "hDPhiDEta"
	PTPTDEtaName  = "hDPtrPaDEta"
)

// Correlator accumulates two-particle angular correlations between trigger
// and associate particles in the same event.
//
// Every ordered (trigger, associate) pair with distinct indices is counted,
// so two particles which both pass both selections contribute twice. Pairs
// are weighted by PairSign: opposite-sign pairs add to the histograms and
// same-sign pairs, which estimate the combinatorial background, subtract
// from them.
type Correlator struct {
	opts Options

	// TriggerPT is the trigger momentum spectrum.
	TriggerPT *hist.H1D
	// DPhi is the signed Delta phi distribution.
	DPhi *hist.H1D
	// DPhiDEta is the signed (Delta phi, Delta eta) distribution.
	DPhiDEta *hist.H2D
	// PTPTDEta is the signed (trigger pT, associate pT, Delta eta)
	// distribution. Summing over its Delta eta axis gives the signed
	// (trigger pT, associate pT) pair distribution.
	PTPTDEta *hist.H3D

	triggers, signal, background int64

	assoc []bool // per-event scratch, fully rewritten by every Process
}

// NewCorrelator returns an empty Correlator. It fails if either selector is
// missing or the binning is invalid.
func NewCorrelator(opts Options) (*Correlator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	b := opts.Binning
	return &Correlator{
		opts: opts,
		TriggerPT: hist.NewH1D(TriggerPTName,
			"Trigger transverse momentum; p_T (GeV/c); Counts", b.PT),
		DPhi: hist.NewH1D(DPhiName,
			"Delta phi; Delta phi (rad); Counts", b.DPhi),
		DPhiDEta: hist.NewH2D(DPhiDEtaName,
			"Delta phi and Delta eta; Delta phi (rad); Delta eta", b.DPhi, b.DEta),
		PTPTDEta: hist.NewH3D(PTPTDEtaName,
			"p_T trigger (GeV/c); p_T associate (GeV/c); Delta eta",
			b.PT, b.PT, b.DEta),
	}, nil
}

// PairSign returns the weight of a pair: -1 if both identity codes have the
// same sign, +1 otherwise. It only depends on the product of the codes.
func PairSign(id1, id2 int) float64 {
	if int64(id1)*int64(id2) > 0 {
		return -1
	}
	return +1
}

// Process adds the pairs of one event. A malformed event returns its schema
// error and deposits nothing.
func (c *Correlator) Process(ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	n := ev.Len()

	if cap(c.assoc) < n {
		c.assoc = make([]bool, n)
	}
	c.assoc = c.assoc[:n]
	for j := 0; j < n; j++ {
		c.assoc[j] = c.opts.Associate(ev.Particle(j))
	}

	for i := 0; i < n; i++ {
		if !c.opts.Trigger(ev.Particle(i)) {
			continue
		}
		c.triggers++
		trigPT, trigPhi, trigEta := ev.PT[i], ev.Phi[i], ev.Eta[i]
		c.TriggerPT.Fill(trigPT, 1)

		for j := 0; j < n; j++ {
			if j == i || !c.assoc[j] {
				continue
			}

			sign := PairSign(ev.ID[i], ev.ID[j])
			dPhi := kin.DeltaPhi(trigPhi, ev.Phi[j])
			dEta := trigEta - ev.Eta[j]

			c.PTPTDEta.Fill(trigPT, ev.PT[j], dEta, sign)
			c.DPhiDEta.Fill(dPhi, dEta, sign)
			c.DPhi.Fill(dPhi, sign)

			if sign > 0 {
				c.signal++
			} else {
				c.background++
			}
		}
	}
	return nil
}

// Triggers returns the number of trigger particles seen.
func (c *Correlator) Triggers() int64 { return c.triggers }

// Pairs returns the number of (trigger, associate) pairs seen.
func (c *Correlator) Pairs() int64 { return c.signal + c.background }

// SignalPairs returns the number of opposite-sign pairs.
func (c *Correlator) SignalPairs() int64 { return c.signal }

// BackgroundPairs returns the number of same-sign pairs.
func (c *Correlator) BackgroundPairs() int64 { return c.background }

func (c *Correlator) Clone() Accumulator {
	out, err := NewCorrelator(c.opts)
	if err != nil {
		panic("Impossible: options were validated by NewCorrelator.")
	}
	return out
}

func (c *Correlator) Merge(other Accumulator) error {
	o, ok := other.(*Correlator)
	if !ok {
		return errors.Errorf("cannot merge %T into *Correlator", other)
	}
	if err := c.TriggerPT.Merge(o.TriggerPT); err != nil {
		return err
	}
	if err := c.DPhi.Merge(o.DPhi); err != nil {
		return err
	}
	if err := c.DPhiDEta.Merge(o.DPhiDEta); err != nil {
		return err
	}
	if err := c.PTPTDEta.Merge(o.PTPTDEta); err != nil {
		return err
	}
	c.triggers += o.triggers
	c.signal += o.signal
	c.background += o.background
	return nil
}

func (c *Correlator) Histograms() []hist.Hist {
	return []hist.Hist{c.TriggerPT, c.DPhi, c.DPhiDEta, c.PTPTDEta}
}
