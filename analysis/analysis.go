// Package analysis contains the event accumulators: the two-particle angular
// correlation with same-sign background subtraction, the single-particle
// spectra, and the loop that feeds events from a dataset into them.
package analysis

import (
	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/hist"
)

// Accumulator consumes events one at a time and fills histograms.
//
// Process must leave the accumulator unchanged when it returns an error, so
// that a run which skips malformed events gives the same result as one which
// never saw them.
type Accumulator interface {
	Process(ev *event.Event) error

	// Clone returns an empty accumulator with the same configuration. Run
	// gives one clone to each worker.
	Clone() Accumulator
	// Merge adds the contents of other, which must have been created by
	// Clone, into the receiver.
	Merge(other Accumulator) error

	// Histograms returns every histogram filled by the accumulator.
	Histograms() []hist.Hist
}

// Multi runs several accumulators over the same events.
type Multi []Accumulator

func (m Multi) Process(ev *event.Event) error {
	// Validate up front so that no member is left half-filled.
	if err := ev.Validate(); err != nil {
		return err
	}
	for _, acc := range m {
		if err := acc.Process(ev); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Clone() Accumulator {
	out := make(Multi, len(m))
	for i := range m {
		out[i] = m[i].Clone()
	}
	return out
}

func (m Multi) Merge(other Accumulator) error {
	o, ok := other.(Multi)
	if !ok || len(o) != len(m) {
		return errors.Errorf("cannot merge %T into Multi of length %d", other, len(m))
	}
	for i := range m {
		if err := m[i].Merge(o[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Histograms() []hist.Hist {
	hs := []hist.Hist{}
	for _, acc := range m {
		hs = append(hs, acc.Histograms()...)
	}
	return hs
}
