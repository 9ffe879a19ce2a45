package gen

import (
	"github.com/phil-mansfield/ssbar/hist"
)

// Names of the monitoring histograms.
const (
	SizeName        = "hSize"
	StrangePartName = "hStrangePart"
	IDStrangeName   = "hidStrange"
)

// Monitor holds per-event acceptance histograms.
type Monitor struct {
	// Size is the number of accepted charged particles per event.
	Size *hist.H1D
	// StrangePart is the number of accepted particles per event.
	StrangePart *hist.H1D
	// IDStrange is the identity code of every accepted particle.
	IDStrange *hist.H1D
}

func NewMonitor() *Monitor {
	return &Monitor{
		Size: hist.NewH1D(SizeName, "Multiplicity",
			hist.NewInfo(301, -0.5, 300.5)),
		StrangePart: hist.NewH1D(StrangePartName, "Strange Particles Per Event",
			hist.NewInfo(200, -0.5, 200.5)),
		IDStrange: hist.NewH1D(IDStrangeName, "PDG Codes for Strange hadrons",
			hist.NewInfo(12000, -6000, 6000)),
	}
}

func (m *Monitor) Histograms() []hist.Hist {
	return []hist.Hist{m.Size, m.StrangePart, m.IDStrange}
}
