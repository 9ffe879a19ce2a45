// Package hist implements fixed-binning weighted histograms in one, two and
// three dimensions, along with a plain-text output format.
//
// Bins are half-open, [Min, Max). Weight deposited outside of the binned
// range is kept in the histogram's flow counters rather than discarded, so
// the total deposited weight can always be recovered.
package hist

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

const (
	Linear = "Linear"
	Log    = "Log"
)

// Info describes the binning of a single axis.
type Info struct {
	Min, Max float64
	Bins     int
	Scale    string // Linear (default) or Log
}

// NewInfo returns a linear axis with the given binning.
func NewInfo(bins int, min, max float64) Info {
	return Info{Min: min, Max: max, Bins: bins, Scale: Linear}
}

func (info *Info) isLog() bool {
	return strings.ToLower(info.Scale) == strings.ToLower(Log)
}

// Validate returns an error if the axis cannot be binned.
func (info *Info) Validate() error {
	switch {
	case info.Bins <= 0:
		return errors.Errorf("axis needs a positive bin count, got %d", info.Bins)
	case !(info.Min < info.Max):
		return errors.Errorf(
			"axis needs Min < Max, got [%g, %g)", info.Min, info.Max,
		)
	case info.Scale != "" && !strings.EqualFold(info.Scale, Linear) &&
		!info.isLog():
		return errors.Errorf(
			"axis scale must be one of [%s | %s], got '%s'",
			Linear, Log, info.Scale,
		)
	case info.isLog() && info.Min <= 0:
		return errors.Errorf(
			"log axis needs a positive Min, got %g", info.Min,
		)
	}
	return nil
}

// limits returns the axis limits in binning coordinates.
func (info *Info) limits() (min, max float64) {
	if info.isLog() {
		return math.Log10(info.Min), math.Log10(info.Max)
	}
	return info.Min, info.Max
}

// Index returns the bin containing x. ok is false if x lies outside of the
// axis, in which case idx is -1 for underflow (and NaN) and Bins for
// overflow.
func (info *Info) Index(x float64) (idx int, ok bool) {
	min, max := info.limits()
	fBins := float64(info.Bins)
	dx := (max - min) / fBins

	if info.isLog() {
		if !(x > 0) {
			return -1, false
		}
		x = math.Log10(x)
	}

	f := (x - min) / dx
	if !(f >= 0) {
		return -1, false
	} else if f >= fBins {
		return info.Bins, false
	}
	return int(f), true
}

// Centers returns the centers of every bin.
func (info *Info) Centers() []float64 {
	min, max := info.limits()
	dx := (max - min) / float64(info.Bins)

	centers := make([]float64, info.Bins)
	for i := range centers {
		centers[i] = min + dx*(float64(i)+0.5)
		if info.isLog() {
			centers[i] = math.Pow(10, centers[i])
		}
	}
	return centers
}

// Edges returns the Bins + 1 bin edges.
func (info *Info) Edges() []float64 {
	min, max := info.limits()
	dx := (max - min) / float64(info.Bins)

	edges := make([]float64, info.Bins+1)
	for i := range edges {
		edges[i] = min + dx*float64(i)
		if info.isLog() {
			edges[i] = math.Pow(10, edges[i])
		}
	}
	edges[info.Bins] = info.Max
	if info.isLog() {
		edges[0] = info.Min
	}
	return edges
}

// Equal returns true if two axes have identical binning.
func (info Info) Equal(other Info) bool {
	return info.Min == other.Min && info.Max == other.Max &&
		info.Bins == other.Bins && info.isLog() == other.isLog()
}

// Hist is implemented by H1D, H2D and H3D.
type Hist interface {
	// HistName is the name used for output files.
	HistName() string
	// Dim is the number of axes.
	Dim() int
	// Sum is the total weight deposited inside the binned range.
	Sum() float64
}

// H1D is a one-dimensional weighted histogram.
type H1D struct {
	Name, Title string
	X           Info

	Counts              []float64
	Underflow, Overflow float64
	Entries             int64
}

// NewH1D creates an empty histogram. It panics if the axis is invalid, since
// binning is always fixed by the program rather than by input data.
func NewH1D(name, title string, x Info) *H1D {
	mustValidate(name, x)
	return &H1D{
		Name: name, Title: title, X: x,
		Counts: make([]float64, x.Bins),
	}
}

func (h *H1D) HistName() string { return h.Name }
func (h *H1D) Dim() int         { return 1 }

// Fill deposits weight w at x.
func (h *H1D) Fill(x, w float64) {
	h.Entries++
	idx, ok := h.X.Index(x)
	switch {
	case ok:
		h.Counts[idx] += w
	case idx < 0:
		h.Underflow += w
	default:
		h.Overflow += w
	}
}

// Get returns the content of bin i.
func (h *H1D) Get(i int) float64 { return h.Counts[i] }

// Sum returns the total in-range weight.
func (h *H1D) Sum() float64 { return sum(h.Counts) }

// Merge adds the contents of other into h.
func (h *H1D) Merge(other *H1D) error {
	if !h.X.Equal(other.X) {
		return errors.Errorf("cannot merge '%s' and '%s': binning differs",
			h.Name, other.Name)
	}
	add(h.Counts, other.Counts)
	h.Underflow += other.Underflow
	h.Overflow += other.Overflow
	h.Entries += other.Entries
	return nil
}

// Reset clears all contents.
func (h *H1D) Reset() {
	clear(h.Counts)
	h.Underflow, h.Overflow, h.Entries = 0, 0, 0
}

// Clone returns an empty histogram with the same binning.
func (h *H1D) Clone() *H1D { return NewH1D(h.Name, h.Title, h.X) }

// H2D is a two-dimensional weighted histogram. Counts are stored x-major:
// bin (i, j) is at i + j*X.Bins.
type H2D struct {
	Name, Title string
	X, Y        Info

	Counts  []float64
	Outside float64
	Entries int64
}

func NewH2D(name, title string, x, y Info) *H2D {
	mustValidate(name, x, y)
	return &H2D{
		Name: name, Title: title, X: x, Y: y,
		Counts: make([]float64, x.Bins*y.Bins),
	}
}

func (h *H2D) HistName() string { return h.Name }
func (h *H2D) Dim() int         { return 2 }

func (h *H2D) Fill(x, y, w float64) {
	h.Entries++
	ix, okx := h.X.Index(x)
	iy, oky := h.Y.Index(y)
	if !okx || !oky {
		h.Outside += w
		return
	}
	h.Counts[ix+iy*h.X.Bins] += w
}

func (h *H2D) Get(ix, iy int) float64 { return h.Counts[ix+iy*h.X.Bins] }

func (h *H2D) Sum() float64 { return sum(h.Counts) }

func (h *H2D) Merge(other *H2D) error {
	if !h.X.Equal(other.X) || !h.Y.Equal(other.Y) {
		return errors.Errorf("cannot merge '%s' and '%s': binning differs",
			h.Name, other.Name)
	}
	add(h.Counts, other.Counts)
	h.Outside += other.Outside
	h.Entries += other.Entries
	return nil
}

func (h *H2D) Clone() *H2D { return NewH2D(h.Name, h.Title, h.X, h.Y) }

// ProjectX sums over the y axis.
func (h *H2D) ProjectX(name string) *H1D {
	p := NewH1D(name, h.Title, h.X)
	for iy := 0; iy < h.Y.Bins; iy++ {
		for ix := 0; ix < h.X.Bins; ix++ {
			p.Counts[ix] += h.Get(ix, iy)
		}
	}
	p.Entries = h.Entries
	return p
}

// ProjectY sums over the x axis.
func (h *H2D) ProjectY(name string) *H1D {
	p := NewH1D(name, h.Title, h.Y)
	for iy := 0; iy < h.Y.Bins; iy++ {
		for ix := 0; ix < h.X.Bins; ix++ {
			p.Counts[iy] += h.Get(ix, iy)
		}
	}
	p.Entries = h.Entries
	return p
}

// H3D is a three-dimensional weighted histogram. Bin (i, j, k) is at
// i + j*X.Bins + k*X.Bins*Y.Bins.
type H3D struct {
	Name, Title string
	X, Y, Z     Info

	Counts  []float64
	Outside float64
	Entries int64
}

func NewH3D(name, title string, x, y, z Info) *H3D {
	mustValidate(name, x, y, z)
	return &H3D{
		Name: name, Title: title, X: x, Y: y, Z: z,
		Counts: make([]float64, x.Bins*y.Bins*z.Bins),
	}
}

func (h *H3D) HistName() string { return h.Name }
func (h *H3D) Dim() int         { return 3 }

func (h *H3D) Fill(x, y, z, w float64) {
	h.Entries++
	ix, okx := h.X.Index(x)
	iy, oky := h.Y.Index(y)
	iz, okz := h.Z.Index(z)
	if !okx || !oky || !okz {
		h.Outside += w
		return
	}
	h.Counts[h.index(ix, iy, iz)] += w
}

func (h *H3D) index(ix, iy, iz int) int {
	return ix + iy*h.X.Bins + iz*h.X.Bins*h.Y.Bins
}

func (h *H3D) Get(ix, iy, iz int) float64 { return h.Counts[h.index(ix, iy, iz)] }

func (h *H3D) Sum() float64 { return sum(h.Counts) }

func (h *H3D) Merge(other *H3D) error {
	if !h.X.Equal(other.X) || !h.Y.Equal(other.Y) || !h.Z.Equal(other.Z) {
		return errors.Errorf("cannot merge '%s' and '%s': binning differs",
			h.Name, other.Name)
	}
	add(h.Counts, other.Counts)
	h.Outside += other.Outside
	h.Entries += other.Entries
	return nil
}

func (h *H3D) Clone() *H3D { return NewH3D(h.Name, h.Title, h.X, h.Y, h.Z) }

func mustValidate(name string, axes ...Info) {
	for i := range axes {
		if err := axes[i].Validate(); err != nil {
			panic(errors.Wrapf(err, "histogram '%s', axis %d", name, i))
		}
	}
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func add(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}
