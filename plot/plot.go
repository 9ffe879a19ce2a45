// Package plot draws histograms with matplotlib through pyplot. Calls only
// queue up a python script; nothing is drawn until Execute is called.
package plot

import (
	"path/filepath"
	"strings"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/hist"
)

// Ext is the extension of the written figures.
const Ext = ".png"

// SplitTitle splits a "title; x label; y label" string. Missing parts are
// returned empty.
func SplitTitle(s string) (title, xLabel, yLabel string) {
	parts := strings.SplitN(s, ";", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}

// Step returns the outline of h as a sequence of points: each bin becomes a
// horizontal segment between its edges.
func Step(h *hist.H1D) (xs, ys []float64) {
	edges := h.X.Edges()
	xs = make([]float64, 2*h.X.Bins)
	ys = make([]float64, 2*h.X.Bins)
	for i := 0; i < h.X.Bins; i++ {
		xs[2*i], xs[2*i+1] = edges[i], edges[i+1]
		ys[2*i], ys[2*i+1] = h.Counts[i], h.Counts[i]
	}
	return xs, ys
}

// H1D queues a step plot of h, saved to fname.
func H1D(h *hist.H1D, fname string) {
	title, xLabel, yLabel := SplitTitle(h.Title)
	if title == "" {
		title = h.Name
	}
	xs, ys := Step(h)

	plt.Figure()
	plt.Plot(xs, ys, "k", plt.LW(2))
	plt.Plot([]float64{h.X.Min, h.X.Max}, []float64{0, 0}, "k")
	plt.Title(title)
	if xLabel != "" {
		plt.XLabel(xLabel, plt.FontSize(16))
	}
	if yLabel != "" {
		plt.YLabel(yLabel, plt.FontSize(16))
	}
	plt.XLim(h.X.Min, h.X.Max)
	if strings.EqualFold(h.X.Scale, hist.Log) {
		plt.XScale("log")
	}
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)
}

// Target pairs a histogram file with the figure drawn from it.
type Target struct {
	Hist, Figure string
}

// Targets lists the one-dimensional histograms in histDir and the figure
// each will be written to in outDir. Higher-dimensional histograms are
// returned separately so that callers can report them.
func Targets(histDir, outDir string) (targets []Target, skipped []string, err error) {
	files, err := hist.Files(histDir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "listing %s", histDir)
	}
	for _, file := range files {
		hd, err := hist.ReadHeader(file)
		if err != nil {
			return nil, nil, err
		}
		if hd.Dim != 1 {
			skipped = append(skipped, file)
			continue
		}
		base := strings.TrimSuffix(filepath.Base(file), hist.Ext)
		targets = append(targets, Target{
			Hist: file, Figure: filepath.Join(outDir, base+Ext),
		})
	}
	return targets, skipped, nil
}

// Dir queues a plot for every target.
func Dir(targets []Target) error {
	for _, t := range targets {
		h, err := hist.ReadH1DText(t.Hist)
		if err != nil {
			return err
		}
		H1D(h, t.Figure)
	}
	return nil
}

// Execute runs the queued python script.
func Execute() { plt.Execute() }
