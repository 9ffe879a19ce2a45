package hist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"
)

/*
The text format written by WriteText is a whitespace-separated table with one
row per bin, preceded by '#' header lines:

    # name hDPhi
    # title Delta phi
    # dim 1
    # axis x <min> <max> <bins> <scale>
    # flow <underflow> <overflow> <entries>
    <x center> <value>
    ...

Two- and three-dimensional histograms write one '# axis' line per axis, a
'# flow <outside> <entries>' line, and rows of '<x> <y> [<z>] <value>' in
storage order. Only the header is parsed by hand: the rows are read with
table.ReadTable, which skips comment lines.
*/

// Ext is the extension of histogram text files.
const Ext = ".hist"

func writeAxis(w io.Writer, name string, info Info) {
	scale := info.Scale
	if scale == "" {
		scale = Linear
	}
	fmt.Fprintf(w, "# axis %s %s %s %d %s\n", name,
		fmtFloat(info.Min), fmtFloat(info.Max), info.Bins, scale)
}

func fmtFloat(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

// WriteText writes h in the text format described above.
func WriteText(w io.Writer, h Hist) error {
	bw := bufio.NewWriter(w)
	switch h := h.(type) {
	case *H1D:
		fmt.Fprintf(bw, "# name %s\n# title %s\n# dim 1\n", h.Name, h.Title)
		writeAxis(bw, "x", h.X)
		fmt.Fprintf(bw, "# flow %s %s %d\n",
			fmtFloat(h.Underflow), fmtFloat(h.Overflow), h.Entries)
		for i, x := range h.X.Centers() {
			fmt.Fprintf(bw, "%s %s\n", fmtFloat(x), fmtFloat(h.Counts[i]))
		}
	case *H2D:
		fmt.Fprintf(bw, "# name %s\n# title %s\n# dim 2\n", h.Name, h.Title)
		writeAxis(bw, "x", h.X)
		writeAxis(bw, "y", h.Y)
		fmt.Fprintf(bw, "# flow %s %d\n", fmtFloat(h.Outside), h.Entries)
		xs, ys := h.X.Centers(), h.Y.Centers()
		for iy, y := range ys {
			for ix, x := range xs {
				fmt.Fprintf(bw, "%s %s %s\n",
					fmtFloat(x), fmtFloat(y), fmtFloat(h.Get(ix, iy)))
			}
		}
	case *H3D:
		fmt.Fprintf(bw, "# name %s\n# title %s\n# dim 3\n", h.Name, h.Title)
		writeAxis(bw, "x", h.X)
		writeAxis(bw, "y", h.Y)
		writeAxis(bw, "z", h.Z)
		fmt.Fprintf(bw, "# flow %s %d\n", fmtFloat(h.Outside), h.Entries)
		xs, ys, zs := h.X.Centers(), h.Y.Centers(), h.Z.Centers()
		for iz, z := range zs {
			for iy, y := range ys {
				for ix, x := range xs {
					fmt.Fprintf(bw, "%s %s %s %s\n", fmtFloat(x),
						fmtFloat(y), fmtFloat(z), fmtFloat(h.Get(ix, iy, iz)))
				}
			}
		}
	default:
		return errors.Errorf("unsupported histogram type %T", h)
	}
	return bw.Flush()
}

// WriteDir writes every histogram to dir/<name>.hist, creating dir if needed.
func WriteDir(dir string, hs ...Hist) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "creating histogram dir %s", dir)
	}
	for _, h := range hs {
		fname := filepath.Join(dir, h.HistName()+Ext)
		f, err := os.Create(fname)
		if err != nil {
			return errors.Wrapf(err, "creating %s", fname)
		}
		if err = WriteText(f, h); err != nil {
			f.Close()
			return errors.Wrapf(err, "writing %s", fname)
		}
		if err = f.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", fname)
		}
	}
	return nil
}

// Header is the parsed '#' block of a histogram text file.
type Header struct {
	Name, Title string
	Dim         int
	Axes        []Info
	Flow        []float64
	Entries     int64
}

// ReadHeader parses the header block of a histogram text file.
func ReadHeader(fname string) (*Header, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hd := &Header{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "#") {
			break
		}
		key, rest, _ := strings.Cut(strings.TrimSpace(line[1:]), " ")
		if err := hd.parseLine(key, rest); err != nil {
			return nil, errors.Wrapf(err, "%s: bad header line '%s'", fname, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	if hd.Dim == 0 || len(hd.Axes) != hd.Dim {
		return nil, errors.Errorf("%s: header declares dim %d with %d axes",
			fname, hd.Dim, len(hd.Axes))
	}
	return hd, nil
}

func (hd *Header) parseLine(key, rest string) error {
	var err error
	switch key {
	case "name":
		hd.Name = rest
	case "title":
		hd.Title = rest
	case "dim":
		hd.Dim, err = strconv.Atoi(rest)
	case "axis":
		tok := strings.Fields(rest)
		if len(tok) != 5 {
			return errors.Errorf("expected 5 axis fields, got %d", len(tok))
		}
		info := Info{Scale: tok[4]}
		if info.Min, err = strconv.ParseFloat(tok[1], 64); err != nil {
			return err
		}
		if info.Max, err = strconv.ParseFloat(tok[2], 64); err != nil {
			return err
		}
		if info.Bins, err = strconv.Atoi(tok[3]); err != nil {
			return err
		}
		hd.Axes = append(hd.Axes, info)
	case "flow":
		tok := strings.Fields(rest)
		if len(tok) < 2 {
			return errors.Errorf("expected at least 2 flow fields, got %d", len(tok))
		}
		for _, s := range tok[:len(tok)-1] {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			hd.Flow = append(hd.Flow, x)
		}
		hd.Entries, err = strconv.ParseInt(tok[len(tok)-1], 10, 64)
	}
	return err
}

// ReadH1DText reads a one-dimensional histogram written by WriteText.
func ReadH1DText(fname string) (*H1D, error) {
	hd, err := ReadHeader(fname)
	if err != nil {
		return nil, err
	}
	if hd.Dim != 1 || len(hd.Flow) != 2 {
		return nil, errors.Errorf("%s is not a 1D histogram", fname)
	}

	cols, err := table.ReadTable(fname, []int{0, 1}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", fname)
	}
	if err := hd.Axes[0].Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s", fname)
	}
	h := NewH1D(hd.Name, hd.Title, hd.Axes[0])
	if len(cols[1]) != h.X.Bins {
		return nil, errors.Errorf("%s has %d rows, but declares %d bins",
			fname, len(cols[1]), h.X.Bins)
	}
	copy(h.Counts, cols[1])
	h.Underflow, h.Overflow, h.Entries = hd.Flow[0], hd.Flow[1], hd.Entries
	return h, nil
}

// Files returns the histogram files in dir.
func Files(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*"+Ext))
}
