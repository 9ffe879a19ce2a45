package dataset

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
)

// Columns of a text table dataset. The charge column is optional.
const (
	colEvent = iota
	colID
	colPT
	colPhi
	colEta
	colStatus
	colMother
	colMotherID
	colCharge

	minTableCols = colCharge
	maxTableCols = colCharge + 1
)

// TableHeader is written at the top of every text table.
const TableHeader = "# event id pt phi eta status mother motherid charge"

// OpenTable reads a whitespace-separated text dataset. Each row is one
// particle; the first column is the index of its event. Rows belonging to the
// same event must be contiguous and event indices must not decrease. Events
// without any rows do not appear in the output.
//
// The whole file is read up front.
func OpenTable(path string) (*SliceReader, error) {
	nCols, err := tableWidth(path)
	if err != nil {
		return nil, err
	}
	if nCols == 0 {
		return NewSliceReader(), nil
	}

	colIdxs := make([]int, nCols)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, err := table.ReadTable(path, colIdxs, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "reading table %s", path)
	}

	evs, err := groupRows(cols)
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", path)
	}
	return NewSliceReader(evs...), nil
}

// tableWidth returns the number of columns used by the first data row, or 0
// if the file has no data rows.
func tableWidth(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		n := len(strings.Fields(line))
		if n < minTableCols {
			return 0, errors.Errorf(
				"table %s has %d columns, need at least %d", path, n, minTableCols,
			)
		}
		if n > maxTableCols {
			n = maxTableCols
		}
		return n, nil
	}
	return 0, errors.Wrapf(sc.Err(), "scanning %s", path)
}

func groupRows(cols [][]float64) ([]*event.Event, error) {
	rows := len(cols[colEvent])
	hasCharge := len(cols) > colCharge

	evs := []*event.Event{}
	var cur *event.Event
	prev := math.Inf(-1)
	for i := 0; i < rows; i++ {
		idx := cols[colEvent][i]
		if idx < prev {
			return nil, errors.Errorf(
				"row %d: event index %g follows %g", i, idx, prev,
			)
		}
		if cur == nil || idx != prev {
			cur = event.New(0)
			if !hasCharge {
				cur.Charge = nil
			}
			evs = append(evs, cur)
			prev = idx
		}

		id := cols[colID][i]
		if id != math.Trunc(id) {
			return nil, errors.Errorf("row %d: identity code %g is not an integer", i, id)
		}
		cur.ID = append(cur.ID, int(id))
		cur.PT = append(cur.PT, cols[colPT][i])
		cur.Phi = append(cur.Phi, cols[colPhi][i])
		cur.Eta = append(cur.Eta, cols[colEta][i])
		cur.Status = append(cur.Status, cols[colStatus][i])
		cur.Mother = append(cur.Mother, cols[colMother][i])
		cur.MotherID = append(cur.MotherID, cols[colMotherID][i])
		if hasCharge {
			cur.Charge = append(cur.Charge, cols[colCharge][i])
		}
	}
	return evs, nil
}

// TableWriter writes events as a text table.
type TableWriter struct {
	w      *bufio.Writer
	c      io.Closer
	events int64
}

// NewTableWriter writes the column header to w.
func NewTableWriter(w io.Writer) (*TableWriter, error) {
	tw := &TableWriter{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		tw.c = c
	}
	if _, err := fmt.Fprintln(tw.w, TableHeader); err != nil {
		return nil, err
	}
	return tw, nil
}

// CreateTable creates a text table dataset at path.
func CreateTable(path string) (*TableWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	w, err := NewTableWriter(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	return w, nil
}

// Write appends an event. Events without particles leave no trace in a
// table.
func (w *TableWriter) Write(ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	for i := 0; i < ev.Len(); i++ {
		p := ev.Particle(i)
		_, err := fmt.Fprintf(w.w, "%d %d %s %s %s %s %s %s %s\n",
			w.events, p.ID, f(p.PT), f(p.Phi), f(p.Eta),
			f(p.Status), f(p.Mother), f(p.MotherID), f(p.Charge),
		)
		if err != nil {
			return errors.Wrapf(err, "writing event %d", w.events)
		}
	}
	w.events++
	return nil
}

func (w *TableWriter) Close() error {
	err := w.w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
