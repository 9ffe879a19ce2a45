// Package dataset reads and writes sequences of events.
//
// Two on-disk formats are supported: a compact binary format written by the
// generator, and a whitespace-separated text table which is convenient for
// small hand-made inputs and for exchanging data with other tools. Readers of
// either format, chains of files, and in-memory slices all satisfy Reader.
package dataset

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
)

// Reader is a sequential source of events. Next returns io.EOF once the
// dataset is exhausted; any other error means the dataset could not be
// decoded. Every call to Next returns a freshly allocated event.
type Reader interface {
	Next() (*event.Event, error)
	Close() error
}

// Writer is a sink for events.
type Writer interface {
	Write(ev *event.Event) error
	Close() error
}

// Format names an on-disk dataset format.
type Format string

const (
	Auto   Format = "Auto"
	Binary Format = "Binary"
	Table  Format = "Table"

	// BinaryExt is the extension used for binary datasets. Auto-detection
	// treats every other extension as a text table.
	BinaryExt = ".ssb"
)

// ParseFormat converts a (case-insensitive) format name into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Auto, nil
	case "binary":
		return Binary, nil
	case "table", "text":
		return Table, nil
	}
	return "", errors.Errorf(
		"dataset format must be one of [Auto | Binary | Table], got '%s'", s,
	)
}

// Resolve returns the concrete format used for the given file.
func (f Format) Resolve(path string) Format {
	if f != Auto {
		return f
	}
	if strings.EqualFold(filepath.Ext(path), BinaryExt) {
		return Binary
	}
	return Table
}

// Open opens a single dataset file.
func Open(path string, f Format) (Reader, error) {
	switch f.Resolve(path) {
	case Binary:
		return OpenBinary(path)
	case Table:
		return OpenTable(path)
	}
	return nil, errors.Errorf("unknown dataset format '%s'", f)
}

// createFile opens a new file for writing. Existing files are never
// overwritten.
func createFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if os.IsExist(err) {
		return nil, errors.Wrapf(err, "dataset %s already exists", path)
	}
	return f, err
}

// Create creates a single dataset file. It fails if path already exists.

func Create(path string, f Format, hd Header) (Writer, error) {
	switch f.Resolve(path) {
	case Binary:
		return CreateBinary(path, hd)
	case Table:
		return CreateTable(path)
	}
	return nil, errors.Errorf("unknown dataset format '%s'", f)
}

// SliceReader serves events from memory.
type SliceReader struct {
	evs []*event.Event
	i   int
}

// NewSliceReader returns a Reader over evs. The events are returned as-is,
// not copied.
func NewSliceReader(evs ...*event.Event) *SliceReader {
	return &SliceReader{evs: evs}
}

func (r *SliceReader) Next() (*event.Event, error) {
	if r.i >= len(r.evs) {
		return nil, io.EOF
	}
	ev := r.evs[r.i]
	r.i++
	return ev, nil
}

func (r *SliceReader) Close() error { return nil }

// ReadAll drains a Reader.
func ReadAll(r Reader) ([]*event.Event, error) {
	evs := []*event.Event{}
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return evs, nil
		} else if err != nil {
			return evs, err
		}
		evs = append(evs, ev)
	}
}
