package dataset

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/phil-mansfield/ssbar/event"
)

/*
The binary format used for event files is as follows:
    |-- 1 --||-- 2 --||-- ... 3 ... --||-- ... 4 ... --| ...

    1 - (int32) Flag indicating the endianness of the file. 0 indicates a big
        endian byte ordering and -1 indicates a little endian byte order.
    2 - (int32) Size of a Header struct. Should be checked for consistency.
    3 - (Header) Meta-information about the generator run.
    4 - One block per event:
          (int64) n, the number of particles.
          ([n]int64) Identity codes.
          ([n]float64) x 7: PT, Eta, Phi, Charge, Status, Mother, MotherID.

Events are not indexed: the file can only be read sequentially.
*/

const (
	// FormatVersion is written into every header.
	FormatVersion int64 = 1

	// Endianness flag used when writing. Files of either endianness can be
	// read.
	DefaultEndiannessFlag int32 = -1

	// maxParticles bounds the particle count read from an event block.
	maxParticles = 1 << 20
	// blockChunk is the number of values read at a time, so that memory use
	// follows the bytes actually present rather than a declared count.
	blockChunk = 1 << 12
)

var (
	defaultOrder = binary.LittleEndian

	// ErrBadHeader is returned when a file does not start with a valid
	// binary dataset header.
	ErrBadHeader = errors.New("not a binary event dataset")
)

// Header describes the run which produced a binary dataset.
type Header struct {
	Version int64
	RunID   uuid.UUID
	Seed    int64
	Created int64 // Unix time.
}

// BinaryWriter writes events in the binary format.
type BinaryWriter struct {
	w      *bufio.Writer
	c      io.Closer
	order  binary.ByteOrder
	events int64

	ids []int64
}

// NewBinaryWriter writes the file header to w and returns a writer for the
// event blocks. Close flushes the writer, and closes w if it is an
// io.Closer.
func NewBinaryWriter(w io.Writer, hd Header) (*BinaryWriter, error) {
	bw := &BinaryWriter{w: bufio.NewWriter(w), order: defaultOrder}
	if c, ok := w.(io.Closer); ok {
		bw.c = c
	}

	hd.Version = FormatVersion
	prefix := []int32{DefaultEndiannessFlag, int32(binary.Size(&hd))}
	if err := binary.Write(bw.w, bw.order, prefix); err != nil {
		return nil, errors.Wrap(err, "writing dataset prefix")
	}
	if err := binary.Write(bw.w, bw.order, &hd); err != nil {
		return nil, errors.Wrap(err, "writing dataset header")
	}
	return bw, nil
}

// CreateBinary creates a binary dataset at path.
func CreateBinary(path string, hd Header) (*BinaryWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	w, err := NewBinaryWriter(f, hd)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	return w, nil
}

// Write appends an event. Invalid events are rejected.
func (w *BinaryWriter) Write(ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	n := ev.Len()

	w.ids = w.ids[:0]
	for _, id := range ev.ID {
		w.ids = append(w.ids, int64(id))
	}
	charge := ev.Charge
	if charge == nil {
		charge = make([]float64, n)
	}

	blocks := []interface{}{
		int64(n), w.ids,
		ev.PT, ev.Eta, ev.Phi, charge, ev.Status, ev.Mother, ev.MotherID,
	}
	for _, b := range blocks {
		if err := binary.Write(w.w, w.order, b); err != nil {
			return errors.Wrapf(err, "writing event %d", w.events)
		}
	}
	w.events++
	return nil
}

// Events returns the number of events written so far.
func (w *BinaryWriter) Events() int64 { return w.events }

func (w *BinaryWriter) Close() error {
	err := w.w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// BinaryReader reads events in the binary format.
type BinaryReader struct {
	Header Header

	r      *bufio.Reader
	c      io.Closer
	order  binary.ByteOrder
	events int64
}

// NewBinaryReader reads the file header from r.
func NewBinaryReader(r io.Reader) (*BinaryReader, error) {
	br := &BinaryReader{r: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		br.c = c
	}

	var flag int32
	if err := binary.Read(br.r, binary.LittleEndian, &flag); err != nil {
		return nil, errors.Wrap(ErrBadHeader, err.Error())
	}
	switch flag {
	case -1:
		br.order = binary.LittleEndian
	case 0:
		br.order = binary.BigEndian
	default:
		return nil, errors.Wrapf(ErrBadHeader, "endianness flag %d", flag)
	}

	var size int32
	if err := binary.Read(br.r, br.order, &size); err != nil {
		return nil, errors.Wrap(ErrBadHeader, err.Error())
	}
	if int(size) != binary.Size(&br.Header) {
		return nil, errors.Wrapf(ErrBadHeader, "header size %d, expected %d",
			size, binary.Size(&br.Header))
	}
	if err := binary.Read(br.r, br.order, &br.Header); err != nil {
		return nil, errors.Wrap(ErrBadHeader, err.Error())
	}
	if br.Header.Version != FormatVersion {
		return nil, errors.Wrapf(ErrBadHeader, "unsupported version %d",
			br.Header.Version)
	}
	return br, nil
}

// OpenBinary opens the binary dataset at path.
func OpenBinary(path string) (*BinaryReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewBinaryReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return r, nil
}

func (r *BinaryReader) Next() (*event.Event, error) {
	var n int64
	err := binary.Read(r.r, r.order, &n)
	if err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, r.truncated(err)
	}
	if n < 0 || n > maxParticles {
		return nil, errors.Errorf(
			"event %d declares %d particles: file is corrupt", r.events, n,
		)
	}

	ids, err := readBlock[int64](r.r, r.order, int(n))
	if err != nil {
		return nil, r.truncated(err)
	}
	ev := &event.Event{}
	for _, b := range []*[]float64{
		&ev.PT, &ev.Eta, &ev.Phi, &ev.Charge,
		&ev.Status, &ev.Mother, &ev.MotherID,
	} {
		if *b, err = readBlock[float64](r.r, r.order, int(n)); err != nil {
			return nil, r.truncated(err)
		}
	}

	ev.ID = make([]int, n)
	for i := range ids {
		ev.ID[i] = int(ids[i])
	}
	r.events++
	return ev, nil
}

// readBlock reads n values in chunks of at most blockChunk.
func readBlock[T int64 | float64](
	r io.Reader, order binary.ByteOrder, n int,
) ([]T, error) {
	out := make([]T, 0, min(n, blockChunk))
	buf := make([]T, min(n, blockChunk))
	for len(out) < n {
		k := min(n-len(out), blockChunk)
		if err := binary.Read(r, order, buf[:k]); err != nil {
			return nil, err
		}
		out = append(out, buf[:k]...)
	}
	return out, nil
}

func (r *BinaryReader) truncated(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return errors.Wrapf(err, "reading event %d", r.events)
}

func (r *BinaryReader) Close() error {
	if r.c != nil {
		return r.c.Close()
	}
	return nil
}
