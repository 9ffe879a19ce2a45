package dataset

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/ssbar/event"
)

func testEvents() []*event.Event {
	return []*event.Event{
		event.FromParticles(
			event.Particle{ID: 3312, PT: 1, Phi: 0, Eta: 0.1, Status: 91,
				Mother: 5, MotherID: 3322, Charge: -1},
			event.Particle{ID: -3312, PT: 2, Phi: 1, Eta: 0.2, Status: 91,
				Mother: 6, MotherID: -3322, Charge: 1},
		),
		event.New(0),
		event.FromParticles(
			event.Particle{ID: 333, PT: 0.75, Phi: -2.5, Eta: -3.25, Status: 83},
		),
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	hd := Header{RunID: uuid.New(), Seed: 42, Created: 1700000000}
	w, err := NewBinaryWriter(buf, hd)
	require.NoError(t, err)
	for _, ev := range testEvents() {
		require.NoError(t, w.Write(ev))
	}
	require.NoError(t, w.Close())
	assert.Equal(t, int64(3), w.Events())

	r, err := NewBinaryReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, hd.RunID, r.Header.RunID)
	assert.Equal(t, int64(42), r.Header.Seed)
	assert.Equal(t, FormatVersion, r.Header.Version)

	evs, err := ReadAll(r)
	require.NoError(t, err)
	require.Len(t, evs, 3)
	assert.Equal(t, testEvents()[0], evs[0])
	assert.Equal(t, 0, evs[1].Len())
	assert.Equal(t, testEvents()[2], evs[2])

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestBinaryRejectsInvalidEvent(t *testing.T) {
	w, err := NewBinaryWriter(&bytes.Buffer{}, Header{})
	require.NoError(t, err)
	ev := testEvents()[0]
	ev.PT = ev.PT[:1]
	assert.True(t, errors.Is(w.Write(ev), event.ErrSchemaViolation))
}

func TestBinaryTruncated(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewBinaryWriter(buf, Header{})
	require.NoError(t, err)
	require.NoError(t, w.Write(testEvents()[0]))
	require.NoError(t, w.Close())

	data := buf.Bytes()[:buf.Len()-3]
	r, err := NewBinaryReader(bytes.NewReader(data))
	require.NoError(t, err)
	_, err = r.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestBinaryLargeDeclaredCount(t *testing.T) {
	table := []struct {
		n       int64
		corrupt bool
	}{
		{maxParticles, false},
		{maxParticles + 1, true},
		{-1, true},
	}
	for _, test := range table {
		buf := &bytes.Buffer{}
		w, err := NewBinaryWriter(buf, Header{})
		require.NoError(t, err)
		require.NoError(t, w.Close())
		require.NoError(t, binary.Write(buf, binary.LittleEndian, test.n))
		buf.Write(make([]byte, 100))

		r, err := NewBinaryReader(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		_, err = r.Next()
		require.Error(t, err, "n = %d", test.n)
		if test.corrupt {
			assert.Contains(t, err.Error(), "corrupt", "n = %d", test.n)
		} else {
			assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "n = %d", test.n)
		}
	}
}

func TestCreateExisting(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"events" + BinaryExt, "events.txt"} {
		fname := filepath.Join(dir, name)
		w, err := Create(fname, Auto, Header{Seed: 7})
		require.NoError(t, err)
		for _, ev := range testEvents() {
			require.NoError(t, w.Write(ev))
		}
		require.NoError(t, w.Close())
		before, err := os.ReadFile(fname)
		require.NoError(t, err)

		_, err = Create(fname, Auto, Header{Seed: 8})
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, os.ErrExist), name)
		assert.Contains(t, err.Error(), "already exists", name)

		after, err := os.ReadFile(fname)
		require.NoError(t, err)
		assert.Equal(t, before, after, name)
	}
}

func TestBinaryBadHeader(t *testing.T) {
	_, err := NewBinaryReader(bytes.NewReader([]byte("# event id pt\n")))
	assert.True(t, errors.Is(err, ErrBadHeader))

	_, err = NewBinaryReader(bytes.NewReader(nil))
	assert.True(t, errors.Is(err, ErrBadHeader))
}

func TestTableRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "events.txt")
	w, err := CreateTable(fname)
	require.NoError(t, err)
	for _, ev := range testEvents() {
		require.NoError(t, w.Write(ev))
	}
	require.NoError(t, w.Close())

	r, err := Open(fname, Auto)
	require.NoError(t, err)
	evs, err := ReadAll(r)
	require.NoError(t, err)

	// The empty event leaves no rows behind.
	require.Len(t, evs, 2)
	assert.Equal(t, testEvents()[0], evs[0])
	assert.Equal(t, testEvents()[2], evs[1])
}

func TestTableWithoutCharge(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "events.dat")
	text := `# event id pt phi eta status mother motherid
0 3312 1.0 0.0 0.1 91 0 0
0 -3312 2.0 1.0 0.2 91 0 0
4 333 3.0 2.0 0.3 91 0 0
`
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))

	r, err := OpenTable(fname)
	require.NoError(t, err)
	evs, err := ReadAll(r)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	assert.Equal(t, []int{3312, -3312}, evs[0].ID)
	assert.Equal(t, []float64{1, 2}, evs[0].PT)
	assert.Nil(t, evs[0].Charge)
	assert.NoError(t, evs[0].Validate())
	assert.Equal(t, []int{333}, evs[1].ID)
}

func TestTableErrors(t *testing.T) {
	dir := t.TempDir()

	decreasing := filepath.Join(dir, "decreasing.txt")
	require.NoError(t, os.WriteFile(decreasing, []byte(
		"1 3312 1 0 0 91 0 0\n0 3312 1 0 0 91 0 0\n"), 0644))
	_, err := OpenTable(decreasing)
	assert.Error(t, err)

	narrow := filepath.Join(dir, "narrow.txt")
	require.NoError(t, os.WriteFile(narrow, []byte("0 3312 1 0\n"), 0644))
	_, err = OpenTable(narrow)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte(TableHeader+"\n"), 0644))
	r, err := OpenTable(empty)
	require.NoError(t, err)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestChain(t *testing.T) {
	dir := t.TempDir()
	evs := testEvents()

	w, err := Create(filepath.Join(dir, "a"+BinaryExt), Auto, Header{})
	require.NoError(t, err)
	require.NoError(t, w.Write(evs[0]))
	require.NoError(t, w.Write(evs[1]))
	require.NoError(t, w.Close())

	w, err = Create(filepath.Join(dir, "b"+BinaryExt), Auto, Header{})
	require.NoError(t, err)
	require.NoError(t, w.Write(evs[2]))
	require.NoError(t, w.Close())

	c, err := OpenFiles(Auto, filepath.Join(dir, "*"+BinaryExt), filepath.Join(dir, "a"+BinaryExt))
	require.NoError(t, err)
	assert.Len(t, c.Files(), 2)
	assert.Equal(t, "", c.File())

	got, err := ReadAll(c)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, evs[2], got[2])
	assert.NoError(t, c.Close())
}

func TestGlobNoMatch(t *testing.T) {
	dir := t.TempDir()
	_, err := Glob(filepath.Join(dir, "*.ssb"))
	assert.Error(t, err)

	a := filepath.Join(dir, "a.ssb")
	require.NoError(t, os.WriteFile(a, nil, 0644))

	_, err = Glob(a, filepath.Join(dir, "typo.ssb"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "typo.ssb")

	// A wildcard pattern matching nothing is fine as long as something else
	// matches.
	files, err := Glob(a, filepath.Join(dir, "*.txt"))
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestParseFormat(t *testing.T) {
	for s, want := range map[string]Format{
		"": Auto, "auto": Auto, "Binary": Binary, "TABLE": Table, "text": Table,
	} {
		got, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("root")
	assert.Error(t, err)

	assert.Equal(t, Binary, Auto.Resolve("x/events.ssb"))
	assert.Equal(t, Table, Auto.Resolve("x/events.txt"))
	assert.Equal(t, Binary, Binary.Resolve("x/events.txt"))
}

func TestSliceReader(t *testing.T) {
	r := NewSliceReader(testEvents()...)
	n := 0
	for {
		_, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 3, n)
	assert.NoError(t, r.Close())
}
