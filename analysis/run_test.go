package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phil-mansfield/ssbar/dataset"
	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/metrics"
)

func malformed() *event.Event {
	ev := event.FromParticles(xi(3312, 1, 0, 0), xi(-3312, 1, 1, 0))
	ev.Eta = ev.Eta[:1]
	return ev
}

func runCorrelator(
	t *testing.T, evs []*event.Event, opts RunOptions,
) (*Correlator, Stats, error) {
	c := newCorrelator(t)
	opts.Logger = zap.NewNop()
	stats, err := Run(context.Background(), dataset.NewSliceReader(evs...), c, opts)
	return c, stats, err
}

func TestRunSerial(t *testing.T) {
	evs := randomEvents(40, 5)
	c, stats, err := runCorrelator(t, evs, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(40), stats.Events)
	assert.Equal(t, int64(0), stats.Skipped)
	assert.Equal(t, int64(40), stats.Processed())

	direct := newCorrelator(t)
	for _, ev := range evs {
		require.NoError(t, direct.Process(ev))
	}
	assert.Equal(t, direct.DPhi.Counts, c.DPhi.Counts)
	assert.Equal(t, direct.Triggers(), c.Triggers())
}

func TestRunIdempotent(t *testing.T) {
	evs := randomEvents(60, 9)
	a, _, err := runCorrelator(t, evs, RunOptions{})
	require.NoError(t, err)
	b, _, err := runCorrelator(t, evs, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, a.TriggerPT.Counts, b.TriggerPT.Counts)
	assert.Equal(t, a.DPhi.Counts, b.DPhi.Counts)
	assert.Equal(t, a.DPhiDEta.Counts, b.DPhiDEta.Counts)
	assert.Equal(t, a.PTPTDEta.Counts, b.PTPTDEta.Counts)
}

func TestRunParallelMatchesSerial(t *testing.T) {
	evs := randomEvents(200, 17)
	serial, _, err := runCorrelator(t, evs, RunOptions{Workers: 1})
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8} {
		par, stats, err := runCorrelator(t, evs, RunOptions{Workers: workers})
		require.NoError(t, err)
		assert.Equal(t, int64(200), stats.Events)
		assert.Equal(t, serial.Triggers(), par.Triggers(), "workers = %d", workers)
		assert.Equal(t, serial.Pairs(), par.Pairs(), "workers = %d", workers)
		assert.Equal(t, serial.DPhi.Counts, par.DPhi.Counts, "workers = %d", workers)
		assert.Equal(t, serial.DPhiDEta.Counts, par.DPhiDEta.Counts)
		assert.Equal(t, serial.PTPTDEta.Counts, par.PTPTDEta.Counts)
		assert.Equal(t, serial.TriggerPT.Counts, par.TriggerPT.Counts)
	}
}

func TestRunHalt(t *testing.T) {
	evs := randomEvents(10, 2)
	evs[4] = malformed()

	for _, workers := range []int{1, 4} {
		_, _, err := runCorrelator(t, evs, RunOptions{Workers: workers, Policy: Halt})
		require.Error(t, err, "workers = %d", workers)
		assert.True(t, errors.Is(err, event.ErrSchemaViolation))
		assert.Contains(t, err.Error(), "event 4")
	}
}

const skippedMetric = `
# HELP ssbar_events_skipped_total Malformed events skipped under the Skip policy.
# TYPE ssbar_events_skipped_total counter
ssbar_events_skipped_total{mode="correlate"} 1
`

func TestRunSkip(t *testing.T) {
	evs := randomEvents(10, 2)
	clean := append([]*event.Event{}, evs[:4]...)
	clean = append(clean, evs[5:]...)
	evs[4] = malformed()

	want, _, err := runCorrelator(t, clean, RunOptions{})
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		rec := metrics.New("correlate")
		got, stats, err := runCorrelator(t, evs,
			RunOptions{Workers: workers, Policy: Skip, Metrics: rec})
		require.NoError(t, err)
		assert.Equal(t, int64(10), stats.Events)
		assert.Equal(t, int64(1), stats.Skipped)
		assert.Equal(t, want.Triggers(), got.Triggers())
		assert.Equal(t, want.Pairs(), got.Pairs())

		assert.NoError(t, testutil.GatherAndCompare(rec.Registry(),
			strings.NewReader(skippedMetric), "ssbar_events_skipped_total"))
	}
}

type failingReader struct{ n int }

func (r *failingReader) Next() (*event.Event, error) {
	if r.n == 0 {
		return nil, errors.New("disk on fire")
	}
	r.n--
	return event.New(0), nil
}

func (r *failingReader) Close() error { return nil }

func TestRunReadError(t *testing.T) {
	for _, workers := range []int{1, 3} {
		c := newCorrelator(t)
		stats, err := Run(context.Background(), &failingReader{n: 5}, c,
			RunOptions{Workers: workers, Policy: Skip})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk on fire")
		assert.Contains(t, err.Error(), "reading event 5")
		assert.Equal(t, int64(5), stats.Events)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, workers := range []int{1, 2} {
		_, err := Run(ctx, dataset.NewSliceReader(randomEvents(5, 1)...),
			newCorrelator(t), RunOptions{Workers: workers})
		assert.True(t, errors.Is(err, context.Canceled))
	}
}

func TestRunMulti(t *testing.T) {
	evs := randomEvents(30, 4)
	spectra, err := NewSpectra(DefaultBinning().PT)
	require.NoError(t, err)
	c := newCorrelator(t)
	acc := Multi{c, spectra}

	_, err = Run(context.Background(), dataset.NewSliceReader(evs...), acc,
		RunOptions{Workers: 3})
	require.NoError(t, err)

	n := int64(0)
	for _, ev := range evs {
		n += int64(ev.Len())
	}
	assert.Equal(t, n, spectra.Particles())
	assert.Len(t, acc.Histograms(), 6)

	serial := newCorrelator(t)
	for _, ev := range evs {
		require.NoError(t, serial.Process(ev))
	}
	assert.Equal(t, serial.DPhi.Counts, c.DPhi.Counts)
}

func TestMultiMalformedLeavesMembersEmpty(t *testing.T) {
	spectra, err := NewSpectra(DefaultBinning().PT)
	require.NoError(t, err)
	acc := Multi{spectra, newCorrelator(t)}
	err = acc.Process(malformed())
	assert.True(t, errors.Is(err, event.ErrSchemaViolation))
	assert.Equal(t, int64(0), spectra.Particles())

	assert.Error(t, acc.Merge(Multi{spectra}))
}
