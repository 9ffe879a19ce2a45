package analysis

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phil-mansfield/ssbar/dataset"
	"github.com/phil-mansfield/ssbar/event"
	"github.com/phil-mansfield/ssbar/metrics"
)

// workerQueueLen is the number of events buffered for each worker.
const workerQueueLen = 64

// RunOptions controls how Run drives an accumulator.
type RunOptions struct {
	// Workers is the number of accumulators processing events concurrently.
	// Values below 2 process events on the calling goroutine.
	Workers int
	// Policy says what to do with malformed events.
	Policy Policy
	// ProgressEvery logs a progress line every ProgressEvery events. Zero
	// disables progress lines.
	ProgressEvery int64

	Logger  *zap.Logger
	Metrics *metrics.Recorder
}

// Stats summarizes a run.
type Stats struct {
	// Events is the number of events read, including skipped ones.
	Events  int64
	Skipped int64
	Elapsed time.Duration
}

// Processed returns the number of events which reached the accumulator.
func (s Stats) Processed() int64 { return s.Events - s.Skipped }

// indexedEvent remembers the position of an event in the dataset so errors
// can point at it.
type indexedEvent struct {
	idx int64
	ev  *event.Event
}

// Run reads r to exhaustion and feeds every event to acc.
//
// With several workers, event k is handled by worker k % Workers, each
// worker owns a clone of acc, and the clones are merged into acc in worker
// order once every worker has finished. Partitioning and merge order are
// fixed, so repeated runs give identical histograms.
//
// Malformed events either end the run with an error wrapping the
// event.SchemaError (Halt) or are logged and counted (Skip). Dataset decoding
// errors always end the run.
func Run(
	ctx context.Context, r dataset.Reader, acc Accumulator, opts RunOptions,
) (Stats, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	run := &runner{opts: opts, acc: acc}
	start := time.Now()

	var err error
	if opts.Workers < 2 {
		err = run.serial(ctx, r)
	} else {
		err = run.parallel(ctx, r)
	}

	stats := Stats{
		Events:  run.events,
		Skipped: run.skipped.Load(),
		Elapsed: time.Since(start),
	}
	opts.Metrics.Duration(stats.Elapsed)
	return stats, err
}

type runner struct {
	opts RunOptions
	acc  Accumulator

	events  int64
	skipped atomic.Int64
}

// next reads the next event, counting and logging progress.
func (run *runner) next(r dataset.Reader) (*indexedEvent, error) {
	ev, err := r.Next()
	if err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading event %d", run.events)
	}

	ie := &indexedEvent{idx: run.events, ev: ev}
	run.events++
	run.opts.Metrics.Event(len(ev.ID))
	if run.opts.ProgressEvery > 0 && run.events%run.opts.ProgressEvery == 0 {
		run.opts.Logger.Info("Progress", zap.Int64("events", run.events))
	}
	return ie, nil
}

// process hands one event to acc and applies the malformed-event policy.
func (run *runner) process(acc Accumulator, ie *indexedEvent) error {
	err := acc.Process(ie.ev)
	if err == nil {
		return nil
	}
	if run.opts.Policy == Skip && errors.Is(err, event.ErrSchemaViolation) {
		run.skipped.Add(1)
		run.opts.Metrics.Skipped()
		run.opts.Logger.Warn("Skipping malformed event",
			zap.Int64("event", ie.idx), zap.Error(err))
		return nil
	}
	return errors.Wrapf(err, "event %d", ie.idx)
}

func (run *runner) serial(ctx context.Context, r dataset.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ie, err := run.next(r)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if err := run.process(run.acc, ie); err != nil {
			return err
		}
	}
}

func (run *runner) parallel(ctx context.Context, r dataset.Reader) error {
	workers := run.opts.Workers
	accs := make([]Accumulator, workers)
	queues := make([]chan *indexedEvent, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		accs[w] = run.acc.Clone()
		queues[w] = make(chan *indexedEvent, workerQueueLen)

		acc, queue := accs[w], queues[w]
		g.Go(func() error {
			for ie := range queue {
				if err := run.process(acc, ie); err != nil {
					// Drain so the reader never blocks on this queue.
					for range queue {
					}
					return err
				}
			}
			return nil
		})
	}

	readErr := run.distribute(gctx, r, queues)
	for _, q := range queues {
		close(q)
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}

	// Barrier passed: every worker is done with its accumulator.
	for w := range accs {
		if err := run.acc.Merge(accs[w]); err != nil {
			return errors.Wrapf(err, "merging worker %d", w)
		}
	}
	return nil
}

// distribute deals events out round-robin until the dataset is exhausted or
// the context is cancelled.
func (run *runner) distribute(
	ctx context.Context, r dataset.Reader, queues []chan *indexedEvent,
) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ie, err := run.next(r)
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		select {
		case queues[ie.idx%int64(len(queues))] <- ie:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
