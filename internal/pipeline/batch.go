package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/offlinify/internal/model"
)

// Default batch settings.
const (
	// DefaultConcurrency processes one document at a time.
	DefaultConcurrency = 1

	// DefaultPauseEvery is the number of documents between pauses.
	DefaultPauseEvery = 2

	// DefaultPauseMin is the shortest pause.
	DefaultPauseMin = 10 * time.Second

	// DefaultPauseMax is the longest pause.
	DefaultPauseMax = 20 * time.Second
)

// DocumentProcessor cleans one document. *Processor satisfies it.
type DocumentProcessor interface {
	Process(ctx context.Context, path string) (*model.DocumentReport, error)
}

// BatchProcessor handles processing of many documents.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Processor so that pacing and ordering live in one place
// and a single document can still be processed without any of it.
type BatchProcessor struct {
	// processor cleans each document.
	processor DocumentProcessor

	// concurrency is the maximum number of documents processed at once.
	concurrency int

	// pauseEvery is the number of documents between pauses. Zero disables pausing.
	pauseEvery int

	// pauseMin and pauseMax bound the random pause duration.
	pauseMin time.Duration
	pauseMax time.Duration

	// sleep waits for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error

	// jitter returns a random duration in [0, n].
	jitter func(n time.Duration) time.Duration

	// onStart is called before a document is processed.
	onStart func(index, total int, path string)

	// onDone is called after a document is processed.
	onDone func(index int, report *model.DocumentReport, err error)

	// onPause is called before each pause.
	onPause func(d time.Duration)

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent documents.
// Default is 1.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithPacing pauses for a random duration in [minPause, maxPause] after
// every `every` documents. every <= 0 disables pausing.
func WithPacing(every int, minPause, maxPause time.Duration) BatchOption {
	return func(b *BatchProcessor) {
		b.pauseEvery = every
		b.pauseMin = minPause
		b.pauseMax = maxPause
	}
}

// WithSleeper replaces the function used to pause. Mostly useful in tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) BatchOption {
	return func(b *BatchProcessor) {
		if sleep != nil {
			b.sleep = sleep
		}
	}
}

// WithStartHook registers a function called before each document starts.
// index is zero based. The hook may be called from several goroutines.
func WithStartHook(fn func(index, total int, path string)) BatchOption {
	return func(b *BatchProcessor) {
		b.onStart = fn
	}
}

// WithDoneHook registers a function called after each document finishes.
// The hook may be called from several goroutines.
func WithDoneHook(fn func(index int, report *model.DocumentReport, err error)) BatchOption {
	return func(b *BatchProcessor) {
		b.onDone = fn
	}
}

// WithPauseHook registers a function called before each pause.
func WithPauseHook(fn func(d time.Duration)) BatchOption {
	return func(b *BatchProcessor) {
		b.onPause = fn
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(processor DocumentProcessor, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		processor:   processor,
		concurrency: DefaultConcurrency,
		pauseEvery:  DefaultPauseEvery,
		pauseMin:    DefaultPauseMin,
		pauseMax:    DefaultPauseMax,
		sleep:       sleepContext,
		jitter:      randomDuration,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch cleans every path and returns one report per path, in input order.
// The caller fills in the summary's input and output roots.
//
// A failing document never stops the batch; its error is kept in its
// report. Documents are dispatched in groups of pauseEvery: the next group
// starts only after the previous one finished and the pause elapsed, and no
// pause follows the last document.
//
// Cancelling ctx stops dispatching; documents never started have a nil
// report and ctx.Err() is returned.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, paths []string) (*model.BatchSummary, error) {
	summary := model.NewBatchSummary("", "")
	summary.Documents = make([]*model.DocumentReport, len(paths))

	bp.logger.Info("starting batch processing",
		"total_documents", len(paths),
		"concurrency", bp.concurrency,
	)

	var mu sync.Mutex
	var wave sync.WaitGroup

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

dispatch:
	for i, path := range paths {
		if bp.shouldPause(i) {
			wave.Wait()
			d := bp.pauseDuration()
			if bp.onPause != nil {
				bp.onPause(d)
			}
			bp.logger.Debug("pausing between documents", "duration", d)
			if err := bp.sleep(gctx, d); err != nil {
				break dispatch
			}
		}

		select {
		case <-gctx.Done():
			break dispatch
		default:
		}

		wave.Add(1)
		g.Go(func() error {
			defer wave.Done()

			if err := gctx.Err(); err != nil {
				return err
			}

			if bp.onStart != nil {
				bp.onStart(i, len(paths), path)
			}

			report, err := bp.processor.Process(gctx, path)

			mu.Lock()
			summary.Documents[i] = report
			mu.Unlock()

			if bp.onDone != nil {
				bp.onDone(i, report, err)
			}

			// Other documents keep going; the error is in the report.
			if err != nil {
				bp.logger.Warn("document failed",
					"document", path,
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	summary.Elapsed = time.Since(summary.Started)
	bp.logger.Info("batch processing complete",
		"total_documents", len(paths),
		"succeeded", summary.Succeeded(),
		"failed", summary.Failed(),
		"elapsed", summary.Elapsed,
	)

	return summary, err
}

// shouldPause reports whether a pause precedes the document at index i.
func (bp *BatchProcessor) shouldPause(i int) bool {
	return bp.pauseEvery > 0 && i > 0 && i%bp.pauseEvery == 0
}

// pauseDuration picks a pause length in [pauseMin, pauseMax].
func (bp *BatchProcessor) pauseDuration() time.Duration {
	if bp.pauseMax <= bp.pauseMin {
		return bp.pauseMin
	}
	return bp.pauseMin + bp.jitter(bp.pauseMax-bp.pauseMin)
}

// randomDuration returns a uniformly random duration in [0, n].
func randomDuration(n time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(n) + 1)) //nolint:gosec // pacing, not security
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
