package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/offlinify/internal/model"
)

// fakeProcessor records processed paths and fails paths containing "bad".
type fakeProcessor struct {
	mu        sync.Mutex
	processed []string
	onProcess func(path string)
}

func (f *fakeProcessor) Process(_ context.Context, path string) (*model.DocumentReport, error) {
	f.mu.Lock()
	f.processed = append(f.processed, path)
	hook := f.onProcess
	f.mu.Unlock()

	if hook != nil {
		hook(path)
	}

	report := model.NewDocumentReport(path, strings.TrimSuffix(path, ".html"))
	if strings.Contains(path, "bad") {
		err := errors.New("broken document")
		report.SetError(err)
		return report, err
	}
	return report, nil
}

// recordingSleeper records requested pauses without sleeping.
type recordingSleeper struct {
	mu     sync.Mutex
	pauses []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.pauses = append(r.pauses, d)
	r.mu.Unlock()
	return ctx.Err()
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("uses defaults", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(&fakeProcessor{})
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
		if bp.pauseEvery != DefaultPauseEvery || bp.pauseMin != DefaultPauseMin || bp.pauseMax != DefaultPauseMax {
			t.Errorf("unexpected pacing %d %v %v", bp.pauseEvery, bp.pauseMin, bp.pauseMax)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(&fakeProcessor{}, WithConcurrency(0))
		if bp.concurrency != DefaultConcurrency {
			t.Errorf("expected concurrency %d, got %d", DefaultConcurrency, bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests ordering, error isolation and pacing.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("processes sequentially in order and keeps going after failures", func(t *testing.T) {
		t.Parallel()

		proc := &fakeProcessor{}
		sleeper := &recordingSleeper{}
		bp := NewBatchProcessor(proc, WithPacing(0, 0, 0), WithSleeper(sleeper.sleep))

		paths := []string{"a.html", "bad.html", "c.html"}
		summary, err := bp.ProcessBatch(context.Background(), paths)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.Join(proc.processed, ",") != "a.html,bad.html,c.html" {
			t.Errorf("unexpected processing order %v", proc.processed)
		}
		if len(summary.Documents) != 3 {
			t.Fatalf("expected 3 reports, got %d", len(summary.Documents))
		}
		for i, p := range paths {
			if summary.Documents[i].Source != p {
				t.Errorf("report %d: expected %q, got %q", i, p, summary.Documents[i].Source)
			}
		}
		if summary.Succeeded() != 2 || summary.Failed() != 1 {
			t.Errorf("expected 2 succeeded and 1 failed, got %d and %d", summary.Succeeded(), summary.Failed())
		}
		if len(sleeper.pauses) != 0 {
			t.Errorf("pacing disabled but paused %d times", len(sleeper.pauses))
		}
	})

	t.Run("pauses after every two documents but not after the last", func(t *testing.T) {
		t.Parallel()

		sleeper := &recordingSleeper{}
		bp := NewBatchProcessor(&fakeProcessor{},
			WithPacing(2, 10*time.Second, 20*time.Second),
			WithSleeper(sleeper.sleep),
		)

		for _, tc := range []struct {
			docs   int
			pauses int
		}{
			{docs: 1, pauses: 0},
			{docs: 2, pauses: 0},
			{docs: 3, pauses: 1},
			{docs: 4, pauses: 1},
			{docs: 5, pauses: 2},
		} {
			sleeper.mu.Lock()
			sleeper.pauses = nil
			sleeper.mu.Unlock()

			paths := make([]string, tc.docs)
			for i := range paths {
				paths[i] = "doc.html"
			}
			if _, err := bp.ProcessBatch(context.Background(), paths); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(sleeper.pauses) != tc.pauses {
				t.Errorf("%d documents: expected %d pauses, got %d", tc.docs, tc.pauses, len(sleeper.pauses))
			}
			for _, d := range sleeper.pauses {
				if d < 10*time.Second || d > 20*time.Second {
					t.Errorf("pause %v outside [10s, 20s]", d)
				}
			}
		}
	})

	t.Run("pause waits for the previous group", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		events := make([]string, 0)
		proc := &fakeProcessor{onProcess: func(path string) {
			mu.Lock()
			events = append(events, path)
			mu.Unlock()
		}}
		bp := NewBatchProcessor(proc,
			WithConcurrency(2),
			WithPacing(2, time.Second, time.Second),
			WithSleeper(func(_ context.Context, _ time.Duration) error {
				mu.Lock()
				events = append(events, "pause")
				mu.Unlock()
				return nil
			}),
		)

		if _, err := bp.ProcessBatch(context.Background(), []string{"1.html", "2.html", "3.html"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(events) != 4 || events[2] != "pause" || events[3] != "3.html" {
			t.Errorf("unexpected event order %v", events)
		}
	})

	t.Run("hooks are called for every document", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		started := make([]int, 0)
		done := make(map[int]bool)

		bp := NewBatchProcessor(&fakeProcessor{},
			WithPacing(0, 0, 0),
			WithStartHook(func(index, total int, _ string) {
				mu.Lock()
				defer mu.Unlock()
				if total != 2 {
					t.Errorf("expected total 2, got %d", total)
				}
				started = append(started, index)
			}),
			WithDoneHook(func(index int, report *model.DocumentReport, err error) {
				mu.Lock()
				defer mu.Unlock()
				done[index] = report != nil && (err != nil) == report.Failed()
			}),
		)

		if _, err := bp.ProcessBatch(context.Background(), []string{"ok.html", "bad.html"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(started) != 2 || started[0] != 0 || started[1] != 1 {
			t.Errorf("unexpected start hook calls %v", started)
		}
		if !done[0] || !done[1] {
			t.Errorf("unexpected done hook results %v", done)
		}
	})

	t.Run("cancellation stops dispatch", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		proc := &fakeProcessor{onProcess: func(path string) {
			if path == "2.html" {
				cancel()
			}
		}}
		bp := NewBatchProcessor(proc, WithPacing(0, 0, 0))

		summary, err := bp.ProcessBatch(ctx, []string{"1.html", "2.html", "3.html", "4.html"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if summary.Documents[2] != nil || summary.Documents[3] != nil {
			t.Error("documents after cancellation must not be processed")
		}
		if summary.Skipped() != 2 {
			t.Errorf("expected 2 skipped, got %d", summary.Skipped())
		}
	})
}

// TestPauseDuration tests the pause range.
func TestPauseDuration(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(&fakeProcessor{}, WithPacing(2, 5*time.Second, 5*time.Second))
	if d := bp.pauseDuration(); d != 5*time.Second {
		t.Errorf("expected fixed 5s pause, got %v", d)
	}

	bp = NewBatchProcessor(&fakeProcessor{}, WithPacing(2, time.Second, 3*time.Second))
	for range 100 {
		if d := bp.pauseDuration(); d < time.Second || d > 3*time.Second {
			t.Fatalf("pause %v outside [1s, 3s]", d)
		}
	}
}

// TestSleepContext tests cancellation of pauses.
func TestSleepContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("cancelled sleep must return immediately")
	}

	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
