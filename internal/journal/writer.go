// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package journal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxAttempts = 3

type writeCmd struct {
	name string
	fn   func(context.Context) error
}

// Writer runs journal writes off the session goroutine, one at a time, with
// a short retry on failure
type Writer struct {
	logger zerolog.Logger
	queue  chan writeCmd
	wg     sync.WaitGroup

	mu      sync.Mutex
	dropped uint64
	failed  uint64
}

// NewWriter creates a writer queue. capacity <= 0 selects 256.
func NewWriter(logger zerolog.Logger, capacity int) *Writer {
	if capacity <= 0 {
		capacity = 256
	}
	return &Writer{
		logger: logger,
		queue:  make(chan writeCmd, capacity),
	}
}

// Enqueue schedules fn. When the queue is full the write is dropped and
// counted rather than stalling the caller.
func (w *Writer) Enqueue(name string, fn func(context.Context) error) {
	select {
	case w.queue <- writeCmd{name: name, fn: fn}:
	default:
		w.mu.Lock()
		w.dropped++
		w.mu.Unlock()
		w.logger.Warn().Str("cmd", name).Msg("journal queue full, dropping write")
	}
}

// Start runs the queue until ctx is done
func (w *Writer) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case cmd := <-w.queue:
				w.runWithRetry(ctx, cmd)
			}
		}
	}()
}

// Flush runs every queued write on the calling goroutine. Call it after the
// context given to Start is done.
func (w *Writer) Flush(ctx context.Context) {
	w.wg.Wait()
	for {
		select {
		case cmd := <-w.queue:
			w.runWithRetry(ctx, cmd)
		default:
			return
		}
	}
}

// Stats returns the number of dropped and failed writes
func (w *Writer) Stats() (dropped, failed uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped, w.failed
}

func (w *Writer) runWithRetry(ctx context.Context, cmd writeCmd) {
	for attempt := 1; ; attempt++ {
		err := cmd.fn(ctx)
		if err == nil {
			return
		}
		w.logger.Error().Err(err).Str("cmd", cmd.name).Int("attempt", attempt).Msg("journal write failed")
		if attempt == maxAttempts || !sleepCtx(ctx, time.Duration(attempt)*100*time.Millisecond) {
			break
		}
	}
	w.mu.Lock()
	w.failed++
	w.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
