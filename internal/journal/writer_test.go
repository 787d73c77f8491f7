// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package journal

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWriter_RunsQueuedWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	w := NewWriter(zerolog.Nop(), 8)
	w.Start(ctx)

	var ran atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 3; i++ {
		w.Enqueue("count", func(context.Context) error {
			if ran.Add(1) == 3 {
				close(done)
			}
			return nil
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("only %d of 3 writes ran", ran.Load())
	}
	cancel()
	w.Flush(context.Background())

	if dropped, failed := w.Stats(); dropped != 0 || failed != 0 {
		t.Errorf("dropped=%d failed=%d, expected none", dropped, failed)
	}
}

func TestWriter_RetriesThenCountsFailure(t *testing.T) {
	w := NewWriter(zerolog.Nop(), 1)

	var attempts int
	w.Enqueue("always fails", func(context.Context) error {
		attempts++
		return errors.New("disk full")
	})
	w.Flush(context.Background())

	if attempts != maxAttempts {
		t.Errorf("attempts = %d, expected %d", attempts, maxAttempts)
	}
	if _, failed := w.Stats(); failed != 1 {
		t.Errorf("failed = %d, expected 1", failed)
	}
}

func TestWriter_DropsWhenFull(t *testing.T) {
	w := NewWriter(zerolog.Nop(), 1)
	noop := func(context.Context) error { return nil }

	w.Enqueue("first", noop)
	w.Enqueue("second", noop)

	if dropped, _ := w.Stats(); dropped != 1 {
		t.Errorf("dropped = %d, expected 1", dropped)
	}
	w.Flush(context.Background())
}
