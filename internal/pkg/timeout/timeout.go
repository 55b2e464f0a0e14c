// Package timeout provides the race-against-timer idiom used by the poster
// resolution lookups: the task and a timer run concurrently and whichever
// finishes first wins. Losing tasks are not aborted, only abandoned; their
// results go to a buffered channel nobody reads.
package timeout

import (
	"context"
	"time"
)

// Race runs task with a deadline of d. If the task finishes first its value
// is returned; if the timer (or the parent context) wins, fallback is
// returned and the task's eventual result is discarded. A task error also
// yields fallback.
func Race[T any](ctx context.Context, d time.Duration, fallback T, task func(context.Context) (T, error)) T {
	tctx, cancel := context.WithTimeout(ctx, d)

	done := make(chan T, 1)
	go func() {
		defer cancel()
		v, err := task(tctx)
		if err != nil {
			return
		}
		done <- v
	}()

	select {
	case v := <-done:
		return v
	case <-tctx.Done():
		return fallback
	}
}
