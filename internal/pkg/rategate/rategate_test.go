package rategate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)
	assert.NotNil(t, g)

	_, err = New(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestGate_BoundsConcurrency(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	var inFlight int64
	var peak int64
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, g.Acquire(context.Background()))
			defer g.Release()

			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
	assert.Equal(t, 0, g.InFlight())
	assert.Equal(t, 0, g.Waiting())
}

func TestGate_FIFOHandoff(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	require.NoError(t, g.Acquire(context.Background()))

	const waiters = 4
	order := make(chan int, waiters)
	started := make(chan struct{}, waiters)

	for i := 0; i < waiters; i++ {
		i := i
		go func() {
			started <- struct{}{}
			assert.NoError(t, g.Acquire(context.Background()))
			order <- i
			g.Release()
		}()
		<-started
		// Give the goroutine time to enqueue before starting the next one.
		for g.Waiting() != i+1 {
			time.Sleep(time.Millisecond)
		}
	}

	g.Release()

	for want := 0; want < waiters; want++ {
		select {
		case got := <-order:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("waiter %d never acquired", want)
		}
	}
}

func TestGate_ReleaseResolvesExactlyOneWaiter(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	require.NoError(t, g.Acquire(context.Background()))

	acquired := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			assert.NoError(t, g.Acquire(context.Background()))
			acquired <- struct{}{}
		}()
	}
	for g.Waiting() != 2 {
		time.Sleep(time.Millisecond)
	}

	g.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("no waiter resolved after release")
	}
	select {
	case <-acquired:
		t.Fatal("two waiters resolved by a single release")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGate_AcquireCancelled(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, g.Waiting())

	// The cancelled waiter must not have consumed the slot.
	g.Release()
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}
