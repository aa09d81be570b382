package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	t.Parallel()

	l, _ := startLoop(t)

	var got []int
	for i := range 5 {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.Do(context.Background(), func() {}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_PostFromManyGoroutines(t *testing.T) {
	t.Parallel()

	l, _ := startLoop(t)

	counter := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Do(context.Background(), func() { counter++ })
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, l.Do(context.Background(), func() { final = counter }))
	assert.Equal(t, 50, final)
}

func TestLoop_TaskMayPostTasks(t *testing.T) {
	t.Parallel()

	l, _ := startLoop(t)

	done := make(chan struct{})
	l.Post(func() {
		l.Post(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested task never ran")
	}
}

func TestLoop_PanicDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	l, _ := startLoop(t)

	err := l.Do(context.Background(), func() { panic("boom") })
	assert.ErrorIs(t, err, ErrPanic)

	l.Post(func() { panic("unobserved") })

	ran := false
	require.NoError(t, l.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestLoop_ClosedAfterRunReturns(t *testing.T) {
	t.Parallel()

	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	assert.False(t, l.Post(func() {}))
	assert.ErrorIs(t, l.Do(context.Background(), func() {}), ErrClosed)
	assert.ErrorIs(t, l.Run(context.Background()), ErrRunning)
}

func TestLoop_DoHonorsContext(t *testing.T) {
	t.Parallel()

	// Never started: Do can only return through its context.
	l := New(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
