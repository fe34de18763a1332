package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	got := make(chan string, 4)
	for i := 0; i < 2; i++ {
		_, err := b.Subscribe(context.Background(), FocusInput, func(name string) { got <- name })
		require.NoError(t, err)
	}
	_, err := b.Subscribe(context.Background(), WindowHidden, func(name string) { got <- name })
	require.NoError(t, err)

	require.True(t, b.Emit(FocusInput))

	for i := 0; i < 2; i++ {
		select {
		case name := <-got:
			require.Equal(t, FocusInput, name)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	select {
	case name := <-got:
		t.Fatalf("unexpected delivery of %q", name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	var calls atomic.Int32
	unsub, err := b.Subscribe(context.Background(), FocusInput, func(string) { calls.Add(1) })
	require.NoError(t, err)
	require.Equal(t, 1, b.Subscribers(FocusInput))

	unsub()
	unsub()
	require.Zero(t, b.Subscribers(FocusInput))

	b.Emit(FocusInput)
	time.Sleep(50 * time.Millisecond)
	require.Zero(t, calls.Load())
}

func TestBus_PanickingHandlerDoesNotStopOthers(t *testing.T) {
	b := NewBus(nil)
	defer b.Close()

	_, err := b.Subscribe(context.Background(), ActivateInput, func(string) { panic("boom") })
	require.NoError(t, err)
	done := make(chan struct{})
	_, err = b.Subscribe(context.Background(), ActivateInput, func(string) { close(done) })
	require.NoError(t, err)

	b.Emit(ActivateInput)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy handler not called")
	}

	// The dispatcher survives the panic.
	again := make(chan struct{}, 1)
	_, err = b.Subscribe(context.Background(), WindowHidden, func(string) { again <- struct{}{} })
	require.NoError(t, err)
	b.Emit(WindowHidden)
	select {
	case <-again:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher stopped after panic")
	}
}

func TestBus_SubscribeErrors(t *testing.T) {
	b := NewBus(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Subscribe(ctx, FocusInput, func(string) {})
	require.ErrorIs(t, err, context.Canceled)

	_, err = b.Subscribe(context.Background(), FocusInput, nil)
	require.Error(t, err)

	b.Close()
	b.Close()
	_, err = b.Subscribe(context.Background(), FocusInput, func(string) {})
	require.ErrorIs(t, err, ErrClosed)
	require.False(t, b.Emit(FocusInput))
}
