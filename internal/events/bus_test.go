package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPublishReachesTypedSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	requested, cancel := Subscribe[BuildRequested](bus, 4)
	defer cancel()
	completed, cancelC := Subscribe[BuildCompleted](bus, 4)
	defer cancelC()

	require.NoError(t, bus.Publish(context.Background(), BuildRequested{Reason: "watch"}))

	select {
	case got := <-requested:
		require.Equal(t, "watch", got.Reason)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for BuildRequested")
	}

	select {
	case <-completed:
		t.Fatal("BuildCompleted subscriber must not receive BuildRequested")
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := Subscribe[BuildNow](bus, 1)
	cancel()
	cancel() // idempotent

	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not block or error.
	require.NoError(t, bus.Publish(context.Background(), BuildNow{}))
}

func TestPublishBlocksUntilDeliveredOrCanceled(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, cancel := Subscribe[BuildRequested](bus, 1)
	defer cancel()

	// Fill the buffer; the next publish must block until ctx cancels.
	require.NoError(t, bus.Publish(context.Background(), BuildRequested{Reason: "one"}))

	ctx, stop := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer stop()
	err := bus.Publish(ctx, BuildRequested{Reason: "two"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	<-ch
}

func TestCloseStopsBus(t *testing.T) {
	bus := NewBus()
	ch, _ := Subscribe[BuildNow](bus, 1)

	bus.Close()
	bus.Close() // idempotent

	_, open := <-ch
	require.False(t, open)
	require.ErrorIs(t, bus.Publish(context.Background(), BuildNow{}), ErrClosed)

	late, _ := Subscribe[BuildNow](bus, 1)
	_, open = <-late
	require.False(t, open)
}
