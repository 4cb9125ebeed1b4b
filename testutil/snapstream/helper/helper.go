package helper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
)

// DefaultTimeout bounds every blocking read in tests.
const DefaultTimeout = 2 * time.Second

// GivenAdapter creates an Adapter for service and fails the test on a configuration error.
func GivenAdapter(t testing.TB, service snapstream.Service, options ...snapstream.Option) *snapstream.Adapter {
	t.Helper()

	adapter, err := snapstream.NewAdapter(service, options...)
	require.NoError(t, err, "error in arranging the adapter")

	return adapter
}

// TestContext returns a context that is cancelled after DefaultTimeout or when the test ends.
func TestContext(t testing.TB) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)

	return ctx
}

// TakeN reads exactly n elements from sub and fails the test if the subscription ends before.
func TakeN[T any](t testing.TB, sub *snapstream.Subscription[T], n int) []T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	values := make([]T, 0, n)
	for len(values) < n {
		value, ok, err := sub.Next(ctx)
		require.NoError(t, err, "subscription ended with an error after %d of %d elements", len(values), n)
		require.True(t, ok, "subscription completed after %d of %d elements", len(values), n)

		values = append(values, value)
	}

	return values
}

// Drain reads all remaining elements and the terminal error of a subscription that has already ended,
// or fails the test if it does not end within DefaultTimeout.
func Drain[T any](t testing.TB, sub *snapstream.Subscription[T]) ([]T, error) {
	t.Helper()

	select {
	case <-sub.Done():
	case <-time.After(DefaultTimeout):
		require.FailNow(t, "subscription did not end")
	}

	values := make([]T, 0)
	for value, err := range sub.All(context.Background()) {
		if err != nil {
			return values, err
		}

		values = append(values, value)
	}

	return values, nil
}

// RequireNoElement asserts that sub has no element queued right now and has not ended.
func RequireNoElement[T any](t testing.TB, sub *snapstream.Subscription[T]) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := sub.Next(ctx)
	require.False(t, ok, "expected no element")
	require.ErrorIs(t, err, context.DeadlineExceeded, "expected the subscription to be still active")
}
