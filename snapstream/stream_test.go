package snapstream_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
	. "github.com/AntonStoeckl/snapshot-streams-go/testutil/snapstream/helper" //nolint:revive
)

// givenManualStream returns a Stream whose emitters are handed to the test, one per subscription.
func givenManualStream[T any]() (snapstream.Stream[T], chan snapstream.Emitter[T], *atomic.Int32) {
	emitters := make(chan snapstream.Emitter[T], 10)
	teardowns := &atomic.Int32{}

	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[T]) {
		emitter.OnCancel(func() { teardowns.Add(1) })
		emitters <- emitter
	})

	return stream, emitters, teardowns
}

func Test_Stream_IsCold(t *testing.T) {
	// arrange
	produced := 0
	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[int]) {
		produced++
		emitter.Next(produced)
		emitter.Complete()
	})

	// assert
	assert.Equal(t, 0, produced, "nothing happens before Subscribe")

	// act
	first := stream.Subscribe(TestContext(t))
	second := stream.Subscribe(TestContext(t))

	// assert
	assert.Equal(t, 2, produced, "every Subscribe runs the producer")
	assert.Equal(t, []int{1}, TakeN(t, first, 1))
	assert.Equal(t, []int{2}, TakeN(t, second, 1))
}

func Test_Subscription_DeliversElementsInOrder(t *testing.T) {
	// arrange
	stream, emitters, _ := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	for i := range 100 {
		assert.True(t, emitter.Next(i))
	}
	emitter.Complete()

	// assert
	values, err := Drain(t, sub)
	require.NoError(t, err)
	require.Len(t, values, 100)
	for i, value := range values {
		assert.Equal(t, i, value)
	}
}

func Test_Subscription_Next_AfterCompletion(t *testing.T) {
	// arrange
	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[string]) {
		emitter.Next("only")
		emitter.Complete()
	})
	sub := stream.Subscribe(TestContext(t))

	// act
	value, ok, err := sub.Next(TestContext(t))
	_, okAfter, errAfter := sub.Next(TestContext(t))

	// assert
	assert.Equal(t, "only", value)
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.False(t, okAfter)
	assert.NoError(t, errAfter)
	assert.NoError(t, sub.Err())
}

func Test_Subscription_QueuedElementsComeBeforeTheFailure(t *testing.T) {
	// arrange
	boom := errors.New("boom")
	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[int]) {
		emitter.Next(1)
		emitter.Next(2)
		emitter.Error(boom)
		emitter.Next(3)
	})

	// act
	values, err := Drain(t, stream.Subscribe(TestContext(t)))

	// assert
	assert.Equal(t, []int{1, 2}, values)
	assert.ErrorIs(t, err, boom)
}

func Test_Subscription_TerminalSignalsAreFinal(t *testing.T) {
	// arrange
	stream, emitters, _ := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	emitter.Complete()
	emitter.Error(errors.New("too late"))
	accepted := emitter.Next(1)

	// assert
	assert.False(t, accepted)
	assert.True(t, emitter.Closed())
	assert.NoError(t, emitter.Err())

	values, err := Drain(t, sub)
	assert.Empty(t, values)
	assert.NoError(t, err)
}

func Test_Subscription_Cancel(t *testing.T) {
	// arrange
	stream, emitters, teardowns := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters
	emitter.Next(1)

	// act
	sub.Cancel()
	sub.Cancel()

	// assert
	assert.Equal(t, int32(1), teardowns.Load(), "teardowns run exactly once")
	assert.True(t, emitter.Closed())
	assert.False(t, emitter.Next(2), "elements after Cancel are discarded")
	assert.ErrorIs(t, emitter.Err(), snapstream.ErrSubscriptionCancelled)

	_, ok, err := sub.Next(TestContext(t))
	assert.False(t, ok, "queued elements are dropped")
	assert.ErrorIs(t, err, snapstream.ErrSubscriptionCancelled)
	assert.ErrorIs(t, sub.Err(), snapstream.ErrSubscriptionCancelled)

	select {
	case <-sub.Done():
	default:
		assert.Fail(t, "Done should be closed after Cancel")
	}
}

func Test_Subscription_CancelAfterCompletionKeepsTheResult(t *testing.T) {
	// arrange
	stream, emitters, teardowns := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters
	emitter.Complete()

	// act
	sub.Cancel()

	// assert
	assert.Equal(t, int32(1), teardowns.Load())
	assert.NoError(t, sub.Err())
}

func Test_Subscription_TeardownsRunOnTermination(t *testing.T) {
	// arrange
	stream, emitters, teardowns := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	emitter.Error(errors.New("service gone"))

	// assert
	assert.Equal(t, int32(1), teardowns.Load())
	assert.EqualError(t, sub.Err(), "service gone")
}

func Test_Emitter_OnCancelAfterTerminationRunsImmediately(t *testing.T) {
	// arrange
	stream, emitters, _ := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters
	sub.Cancel()

	// act
	ran := false
	emitter.OnCancel(func() { ran = true })

	// assert
	assert.True(t, ran)
}

func Test_Subscription_TeardownsRunInReverseOrder(t *testing.T) {
	// arrange
	var order []string
	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[int]) {
		emitter.OnCancel(func() { order = append(order, "first") })
		emitter.OnCancel(func() { order = append(order, "second") })
	})
	sub := stream.Subscribe(TestContext(t))

	// act
	sub.Cancel()

	// assert
	assert.Equal(t, []string{"second", "first"}, order)
}

func Test_Subscribe_ContextCancellationCancelsTheSubscription(t *testing.T) {
	// arrange
	stream, emitters, teardowns := givenManualStream[int]()
	ctx, cancel := context.WithCancel(context.Background())
	sub := stream.Subscribe(ctx)
	emitter := <-emitters

	// act
	cancel()

	// assert
	select {
	case <-sub.Done():
	case <-time.After(DefaultTimeout):
		require.FailNow(t, "subscription was not cancelled")
	}

	assert.ErrorIs(t, sub.Err(), snapstream.ErrSubscriptionCancelled)
	assert.True(t, emitter.Closed())
	assert.Eventually(t, func() bool { return teardowns.Load() == 1 }, DefaultTimeout, time.Millisecond)
}

func Test_Subscribe_WithDoneContextDoesNotStartTheProducer(t *testing.T) {
	// arrange
	started := false
	stream := snapstream.NewStream(func(_ context.Context, _ snapstream.Emitter[int]) { started = true })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	sub := stream.Subscribe(ctx)

	// assert
	assert.False(t, started)
	assert.ErrorIs(t, sub.Err(), snapstream.ErrSubscriptionCancelled)
}

func Test_Subscribe_ZeroStreamCompletes(t *testing.T) {
	// act
	values, err := Drain(t, snapstream.Stream[int]{}.Subscribe(TestContext(t)))
	mapped, mappedErr := Drain(t, snapstream.Map(snapstream.Stream[int]{}, func(v int) (int, error) {
		return v, nil
	}).Subscribe(TestContext(t)))

	// assert
	assert.Empty(t, values)
	assert.NoError(t, err)
	assert.Empty(t, mapped)
	assert.NoError(t, mappedErr)
}

func Test_Subscription_Next_ReturnsContextErrorWithoutCancelling(t *testing.T) {
	// arrange
	stream, emitters, _ := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok, err := sub.Next(ctx)

	// assert
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, emitter.Closed(), "a Next deadline does not end the subscription")
	assert.True(t, emitter.Next(1))
	assert.Equal(t, []int{1}, TakeN(t, sub, 1))
}

func Test_Subscription_All(t *testing.T) {
	// arrange
	boom := errors.New("boom")
	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[int]) {
		emitter.Next(1)
		emitter.Next(2)
		emitter.Error(boom)
	})
	sub := stream.Subscribe(TestContext(t))

	// act
	var values []int
	var errs []error
	for value, err := range sub.All(TestContext(t)) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, value)
	}

	// assert
	assert.Equal(t, []int{1, 2}, values)
	assert.Equal(t, []error{boom}, errs)
}

func Test_Subscription_All_BreakDoesNotCancel(t *testing.T) {
	// arrange
	stream, emitters, teardowns := givenManualStream[int]()
	sub := stream.Subscribe(TestContext(t))
	emitter := <-emitters
	emitter.Next(1)
	emitter.Next(2)

	// act
	for range sub.All(TestContext(t)) {
		break
	}

	// assert
	assert.False(t, emitter.Closed())
	assert.Equal(t, int32(0), teardowns.Load())
	assert.Equal(t, []int{2}, TakeN(t, sub, 1))
}

func Test_Subscription_ConcurrentProducer(t *testing.T) {
	// arrange
	const producers, perProducer = 4, 250

	stream := snapstream.NewStream(func(_ context.Context, emitter snapstream.Emitter[string]) {
		var wg sync.WaitGroup
		for p := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range perProducer {
					emitter.Next(strconv.Itoa(p) + ":" + strconv.Itoa(i))
				}
			}()
		}

		go func() {
			wg.Wait()
			emitter.Complete()
		}()
	})

	// act
	values, err := Drain(t, stream.Subscribe(TestContext(t)))

	// assert
	require.NoError(t, err)
	assert.Len(t, values, producers*perProducer)

	next := make(map[string]int)
	for _, value := range values {
		producer := value[:1]
		assert.Equal(t, producer+":"+strconv.Itoa(next[producer]), value, "each producer's elements keep their order")
		next[producer]++
	}
}

func Test_Map_ProjectsElements(t *testing.T) {
	// arrange
	stream, emitters, _ := givenManualStream[int]()
	mapped := snapstream.Map(stream, func(v int) (string, error) { return strconv.Itoa(v * 10), nil })
	sub := mapped.Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	emitter.Next(1)
	emitter.Next(2)
	emitter.Complete()

	// assert
	values, err := Drain(t, sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20"}, values)
}

func Test_Map_ProjectionErrorTerminatesAndTearsDownUpstream(t *testing.T) {
	// arrange
	invalid := errors.New("invalid")
	stream, emitters, teardowns := givenManualStream[int]()
	mapped := snapstream.Map(stream, func(v int) (int, error) {
		if v < 0 {
			return 0, invalid
		}

		return v, nil
	})
	sub := mapped.Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	assert.True(t, emitter.Next(1))
	assert.False(t, emitter.Next(-1))
	assert.False(t, emitter.Next(2))

	// assert
	values, err := Drain(t, sub)
	assert.Equal(t, []int{1}, values)
	assert.ErrorIs(t, err, invalid)
	assert.Equal(t, int32(1), teardowns.Load())
	assert.ErrorIs(t, emitter.Err(), invalid)
}

func Test_Map_CancelReachesUpstream(t *testing.T) {
	// arrange
	stream, emitters, teardowns := givenManualStream[int]()
	sub := snapstream.Map(stream, func(v int) (int, error) { return v, nil }).Subscribe(TestContext(t))
	emitter := <-emitters

	// act
	sub.Cancel()

	// assert
	assert.Equal(t, int32(1), teardowns.Load())
	assert.True(t, emitter.Closed())
	assert.ErrorIs(t, emitter.Err(), snapstream.ErrSubscriptionCancelled)
}
