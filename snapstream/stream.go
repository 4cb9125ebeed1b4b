package snapstream

import (
	"context"
	"iter"
	"sync"
)

// Emitter is the producer side of one subscription.
//
// After Error, Complete, or a cancellation by the consumer every further call to Next is discarded.
type Emitter[T any] interface {
	// Next enqueues an element and reports whether it was accepted.
	Next(value T) bool

	// Error terminates the subscription with err.
	Error(err error)

	// Complete terminates the subscription successfully.
	Complete()

	// OnCancel registers a teardown function. Teardowns run exactly once, when the subscription
	// is cancelled or terminated, or immediately if that already happened.
	OnCancel(teardown func())

	// Closed reports whether the subscription is cancelled or terminated.
	Closed() bool

	// Err returns why the subscription ended: the terminal error, ErrSubscriptionCancelled,
	// or nil while it is active or after completion.
	Err() error
}

// Stream is a cold source of elements of type T.
//
// Nothing happens until Subscribe is called. Each call to Subscribe runs the producer again
// and yields an independent Subscription.
type Stream[T any] struct {
	produce func(ctx context.Context, emitter Emitter[T])
}

// NewStream creates a Stream from a producer function.
// The producer is called once per subscription and must not block; it typically registers a callback
// that feeds the emitter and an OnCancel teardown that unregisters it.
func NewStream[T any](produce func(ctx context.Context, emitter Emitter[T])) Stream[T] {
	return Stream[T]{produce: produce}
}

// Subscribe starts a new subscription.
//
// Cancelling ctx cancels the subscription. If ctx is already done, the producer is not started.
func (s Stream[T]) Subscribe(ctx context.Context) *Subscription[T] {
	sub := newSubscription[T]()

	if ctx.Err() != nil {
		sub.Cancel()
		return sub
	}

	if s.produce == nil {
		sub.terminate(stateCompleted, nil)
		return sub
	}

	stop := context.AfterFunc(ctx, sub.Cancel)
	sub.addTeardown(func() { stop() })

	s.produce(ctx, subscriptionEmitter[T]{sub: sub})

	return sub
}

// Map returns a Stream that applies project to every element of s.
// A projection error terminates the returned stream with that error and tears down s.
func Map[T, U any](s Stream[T], project func(T) (U, error)) Stream[U] {
	return NewStream(func(ctx context.Context, downstream Emitter[U]) {
		if s.produce == nil {
			downstream.Complete()
			return
		}

		s.produce(ctx, &mapEmitter[T, U]{downstream: downstream, project: project})
	})
}

type mapEmitter[T, U any] struct {
	downstream Emitter[U]
	project    func(T) (U, error)
}

func (e *mapEmitter[T, U]) Next(value T) bool {
	if e.downstream.Closed() {
		return false
	}

	projected, err := e.project(value)
	if err != nil {
		e.downstream.Error(err)
		return false
	}

	return e.downstream.Next(projected)
}

func (e *mapEmitter[T, U]) Error(err error)          { e.downstream.Error(err) }
func (e *mapEmitter[T, U]) Complete()                { e.downstream.Complete() }
func (e *mapEmitter[T, U]) OnCancel(teardown func()) { e.downstream.OnCancel(teardown) }
func (e *mapEmitter[T, U]) Closed() bool             { return e.downstream.Closed() }
func (e *mapEmitter[T, U]) Err() error               { return e.downstream.Err() }

/***** Subscription *****/

type subscriptionState int

const (
	stateActive subscriptionState = iota
	stateCompleted
	stateFailed
	stateCancelled
)

// Subscription is the consumer side of one subscription to a Stream.
//
// Elements are queued in the order the producer emitted them, so the producer never waits for the consumer.
// Next must not be called from multiple goroutines at once; Cancel may be called from anywhere.
type Subscription[T any] struct {
	mu        sync.Mutex
	queue     []T
	state     subscriptionState
	err       error
	teardowns []func()
	signal    chan struct{}
	done      chan struct{}
}

func newSubscription[T any]() *Subscription[T] {
	return &Subscription[T]{
		queue:  make([]T, 0),
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Next blocks until an element is available, the subscription ends, or ctx is done.
//
// It returns (value, true, nil) for an element, (zero, false, nil) after completion,
// and (zero, false, err) after a failure, a cancellation, or when ctx is done.
// Elements queued before a failure are returned before the failure.
func (s *Subscription[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	for {
		s.mu.Lock()

		if len(s.queue) > 0 {
			value := s.queue[0]
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()

			return value, true, nil
		}

		state, err := s.state, s.err
		s.mu.Unlock()

		switch state {
		case stateCompleted:
			return zero, false, nil
		case stateFailed, stateCancelled:
			return zero, false, err
		default:
			// still active, wait below
		}

		select {
		case <-s.signal:
		case <-ctx.Done():
			return zero, false, ctx.Err()
		}
	}
}

// All yields the remaining elements. A terminal error is yielded once as the last pair.
// Leaving the loop early does not cancel the subscription.
func (s *Subscription[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			value, ok, err := s.Next(ctx)
			if err != nil {
				var zero T
				yield(zero, err)

				return
			}

			if !ok || !yield(value, nil) {
				return
			}
		}
	}
}

// Cancel ends the subscription, drops queued elements and runs the teardowns synchronously.
// It is safe to call Cancel more than once.
func (s *Subscription[T]) Cancel() {
	s.mu.Lock()
	if s.state == stateActive {
		s.state = stateCancelled
		s.err = ErrSubscriptionCancelled
		close(s.done)
	}
	s.queue = s.queue[:0]
	teardowns := s.takeTeardowns()
	s.mu.Unlock()

	s.wake()
	runTeardowns(teardowns)
}

// Done is closed when the subscription is completed, failed, or cancelled.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error, ErrSubscriptionCancelled after Cancel, or nil.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (s *Subscription[T]) push(value T) bool {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, value)
	s.mu.Unlock()

	s.wake()

	return true
}

func (s *Subscription[T]) terminate(state subscriptionState, err error) {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.err = err
	close(s.done)
	teardowns := s.takeTeardowns()
	s.mu.Unlock()

	s.wake()
	runTeardowns(teardowns)
}

func (s *Subscription[T]) addTeardown(teardown func()) {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		teardown()

		return
	}
	s.teardowns = append(s.teardowns, teardown)
	s.mu.Unlock()
}

func (s *Subscription[T]) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state != stateActive
}

// takeTeardowns must be called with s.mu held.
func (s *Subscription[T]) takeTeardowns() []func() {
	teardowns := s.teardowns
	s.teardowns = nil

	return teardowns
}

func (s *Subscription[T]) wake() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// runTeardowns runs teardowns in reverse registration order.
func runTeardowns(teardowns []func()) {
	for i := len(teardowns) - 1; i >= 0; i-- {
		teardowns[i]()
	}
}

// subscriptionEmitter is the Emitter handed to the producer of a Subscription.
type subscriptionEmitter[T any] struct {
	sub *Subscription[T]
}

func (e subscriptionEmitter[T]) Next(value T) bool        { return e.sub.push(value) }
func (e subscriptionEmitter[T]) Error(err error)          { e.sub.terminate(stateFailed, err) }
func (e subscriptionEmitter[T]) Complete()                { e.sub.terminate(stateCompleted, nil) }
func (e subscriptionEmitter[T]) OnCancel(teardown func()) { e.sub.addTeardown(teardown) }
func (e subscriptionEmitter[T]) Closed() bool             { return e.sub.closed() }
func (e subscriptionEmitter[T]) Err() error               { return e.sub.Err() }
