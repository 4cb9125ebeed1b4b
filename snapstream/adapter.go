package snapstream

import (
	"context"
	"sync/atomic"
)

const (
	listenerKindValue       = "value"
	listenerKindSingleValue = "single_value"
	listenerKindChild       = "child"
	callbackDataChange      = "data_change"
	callbackChildAdded      = "child_added"
	callbackChildChanged    = "child_changed"
	callbackChildRemoved    = "child_removed"
	callbackChildMoved      = "child_moved"
	callbackCancelled       = "cancelled"
)

// Adapter bridges the listener API of a database Service to cold Stream(s).
//
// The Adapter itself holds no per-subscription state and is safe for concurrent use.
type Adapter struct {
	service             Service
	logger              Logger
	contextualLogger    ContextualLogger
	metricsCollector    MetricsCollector
	tracingCollector    TracingCollector
	activeSubscriptions atomic.Int64
}

// NewAdapter creates a new Adapter for the given Service with optional configuration.
func NewAdapter(service Service, options ...Option) (*Adapter, error) {
	if service == nil {
		return nil, ErrNilService
	}

	a := &Adapter{service: service}

	for _, option := range options {
		if err := option(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// ObserveValue returns a Stream of every value of the query's location.
//
// Each subscription registers its own value listener. The stream never completes on its own;
// a service error terminates it with a *ServiceError. The listener is removed when the subscription
// is cancelled or terminated.
func (a *Adapter) ObserveValue(query Query) Stream[Snapshot] {
	return NewStream(func(ctx context.Context, emitter Emitter[Snapshot]) {
		obs := a.startObservation(ctx, query, listenerKindValue)

		handle := a.service.AddValueEventListener(query, &valueListener{emitter: emitter, obs: obs})
		obs.registered()

		emitter.OnCancel(func() {
			a.service.RemoveEventListener(query, handle)
			obs.removed()
			obs.finish(emitter.Err())
		})
	})
}

// ObserveSingleValue returns a Stream that emits the query's current value once and completes,
// or fails with a *ServiceError.
//
// The Service removes single value listeners by itself, so cancelling only discards a late callback.
func (a *Adapter) ObserveSingleValue(query Query) Stream[Snapshot] {
	return NewStream(func(ctx context.Context, emitter Emitter[Snapshot]) {
		obs := a.startObservation(ctx, query, listenerKindSingleValue)

		a.service.AddListenerForSingleValueEvent(query, &singleValueListener{emitter: emitter, obs: obs})
		obs.registered()

		emitter.OnCancel(func() {
			obs.finish(emitter.Err())
		})
	})
}

// ObserveChildEvents returns a Stream with one ChildEvent per added, changed, removed, or moved child.
//
// Lifecycle and error semantics are the same as for ObserveValue.
func (a *Adapter) ObserveChildEvents(query Query) Stream[ChildEvent[Snapshot]] {
	return NewStream(func(ctx context.Context, emitter Emitter[ChildEvent[Snapshot]]) {
		obs := a.startObservation(ctx, query, listenerKindChild)

		handle := a.service.AddChildEventListener(query, &childListener{emitter: emitter, obs: obs})
		obs.registered()

		emitter.OnCancel(func() {
			a.service.RemoveEventListener(query, handle)
			obs.removed()
			obs.finish(emitter.Err())
		})
	})
}

// ObserveValueAs is ObserveValue with every snapshot decoded by DecodeOne.
// Elements are nil while the location holds no data.
func ObserveValueAs[T any](a *Adapter, query Query, decoder Decoder[T]) Stream[*T] {
	return ObserveValueWith(a, query, ValueOf(decoder))
}

// ObserveSingleValueAs is ObserveSingleValue with the snapshot decoded by DecodeOne.
func ObserveSingleValueAs[T any](a *Adapter, query Query, decoder Decoder[T]) Stream[*T] {
	return ObserveSingleValueWith(a, query, ValueOf(decoder))
}

// ObserveChildEventsAs is ObserveChildEvents with every event decoded by DecodeChildEvent.
func ObserveChildEventsAs[T any](a *Adapter, query Query, decoder Decoder[T]) Stream[ChildEvent[T]] {
	return ObserveChildEventsWith(a, query, ChildEventOf(decoder))
}

// ObserveValueWith is ObserveValue with every snapshot passed through mapper, e.g. ListOf or MapOf.
// A mapper error terminates the stream.
func ObserveValueWith[T any](a *Adapter, query Query, mapper func(Snapshot) (T, error)) Stream[T] {
	return Map(a.ObserveValue(query), mapper)
}

// ObserveSingleValueWith is ObserveSingleValue with the snapshot passed through mapper.
func ObserveSingleValueWith[T any](a *Adapter, query Query, mapper func(Snapshot) (T, error)) Stream[T] {
	return Map(a.ObserveSingleValue(query), mapper)
}

// ObserveChildEventsWith is ObserveChildEvents with every event passed through mapper.
func ObserveChildEventsWith[T any](
	a *Adapter,
	query Query,
	mapper func(ChildEvent[Snapshot]) (ChildEvent[T], error),
) Stream[ChildEvent[T]] {

	return Map(a.ObserveChildEvents(query), mapper)
}

/***** listeners *****/

// deliver hands value to the emitter unless the subscription has already ended.
func deliver[T any](emitter Emitter[T], obs *observation, value T, callback string) {
	if emitter.Closed() {
		obs.lateCallback(callback)
		return
	}

	if emitter.Next(value) {
		obs.delivered()
	}
}

func fail[T any](emitter Emitter[T], obs *observation, err error) {
	if emitter.Closed() {
		obs.lateCallback(callbackCancelled)
		return
	}

	emitter.Error(&ServiceError{Cause: err})
}

type valueListener struct {
	emitter Emitter[Snapshot]
	obs     *observation
}

func (l *valueListener) OnDataChange(snapshot Snapshot) {
	deliver(l.emitter, l.obs, snapshot, callbackDataChange)
}

func (l *valueListener) OnCancelled(err error) {
	fail(l.emitter, l.obs, err)
}

type singleValueListener struct {
	emitter Emitter[Snapshot]
	obs     *observation
}

func (l *singleValueListener) OnDataChange(snapshot Snapshot) {
	deliver(l.emitter, l.obs, snapshot, callbackDataChange)
	l.emitter.Complete()
}

func (l *singleValueListener) OnCancelled(err error) {
	fail(l.emitter, l.obs, err)
}

type childListener struct {
	emitter Emitter[ChildEvent[Snapshot]]
	obs     *observation
}

func (l *childListener) OnChildAdded(snapshot Snapshot, previousKey string) {
	deliver(l.emitter, l.obs, NewChildEvent(keyOf(snapshot), snapshot, previousKey, ChildAdded), callbackChildAdded)
}

func (l *childListener) OnChildChanged(snapshot Snapshot, previousKey string) {
	deliver(l.emitter, l.obs, NewChildEvent(keyOf(snapshot), snapshot, previousKey, ChildChanged), callbackChildChanged)
}

func (l *childListener) OnChildRemoved(snapshot Snapshot) {
	deliver(l.emitter, l.obs, NewRemovedChildEvent(keyOf(snapshot), snapshot), callbackChildRemoved)
}

func (l *childListener) OnChildMoved(snapshot Snapshot, previousKey string) {
	deliver(l.emitter, l.obs, NewChildEvent(keyOf(snapshot), snapshot, previousKey, ChildMoved), callbackChildMoved)
}

func (l *childListener) OnCancelled(err error) {
	fail(l.emitter, l.obs, err)
}

func keyOf(snapshot Snapshot) string {
	if snapshot == nil {
		return ""
	}

	return snapshot.Key()
}
