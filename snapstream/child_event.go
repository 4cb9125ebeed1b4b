package snapstream

import (
	"reflect"
)

// ChildEventType is the kind of mutation a ChildEvent reports.
type ChildEventType int

const (
	ChildAdded ChildEventType = iota
	ChildChanged
	ChildRemoved
	ChildMoved
)

// String provides a string representation of ChildEventType for logging and debugging.
func (t ChildEventType) String() string {
	switch t {
	case ChildAdded:
		return "added"
	case ChildChanged:
		return "changed"
	case ChildRemoved:
		return "removed"
	case ChildMoved:
		return "moved"
	default:
		return "unknown"
	}
}

// ChildEvent describes one mutation of a direct child of an observed location.
//
// PreviousKey is the key of the preceding sibling, empty for the first child and always empty for ChildRemoved.
//
// While its properties are exported, it should only be constructed with the supplied factory methods:
//   - NewChildEvent
//   - NewRemovedChildEvent
type ChildEvent[T any] struct {
	Key         string
	Value       T
	PreviousKey string
	Type        ChildEventType
}

// NewChildEvent is a factory method for added, changed and moved ChildEvent(s).
func NewChildEvent[T any](key string, value T, previousKey string, eventType ChildEventType) ChildEvent[T] {
	return ChildEvent[T]{
		Key:         key,
		Value:       value,
		PreviousKey: previousKey,
		Type:        eventType,
	}
}

// NewRemovedChildEvent is a factory method for ChildRemoved events, which carry no PreviousKey.
func NewRemovedChildEvent[T any](key string, value T) ChildEvent[T] {
	return ChildEvent[T]{
		Key:   key,
		Value: value,
		Type:  ChildRemoved,
	}
}

// Equal compares two events by Type, Value and PreviousKey.
//
// Key is not part of the comparison: two events for different children with equal values are equal.
func Equal[T comparable](a, b ChildEvent[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return x == y })
}

// EqualFunc is like Equal but compares values with eq.
func EqualFunc[T any](a, b ChildEvent[T], eq func(x, y T) bool) bool {
	return a.Type == b.Type &&
		a.PreviousKey == b.PreviousKey &&
		eq(a.Value, b.Value)
}

// DeepEqual is like Equal for values that are not comparable, e.g. slices or maps.
func DeepEqual[T any](a, b ChildEvent[T]) bool {
	return EqualFunc(a, b, func(x, y T) bool { return reflect.DeepEqual(x, y) })
}
