package snapstream

import (
	"iter"
)

// Snapshot is an immutable read of one node of the database tree at a point in time.
//
// Implementations are provided by the database client; see package jsonsnapshot for one over JSON documents.
type Snapshot interface {
	// Exists reports whether the node holds any data.
	Exists() bool

	// Key returns the last path segment of the node, or an empty string for the root.
	Key() string

	// Value returns the raw value of the node, nil if it does not exist.
	Value() any

	// Children yields the direct children in the database's ordering.
	Children() iter.Seq[Snapshot]
}

// RawJSONSnapshot is an optional Snapshot capability.
// Decoders use the raw JSON directly instead of re-encoding Value.
type RawJSONSnapshot interface {
	Snapshot
	RawJSON() []byte
}

// Query references a location, optionally filtered or ordered, against which listeners are registered.
type Query interface {
	Path() string
}

// ListenerHandle identifies a registered listener. It is returned by the Service on registration
// and handed back unchanged on removal.
type ListenerHandle any

// ValueEventListener receives value events of a location.
type ValueEventListener interface {
	OnDataChange(snapshot Snapshot)
	OnCancelled(err error)
}

// ChildEventListener receives events for the direct children of a location.
// previousKey is the key of the preceding sibling in the query's ordering, empty for the first child.
type ChildEventListener interface {
	OnChildAdded(snapshot Snapshot, previousKey string)
	OnChildChanged(snapshot Snapshot, previousKey string)
	OnChildRemoved(snapshot Snapshot)
	OnChildMoved(snapshot Snapshot, previousKey string)
	OnCancelled(err error)
}

// Service is the listener API of the database client as consumed by the Adapter.
//
// Callbacks for one listener are expected to be delivered sequentially.
// After OnCancelled the Service does not call the listener again.
type Service interface {
	AddValueEventListener(query Query, listener ValueEventListener) ListenerHandle

	// AddListenerForSingleValueEvent registers a listener that fires once and removes itself.
	AddListenerForSingleValueEvent(query Query, listener ValueEventListener)

	AddChildEventListener(query Query, listener ChildEventListener) ListenerHandle

	RemoveEventListener(query Query, handle ListenerHandle)
}
