package snapstream

import (
	"errors"
)

var ErrNilService = errors.New("nil service supplied")
var ErrNilObservabilityComponent = errors.New("nil observability component supplied")

// ErrDecodeFailed is matched by every DecodeError via errors.Is.
var ErrDecodeFailed = errors.New("decoding snapshot failed")

// ErrNoValue is the coercion cause when a snapshot carries no raw value at all.
var ErrNoValue = errors.New("snapshot has no value")

// ErrChildSnapshotMissing is returned by DecodeChildEvent when the envelope's snapshot does not exist.
// It is intentionally not a DecodeError.
var ErrChildSnapshotMissing = errors.New("child snapshot doesn't exist")

// ErrSubscriptionCancelled is returned by Subscription.Err after Cancel was called.
var ErrSubscriptionCancelled = errors.New("subscription cancelled")
