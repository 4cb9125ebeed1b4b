package fixtures

import (
	"iter"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
)

// ValueSnapshot is a snapstream.Snapshot over plain Go values, without the RawJSON capability.
// A nil Value means the location does not exist.
type ValueSnapshot struct {
	SnapshotKey   string
	SnapshotValue any
	ChildNodes    []ValueSnapshot
}

func (s ValueSnapshot) Exists() bool {
	return s.SnapshotValue != nil
}

func (s ValueSnapshot) Key() string {
	return s.SnapshotKey
}

func (s ValueSnapshot) Value() any {
	return s.SnapshotValue
}

func (s ValueSnapshot) Children() iter.Seq[snapstream.Snapshot] {
	return func(yield func(snapstream.Snapshot) bool) {
		for _, child := range s.ChildNodes {
			if !yield(child) {
				return
			}
		}
	}
}

// Ensure ValueSnapshot implements snapstream.Snapshot.
var _ snapstream.Snapshot = ValueSnapshot{}
