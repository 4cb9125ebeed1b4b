// Package jsonsnapshot provides a snapstream.Snapshot implementation over JSON documents.
//
// Database clients that receive their payloads as JSON (e.g. REST streaming endpoints) can hand
// these snapshots to the snapstream Adapter. Object fields are exposed as children in document order,
// array elements as children keyed "0", "1", ... and null values as well as empty objects and arrays
// are treated as absent.
//
//	snapshot, err := jsonsnapshot.Parse("books", payload)
//	books, err := snapstream.DecodeMap(snapshot, snapstream.As[Book]())
package jsonsnapshot

import (
	"bytes"
	"errors"
	"iter"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
)

var ErrInvalidJSON = errors.New("snapshot json is not valid")

var nullJSON = []byte("null")

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is an immutable node of a parsed JSON document.
type Snapshot struct {
	key      string
	raw      []byte
	children []*Snapshot
}

// Parse builds a Snapshot tree from a JSON document. key is the key of the root node, empty for the database root.
// An empty document or JSON null yields a Snapshot that does not exist.
func Parse(key string, data []byte) (*Snapshot, error) {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, nullJSON) {
		return Missing(key), nil
	}

	if !api.Valid(raw) {
		return nil, ErrInvalidJSON
	}

	return parseNode(key, bytes.Clone(raw))
}

// MustParse is like Parse but panics on invalid JSON. It is meant for fixtures and tests.
func MustParse(key string, data string) *Snapshot {
	snapshot, err := Parse(key, []byte(data))
	if err != nil {
		panic(err)
	}

	return snapshot
}

// FromValue builds a Snapshot from any value that can be encoded as JSON.
func FromValue(key string, value any) (*Snapshot, error) {
	data, err := api.Marshal(value)
	if err != nil {
		return nil, errors.Join(ErrInvalidJSON, err)
	}

	return Parse(key, data)
}

// Missing returns a Snapshot for a location that holds no data.
func Missing(key string) *Snapshot {
	return &Snapshot{key: key}
}

func parseNode(key string, raw []byte) (*Snapshot, error) {
	node := &Snapshot{key: key, raw: raw}
	it := jsoniter.ParseBytes(api, raw)

	var childErr error
	addChild := func(childKey string, childRaw []byte) bool {
		childRaw = bytes.TrimSpace(childRaw)
		if bytes.Equal(childRaw, nullJSON) {
			return true
		}

		child, err := parseNode(childKey, childRaw)
		if err != nil {
			childErr = err
			return false
		}

		if child.Exists() {
			node.children = append(node.children, child)
		}

		return true
	}

	container := false

	switch it.WhatIsNext() {
	case jsoniter.ObjectValue:
		container = true
		it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
			return addChild(field, it.SkipAndReturnBytes())
		})

	case jsoniter.ArrayValue:
		container = true
		index := 0
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			childKey := strconv.Itoa(index)
			index++

			return addChild(childKey, it.SkipAndReturnBytes())
		})

	default:
		it.Skip()
	}

	if childErr != nil {
		return nil, childErr
	}

	if it.Error != nil {
		return nil, errors.Join(ErrInvalidJSON, it.Error)
	}

	// the database does not store empty containers
	if container && len(node.children) == 0 {
		return Missing(key), nil
	}

	return node, nil
}

// Exists reports whether the node holds any data.
func (s *Snapshot) Exists() bool {
	return s.raw != nil
}

// Key returns the node's key, empty for the root.
func (s *Snapshot) Key() string {
	return s.key
}

// Value returns the node decoded into generic Go values (map[string]any, []any, string, float64, bool),
// or nil if it does not exist.
func (s *Snapshot) Value() any {
	if !s.Exists() {
		return nil
	}

	var value any
	if err := api.Unmarshal(s.raw, &value); err != nil {
		return nil
	}

	return value
}

// RawJSON returns the node's JSON representation, nil if it does not exist.
func (s *Snapshot) RawJSON() []byte {
	return s.raw
}

// Children yields the direct children in document order.
func (s *Snapshot) Children() iter.Seq[snapstream.Snapshot] {
	return func(yield func(snapstream.Snapshot) bool) {
		for _, child := range s.children {
			if !yield(child) {
				return
			}
		}
	}
}

// ChildrenCount returns the number of direct children.
func (s *Snapshot) ChildrenCount() int {
	return len(s.children)
}

// Child returns the node at a slash-separated path relative to s.
// A path that leads nowhere yields a Snapshot that does not exist, keyed by the last path segment.
func (s *Snapshot) Child(path string) *Snapshot {
	current := s
	segments := strings.Split(strings.Trim(path, "/"), "/")

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		next := current.directChild(segment)
		if next == nil {
			return Missing(segment)
		}

		current = next
	}

	return current
}

func (s *Snapshot) directChild(key string) *Snapshot {
	for _, child := range s.children {
		if child.key == key {
			return child
		}
	}

	return nil
}

// Ensure Snapshot implements snapstream.RawJSONSnapshot.
var _ snapstream.RawJSONSnapshot = (*Snapshot)(nil)
