package snapstream

import (
	"bytes"

	jsoniter "github.com/json-iterator/go"
)

const genericTypeName = "generic type"

// Decoder coerces the raw value of an existing snapshot into T.
// A non-nil error means the value cannot be represented as T.
type Decoder[T any] interface {
	Decode(snapshot Snapshot) (T, error)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc[T any] func(snapshot Snapshot) (T, error)

// Decode calls f(snapshot).
func (f DecoderFunc[T]) Decode(snapshot Snapshot) (T, error) {
	return f(snapshot)
}

// As returns the default Decoder for T.
// It maps the snapshot's JSON representation onto T with encoding/json compatible rules (struct tags, numbers, ...)
// and fails if the snapshot has no value or the value does not fit T.
func As[T any]() Decoder[T] {
	return jsonDecoder[T]{api: jsoniter.ConfigCompatibleWithStandardLibrary}
}

type jsonDecoder[T any] struct {
	api jsoniter.API
}

func (d jsonDecoder[T]) Decode(snapshot Snapshot) (T, error) {
	var value T

	raw, rawErr := rawJSONOf(d.api, snapshot)
	if rawErr != nil {
		return value, rawErr
	}

	if unmarshalErr := d.api.Unmarshal(raw, &value); unmarshalErr != nil {
		return value, unmarshalErr
	}

	return value, nil
}

// rawJSONOf returns the JSON representation of a snapshot's value, preferring the RawJSONSnapshot capability.
func rawJSONOf(api jsoniter.API, snapshot Snapshot) ([]byte, error) {
	if rawSnapshot, ok := snapshot.(RawJSONSnapshot); ok {
		raw := bytes.TrimSpace(rawSnapshot.RawJSON())
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return nil, ErrNoValue
		}

		return raw, nil
	}

	value := snapshot.Value()
	if value == nil {
		return nil, ErrNoValue
	}

	return api.Marshal(value)
}

// Shape describes how raw values are coerced into a parameterized type T for DecodeGeneric,
// e.g. a map of slices, where the default coercion rules are not the desired ones.
type Shape[T any] struct {
	api jsoniter.API
}

// ShapeOf builds a Shape for T from a json-iterator configuration.
//
//	strict := snapstream.ShapeOf[map[string][]Book](jsoniter.Config{DisallowUnknownFields: true})
func ShapeOf[T any](config jsoniter.Config) Shape[T] {
	return Shape[T]{api: config.Froze()}
}

// Decode implements Decoder. The zero Shape behaves like As[T]().
func (s Shape[T]) Decode(snapshot Snapshot) (T, error) {
	api := s.api
	if api == nil {
		api = jsoniter.ConfigCompatibleWithStandardLibrary
	}

	return jsonDecoder[T]{api: api}.Decode(snapshot)
}

// DecodeOne decodes an optional single value.
//
// It returns nil without error if the snapshot does not exist and a DecodeError if it exists but cannot be coerced to T.
func DecodeOne[T any](snapshot Snapshot, decoder Decoder[T]) (*T, error) {
	return decodeOptional(snapshot, orDefault(decoder), typeNameOf[T]())
}

// DecodeGeneric is like DecodeOne, with the coercion driven by an explicit Shape.
func DecodeGeneric[T any](snapshot Snapshot, shape Shape[T]) (*T, error) {
	return decodeOptional[T](snapshot, shape, genericTypeName)
}

func decodeOptional[T any](snapshot Snapshot, decoder Decoder[T], typeName string) (*T, error) {
	if !snapshot.Exists() {
		return nil, nil
	}

	value, err := decoder.Decode(snapshot)
	if err != nil {
		return nil, newDecodeError(typeName, err)
	}

	return &value, nil
}

// DecodeList decodes all children of a snapshot, in their order, into a slice.
//
// Enumerated children are never treated as absent: the first child that cannot be coerced
// fails the whole call with a DecodeError and no partial result.
func DecodeList[T any](snapshot Snapshot, decoder Decoder[T]) ([]T, error) {
	decoder = orDefault(decoder)
	items := make([]T, 0)

	for child := range snapshot.Children() {
		item, err := decoder.Decode(child)
		if err != nil {
			return nil, newDecodeError(typeNameOf[T](), err)
		}

		items = append(items, item)
	}

	return items, nil
}

// DecodeMap decodes all children of a snapshot into an OrderedMap keyed by child key.
// The map's iteration order is the children's order, not the sorted key order.
func DecodeMap[T any](snapshot Snapshot, decoder Decoder[T]) (*OrderedMap[T], error) {
	decoder = orDefault(decoder)
	items := NewOrderedMap[T]()

	for child := range snapshot.Children() {
		item, err := decoder.Decode(child)
		if err != nil {
			return nil, newDecodeError(typeNameOf[T](), err)
		}

		items.Set(child.Key(), item)
	}

	return items, nil
}

// DecodeChildEvent decodes the snapshot carried by a ChildEvent.
//
// A snapshot that does not exist fails with ErrChildSnapshotMissing, which is not a DecodeError.
// Otherwise the event is rebuilt with the decoded value and the same PreviousKey and Type.
func DecodeChildEvent[T any](event ChildEvent[Snapshot], decoder Decoder[T]) (ChildEvent[T], error) {
	snapshot := event.Value
	if snapshot == nil || !snapshot.Exists() {
		return ChildEvent[T]{}, ErrChildSnapshotMissing
	}

	value, err := orDefault(decoder).Decode(snapshot)
	if err != nil {
		return ChildEvent[T]{}, newDecodeError(typeNameOf[T](), err)
	}

	return ChildEvent[T]{
		Key:         snapshot.Key(),
		Value:       value,
		PreviousKey: event.PreviousKey,
		Type:        event.Type,
	}, nil
}

func orDefault[T any](decoder Decoder[T]) Decoder[T] {
	if decoder == nil {
		return As[T]()
	}

	return decoder
}

/***** Mapper factories for the projection variants *****/

// ValueOf returns DecodeOne bound to decoder, for use with ObserveValueWith and ObserveSingleValueWith.
func ValueOf[T any](decoder Decoder[T]) func(Snapshot) (*T, error) {
	return func(snapshot Snapshot) (*T, error) {
		return DecodeOne(snapshot, decoder)
	}
}

// ListOf returns DecodeList bound to decoder.
func ListOf[T any](decoder Decoder[T]) func(Snapshot) ([]T, error) {
	return func(snapshot Snapshot) ([]T, error) {
		return DecodeList(snapshot, decoder)
	}
}

// MapOf returns DecodeMap bound to decoder.
func MapOf[T any](decoder Decoder[T]) func(Snapshot) (*OrderedMap[T], error) {
	return func(snapshot Snapshot) (*OrderedMap[T], error) {
		return DecodeMap(snapshot, decoder)
	}
}

// GenericOf returns DecodeGeneric bound to shape.
func GenericOf[T any](shape Shape[T]) func(Snapshot) (*T, error) {
	return func(snapshot Snapshot) (*T, error) {
		return DecodeGeneric(snapshot, shape)
	}
}

// ChildEventOf returns DecodeChildEvent bound to decoder, for use with ObserveChildEventsWith.
func ChildEventOf[T any](decoder Decoder[T]) func(ChildEvent[Snapshot]) (ChildEvent[T], error) {
	return func(event ChildEvent[Snapshot]) (ChildEvent[T], error) {
		return DecodeChildEvent(event, decoder)
	}
}
