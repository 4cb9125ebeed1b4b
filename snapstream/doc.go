// Package snapstream turns the callback-based listener API of a realtime tree database client
// into cold, typed streams.
//
// The package defines the contract it expects from the database client (Service, Query, Snapshot)
// and builds three stream sources on top of it:
//   - ObserveValue: every value change of a location, until cancelled
//   - ObserveSingleValue: exactly one value read, then completion
//   - ObserveChildEvents: one ChildEvent per added, changed, removed, or moved child
//
// Snapshots can be decoded into typed values with a Decoder:
//   - DecodeOne / DecodeGeneric: a single value, nil if the snapshot does not exist
//   - DecodeList: the children as an ordered slice
//   - DecodeMap: the children as an insertion-ordered OrderedMap
//   - DecodeChildEvent: the value of a ChildEvent
//
// Common usage pattern:
//
//	adapter, err := snapstream.NewAdapter(client, snapstream.WithLogger(slog.Default()))
//	if err != nil {
//		// handle error
//	}
//
//	books := snapstream.ObserveValueAs(adapter, booksQuery, snapstream.As[Book]())
//	sub := books.Subscribe(ctx)
//	defer sub.Cancel()
//
//	for book, err := range sub.All(ctx) {
//		if err != nil {
//			// ServiceError, DecodeError, or ctx error - the stream is terminated
//		}
//		// book is nil if the location holds no data
//	}
//
// A Stream does nothing until it is subscribed. Every Subscribe registers its own listener with
// the Service and Cancel removes exactly that listener again.
package snapstream
