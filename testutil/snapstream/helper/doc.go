// Package helper provides test helpers for the snapstream Adapter.
//
// ServiceSpy is an in-memory snapstream.Service that records listener registrations and removals,
// and lets tests fire listener callbacks the way a realtime database client would.
package helper
