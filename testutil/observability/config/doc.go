// Package config provides in-memory OpenTelemetry providers for testing the snapstream oteladapters.
//
// The providers keep metrics in a ManualReader and spans in an InMemoryExporter,
// so tests can assert on them without an observability backend.
package config
