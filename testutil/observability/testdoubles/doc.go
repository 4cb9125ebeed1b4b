// Package testdoubles provides spies for the snapstream observability interfaces.
//
//   - MetricsCollectorSpy: captures counter, duration, and gauge calls
//   - TracingCollectorSpy: captures subscription spans with their start and end attributes
//   - ContextualLoggerSpy: captures context-aware log calls
//   - LogHandlerSpy: a slog.Handler that captures records, for adapters configured with a plain *slog.Logger
//
// All spies are safe for concurrent use, since listener callbacks may fire on any goroutine.
package testdoubles
