package snapstream

// Option defines a functional option for configuring the Adapter.
type Option func(*Adapter) error

// WithLogger sets the logger for the Adapter.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: discarded late callbacks
// Info level: listener registration and removal, stream completion and cancellation
// Error level: streams terminated by a service, decode, or projection error.
func WithLogger(logger Logger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			return ErrNilObservabilityComponent
		}

		a.logger = logger

		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Adapter.
// It receives the same messages as the Logger, with the subscription's context for trace correlation.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(a *Adapter) error {
		if logger == nil {
			return ErrNilObservabilityComponent
		}

		a.contextualLogger = logger

		return nil
	}
}

// WithMetrics sets the metrics collector for the Adapter.
// It receives listener registrations and removals, delivered elements, discarded late callbacks,
// stream errors, subscription durations, and the number of active subscriptions.
func WithMetrics(collector MetricsCollector) Option {
	return func(a *Adapter) error {
		if collector == nil {
			return ErrNilObservabilityComponent
		}

		a.metricsCollector = collector

		return nil
	}
}

// WithTracing sets the tracing collector for the Adapter.
// Every subscription gets one span that is finished when the subscription completes, fails, or is cancelled.
func WithTracing(collector TracingCollector) Option {
	return func(a *Adapter) error {
		if collector == nil {
			return ErrNilObservabilityComponent
		}

		a.tracingCollector = collector

		return nil
	}
}
