package snapstream

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	logMsgOperation            = "snapstream operation: "
	logMsgListenerRegistered   = "listener registered"
	logMsgListenerRemoved      = "listener removed"
	logMsgStreamCompleted      = "stream completed"
	logMsgStreamCancelled      = "stream cancelled"
	logMsgStreamFailed         = "stream failed"
	logMsgLateCallback         = "late callback discarded"
	logAttrSubscriptionID      = "subscription_id"
	logAttrPath                = "path"
	logAttrListenerKind        = "listener_kind"
	logAttrCallback            = "callback"
	logAttrError               = "error"
	logAttrErrorType           = "error_type"
	logAttrElementCount        = "element_count"
	logAttrDurationMS          = "duration_ms"
	labelListenerKind          = "listener_kind"
	labelStatus                = "status"
	labelErrorType             = "error_type"
	labelCallback              = "callback"
	spanNameSubscription       = "snapstream.subscription"
	spanAttrSubscriptionID     = "subscription_id"
	spanAttrPath               = "path"
	spanAttrListenerKind       = "listener_kind"
	spanAttrElementCount       = "element_count"
	spanAttrErrorType          = "error_type"
	spanAttrDurationMS         = "duration_ms"
	statusCompleted            = "completed"
	statusCancelled            = "cancelled"
	statusError                = "error"
	errorTypeService           = "service"
	errorTypeDecode            = "decode"
	errorTypeMissingChild      = "missing_child"
	errorTypeProjection        = "projection"
	MetricListenersRegistered  = "snapstream_listeners_registered_total"
	MetricListenersRemoved     = "snapstream_listeners_removed_total"
	MetricElementsDelivered    = "snapstream_elements_delivered_total"
	MetricLateCallbacks        = "snapstream_late_callbacks_total"
	MetricStreamErrors         = "snapstream_stream_errors_total"
	MetricSubscriptionDuration = "snapstream_subscription_duration_seconds"
	MetricActiveSubscriptions  = "snapstream_active_subscriptions"
)

// observation carries logging, metrics, and tracing for the lifetime of one subscription.
// Its methods may be called from the service's callback goroutine and from the consumer concurrently.
type observation struct {
	a              *Adapter
	ctx            context.Context
	query          Query
	kind           string
	subscriptionID string
	startedAt      time.Time
	span           SpanContext
	elements       atomic.Int64
	finished       atomic.Bool
}

func (a *Adapter) startObservation(ctx context.Context, query Query, kind string) *observation {
	obs := &observation{
		a:              a,
		query:          query,
		kind:           kind,
		subscriptionID: uuid.NewString(),
		startedAt:      time.Now(),
	}

	obs.ctx, obs.span = a.startTraceSpan(ctx, spanNameSubscription, map[string]string{
		spanAttrSubscriptionID: obs.subscriptionID,
		spanAttrPath:           obs.path(),
		spanAttrListenerKind:   kind,
	})

	return obs
}

func (o *observation) path() string {
	if o.query == nil {
		return ""
	}

	return o.query.Path()
}

func (o *observation) registered() {
	o.a.logOperation(o.ctx, logMsgListenerRegistered,
		logAttrSubscriptionID, o.subscriptionID,
		logAttrPath, o.path(),
		logAttrListenerKind, o.kind)

	o.a.incrementCounter(o.ctx, MetricListenersRegistered, map[string]string{labelListenerKind: o.kind})
	o.a.recordValue(o.ctx, MetricActiveSubscriptions, float64(o.a.activeSubscriptions.Add(1)), nil)
}

func (o *observation) removed() {
	o.a.logOperation(o.ctx, logMsgListenerRemoved,
		logAttrSubscriptionID, o.subscriptionID,
		logAttrPath, o.path(),
		logAttrListenerKind, o.kind)

	o.a.incrementCounter(o.ctx, MetricListenersRemoved, map[string]string{labelListenerKind: o.kind})
}

func (o *observation) delivered() {
	o.elements.Add(1)
	o.a.incrementCounter(o.ctx, MetricElementsDelivered, map[string]string{labelListenerKind: o.kind})
}

func (o *observation) lateCallback(callback string) {
	o.a.logDebug(o.ctx, logMsgLateCallback,
		logAttrSubscriptionID, o.subscriptionID,
		logAttrPath, o.path(),
		logAttrCallback, callback)

	o.a.incrementCounter(o.ctx, MetricLateCallbacks, map[string]string{
		labelListenerKind: o.kind,
		labelCallback:     callback,
	})
}

// finish records the end of the subscription; err is the reason reported by the Emitter.
func (o *observation) finish(err error) {
	if !o.finished.CompareAndSwap(false, true) {
		return
	}

	duration := time.Since(o.startedAt)
	elementCount := o.elements.Load()
	status, errorType := classify(err)

	o.a.recordValue(o.ctx, MetricActiveSubscriptions, float64(o.a.activeSubscriptions.Add(-1)), nil)
	o.a.recordDuration(o.ctx, MetricSubscriptionDuration, duration, map[string]string{
		labelListenerKind: o.kind,
		labelStatus:       status,
	})

	args := []any{
		logAttrSubscriptionID, o.subscriptionID,
		logAttrPath, o.path(),
		logAttrListenerKind, o.kind,
		logAttrElementCount, elementCount,
		logAttrDurationMS, toMilliseconds(duration),
	}

	spanAttrs := map[string]string{
		spanAttrElementCount: strconv.FormatInt(elementCount, 10),
		spanAttrDurationMS:   strconv.FormatFloat(toMilliseconds(duration), 'f', 3, 64),
	}

	switch status {
	case statusCompleted:
		o.a.logOperation(o.ctx, logMsgStreamCompleted, args...)

	case statusCancelled:
		o.a.logOperation(o.ctx, logMsgStreamCancelled, args...)

	default:
		o.a.logError(o.ctx, logMsgStreamFailed, err, append(args, logAttrErrorType, errorType)...)
		o.a.incrementCounter(o.ctx, MetricStreamErrors, map[string]string{
			labelListenerKind: o.kind,
			labelErrorType:    errorType,
		})
		spanAttrs[spanAttrErrorType] = errorType
	}

	o.a.finishTraceSpan(o.span, status, spanAttrs)
}

// classify maps the reason a subscription ended to a status and, for failures, an error type.
func classify(err error) (status string, errorType string) {
	var serviceErr *ServiceError
	var decodeErr *DecodeError

	switch {
	case err == nil:
		return statusCompleted, ""
	case errors.Is(err, ErrSubscriptionCancelled):
		return statusCancelled, ""
	case errors.As(err, &serviceErr):
		return statusError, errorTypeService
	case errors.As(err, &decodeErr):
		return statusError, errorTypeDecode
	case errors.Is(err, ErrChildSnapshotMissing):
		return statusError, errorTypeMissingChild
	default:
		return statusError, errorTypeProjection
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}

/***** logging, metrics, and tracing helpers *****/

// logOperation logs operational information at info level to whichever loggers are configured.
func (a *Adapter) logOperation(ctx context.Context, action string, args ...any) {
	if a.logger != nil {
		a.logger.Info(logMsgOperation+action, args...)
	}

	if a.contextualLogger != nil {
		a.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
	}
}

func (a *Adapter) logDebug(ctx context.Context, message string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(message, args...)
	}

	if a.contextualLogger != nil {
		a.contextualLogger.DebugContext(ctx, message, args...)
	}
}

// logError logs error information at the error level to whichever loggers are configured.
func (a *Adapter) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := []any{logAttrError, err.Error()}
	allArgs = append(allArgs, args...)

	if a.logger != nil {
		a.logger.Error(message, allArgs...)
	}

	if a.contextualLogger != nil {
		a.contextualLogger.ErrorContext(ctx, message, allArgs...)
	}
}

// incrementCounter increments a counter, using the context-aware method if the collector supports it.
func (a *Adapter) incrementCounter(ctx context.Context, metric string, labels map[string]string) {
	if a.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := a.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metric, labels)
		return
	}

	a.metricsCollector.IncrementCounter(metric, labels)
}

func (a *Adapter) recordDuration(ctx context.Context, metric string, duration time.Duration, labels map[string]string) {
	if a.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := a.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metric, duration, labels)
		return
	}

	a.metricsCollector.RecordDuration(metric, duration, labels)
}

func (a *Adapter) recordValue(ctx context.Context, metric string, value float64, labels map[string]string) {
	if a.metricsCollector == nil {
		return
	}

	if contextualCollector, ok := a.metricsCollector.(ContextualMetricsCollector); ok {
		contextualCollector.RecordValueContext(ctx, metric, value, labels)
		return
	}

	a.metricsCollector.RecordValue(metric, value, labels)
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (a *Adapter) startTraceSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext) {
	if a.tracingCollector != nil {
		return a.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (a *Adapter) finishTraceSpan(span SpanContext, status string, attrs map[string]string) {
	if a.tracingCollector != nil && span != nil {
		a.tracingCollector.FinishSpan(span, status, attrs)
	}
}
