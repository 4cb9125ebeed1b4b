package testdoubles

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/snapshot-streams-go/snapstream"
)

// ContextualLoggerSpy captures calls to a snapstream.ContextualLogger.
type ContextualLoggerSpy struct {
	records     []SpyContextualLogRecord
	mu          sync.Mutex
	recordCalls bool
}

// SpyContextualLogRecord represents a recorded contextual log call.
type SpyContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Attr returns the value logged for key, or nil.
func (r SpyContextualLogRecord) Attr(key string) any {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1]
		}
	}

	return nil
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy. With recordCalls false every call is discarded.
func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{recordCalls: recordCalls}
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    append([]any(nil), args...),
		Context: ctx,
	})
}

// Reset clears all recorded log calls.
func (s *ContextualLoggerSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = s.records[:0]
}

// GetRecords returns a copy of all records with the given level, or of all records if level is empty.
func (s *ContextualLoggerSpy) GetRecords(level string) []SpyContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyContextualLogRecord, 0, len(s.records))
	for _, record := range s.records {
		if level == "" || record.Level == level {
			records = append(records, record)
		}
	}

	return records
}

// GetTotalRecordCount returns the number of log records across all levels.
func (s *ContextualLoggerSpy) GetTotalRecordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

func (s *ContextualLoggerSpy) HasDebugLog(message string) bool {
	return s.HasLog("debug", message).Assert()
}

func (s *ContextualLoggerSpy) HasInfoLog(message string) bool {
	return s.HasLog("info", message).Assert()
}

func (s *ContextualLoggerSpy) HasErrorLog(message string) bool {
	return s.HasLog("error", message).Assert()
}

// HasLog starts a fluent chain to check the first record with the given level and message.
func (s *ContextualLoggerSpy) HasLog(level, message string) *ContextualLogRecordMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range s.records {
		if record.Level == level && record.Message == message {
			return &ContextualLogRecordMatcher{record: record, found: true}
		}
	}

	return &ContextualLogRecordMatcher{}
}

// ContextualLogRecordMatcher provides a fluent interface for checking a recorded log call.
type ContextualLogRecordMatcher struct {
	record SpyContextualLogRecord
	found  bool
}

// WithAttr checks that the record carries key with a value equal to value.
func (m *ContextualLogRecordMatcher) WithAttr(key string, value any) *ContextualLogRecordMatcher {
	if m.found && m.record.Attr(key) != value {
		m.found = false
	}

	return m
}

// WithAttrKey checks that the record carries key, whatever its value.
func (m *ContextualLogRecordMatcher) WithAttrKey(key string) *ContextualLogRecordMatcher {
	if m.found && m.record.Attr(key) == nil {
		m.found = false
	}

	return m
}

// WithContextValue checks that the record was logged with a context carrying value under key.
func (m *ContextualLogRecordMatcher) WithContextValue(key, value any) *ContextualLogRecordMatcher {
	if m.found && (m.record.Context == nil || m.record.Context.Value(key) != value) {
		m.found = false
	}

	return m
}

// Assert returns true if all conditions in the fluent chain were met.
func (m *ContextualLogRecordMatcher) Assert() bool {
	return m.found
}

// Ensure ContextualLoggerSpy implements snapstream.ContextualLogger.
var _ snapstream.ContextualLogger = (*ContextualLoggerSpy)(nil)
