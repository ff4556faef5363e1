// Package testutil provides shared test helpers for plexnet packages.
package testutil

import (
	"sync"

	"github.com/turtacn/plexnet/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger and records every entry.  Loggers
// derived with Named or With share the parent's record.
type MockLogger struct {
	store  *logStore
	name   string
	fields []logging.Field
}

type logStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage represents a single log entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field, if present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{store: &logStore{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = append(m.store.messages, LogMessage{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  all,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	child := *m
	child.fields = append(append([]logging.Field(nil), m.fields...), fields...)
	return &child
}

func (m *MockLogger) Named(name string) logging.Logger {
	child := *m
	if m.name != "" {
		name = m.name + "." + name
	}
	child.name = name
	return &child
}

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make([]LogMessage, len(m.store.messages))
	copy(result, m.store.messages)
	return result
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = m.store.messages[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	return m.Count(level, msg) > 0
}

// Count returns how many entries with the given level and message were logged.
func (m *MockLogger) Count(level, msg string) int {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	n := 0
	for _, logged := range m.store.messages {
		if logged.Level == level && logged.Message == msg {
			n++
		}
	}
	return n
}
