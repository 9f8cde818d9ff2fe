// Package observability keeps the append-only audit trail: one JSON line
// per tool execution and catalog rebuild.
package observability

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AuditEvent is one structured entry in the audit log.
type AuditEvent struct {
	Type      string                 `json:"event_type"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"` // e.g. "execute:search_articles", "reindex"
	Status    string                 `json:"status"` // "success" or "failure"
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// AuditLogger records audit events.
type AuditLogger struct {
	mu     sync.Mutex
	logger zerolog.Logger
	file   *os.File
}

// NewAuditLogger writes audit events to the given file, appending.
func NewAuditLogger(path string) (*AuditLogger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		logger: zerolog.New(file).With().Timestamp().Logger(),
		file:   file,
	}, nil
}

// NewNopAuditLogger discards every event. Used when auditing is disabled.
func NewNopAuditLogger() *AuditLogger {
	return &AuditLogger{logger: zerolog.Nop()}
}

// Record emits one audit event.
func (a *AuditLogger) Record(event AuditEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	entry := a.logger.Log().
		Str("type", event.Type).
		Str("action", event.Action).
		Str("status", event.Status).
		Time("at", event.Timestamp)

	if event.Metadata != nil {
		entry = entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("")
}

// RecordExecution logs one tool execution outcome.
func (a *AuditLogger) RecordExecution(toolName, pluginID string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	a.Record(AuditEvent{
		Type:   "tool",
		Action: "execute:" + toolName,
		Status: status,
		Metadata: map[string]interface{}{
			"plugin":      pluginID,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// RecordReindex logs one catalog rebuild.
func (a *AuditLogger) RecordReindex(descriptors int, err error) {
	status := "success"
	metadata := map[string]interface{}{"descriptors": descriptors}
	if err != nil {
		status = "failure"
		metadata["error"] = err.Error()
	}
	a.Record(AuditEvent{Type: "catalog", Action: "reindex", Status: status, Metadata: metadata})
}

// Close closes the underlying file, if any.
func (a *AuditLogger) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}
