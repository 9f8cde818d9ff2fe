package tool

import "time"

// CallRequest is the inbound invocation shape. At least one of Tool or
// Query must be set for resolution to succeed.
type CallRequest struct {
	Tool              string                 `json:"tool,omitempty"`
	Arguments         map[string]interface{} `json:"arguments,omitempty"`
	Query             string                 `json:"query,omitempty"`
	OriginalUserInput string                 `json:"originalUserInput,omitempty"`
}

// ExecutionResult is the normalized outcome of one dispatch. It is
// constructed once, never mutated, and never persisted. Duration is the
// handler's own execution time; it stays off the wire and feeds metrics and
// audit records.
type ExecutionResult struct {
	Tool      string        `json:"tool"`
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     string        `json:"error,omitempty"`
	PluginID  string        `json:"plugin_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"-"`
}

// BatchResult holds one result per batch entry, in input order.
type BatchResult struct {
	Results []ExecutionResult `json:"results"`
}

// Failure builds a failure result for the given tool name.
func Failure(toolName, pluginID, message string) ExecutionResult {
	return ExecutionResult{
		Tool:      toolName,
		Success:   false,
		Error:     message,
		PluginID:  pluginID,
		Timestamp: time.Now(),
	}
}

// Successful builds a success result carrying the handler payload.
func Successful(toolName, pluginID string, data interface{}) ExecutionResult {
	return ExecutionResult{
		Tool:      toolName,
		Success:   true,
		Data:      data,
		PluginID:  pluginID,
		Timestamp: time.Now(),
	}
}
