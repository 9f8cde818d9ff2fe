// Package tool defines the shared data model for invocable tools: the
// definition a plugin declares at registration time, the descriptor the
// indexer publishes to the catalog, and the request/result envelopes
// exchanged with callers.
package tool

import (
	"context"
	"time"
)

// Parameter describes one declared input of a tool. The context.Context
// passed to every Handler is implicit and never appears in this list.
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Handler is the function signature for tool execution.
type Handler func(ctx context.Context, args map[string]interface{}) (interface{}, error)

// Definition is what a plugin declares for each tool it contributes.
type Definition struct {
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Parameters   []Parameter `json:"parameters"`
	ResponseType string      `json:"response_type,omitempty"`
	Handler      Handler     `json:"-"`
}

// Descriptor is one catalog entry describing an invocable tool. IDs are
// regenerated on every indexing pass and are not a durable identity.
type Descriptor struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	PluginID       string      `json:"plugin_id"`
	Description    string      `json:"description"`
	InvocationPath string      `json:"invocation_path"`
	Parameters     []Parameter `json:"parameters"`
	ResponseType   string      `json:"response_type,omitempty"`
	IsActive       bool        `json:"is_active"`
	LastUpdated    time.Time   `json:"last_updated"`
}
