// Package orchestrator decomposes a multi-tool request into individual
// dispatches. Two initiation modes exist: a free-text query resolved to one
// tool, or an explicit ordered batch of sub-calls. Batch entries execute
// strictly in input order and fail independently; one result comes back per
// entry no matter what.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/toolgate/toolgate/pkg/dispatcher"
	"github.com/toolgate/toolgate/pkg/extractor"
	"github.com/toolgate/toolgate/pkg/resolver"
	"github.com/toolgate/toolgate/pkg/tool"
)

// MultiToolName is the reserved tool name that routes a request here.
const MultiToolName = "multi_tool_use"

// functionsPrefix is stripped from raw tool names; some callers qualify
// names with the OpenAI-style namespace.
const functionsPrefix = "functions."

// legacyAliases maps retired tool names still used by old callers to their
// current equivalents.
var legacyAliases = map[string]string{
	"search_azure_cognitive": "detailed_inventory_search",
}

// ToolUse is one entry of an explicit batch.
type ToolUse struct {
	RecipientName string                 `json:"recipient_name"`
	Parameters    map[string]interface{} `json:"parameters"`
}

// ResolutionObserver receives one event per query-resolution attempt.
type ResolutionObserver interface {
	ObserveResolution(mode string, hit bool)
}

// Orchestrator fans a batch request out to the dispatcher.
type Orchestrator struct {
	resolver   *resolver.Resolver
	dispatcher *dispatcher.Dispatcher
	observer   ResolutionObserver
	logger     zerolog.Logger
}

// Option configures an orchestrator.
type Option func(*Orchestrator)

// WithResolutionObserver reports query-resolution outcomes, typically to a
// metrics counter.
func WithResolutionObserver(obs ResolutionObserver) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// New creates an orchestrator.
func New(res *resolver.Resolver, disp *dispatcher.Dispatcher, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{resolver: res, dispatcher: disp, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes a multi-tool request and always returns a well-formed batch:
// one result per explicit entry, or a single result for query mode and for
// malformed requests.
func (o *Orchestrator) Run(ctx context.Context, req tool.CallRequest) tool.BatchResult {
	if uses, ok := extractToolUses(req.Arguments); ok {
		return o.runBatch(ctx, uses)
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = strings.TrimSpace(req.OriginalUserInput)
	}
	if query != "" {
		return tool.BatchResult{Results: []tool.ExecutionResult{o.runQuery(ctx, query, req)}}
	}

	return tool.BatchResult{Results: []tool.ExecutionResult{
		tool.Failure(MultiToolName, "", "missing query or tool_uses"),
	}}
}

// runQuery resolves the query to one tool, extracts parameters from the raw
// user input, and dispatches.
func (o *Orchestrator) runQuery(ctx context.Context, query string, req tool.CallRequest) tool.ExecutionResult {
	desc, err := o.resolver.ResolveByQuery(ctx, query)
	if o.observer != nil {
		o.observer.ObserveResolution("query", err == nil)
	}
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			return tool.Failure(MultiToolName, "", fmt.Sprintf("no suitable tool found for query: %s", query))
		}
		return tool.Failure(MultiToolName, "", err.Error())
	}

	raw := req.OriginalUserInput
	if raw == "" {
		raw = query
	}

	args := extractor.ToArguments(extractor.Extract(raw))
	for k, v := range req.Arguments {
		args[k] = v
	}

	o.logger.Debug().
		Str("query", query).
		Str("tool", desc.Name).
		Int("extracted_args", len(args)).
		Msg("Query resolved to tool")

	return o.dispatcher.Execute(ctx, desc.Name, args)
}

// runBatch executes entries in input order; a failed entry never skips the
// ones after it.
func (o *Orchestrator) runBatch(ctx context.Context, uses []ToolUse) tool.BatchResult {
	results := make([]tool.ExecutionResult, 0, len(uses))

	for i, use := range uses {
		name := NormalizeToolName(use.RecipientName)
		if name == "" {
			results = append(results, tool.Failure("", "", fmt.Sprintf("batch entry %d: missing recipient_name", i)))
			continue
		}
		results = append(results, o.dispatcher.Execute(ctx, name, use.Parameters))
	}

	return tool.BatchResult{Results: results}
}

// NormalizeToolName strips the "functions." namespace and applies legacy
// aliases.
func NormalizeToolName(raw string) string {
	name := strings.TrimSpace(raw)
	name = strings.TrimPrefix(name, functionsPrefix)
	if alias, ok := legacyAliases[name]; ok {
		return alias
	}
	return name
}

// extractToolUses pulls a tool_uses batch out of the request arguments. It
// accepts both typed entries and the generic shapes JSON decoding produces.
func extractToolUses(args map[string]interface{}) ([]ToolUse, bool) {
	if args == nil {
		return nil, false
	}
	rawUses, ok := args["tool_uses"]
	if !ok {
		return nil, false
	}

	switch v := rawUses.(type) {
	case []ToolUse:
		return v, true
	case []interface{}:
		uses := make([]ToolUse, 0, len(v))
		for _, item := range v {
			entry, _ := item.(map[string]interface{})
			use := ToolUse{}
			if name, ok := entry["recipient_name"].(string); ok {
				use.RecipientName = name
			}
			if params, ok := entry["parameters"].(map[string]interface{}); ok {
				use.Parameters = params
			}
			uses = append(uses, use)
		}
		return uses, true
	default:
		return nil, false
	}
}
