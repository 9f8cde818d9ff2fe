// Package dispatcher routes a resolved tool name to the one plugin handler
// bound to it and converts every failure mode into a normalized result
// envelope. The routing table is built once at startup from the plugin
// registry; lookups are exact, never fuzzy.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/toolgate/toolgate/pkg/plugin"
	"github.com/toolgate/toolgate/pkg/tool"
	"github.com/xeipuuv/gojsonschema"
)

// DefaultTimeout bounds a single handler invocation unless the caller's
// context is stricter.
const DefaultTimeout = 30 * time.Second

type route struct {
	pluginID string
	def      tool.Definition
	schema   *gojsonschema.Schema
}

// Dispatcher executes tools against a startup-time routing table.
type Dispatcher struct {
	routes  map[string]route
	timeout time.Duration
}

// Option configures a dispatcher.
type Option func(*Dispatcher)

// WithTimeout overrides the per-invocation timeout. Non-positive values keep
// the default.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// New builds the routing table from the registry. Schemas are compiled once
// here so a malformed manifest fails startup, not a request.
func New(registry *plugin.Registry, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("plugin registry is required")
	}

	routes := make(map[string]route)
	for _, name := range registry.ToolNames() {
		binding, ok := registry.Lookup(name)
		if !ok {
			continue
		}

		schema, err := compileSchema(binding.Definition)
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for tool %s: %w", name, err)
		}

		routes[name] = route{
			pluginID: binding.Plugin.ID(),
			def:      binding.Definition,
			schema:   schema,
		}
	}

	log.Info().Int("tools", len(routes)).Msg("Dispatch routing table built")

	d := &Dispatcher{routes: routes, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// ToolNames returns the names present in the routing table.
func (d *Dispatcher) ToolNames() []string {
	names := make([]string, 0, len(d.routes))
	for name := range d.routes {
		names = append(names, name)
	}
	return names
}

// Execute runs the handler bound to name with the given arguments. Every
// error — unknown tool, coercion failure, validation failure, handler fault,
// panic, timeout — comes back inside the result envelope.
func (d *Dispatcher) Execute(ctx context.Context, name string, args map[string]interface{}) tool.ExecutionResult {
	rt, ok := d.routes[name]
	if !ok {
		log.Warn().Str("tool", name).Msg("Unknown tool requested")
		return tool.Failure(name, "", fmt.Sprintf("unknown tool: %s", name))
	}

	coerced, err := coerceArguments(rt.def, args)
	if err != nil {
		return tool.Failure(name, rt.pluginID, fmt.Sprintf("argument coercion failed: %v", err))
	}

	if err := validateArguments(rt.schema, coerced); err != nil {
		return tool.Failure(name, rt.pluginID, fmt.Sprintf("parameter validation failed: %v", err))
	}

	start := time.Now()

	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	resultCh := make(chan interface{}, 1)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		data, err := rt.def.Handler(timeoutCtx, coerced)
		if err != nil {
			errCh <- err
		} else {
			resultCh <- data
		}
	}()

	select {
	case data := <-resultCh:
		elapsed := time.Since(start)
		log.Debug().
			Str("tool", name).
			Dur("duration", elapsed).
			Msg("Tool execution completed")
		res := tool.Successful(name, rt.pluginID, data)
		res.Duration = elapsed
		return res

	case err := <-errCh:
		elapsed := time.Since(start)
		log.Error().
			Str("tool", name).
			Dur("duration", elapsed).
			Err(err).
			Msg("Tool execution failed")
		res := tool.Failure(name, rt.pluginID, err.Error())
		res.Duration = elapsed
		return res

	case <-timeoutCtx.Done():
		elapsed := time.Since(start)
		log.Error().
			Str("tool", name).
			Dur("duration", elapsed).
			Msg("Tool execution cancelled or timed out")
		res := tool.Failure(name, rt.pluginID, fmt.Sprintf("tool execution aborted: %v", timeoutCtx.Err()))
		res.Duration = elapsed
		return res
	}
}

func compileSchema(def tool.Definition) (*gojsonschema.Schema, error) {
	properties := make(map[string]interface{})
	var required []string

	for _, param := range def.Parameters {
		properties[param.Name] = map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

func validateArguments(schema *gojsonschema.Schema, args map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return err
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("validation errors: %v", msgs)
	}
	return nil
}
