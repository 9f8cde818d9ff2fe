package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/toolgate/toolgate/pkg/tool"
)

// Binding pairs a tool definition with the plugin that owns it.
type Binding struct {
	Plugin     Plugin
	Definition tool.Definition
}

// Registry tracks registered plugins and the tools they expose. It is
// populated at startup and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	tools   map[string]Binding
	order   []string
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		tools:   make(map[string]Binding),
	}
}

// Register adds a plugin and its tool manifest. A duplicate plugin ID or a
// tool name already claimed by another plugin fails registration outright;
// silent overwrites are a configuration error we refuse to mask.
func (r *Registry) Register(ctx context.Context, p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin cannot be nil")
	}
	if p.ID() == "" {
		return fmt.Errorf("plugin ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[p.ID()]; exists {
		return fmt.Errorf("plugin %s already registered", p.ID())
	}

	defs := p.Tools()
	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("plugin %s declares a tool with an empty name", p.ID())
		}
		if def.Handler == nil {
			return fmt.Errorf("plugin %s declares tool %s without a handler", p.ID(), def.Name)
		}
		if existing, exists := r.tools[def.Name]; exists {
			return fmt.Errorf("tool %s declared by both %s and %s", def.Name, existing.Plugin.ID(), p.ID())
		}
	}

	if err := p.Init(ctx); err != nil {
		return fmt.Errorf("plugin %s init failed: %w", p.ID(), err)
	}

	r.plugins[p.ID()] = p
	r.order = append(r.order, p.ID())
	for _, def := range defs {
		r.tools[def.Name] = Binding{Plugin: p, Definition: def}
	}

	log.Info().
		Str("plugin", p.ID()).
		Int("tools", len(defs)).
		Msg("Plugin registered")

	return nil
}

// Plugins returns all registered plugins in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]Plugin, 0, len(r.order))
	for _, id := range r.order {
		plugins = append(plugins, r.plugins[id])
	}
	return plugins
}

// Get retrieves a plugin by ID.
func (r *Registry) Get(pluginID string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, exists := r.plugins[pluginID]
	return p, exists
}

// ToolNames returns the union of tool names across all plugins, sorted.
func (r *Registry) ToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the binding for a tool name.
func (r *Registry) Lookup(toolName string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, exists := r.tools[toolName]
	return b, exists
}

// ToolCount returns the number of registered tools.
func (r *Registry) ToolCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
