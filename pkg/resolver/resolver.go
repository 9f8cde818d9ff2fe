// Package resolver maps an explicit tool name or a free-text query to exactly
// one catalog descriptor. Fuzzy matching lives here and nowhere else; the
// dispatcher only ever does exact lookups.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/toolgate/toolgate/pkg/catalog"
	"github.com/toolgate/toolgate/pkg/tool"
)

// ErrNotFound is returned when neither lookup mode matches an active tool.
// Callers must treat it as terminal, not retry indefinitely.
var ErrNotFound = errors.New("no matching tool")

// analyticsPlugins is the plugin group preferred when the query carries
// analytics intent.
var analyticsPlugins = map[string]struct{}{
	"analytics": {},
}

// analyticsMarkers is the vocabulary that signals analytics intent.
var analyticsMarkers = []string{
	"analytics",
	"statistics",
	"stats",
	"content",
	"mongodb",
	"price",
	"prices",
	"summary",
	"ingredient",
	"ingredients",
}

// Resolver resolves tool names and queries against the catalog.
type Resolver struct {
	provider catalog.Provider
	logger   zerolog.Logger
}

// New creates a resolver backed by the given catalog provider.
func New(provider catalog.Provider, logger zerolog.Logger) *Resolver {
	return &Resolver{provider: provider, logger: logger}
}

// ResolveByName looks up a tool by exact name among active descriptors.
func (r *Resolver) ResolveByName(ctx context.Context, name string) (tool.Descriptor, error) {
	if name == "" {
		return tool.Descriptor{}, ErrNotFound
	}

	descriptors, err := r.provider.GetAll(ctx)
	if err != nil {
		return tool.Descriptor{}, fmt.Errorf("catalog lookup failed: %w", err)
	}

	for _, d := range descriptors {
		if d.Name == name && d.IsActive {
			return d, nil
		}
	}

	return tool.Descriptor{}, ErrNotFound
}

// ResolveByQuery runs a full-text search and picks one active descriptor.
// Queries with analytics intent prefer the first active result owned by the
// analytics plugin group over the top-ranked generic match.
func (r *Resolver) ResolveByQuery(ctx context.Context, query string) (tool.Descriptor, error) {
	if strings.TrimSpace(query) == "" {
		return tool.Descriptor{}, ErrNotFound
	}

	results, err := r.provider.Search(ctx, query)
	if err != nil {
		return tool.Descriptor{}, fmt.Errorf("catalog search failed: %w", err)
	}
	if len(results) == 0 {
		r.logger.Debug().Str("query", query).Msg("Query matched no descriptors")
		return tool.Descriptor{}, ErrNotFound
	}

	if hasAnalyticsIntent(query) {
		for _, d := range results {
			if !d.IsActive {
				continue
			}
			if _, ok := analyticsPlugins[d.PluginID]; ok {
				r.logger.Debug().
					Str("query", query).
					Str("tool", d.Name).
					Msg("Analytics preference applied")
				return d, nil
			}
		}
	}

	for _, d := range results {
		if d.IsActive && d.Name != "" && d.InvocationPath != "" {
			return d, nil
		}
	}

	return tool.Descriptor{}, ErrNotFound
}

func hasAnalyticsIntent(query string) bool {
	q := strings.ToLower(query)
	for _, marker := range analyticsMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}
