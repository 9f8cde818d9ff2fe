// Package indexer walks the plugin registry, builds one descriptor per
// discovered tool, and publishes the full set to the catalog with
// full-replace semantics: ensure schema, delete everything, upload the new
// batch. Only one rebuild may run at a time.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/toolgate/toolgate/pkg/catalog"
	"github.com/toolgate/toolgate/pkg/plugin"
	"github.com/toolgate/toolgate/pkg/tool"
)

// ErrReindexInProgress is returned when a rebuild is requested while another
// one is still running. Callers should retry later, never queue blindly.
var ErrReindexInProgress = errors.New("reindex already in progress")

// ErrCatalogIncomplete flags the one state the full-replace protocol cannot
// repair on its own: the old contents were deleted and the new upload failed.
var ErrCatalogIncomplete = errors.New("catalog incomplete: delete succeeded but upload failed")

// Indexer extracts tool metadata from the registry and publishes it.
type Indexer struct {
	registry *plugin.Registry
	provider catalog.Provider
	mapping  *PathMapping
	logger   zerolog.Logger
	running  atomic.Bool
}

// New creates an indexer. The mapping may be empty but not nil.
func New(registry *plugin.Registry, provider catalog.Provider, mapping *PathMapping, logger zerolog.Logger) (*Indexer, error) {
	if registry == nil {
		return nil, fmt.Errorf("plugin registry is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("catalog provider is required")
	}
	if mapping == nil {
		mapping = NewPathMapping()
	}

	return &Indexer{
		registry: registry,
		provider: provider,
		mapping:  mapping,
		logger:   logger,
	}, nil
}

// Extract builds the descriptor set for every tool in the registry without
// publishing it. Descriptor IDs are regenerated on each call.
func (ix *Indexer) Extract() []tool.Descriptor {
	now := time.Now()
	var descriptors []tool.Descriptor

	for _, p := range ix.registry.Plugins() {
		for _, def := range p.Tools() {
			path, ok := ix.mapping.Lookup(def.Name)
			if !ok {
				path = DerivePath(p.RoutePrefix(), def.Name)
			}

			descriptors = append(descriptors, tool.Descriptor{
				ID:             uuid.NewString(),
				Name:           def.Name,
				PluginID:       p.ID(),
				Description:    def.Description,
				InvocationPath: path,
				Parameters:     def.Parameters,
				ResponseType:   def.ResponseType,
				IsActive:       true,
				LastUpdated:    now,
			})
		}
	}

	return descriptors
}

// Reindex runs one full-replace publish pass and returns the number of
// descriptors uploaded. A concurrent call fails with ErrReindexInProgress.
func (ix *Indexer) Reindex(ctx context.Context) (int, error) {
	if !ix.running.CompareAndSwap(false, true) {
		return 0, ErrReindexInProgress
	}
	defer ix.running.Store(false)

	start := time.Now()
	descriptors := ix.Extract()

	if err := ix.provider.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("ensure catalog index: %w", err)
	}

	existing, err := ix.provider.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("inspect catalog: %w", err)
	}

	if len(existing) > 0 {
		if err := ix.provider.DeleteAll(ctx); err != nil {
			return 0, fmt.Errorf("clear catalog: %w", err)
		}
	}

	// Past the delete there is no going back: a cancelled caller must not
	// strand an empty catalog, so the upload runs detached from the
	// caller's cancellation and the cancellation is reported afterwards.
	uploadCtx := context.WithoutCancel(ctx)
	if err := ix.provider.Upload(uploadCtx, descriptors); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCatalogIncomplete, err)
	}

	if err := ctx.Err(); err != nil {
		ix.logger.Warn().Err(err).Msg("Reindex cancelled after delete; upload was completed anyway")
		return len(descriptors), err
	}

	ix.logger.Info().
		Int("descriptors", len(descriptors)).
		Dur("duration", time.Since(start)).
		Msg("Catalog rebuilt")

	return len(descriptors), nil
}

// Running reports whether a rebuild is currently in flight.
func (ix *Indexer) Running() bool {
	return ix.running.Load()
}
