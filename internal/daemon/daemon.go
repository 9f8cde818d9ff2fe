// Package daemon is the composition root: it builds the registry, catalog,
// indexer, dispatcher, resolver, orchestrator and gateway from one Config
// and manages their lifecycle.
package daemon

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/metrics"
	"github.com/toolgate/toolgate/internal/observability"
	"github.com/toolgate/toolgate/internal/plugins/analytics"
	"github.com/toolgate/toolgate/internal/plugins/inventory"
	"github.com/toolgate/toolgate/pkg/catalog"
	"github.com/toolgate/toolgate/pkg/dispatcher"
	"github.com/toolgate/toolgate/pkg/gateway"
	"github.com/toolgate/toolgate/pkg/indexer"
	"github.com/toolgate/toolgate/pkg/orchestrator"
	"github.com/toolgate/toolgate/pkg/plugin"
	"github.com/toolgate/toolgate/pkg/resolver"
)

// Daemon represents the toolgate daemon service.
type Daemon struct {
	config *config.Config
	logger zerolog.Logger

	registry     *plugin.Registry
	provider     catalog.Provider
	mapping      *indexer.PathMapping
	indexer      *indexer.Indexer
	dispatcher   *dispatcher.Dispatcher
	resolver     *resolver.Resolver
	orchestrator *orchestrator.Orchestrator
	metrics      *metrics.Metrics
	audit        *observability.AuditLogger

	gateway   *gateway.Server
	scheduler *indexer.Scheduler
	watcher   *indexer.MappingWatcher
	lifecycle *LifecycleManager

	startTime time.Time
	running   bool
	mu        sync.RWMutex
}

// Status is a snapshot of the daemon state.
type Status struct {
	Running     bool          `json:"running"`
	PID         int           `json:"pid"`
	Uptime      time.Duration `json:"uptime"`
	Tools       int           `json:"tools"`
	Reindexing  bool          `json:"reindexing"`
	CatalogKind string        `json:"catalogKind"`
}

// New builds a daemon from configuration. Nothing is started yet.
func New(cfg *config.Config, logger zerolog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Daemon{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	if err := d.initialize(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize daemon: %w", err)
	}

	d.lifecycle = NewLifecycleManager(d)

	return d, nil
}

func (d *Daemon) initialize(ctx context.Context) error {
	if err := os.MkdirAll(d.config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	audit, err := observability.NewAuditLogger(filepath.Join(d.config.DataDir, "audit.log"))
	if err != nil {
		d.logger.Warn().Err(err).Msg("Audit log unavailable, auditing disabled")
		audit = observability.NewNopAuditLogger()
	}
	d.audit = audit

	d.registry = plugin.NewRegistry()

	data := inventory.NewMemoryData()
	if err := d.registry.Register(ctx, inventory.New(data)); err != nil {
		return fmt.Errorf("failed to register inventory plugin: %w", err)
	}
	if err := d.registry.Register(ctx, analytics.New(data)); err != nil {
		return fmt.Errorf("failed to register analytics plugin: %w", err)
	}
	d.logger.Info().Int("tools", d.registry.ToolCount()).Msg("Plugin registry initialized")

	provider, err := d.buildProvider()
	if err != nil {
		return err
	}
	d.provider = provider

	if d.config.Indexer.MappingFile != "" {
		mapping, err := indexer.LoadPathMapping(d.config.Indexer.MappingFile)
		if err != nil {
			return fmt.Errorf("failed to load path mapping: %w", err)
		}
		d.mapping = mapping
	} else {
		d.mapping = indexer.NewPathMapping()
	}

	ix, err := indexer.New(d.registry, d.provider, d.mapping, d.logger.With().Str("component", "indexer").Logger())
	if err != nil {
		return err
	}
	d.indexer = ix

	disp, err := dispatcher.New(d.registry,
		dispatcher.WithTimeout(time.Duration(d.config.Dispatch.TimeoutSeconds)*time.Second))
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}
	d.dispatcher = disp

	d.resolver = resolver.New(d.provider, d.logger.With().Str("component", "resolver").Logger())
	d.orchestrator = orchestrator.New(d.resolver, d.dispatcher,
		d.logger.With().Str("component", "orchestrator").Logger(),
		orchestrator.WithResolutionObserver(d.metrics))

	srv, err := gateway.NewServer(gateway.Config{
		Host:         d.config.Server.Host,
		Port:         d.config.Server.Port,
		Dispatcher:   d.dispatcher,
		Orchestrator: d.orchestrator,
		Resolver:     d.resolver,
		Indexer:      d.indexer,
		Provider:     d.provider,
		Metrics:      d.metrics,
		Audit:        d.audit,
		Logger:       d.logger.With().Str("component", "gateway").Logger(),
	})
	if err != nil {
		return err
	}
	d.gateway = srv

	if d.config.Indexer.Schedule != "" {
		scheduler, err := indexer.NewScheduler(d.indexer, d.config.Indexer.Schedule, d.logger.With().Str("component", "scheduler").Logger())
		if err != nil {
			return fmt.Errorf("failed to build reindex scheduler: %w", err)
		}
		d.scheduler = scheduler
	}

	return nil
}

func (d *Daemon) buildProvider() (catalog.Provider, error) {
	switch d.config.Catalog.Provider {
	case "memory":
		d.logger.Info().Msg("Using in-memory catalog")
		return catalog.NewMemoryProvider(), nil
	case "sqlite":
		if err := os.MkdirAll(d.config.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		provider, err := catalog.NewSQLiteProvider(d.config.Catalog.Path, d.logger.With().Str("component", "catalog").Logger())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
		}
		d.logger.Info().Str("path", d.config.Catalog.Path).Msg("Using sqlite catalog")
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown catalog provider: %s", d.config.Catalog.Provider)
	}
}

// Start brings the daemon up: optional initial reindex, gateway server,
// scheduler and mapping watcher.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.startTime = time.Now()
	d.mu.Unlock()

	if err := d.lifecycle.Start(); err != nil {
		return err
	}

	if d.config.Indexer.ReindexOnStart {
		start := time.Now()
		count, err := d.indexer.Reindex(ctx)
		d.metrics.ObserveReindex(count, time.Since(start), err)
		d.audit.RecordReindex(count, err)
		if err != nil {
			return fmt.Errorf("initial reindex failed: %w", err)
		}
		d.logger.Info().Int("descriptors", count).Msg("Initial catalog publish complete")
	}

	if err := d.gateway.Start(); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	if d.scheduler != nil {
		d.scheduler.Start()
	}

	if d.config.Indexer.WatchMapping && d.config.Indexer.MappingFile != "" {
		watcher, err := indexer.NewMappingWatcher(d.config.Indexer.MappingFile, d.logger.With().Str("component", "watcher").Logger(), d.onMappingChange)
		if err != nil {
			d.logger.Warn().Err(err).Msg("Mapping watcher unavailable, continuing without it")
		} else {
			d.watcher = watcher
		}
	}

	d.logger.Info().Int("port", d.config.Server.Port).Msg("Daemon started")
	return nil
}

// onMappingChange reloads the mapping file and rebuilds the catalog so the
// published invocation paths track the file on disk.
func (d *Daemon) onMappingChange() {
	if err := d.mapping.Reload(); err != nil {
		d.logger.Error().Err(err).Msg("Failed to reload path mapping")
		return
	}

	start := time.Now()
	count, err := d.indexer.Reindex(context.Background())
	d.metrics.ObserveReindex(count, time.Since(start), err)
	d.audit.RecordReindex(count, err)
	if err != nil {
		d.logger.Error().Err(err).Msg("Reindex after mapping change failed")
		return
	}
	d.logger.Info().Int("descriptors", count).Msg("Catalog rebuilt after mapping change")
}

// Stop shuts everything down in reverse order.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = false
	d.mu.Unlock()

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.scheduler != nil {
		d.scheduler.Stop()
	}

	if err := d.gateway.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Gateway shutdown failed")
	}

	if err := d.provider.Close(); err != nil {
		d.logger.Error().Err(err).Msg("Catalog close failed")
	}

	if err := d.audit.Close(); err != nil {
		d.logger.Error().Err(err).Msg("Audit log close failed")
	}

	if err := d.lifecycle.Stop(); err != nil {
		d.logger.Error().Err(err).Msg("Lifecycle cleanup failed")
	}

	d.logger.Info().Msg("Daemon stopped")
	return nil
}

// Status reports the current daemon state.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var uptime time.Duration
	if d.running {
		uptime = time.Since(d.startTime)
	}

	return Status{
		Running:     d.running,
		PID:         os.Getpid(),
		Uptime:      uptime,
		Tools:       d.registry.ToolCount(),
		Reindexing:  d.indexer.Running(),
		CatalogKind: d.config.Catalog.Provider,
	}
}

// Indexer exposes the indexer for one-shot commands.
func (d *Daemon) Indexer() *indexer.Indexer { return d.indexer }

// Registry exposes the plugin registry for one-shot commands.
func (d *Daemon) Registry() *plugin.Registry { return d.registry }

// Provider exposes the catalog provider for one-shot commands.
func (d *Daemon) Provider() catalog.Provider { return d.provider }
