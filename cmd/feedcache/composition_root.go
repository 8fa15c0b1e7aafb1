package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"go-feed-cache/internal/config"
	"go-feed-cache/internal/freshness"
	"go-feed-cache/internal/httpserver"
	"go-feed-cache/internal/interfaces"
	"go-feed-cache/internal/orchestrator"
	"go-feed-cache/internal/resources"
	"go-feed-cache/internal/scheduler"
	"go-feed-cache/internal/store/l1"
	"go-feed-cache/internal/store/l2"
	"go-feed-cache/internal/store/memory"
	"go-feed-cache/internal/store/multi"
	"go-feed-cache/internal/store/noop"
	"go-feed-cache/internal/store/sqlite"
)

// CompositionRoot holds all application dependencies and is the single place
// where they are constructed and wired together.
type CompositionRoot struct {
	// Configuration
	Config   *config.Config
	Logger   *zap.Logger
	Registry *resources.Registry

	// Store levels, nil when disabled
	L1Store     *l1.BigCache
	L2Store     *l2.KeyDBCache
	SQLiteStore *sqlite.SQLiteStore
	Store       interfaces.Store

	// Services
	Service    *orchestrator.Service
	HTTPServer *httpserver.Server
	Warmers    []*scheduler.Scheduler
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Logger (needed by all other components)
// 2. Configuration, then the logger is rebuilt at the configured level
// 3. Resource registry
// 4. Store levels
// 5. Orchestrator
// 6. HTTP server and warmers
func NewCompositionRoot(configPath, resourcesPath string) (*CompositionRoot, error) {
	root := &CompositionRoot{}

	// Initialize logger first
	if err := root.initLogger(config.LogConfig{Level: "info"}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Load configuration
	if err := root.loadConfig(configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := root.initLogger(root.Config.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Load resources
	if err := root.loadResources(resourcesPath); err != nil {
		return nil, fmt.Errorf("failed to load resources: %w", err)
	}

	// Initialize stores
	if err := root.initStores(); err != nil {
		return nil, fmt.Errorf("failed to initialize stores: %w", err)
	}

	// Initialize services
	if err := root.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger(cfg config.LogConfig) error {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return err
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return err
	}
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration
func (r *CompositionRoot) loadConfig(configPath string) error {
	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}

	r.Config = cfg
	return nil
}

// loadResources loads the resource registry
func (r *CompositionRoot) loadResources(resourcesPath string) error {
	cfg, err := resources.LoadResourcesConfig(resourcesPath, r.Logger)
	if err != nil {
		return err
	}

	registry, err := resources.Build(cfg, &http.Client{}, r.Logger)
	if err != nil {
		return err
	}

	r.Registry = registry
	return nil
}

// initStores builds the enabled store levels, fastest first
func (r *CompositionRoot) initStores() error {
	var levels []interfaces.Store

	if r.Config.BigCache.Enabled {
		l1Store, err := l1.NewBigCache(&r.Config.BigCache, r.Config.Cache.MaxEntryAge, r.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize L1 store: %w", err)
		}
		r.L1Store = l1Store
		levels = append(levels, l1Store)
		r.Logger.Info("BigCache (L1) initialized", zap.Int("size_mb", r.Config.BigCache.Size))
	}

	if r.Config.KeyDB.Enabled {
		levels = append(levels, r.initL2Store())
	}

	if r.Config.SQLite.Enabled {
		sqliteStore, err := sqlite.NewSQLiteStore(r.Config.SQLite.Path, r.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		r.SQLiteStore = sqliteStore
		levels = append(levels, sqliteStore)
	}

	switch len(levels) {
	case 0:
		r.Store = memory.NewMemoryStore()
		r.Logger.Info("No store configured, using in-memory store")
	case 1:
		r.Store = levels[0]
	default:
		r.Store = multi.NewMultiStore(levels, r.Logger, r.Config.MultiStore.EnablePropagation)
		r.Logger.Info("Multi-level store initialized", zap.Int("levels", len(levels)))
	}
	return nil
}

// initL2Store connects to KeyDB, degrading to a no-op level when it is unreachable
func (r *CompositionRoot) initL2Store() interfaces.Store {
	keydbURL := GetKeyDBURL(r.Logger)

	keydbClient, err := l2.NewRedisKeyDbClient(&r.Config.KeyDB, keydbURL, r.Logger)
	if err != nil {
		r.Logger.Warn("Failed to connect to KeyDB, falling back to no L2 store", zap.Error(err))
		return noop.NewNoOpStore()
	}

	r.L2Store = l2.NewKeyDBCache(&r.Config.KeyDB, keydbClient, r.Config.Cache.MaxEntryAge, r.Logger)
	r.Logger.Info("KeyDB (L2) initialized")
	return r.L2Store
}

// initServices initializes the orchestrator, HTTP server and warmers
func (r *CompositionRoot) initServices() error {
	loc, err := freshness.LoadLocation(r.Config.Cache.Timezone)
	if err != nil {
		return err
	}

	r.Service = orchestrator.NewService(
		freshness.NewPolicy(loc),
		r.Store,
		r.Registry,
		nil,
		r.Config.ShouldCoalesceMisses(),
		r.Logger,
	)

	r.HTTPServer = httpserver.NewServer(r.Service, r.Config.Server, r.Config.Auth, r.Logger)

	for _, entry := range r.Registry.Entries() {
		if entry.WarmInterval <= 0 {
			continue
		}
		r.Warmers = append(r.Warmers, scheduler.NewWithContext(entry.WarmInterval, r.warmTask(entry.Name)))
	}

	r.Logger.Info("Services initialized",
		zap.String("timezone", loc.String()),
		zap.Bool("coalesce_misses", r.Config.ShouldCoalesceMisses()),
		zap.Strings("resources", r.Registry.Names()),
		zap.Int("warmers", len(r.Warmers)))
	return nil
}

// warmTask returns a scheduler task that recomputes resource
func (r *CompositionRoot) warmTask(resource string) func(ctx context.Context) {
	return func(ctx context.Context) {
		if err := r.Service.Warm(ctx, resource); err != nil {
			r.Logger.Warn("Scheduled warm failed", zap.String("resource", resource), zap.Error(err))
			return
		}
		r.Logger.Debug("Scheduled warm completed", zap.String("resource", resource))
	}
}

// StartWarmers starts every periodic warm task
func (r *CompositionRoot) StartWarmers() {
	for _, warmer := range r.Warmers {
		warmer.Start()
	}
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errors []error

	for _, warmer := range r.Warmers {
		warmer.Stop()
	}

	if r.L1Store != nil {
		if err := r.L1Store.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close L1 store: %w", err))
		}
	}
	if r.L2Store != nil {
		if err := r.L2Store.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close L2 store: %w", err))
		}
	}
	if r.SQLiteStore != nil {
		if err := r.SQLiteStore.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close SQLite store: %w", err))
		}
	}

	// Sync logger
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}

	if len(errors) > 0 {
		return fmt.Errorf("cleanup errors: %v", errors)
	}
	return nil
}
