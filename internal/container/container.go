package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/application/service"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/realtime"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/worker"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *DatabaseBundle
	repositories *RepositoryBundle

	// Infrastructure - External
	external *ExternalBundle

	// Infrastructure - Storage
	storage *StorageBundle

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Realtime and workers
	hub     *realtime.Hub
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Approvals  port.ApprovalRepository
	Codes      port.ApplicationCodeRepository
	Recipients port.RecipientRepository
	Users      port.UserRepository
	History    port.HistoryRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Approval     service.ApprovalService
	Reference    service.ReferenceService
	Enrichment   service.EnrichmentService
	Export       service.ExportService
	Notification service.NotificationService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. External clients (OpenAI, Lark, Redis)
// 3. Storage
// 4. Event dispatcher
// 5. Application services
// 6. Realtime hub and workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	db, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize database: %w", err))
	}
	c.database = db
	c.repositories = db.Repositories
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	// Step 2: Initialize external clients
	external, err := ProvideExternal(c.ctx, c.config, c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize external clients: %w", err))
	}
	c.external = external
	c.logger.Info("External clients initialized",
		zap.Bool("enrichment", external.Enricher != nil),
		zap.Bool("messaging", external.Messenger != nil),
		zap.Bool("rate_limit", external.Limiter != nil))

	// Step 3: Initialize storage
	store, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize storage: %w", err))
	}
	c.storage = store
	c.logger.Info("Storage initialized")

	// Step 4: Initialize dispatcher
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize dispatcher: %w", err))
	}
	c.dispatcher = disp

	// Step 5: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.database.TransactionMgr,
		External:   c.external,
		Storage:    c.storage,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return c.abort(fmt.Errorf("failed to initialize services: %w", err))
	}
	c.services = services
	c.logger.Info("Application services initialized")

	// Step 6: Start realtime hub under the worker manager
	c.hub = ProvideRealtime(&c.config.Server, c.dispatcher, c.logger)
	c.workers = ProvideWorkers(c.logger, c.hub)
	if err := c.workers.StartAll(c.ctx); err != nil {
		return c.abort(fmt.Errorf("failed to start workers: %w", err))
	}
	c.logger.Info("Workers initialized and started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// abort releases whatever Start acquired before failing
func (c *Container) abort(err error) error {
	if terr := c.teardown(); terr != nil {
		c.logger.Error("Cleanup after failed start", zap.Error(terr))
	}
	c.closed.Store(true)
	return err
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")
	err := c.teardown()

	c.closed.Store(true)
	c.ready.Store(false)

	if err != nil {
		c.logger.Error("Container closed with errors", zap.Error(err))
		return err
	}

	c.logger.Info("Container closed successfully")
	return nil
}

func (c *Container) teardown() error {
	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers (reverse of step 6)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Step 2: Close dispatcher (reverse of step 4)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 3: Close redis (reverse of step 2)
	if c.external != nil && c.external.closeRedis != nil {
		if err := c.external.closeRedis(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	// Step 4: Close database (reverse of step 1)
	if c.database != nil && c.database.Close != nil {
		if err := c.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	return errors.Join(errs...)
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	switch {
	case c.database == nil:
		set("database", ComponentHealth{Healthy: false, Message: "not initialized"})
	case c.database.Ping == nil:
		set("database", ComponentHealth{Healthy: true, Message: c.config.Database.Driver})
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.database.Ping(pingCtx)
		cancel()
		if err != nil {
			set("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true, Message: c.config.Database.Driver})
		}
	}

	if c.workers != nil {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		})
	} else {
		set("workers", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.hub != nil {
		set("realtime", ComponentHealth{Healthy: true, Message: fmt.Sprintf("clients: %d", c.hub.ClientCount())})
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	return status
}

// Getters for accessing container components

// TransactionManager returns the transaction manager.
func (c *Container) TransactionManager() port.TransactionManager {
	if c.database == nil {
		return nil
	}
	return c.database.TransactionMgr
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// External returns the optional outbound clients.
func (c *Container) External() *ExternalBundle {
	return c.external
}

// Storage returns file storage, folder manager and exporter.
func (c *Container) Storage() *StorageBundle {
	return c.storage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Realtime returns the websocket hub.
func (c *Container) Realtime() *realtime.Hub {
	return c.hub
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
