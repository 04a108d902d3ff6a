package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/djishijima/hellbuild-v3/internal/application/dispatcher"
	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/application/service"
	"github.com/djishijima/hellbuild-v3/internal/application/workflow"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/document"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/export"
	infraLark "github.com/djishijima/hellbuild-v3/internal/infrastructure/external/lark"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/external/openai"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/gormstore"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/memory"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/repository"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/persistence/sqlite"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/ratelimit"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/realtime"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/storage"
	"github.com/djishijima/hellbuild-v3/internal/infrastructure/worker"
	"github.com/djishijima/hellbuild-v3/migrations"
	"github.com/djishijima/hellbuild-v3/pkg/database"
	"github.com/djishijima/hellbuild-v3/pkg/utils"
)

// DatabaseBundle holds the store selected by the database driver.
type DatabaseBundle struct {
	Repositories   *RepositoryBundle
	TransactionMgr port.TransactionManager

	// Ping and Close are nil for the memory store
	Ping  func(ctx context.Context) error
	Close func() error
}

// ExternalBundle holds the optional outbound clients. Nil members are disabled.
type ExternalBundle struct {
	Enricher  port.Enricher
	Messenger port.Messenger
	Limiter   port.RateLimiter

	closeRedis func() error
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	FolderManager port.FolderManager
	Exporter      port.SpreadsheetWriter
}

// ProvideDatabase opens the configured store. SQLite runs pending migrations,
// PostgreSQL auto-migrates and seeds reference data, memory starts seeded.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case DriverSQLite:
		return provideSQLite(ctx, cfg, logger)
	case DriverPostgres:
		return providePostgres(ctx, cfg, logger)
	case DriverMemory:
		store := memory.NewSeededStore()
		logger.Info("Using in-memory store")
		return &DatabaseBundle{
			Repositories: &RepositoryBundle{
				Approvals:  store.Approvals(),
				Codes:      store.ApplicationCodes(),
				Recipients: store.Recipients(),
				Users:      store.Users(),
				History:    store.History(),
			},
			TransactionMgr: store,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func provideSQLite(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(ctx, cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(ctx, migrations.FS)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	tx := sqlite.NewDB(db.DB, logger)
	return &DatabaseBundle{
		Repositories: &RepositoryBundle{
			Approvals:  repository.NewApprovalRepository(tx, logger),
			Codes:      repository.NewApplicationCodeRepository(tx, logger),
			Recipients: repository.NewRecipientRepository(tx, logger),
			Users:      repository.NewUserRepository(tx, logger),
			History:    repository.NewHistoryRepository(tx, logger),
		},
		TransactionMgr: tx,
		Ping:           db.PingContext,
		Close:          db.Close,
	}, nil
}

func providePostgres(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	db, err := gormstore.Open(cfg.DSN, logger)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := gormstore.Seed(ctx, db); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}

	return &DatabaseBundle{
		Repositories: &RepositoryBundle{
			Approvals:  gormstore.NewApprovalRepository(db),
			Codes:      gormstore.NewApplicationCodeRepository(db),
			Recipients: gormstore.NewRecipientRepository(db),
			Users:      gormstore.NewUserRepository(db),
			History:    gormstore.NewHistoryRepository(db),
		},
		TransactionMgr: gormstore.NewTransactionManager(db),
		Ping:           sqlDB.PingContext,
		Close:          sqlDB.Close,
	}, nil
}

// ProvideExternal creates the OpenAI enricher, the Lark messenger and the
// redis limiter for whichever of them is configured.
func ProvideExternal(ctx context.Context, cfg *Config, logger *zap.Logger) (*ExternalBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &ExternalBundle{}

	if cfg.OpenAI.APIKey != "" {
		enricher, err := ProvideEnricher(&cfg.OpenAI, logger)
		if err != nil {
			return nil, err
		}
		bundle.Enricher = enricher
	} else {
		logger.Info("OpenAI api key not set, enrichment falls back to file names")
	}

	if cfg.Lark.Enabled {
		client := infraLark.NewSDKClient(infraLark.Config{
			AppID:     cfg.Lark.AppID,
			AppSecret: cfg.Lark.AppSecret,
			BaseURL:   cfg.Lark.BaseURL,
		})
		bundle.Messenger = infraLark.NewMessenger(client, logger)
	}

	if cfg.Redis.Addr != "" {
		client, err := ratelimit.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// The limiter fails open, so an unreachable redis only disables limiting
			logger.Error("Redis unavailable, enrichment is not rate limited", zap.Error(err))
		} else {
			bundle.Limiter = ratelimit.NewRedisLimiter(client, cfg.Redis.EnrichmentLimit, cfg.Redis.EnrichmentWindow, "enrichment", logger)
			bundle.closeRedis = client.Close
		}
	}

	return bundle, nil
}

// ProvideEnricher creates the OpenAI enricher with a PDF text extractor.
func ProvideEnricher(cfg *OpenAIConfig, logger *zap.Logger) (*openai.Enricher, error) {
	prompts, err := openai.LoadPrompts(cfg.PromptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	applyModelDefaults(&prompts.Summarize, cfg)
	applyModelDefaults(&prompts.SuggestFields, cfg)

	extractor := document.NewPDFTextExtractor(document.DefaultMaxPages, logger)
	return openai.NewEnricher(openai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, prompts, extractor, logger), nil
}

func applyModelDefaults(spec *openai.PromptSpec, cfg *OpenAIConfig) {
	if spec.Temperature == 0 {
		spec.Temperature = cfg.Temperature
	}
	if spec.MaxTokens == 0 {
		spec.MaxTokens = cfg.MaxTokens
	}
}

// ProvideStorage creates file storage, folder manager and the spreadsheet exporter.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &StorageBundle{
		FileStorage:   storage.NewLocalFileStorage(cfg.UploadDir, logger),
		FolderManager: storage.NewLocalFolderManager(cfg.UploadDir, logger),
		Exporter:      export.NewExcelExporter(nil, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger))), nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	External   *ExternalBundle
	Storage    *StorageBundle
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to approval events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil || deps.External == nil || deps.Storage == nil {
		return nil, fmt.Errorf("service dependencies are incomplete")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kv := utils.NewKVLogger(deps.Logger)
	repos := deps.Repos

	approval := service.NewApprovalService(
		workflow.NewEngine(),
		repos.Approvals,
		repos.Codes,
		repos.Recipients,
		repos.Users,
		repos.History,
		deps.TxManager,
		deps.Dispatcher,
		kv,
	)

	notification := service.NewNotificationService(repos.Users, deps.External.Messenger, kv)
	if deps.Dispatcher != nil {
		notification.Register(deps.Dispatcher)
	}

	return &ServiceBundle{
		Approval:     approval,
		Reference:    service.NewReferenceService(repos.Codes, repos.Recipients, repos.Users, deps.Dispatcher, kv),
		Enrichment:   service.NewEnrichmentService(deps.External.Enricher, deps.Storage.FileStorage, deps.Storage.FolderManager, repos.Codes, kv),
		Export:       service.NewExportService(approval, deps.Storage.Exporter, kv),
		Notification: notification,
	}, nil
}

// ProvideRealtime creates the websocket hub and subscribes it to every event.
func ProvideRealtime(cfg *ServerConfig, d dispatcher.Dispatcher, logger *zap.Logger) *realtime.Hub {
	hub := realtime.NewHub(cfg.AllowedOrigins, logger)
	if d != nil {
		hub.Register(d)
	}
	return hub
}

// ProvideWorkers registers the long-running components with a worker manager.
func ProvideWorkers(logger *zap.Logger, workers ...worker.Worker) *worker.WorkerManager {
	manager := worker.NewWorkerManager(logger)
	for _, w := range workers {
		manager.Register(w)
	}
	return manager
}
