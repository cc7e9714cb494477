package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/workflow-engine/internal/application/dispatcher"
	"github.com/garyjia/workflow-engine/internal/application/port"
	"github.com/garyjia/workflow-engine/internal/application/workflow"
	"github.com/garyjia/workflow-engine/internal/domain/event"
	"github.com/garyjia/workflow-engine/internal/infrastructure/persistence/memory"
	"github.com/garyjia/workflow-engine/internal/infrastructure/persistence/repository"
	"github.com/garyjia/workflow-engine/internal/infrastructure/persistence/sqlite"
	httpapi "github.com/garyjia/workflow-engine/internal/interfaces/http"
	"github.com/garyjia/workflow-engine/internal/seed"
	"github.com/garyjia/workflow-engine/pkg/database"
)

// StoreBundle holds the repositories of the selected store.
type StoreBundle struct {
	Definitions port.DefinitionRepository
	Instances   port.InstanceRepository
	Health      port.HealthChecker

	// DB is set for the sqlite driver only
	DB *database.DB
}

// Close releases the underlying database, if any.
func (b *StoreBundle) Close() error {
	if b.DB == nil {
		return nil
	}
	return b.DB.Close()
}

// ProvideStore opens the configured store. For sqlite it also applies the
// embedded migrations.
func ProvideStore(cfg *StorageConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	switch cfg.Driver {
	case StorageMemory:
		store := memory.NewStore()
		return &StoreBundle{
			Definitions: store.Definitions(),
			Instances:   store.Instances(),
			Health:      store,
		}, nil

	case StorageSQLite:
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
		if err := migrator.RunMigrations(database.Migrations, "migrations"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		txdb := sqlite.NewDB(db.DB, logger)
		instances := repository.NewInstanceRepository(txdb, logger)
		return &StoreBundle{
			Definitions: repository.NewDefinitionRepository(txdb, logger),
			Instances:   instances,
			Health:      instances,
			DB:          db,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ProvideDispatcher creates the event dispatcher with the audit log handler
// subscribed to every event type.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	adapter := &zapLoggerAdapter{logger: logger.Named("events")}
	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(adapter))

	audit := dispatcher.AuditHandler(adapter)
	for _, t := range event.All() {
		disp.SubscribeNamed(t, "audit_log", audit)
	}

	return disp, nil
}

// EngineDeps holds dependencies for the workflow engine.
type EngineDeps struct {
	Store      *StoreBundle
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideEngine creates the workflow engine.
func ProvideEngine(deps *EngineDeps) (workflow.Engine, error) {
	if deps == nil || deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{
		workflow.WithLogger(&zapLoggerAdapter{logger: deps.Logger.Named("engine")}),
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}

	return workflow.NewEngine(deps.Store.Definitions, deps.Store.Instances, opts...), nil
}

// ProvideSeed creates the definitions in path through the engine. An empty
// path is a no-op.
func ProvideSeed(ctx context.Context, path string, engine workflow.Engine, logger *zap.Logger) (int, error) {
	if path == "" {
		return 0, nil
	}

	defs, err := seed.LoadFile(ctx, path, engine, &zapLoggerAdapter{logger: logger.Named("seed")})
	return len(defs), err
}

// ProvideServer creates the HTTP server.
func ProvideServer(cfg *ServerConfig, engine workflow.Engine, health port.HealthChecker, logger *zap.Logger) *httpapi.Server {
	return httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, engine, health, &zapLoggerAdapter{logger: logger.Named("http")})
}
