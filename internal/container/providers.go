package container

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/authz"
	"github.com/garyjia/ats-pipeline/internal/application/dispatcher"
	"github.com/garyjia/ats-pipeline/internal/application/notification"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/application/service"
	"github.com/garyjia/ats-pipeline/internal/config"
	"github.com/garyjia/ats-pipeline/internal/domain/event"
	redismsg "github.com/garyjia/ats-pipeline/internal/infrastructure/messaging/redis"
	"github.com/garyjia/ats-pipeline/internal/infrastructure/persistence/memory"
	"github.com/garyjia/ats-pipeline/internal/infrastructure/persistence/postgres"
	"github.com/garyjia/ats-pipeline/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/ats-pipeline/pkg/database"
)

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Applications port.ApplicationRepository
	History      port.HistoryRepository
	Jobs         port.JobRepository
	Users        port.UserRepository
	Assignments  port.AssignmentChecker
}

// DatabaseBundle holds the store selected by database.driver.
type DatabaseBundle struct {
	Driver       string
	TxManager    port.TransactionManager
	Repositories *RepositoryBundle
	Ping         func(ctx context.Context) error
	Close        func() error
}

// MessagingBundle holds the outgoing messaging components.
// Client and Forwarder are nil when Redis is not configured.
type MessagingBundle struct {
	Client    *goredis.Client
	Forwarder *redismsg.EventForwarder
	Mailer    port.Mailer
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Transitions service.TransitionService
	Queries     service.ApplicationQueryService
	Ledger      service.HistoryLedger
	Gate        *authz.Gate
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Publisher port.EventPublisher
	Logger    *zap.Logger
}

// ProvideDatabase opens the configured store and applies migrations.
func ProvideDatabase(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		store := memory.NewStore(logger)
		return &DatabaseBundle{
			Driver:    cfg.Driver,
			TxManager: store,
			Repositories: &RepositoryBundle{
				Applications: store.Applications(),
				History:      store.History(),
				Jobs:         store.Jobs(),
				Users:        store.Users(),
				Assignments:  store.Assignments(),
			},
			Ping:  func(context.Context) error { return nil },
			Close: func() error { return nil },
		}, nil

	case config.DriverSQLite:
		conn, err := database.New(database.Config{
			Path:            cfg.Path,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			BusyTimeout:     cfg.BusyTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(conn, logger).Run(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		db := sqlite.NewDB(conn.DB, logger)
		return &DatabaseBundle{
			Driver:    cfg.Driver,
			TxManager: db,
			Repositories: &RepositoryBundle{
				Applications: db.Applications(),
				History:      db.History(),
				Jobs:         db.Jobs(),
				Users:        db.Users(),
				Assignments:  db.Assignments(),
			},
			Ping:  conn.PingContext,
			Close: conn.Close,
		}, nil

	case config.DriverPostgres:
		store, err := postgres.NewStore(ctx, cfg.URL, int32(cfg.MaxOpenConns), logger)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return &DatabaseBundle{
			Driver:    cfg.Driver,
			TxManager: store,
			Repositories: &RepositoryBundle{
				Applications: store.Applications(),
				History:      store.History(),
				Jobs:         store.Jobs(),
				Users:        store.Users(),
				Assignments:  store.Assignments(),
			},
			Ping:  store.Ping,
			Close: store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// ProvideMessaging connects to Redis when configured; otherwise mail is only logged.
func ProvideMessaging(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*MessagingBundle, error) {
	if !cfg.Enabled() {
		logger.Info("Redis not configured, notification emails will be logged only")
		return &MessagingBundle{
			Mailer: notification.NewLogMailer(NewLoggerAdapter(logger)),
		}, nil
	}

	client, err := redismsg.NewClient(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	return &MessagingBundle{
		Client:    client,
		Forwarder: redismsg.NewEventForwarder(client, cfg.EventChannelPrefix, logger),
		Mailer:    redismsg.NewMailQueue(client, cfg.MailQueue, logger),
	}, nil
}

// ProvideDispatcher creates the async event dispatcher.
func ProvideDispatcher(cfg *config.DispatcherConfig, logger *zap.Logger) dispatcher.Dispatcher {
	opts := []dispatcher.Option{
		dispatcher.WithLogger(NewLoggerAdapter(logger)),
		dispatcher.WithRetry(cfg.RetryAttempts, cfg.RetryBackoff),
	}
	if cfg.HandlerTimeout > 0 {
		opts = append(opts, dispatcher.WithHandlerTimeout(cfg.HandlerTimeout))
	}
	return dispatcher.NewDispatcher(opts...)
}

// RegisterHandlers subscribes the notifier and, when present, the Redis forwarder.
func RegisterHandlers(d dispatcher.Dispatcher, repos *RepositoryBundle, messaging *MessagingBundle, logger *zap.Logger) {
	notifier := notification.NewNotifier(repos.Users, repos.Jobs, messaging.Mailer, NewLoggerAdapter(logger))
	d.SubscribeNamed(event.TypeApplicationCreated, "notifier", notifier.Handle)
	d.SubscribeNamed(event.TypeStageChanged, "notifier", notifier.Handle)

	if messaging.Forwarder != nil {
		d.SubscribeAll("redis-forwarder", messaging.Forwarder.Handle)
	}
}

// ProvideServices creates all application services with their dependencies.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}

	logger := NewLoggerAdapter(deps.Logger)
	gate := authz.NewGate(deps.Repos.Assignments, logger)
	ledger := service.NewHistoryLedger(deps.Repos.History)

	transitions := service.NewTransitionService(
		deps.Repos.Applications,
		deps.Repos.Jobs,
		ledger,
		deps.TxManager,
		gate,
		deps.Publisher,
		logger,
	)

	queries := service.NewApplicationQueryService(
		deps.Repos.Applications,
		deps.Repos.Jobs,
		ledger,
		gate,
		logger,
	)

	return &ServiceBundle{
		Transitions: transitions,
		Queries:     queries,
		Ledger:      ledger,
		Gate:        gate,
	}, nil
}
