package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/garyjia/ats-pipeline/internal/application/dispatcher"
	"github.com/garyjia/ats-pipeline/internal/application/port"
	"github.com/garyjia/ats-pipeline/internal/config"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and are torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *DatabaseBundle
	repositories *RepositoryBundle

	// Infrastructure - Messaging
	redis  *goredis.Client
	mailer port.Mailer

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
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
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
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

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database and repositories
// 2. Messaging (Redis forwarder and mail queue, or log mailer)
// 3. Event dispatcher and notification handlers
// 4. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization",
		zap.String("database_driver", c.config.Database.Driver),
		zap.Bool("redis_enabled", c.config.Redis.Enabled()))

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize messaging
	messaging, err := ProvideMessaging(ctx, &c.config.Redis, c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}
	c.redis = messaging.Client
	c.mailer = messaging.Mailer
	c.logger.Info("Messaging initialized")

	// Step 3: Initialize dispatcher and register handlers
	c.dispatcher = ProvideDispatcher(&c.config.Dispatcher, c.logger)
	RegisterHandlers(c.dispatcher, c.repositories, messaging, c.logger)
	c.logger.Info("Dispatcher initialized")

	// Step 4: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.database.TxManager,
		Publisher: c.dispatcher,
		Logger:    c.logger,
	})
	if err != nil {
		_ = c.dispatcher.Close()
		c.closeRedis()
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
// The dispatcher drains in-flight handlers before Redis and the database go away.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Close dispatcher (reverse of step 3)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 2: Close Redis (reverse of step 2)
	if err := c.closeRedis(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}

	// Step 3: Close database (reverse of step 1)
	if err := c.closeDatabase(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	record := func(name string, err error) {
		if err != nil {
			status.Components[name] = ComponentHealth{Healthy: false, Message: err.Error()}
			status.Overall = false
			return
		}
		status.Components[name] = ComponentHealth{Healthy: true}
	}

	// Check database
	if c.database != nil {
		record("database", c.database.Ping(ctx))
	} else {
		record("database", errors.New("not initialized"))
	}

	// Check Redis only when configured
	if c.config.Redis.Enabled() {
		if c.redis != nil {
			record("redis", c.redis.Ping(ctx).Err())
		} else {
			record("redis", errors.New("not initialized"))
		}
	}

	// Check dispatcher
	if c.dispatcher != nil {
		record("dispatcher", nil)
	} else {
		record("dispatcher", errors.New("not initialized"))
	}

	return status
}

// MonitorHealth checks component health every interval until ctx is done.
// Unhealthy components are logged; a recovery is logged once.
func (c *Container) MonitorHealth(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	degraded := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, interval)
		status := c.Health(checkCtx)
		cancel()

		if status.Overall {
			if degraded {
				c.logger.Info("Components healthy again")
			}
			degraded = false
			continue
		}

		degraded = true
		for name, component := range status.Components {
			if !component.Healthy {
				c.logger.Error("Component unhealthy",
					zap.String("component", name),
					zap.String("message", component.Message))
			}
		}
	}
}

// initDatabase opens the configured store and builds the repositories.
func (c *Container) initDatabase(ctx context.Context) error {
	bundle, err := ProvideDatabase(ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = bundle
	c.repositories = bundle.Repositories
	return nil
}

func (c *Container) closeDatabase() error {
	if c.database == nil {
		return nil
	}
	if err := c.database.Close(); err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
		return err
	}
	c.database = nil
	c.logger.Info("Database closed")
	return nil
}

func (c *Container) closeRedis() error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Close(); err != nil {
		c.logger.Error("Failed to close redis client", zap.Error(err))
		return err
	}
	c.redis = nil
	c.logger.Info("Redis client closed")
	return nil
}

// Getters for accessing container components

// TxManager returns the transaction manager.
func (c *Container) TxManager() port.TransactionManager {
	return c.database.TxManager
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Mailer returns the outgoing mail sink.
func (c *Container) Mailer() port.Mailer {
	return c.mailer
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger is the key/value logger shape shared by the application packages
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// zapLoggerAdapter adapts zap.Logger to Logger.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

// NewLoggerAdapter wraps a zap logger for the application packages.
func NewLoggerAdapter(logger *zap.Logger) Logger {
	return &zapLoggerAdapter{logger: logger}
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
