package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskhub/internal/api"
	"github.com/phrazzld/taskhub/internal/config"
	"github.com/phrazzld/taskhub/internal/events"
	"github.com/phrazzld/taskhub/internal/platform/postgres"
	"github.com/phrazzld/taskhub/internal/realtime"
	"github.com/phrazzld/taskhub/internal/redact"
	"github.com/phrazzld/taskhub/internal/service"
	"github.com/phrazzld/taskhub/internal/service/auth"
	"github.com/phrazzld/taskhub/internal/worker"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// application holds the wired dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *realtime.Registry
	handler  http.Handler

	// Event ingress; all nil when no Redis address is configured.
	rdb        redis.UniversalClient
	queue      *worker.Queue
	pool       *worker.Pool
	subscriber *events.RedisSubscriber
}

// newApplication builds every component explicitly. Nothing is global.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{config: cfg, logger: log, db: db}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	notificationStore := postgres.NewPostgresNotificationStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)

	app.registry = realtime.NewRegistry()
	router := realtime.NewRouter(app.registry, log)

	notifications, err := service.NewNotificationService(notificationStore, userStore, db, router, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification service: %w", err)
	}
	roles := service.NewCachedRoleLookup(notifications,
		time.Duration(cfg.Auth.RoleCacheSeconds)*time.Second, log)

	handshake := realtime.NewHandshake(jwtService, roles, app.registry, log)
	gateway := realtime.NewGateway(handshake, app.registry, router, notifications, cfg.Realtime, log)

	app.handler = api.NewRouter(api.RouterDeps{
		Logger:        log,
		JWTService:    jwtService,
		Roles:         roles,
		Notifications: notifications,
		Pusher:        gateway,
		Announcer:     notifications,
		Gateway:       gateway,
		Stats:         app.registry,
		Ready:         db.PingContext,
	})

	if cfg.Events.RedisAddr != "" {
		if err := app.setupEvents(ctx, notifications, roles); err != nil {
			return nil, err
		}
	}

	log.Info("application initialized")
	return app, nil
}

// setupEvents connects to Redis and wires the subscriber through the worker
// pool to the role cache and the notification service.
func (app *application) setupEvents(
	ctx context.Context,
	notifications service.NotificationService,
	roles *service.CachedRoleLookup,
) error {
	cfg := app.config.Events

	app.rdb = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.rdb.Ping(pingCtx).Err(); err != nil {
		_ = app.rdb.Close()
		return fmt.Errorf("failed to connect to redis: %s", redact.Error(err))
	}

	emitter := events.NewInMemoryEventEmitter(app.logger)
	emitter.RegisterHandler(roles)
	emitter.RegisterHandler(service.NewNotificationEventHandler(notifications, app.logger))

	app.queue = worker.NewQueue(cfg.QueueSize, app.logger)
	app.pool = worker.NewPool(app.queue, worker.PoolConfig{WorkerCount: cfg.WorkerCount}, app.logger)
	app.pool.SetErrorHandler(func(job worker.Job, err error) {
		app.logger.Error("domain event handling failed",
			"job_id", job.ID(),
			"event_type", job.Type(),
			"error", err)
	})
	app.subscriber = events.NewRedisSubscriber(app.rdb, cfg.Channel, app.queue,
		events.HandlerFunc(emitter.EmitEvent), app.logger)

	app.logger.Info("domain event ingress configured",
		"channel", cfg.Channel,
		"workers", cfg.WorkerCount,
		"queue_size", cfg.QueueSize)
	return nil
}

// Run serves HTTP until ctx is cancelled or the server fails, then shuts
// everything down.
func (app *application) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked websocket connections are not closed by Shutdown.
	server.RegisterOnShutdown(app.closeConnections)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if app.pool != nil {
		app.pool.Start()
		go func() {
			if err := app.subscriber.Run(runCtx); err != nil {
				app.logger.Error("domain event subscription ended", "error", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("server error: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		runErr = errors.Join(runErr, fmt.Errorf("server shutdown failed: %w", err))
	}
	app.cleanup(shutdownCtx)

	app.logger.Info("server shutdown completed")
	return runErr
}

func (app *application) closeConnections() {
	conns := app.registry.AllConnections()
	for _, conn := range conns {
		_ = conn.Close()
	}
	app.logger.Info("closed websocket connections", "count", len(conns))
}

// cleanup stops the event pipeline. The database is closed by the caller.
func (app *application) cleanup(ctx context.Context) {
	if app.pool != nil {
		if err := app.pool.Stop(ctx); err != nil {
			app.logger.Error("worker pool did not drain", "error", err)
		}
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}
}
