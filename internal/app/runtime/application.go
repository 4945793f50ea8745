// Package runtime wires configuration, storage, the application core
// and the HTTP stack into a runnable service.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	app "github.com/TylMus/tylmus-backend/internal/app"
	"github.com/TylMus/tylmus-backend/internal/app/httpapi"
	"github.com/TylMus/tylmus-backend/internal/app/storage/postgres"
	redisstore "github.com/TylMus/tylmus-backend/internal/app/storage/redis"
	"github.com/TylMus/tylmus-backend/internal/config"
	"github.com/TylMus/tylmus-backend/internal/logging"
	"github.com/TylMus/tylmus-backend/internal/middleware"
	"github.com/TylMus/tylmus-backend/internal/platform/migrations"
	"github.com/TylMus/tylmus-backend/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *http.Server
	db         *sqlx.DB
	redis      *redis.Client
}

// NewApplication constructs a new application instance with default
// wiring. An empty configPath falls back to the default location.
func NewApplication(configPath string) (*Application, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromPath(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	}).WithService("tylmus-backend")

	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	redisClient := buildRedis(cfg, log)
	if redisClient != nil {
		stores.Sessions = redisstore.NewSessionStore(redisClient, cfg.Redis.SessionTTLDuration())
	}

	application, err := app.New(stores, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	if cfg.Rotation.Enabled {
		if err := application.EnableRotation(cfg.Rotation.Schedule); err != nil {
			return nil, fmt.Errorf("enable rotation: %w", err)
		}
	} else {
		log.Warn("daily rotation disabled; puzzles generate lazily on first request")
	}

	admin := httpapi.AdminSettings{
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
		JWTSecret:    cfg.Admin.JWTSecret,
		TokenTTL:     cfg.Admin.TokenTTLDuration(),
		AuditLimit:   cfg.Admin.AuditLimit,
		AuditFile:    cfg.Admin.AuditFile,
	}
	if !admin.Enabled() {
		log.Warn("admin credentials not configured; admin API disabled")
	}

	handler := buildHandler(cfg, application, admin, log)

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpSrv,
		db:         db,
		redis:      redisClient,
	}, nil
}

// Run starts background services and the HTTP server, blocking until
// the context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server, background services and
// storage connections.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}

	return nil
}

func buildStores(cfg *config.Config, log *logger.Logger) (app.Stores, *sqlx.DB, error) {
	if cfg.Database.DSN == "" {
		log.Warn("DATABASE_URL not set; using in-memory stores")
		return app.Stores{}, nil, nil
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return app.Stores{}, nil, err
	}

	if err := migrations.Apply(context.Background(), db.DB); err != nil {
		db.Close()
		return app.Stores{}, nil, fmt.Errorf("apply migrations: %w", err)
	}

	store := postgres.New(db)
	return app.Stores{
		Categories: store,
		Puzzles:    store,
		Sessions:   store,
	}, db, nil
}

func openDatabase(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func buildRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable; falling back to primary session store")
		client.Close()
		return nil
	}

	log.WithField("addr", cfg.Redis.Addr).Info("redis session store enabled")
	return client
}

func buildHandler(cfg *config.Config, application *app.Application, admin httpapi.AdminSettings, log *logger.Logger) http.Handler {
	handler := httpapi.NewHandler(application, admin, log)

	reqLog := logging.New("http", cfg.Logging.Level, cfg.Logging.Format)

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, reqLog)
		limiter.StartCleanup(5 * time.Minute)
		handler = limiter.Handler(handler)
	}

	cors := middleware.NewCORSMiddleware(cfg.CORS.Origins())
	handler = cors.Handler(handler)

	tracing := middleware.NewTracingMiddleware(reqLog)
	return tracing.Handler(handler)
}
