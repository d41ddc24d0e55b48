package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/routine/internal/config"
	"github.com/MrSnakeDoc/routine/internal/httpserver"
	"github.com/MrSnakeDoc/routine/internal/httpserver/deps"
	"github.com/MrSnakeDoc/routine/internal/logger"
	"github.com/MrSnakeDoc/routine/internal/metrics"
	"github.com/MrSnakeDoc/routine/internal/redis"
	"github.com/MrSnakeDoc/routine/internal/routine"
	"github.com/MrSnakeDoc/routine/internal/scheduler"
	"github.com/MrSnakeDoc/routine/internal/sources/homepage"
	"github.com/MrSnakeDoc/routine/internal/store"
	"github.com/MrSnakeDoc/routine/internal/store/memory"
	"github.com/MrSnakeDoc/routine/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/routine/internal/store/redis"
	"github.com/MrSnakeDoc/routine/internal/store/sqlite"
	"github.com/MrSnakeDoc/routine/internal/utils"
	"github.com/MrSnakeDoc/routine/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	server   *httpserver.Server
	store    store.Store
	importer *scheduler.Importer // nil when no Homepage file is configured
	stats    *scheduler.StatsCollector
}

// New loads the configuration, opens the store and wires the HTTP server.
// Backend connection failures are returned; invalid configuration panics.
func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	m := metrics.New()

	st, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("store initialized", logger.String("backend", cfg.Store))

	svc := routine.NewService(st, loggerClient, m)

	if cfg.SeedDemo {
		n, err := svc.SeedDemo(context.Background())
		if err != nil {
			utils.MustClose(st, "store", loggerClient)
			return nil, fmt.Errorf("failed to seed demo items: %w", err)
		}
		if n > 0 {
			loggerClient.Info("seeded demo items", logger.Int("count", n))
		}
	}

	// Manual reload trigger, only when something can be imported
	var (
		importer      *scheduler.Importer
		reloadTrigger chan struct{}
	)
	if loaders := homepageLoaders(cfg, loggerClient); len(loaders) > 0 {
		reloadTrigger = make(chan struct{}, 1)
		importer = scheduler.NewImporter(loaders, svc, m, loggerClient, cfg.ImportInterval, reloadTrigger)
	} else {
		loggerClient.Info("no Homepage file configured, import disabled")
	}

	stats := scheduler.NewStatsCollector(svc, m, loggerClient, cfg.StatsInterval)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		RequestTimeout: cfg.RequestTimeout,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		RateBurst:      cfg.RateBurst,
		RatePerMin:     cfg.RatePerMin,
		StoreBackend:   cfg.Store,
		Items:          svc,
		Metrics:        m,
		ReloadTrigger:  reloadTrigger,
	}

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		server:   httpserver.New(cfg, loggerClient, d),
		store:    st,
		importer: importer,
		stats:    stats,
	}, nil
}

// openStore connects the configured backend. Redis and PostgreSQL wait for the server to answer.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Store, error) {
	opts := store.Options{}

	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using the in-memory store, items are lost on restart")
		return memory.New(opts), nil

	case config.StoreSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		st, err := sqlite.Open(cfg.SQLitePath, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return st, nil

	case config.StorePostgres:
		st, err := postgres.Open(ctx, cfg.PostgresDSN, opts, cfg.Retry(), log)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		return st, nil

	case config.StoreRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(ctx, redis.ConnectOptions{
			Addr:         cfg.RedisAddr,
			User:         cfg.RedisUser,
			Password:     cfg.RedisPassword,
			RedisDB:      cfg.RedisDB,
			DialTimeout:  cfg.RedisDT,
			ReadTimeout:  cfg.RedisRT,
			WriteTimeout: cfg.RedisWT,
			PoolSize:     cfg.RedisPoolSize,
			Retry:        cfg.Retry(),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client, opts), nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
}

func homepageLoaders(cfg *config.Config, log logger.Logger) []scheduler.Loader {
	var loaders []scheduler.Loader
	if cfg.ImportServicesFile != "" {
		log.Info("Homepage services import enabled", logger.String("file", cfg.ImportServicesFile))
		loaders = append(loaders, homepage.NewServicesSource(cfg.ImportServicesFile))
	}
	if cfg.ImportBookmarksFile != "" {
		log.Info("Homepage bookmarks import enabled", logger.String("file", cfg.ImportBookmarksFile))
		loaders = append(loaders, homepage.NewBookmarksSource(cfg.ImportBookmarksFile))
	}
	return loaders
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Routine %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Routine %s", version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer utils.MustClose(a.store, "store", a.logger)

	if a.importer != nil {
		a.importer.Start(ctx)
		a.logger.Info("importer started", logger.Duration("interval", a.cfg.ImportInterval))
	}
	a.stats.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	a.stats.Stop()

	if runErr != nil {
		return runErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Routine stopped cleanly")
	return nil
}
