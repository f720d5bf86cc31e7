// indieauthd is the IndieAuth authorization and token server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/janboddez/indieauth/internal/cache"
	cachememory "github.com/janboddez/indieauth/internal/cache/memory"
	cacheredis "github.com/janboddez/indieauth/internal/cache/redis"
	"github.com/janboddez/indieauth/internal/config"
	"github.com/janboddez/indieauth/internal/discovery"
	ctrl "github.com/janboddez/indieauth/internal/http/controllers/indieauth"
	"github.com/janboddez/indieauth/internal/http/router"
	svc "github.com/janboddez/indieauth/internal/http/services/indieauth"
	"github.com/janboddez/indieauth/internal/metrics"
	"github.com/janboddez/indieauth/internal/objstore"
	"github.com/janboddez/indieauth/internal/objstore/disk"
	"github.com/janboddez/indieauth/internal/objstore/s3"
	"github.com/janboddez/indieauth/internal/observability/logger"
	"github.com/janboddez/indieauth/internal/store"
	storememory "github.com/janboddez/indieauth/internal/store/memory"
	"github.com/janboddez/indieauth/internal/store/pg"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("INDIEAUTH_CONFIG", "config.yaml"), "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Init(logger.Config{})
		logger.L().Fatal("configuration load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.Log.Env,
		Level:       cfg.Log.Level,
		ServiceName: "indieauthd",
		Version:     version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L().With(logger.Component("main"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	c := buildCache(cfg, log)
	objects := buildObjectStore(cfg, log)
	tokenStore, users := buildStores(ctx, cfg, log)

	resolver := discovery.New(c, objects, cfg.Discovery.Timeout, cfg.Discovery.ThumbnailSize)

	services := svc.New(svc.Deps{
		Cache:    c,
		Tokens:   tokenStore,
		Users:    users,
		Resolver: resolver,
		Issuer:   cfg.Server.BaseURL,
	})
	controllers := ctrl.New(services, ctrl.HeaderCurrentUser{Header: cfg.Auth.UserHeader})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.New(router.Deps{Controllers: controllers}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("issuer", cfg.Server.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logger.Err(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", logger.Err(err))
	}
}

func buildCache(cfg *config.Config, log *zap.Logger) cache.Cache {
	switch cfg.Cache.Kind {
	case "redis":
		rc := cacheredis.New(cfg.Cache.Redis.Addr, cfg.Cache.Redis.DB, cfg.Cache.Redis.Prefix)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			log.Fatal("redis unreachable", logger.Err(err))
		}
		return rc
	default:
		return cachememory.New(cfg.Cache.Memory.DefaultTTL)
	}
}

func buildObjectStore(cfg *config.Config, log *zap.Logger) objstore.Store {
	switch cfg.ObjectStore.Driver {
	case "s3":
		st, err := s3.New(s3.Config{
			Endpoint:  cfg.ObjectStore.S3.Endpoint,
			Region:    cfg.ObjectStore.S3.Region,
			Bucket:    cfg.ObjectStore.S3.Bucket,
			AccessKey: cfg.ObjectStore.S3.AccessKey,
			SecretKey: cfg.ObjectStore.S3.SecretKey,
			Secure:    cfg.ObjectStore.S3.Secure,
			BaseURL:   cfg.ObjectStore.S3.BaseURL,
		})
		if err != nil {
			log.Fatal("object store init failed", logger.Err(err))
		}
		return st
	default:
		return disk.New(cfg.ObjectStore.Disk.Root, cfg.ObjectStore.Disk.BaseURL)
	}
}

func buildStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.TokenStore, store.UserDirectory) {
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pg.Connect(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			log.Fatal("postgres connection failed", logger.Err(err))
		}
		return pg.NewTokenStore(pool), pg.NewUserDirectory(pool)
	default:
		log.Warn("using in-memory storage, tokens will not survive restarts")
		return storememory.NewTokenStore(), storememory.NewUserDirectory()
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
