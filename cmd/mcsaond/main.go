package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	api "github.com/mind-engage/mindengage-mcsaon/internal/api/http"
	auth "github.com/mind-engage/mindengage-mcsaon/internal/auth/middleware"
	"github.com/mind-engage/mindengage-mcsaon/internal/bank"
	"github.com/mind-engage/mindengage-mcsaon/internal/config"
	"github.com/mind-engage/mindengage-mcsaon/internal/db"
	"github.com/mind-engage/mindengage-mcsaon/internal/eventlog"
	"github.com/mind-engage/mindengage-mcsaon/internal/logger"
	"github.com/mind-engage/mindengage-mcsaon/internal/metrics"
	"github.com/mind-engage/mindengage-mcsaon/internal/restore"
	"github.com/mind-engage/mindengage-mcsaon/internal/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()
	var store bank.Store = bank.NewSQLStore(dbh, cfg.DBDriver)

	// --- Cache (optional) ---
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, cache will fall through", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		store = bank.NewCachedStore(store, bank.NewRedisCache(rdb), cfg.CacheTTL, log)
		defer rdb.Close()
	}

	// --- Blob store ---
	var bs storage.BlobStore
	switch cfg.BlobDriver {
	case "minio":
		bs, err = storage.NewMinioStore(ctx, storage.MinioOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Secure:    cfg.MinioSecure,
		})
	default:
		bs, err = storage.NewFSStore(cfg.BlobBasePath)
	}
	if err != nil {
		log.Fatal("blob store", zap.String("driver", cfg.BlobDriver), zap.Error(err))
	}

	m := metrics.New()
	events := eventlog.NewRepo(dbh)
	svc := bank.NewService(store, nil, log, m).WithEvents(events)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	h := api.NewRouter(api.Deps{
		Service:     svc,
		Restorer:    restore.NewRestorer(store, log),
		Auth:        authSvc,
		Accounts:    []auth.Account{{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash, Role: "admin"}},
		Blobs:       bs,
		Events:      events,
		Metrics:     m,
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		LoginRate:   cfg.LoginRate,
		Ready: func(ctx context.Context) error {
			if err := dbh.PingContext(ctx); err != nil {
				return fmt.Errorf("db: %w", err)
			}
			if rdb != nil {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis: %w", err)
				}
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("mcsaond listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver), zap.String("blob", cfg.BlobDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("mcsaond stopped")
}
