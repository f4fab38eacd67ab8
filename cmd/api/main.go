package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/clubhub/internal/auth"
	"github.com/geocoder89/clubhub/internal/config"
	"github.com/geocoder89/clubhub/internal/db"
	"github.com/geocoder89/clubhub/internal/filestore"
	httpx "github.com/geocoder89/clubhub/internal/http"
	"github.com/geocoder89/clubhub/internal/http/handlers"
	"github.com/geocoder89/clubhub/internal/notifications"
	"github.com/geocoder89/clubhub/internal/observability"
	"github.com/geocoder89/clubhub/internal/receipt"
	"github.com/geocoder89/clubhub/internal/redisclient"
	"github.com/geocoder89/clubhub/internal/render"
	"github.com/geocoder89/clubhub/internal/repo/memory"
	"github.com/geocoder89/clubhub/internal/repo/mongodb"
	"github.com/geocoder89/clubhub/internal/repo/postgres"
	"github.com/geocoder89/clubhub/internal/services"
	"github.com/geocoder89/clubhub/internal/share"
)

type eventStore interface {
	services.EventStore
	Ping(ctx context.Context) error
}

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, "clubhub", cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(sctx)
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	ready := map[string]handlers.Pinger{}

	store, closeStore, err := openStore(ctx, cfg, prom)
	if err != nil {
		return err
	}
	defer closeStore()
	ready["events"] = store.Ping

	files, err := openFileStore(cfg)
	if err != nil {
		return err
	}

	var shares share.Store = share.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()

		shares = share.NewRedisStore(rdb)
		ready["redis"] = rdb.Ping
	} else {
		log.Warn("share links are kept in memory; they will not survive a restart")
	}

	issuer, err := receipt.NewIssuer(cfg.ReceiptNodeID)
	if err != nil {
		return err
	}

	renderer, err := render.New(render.NewChromePrinter(cfg.PDFTimeout))
	if err != nil {
		return fmt.Errorf("parse receipt templates: %w", err)
	}

	notifier := notifications.NewProtectedNotifier(newNotifier(cfg), notifications.ProtectedNotifierConfig{
		Timeout: 5 * time.Second,
	})

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	deps := httpx.Deps{
		Events:        services.NewEventService(store, prom),
		Registrations: services.NewRegistrationService(store, files, issuer, prom),
		Payments:      services.NewVerificationService(store, notifier, prom),
		Receipts: services.NewReceiptService(store, renderer, shares, services.ReceiptConfig{
			Issuer:        cfg.ReceiptIssuer,
			ShareTTL:      cfg.ShareTTL,
			PublicBaseURL: cfg.PublicBaseURL,
			CacheTTL:      cfg.RenderCacheTTL,
		}),
		Tokens:   tokens,
		Ready:    ready,
		Prom:     prom,
		Gatherer: reg,
	}
	if mem, ok := files.(*filestore.Memory); ok {
		deps.Files = mem
	}

	router := httpx.NewRouter(httpx.RouterConfig{
		Env:                cfg.Env,
		ServiceName:        "clubhub",
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (eventStore, func(), error) {
	switch cfg.StoreDriver {
	case "postgres", "":
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("db schema: %w", err)
		}
		return postgres.NewEventsRepo(pool, prom), pool.Close, nil

	case "mongo", "mongodb":
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		closeFn := func() {
			cctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = client.Disconnect(cctx)
		}

		repo := mongodb.NewEventsRepo(client.Database(cfg.MongoDB), prom)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return repo, closeFn, nil

	case "memory":
		return memory.NewEventsRepo(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q (postgres, mongodb or memory)", cfg.StoreDriver)
}

func openFileStore(cfg config.Config) (filestore.Store, error) {
	if cfg.CloudinaryURL == "" {
		slog.Warn("CLOUDINARY_URL not set; payment proofs are kept in memory")
		return filestore.NewMemory(cfg.PublicBaseURL), nil
	}

	cld, err := filestore.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return cld, nil
}

func newNotifier(cfg config.Config) notifications.Notifier {
	if cfg.MailProvider == "ses" {
		return notifications.NewSESNotifier(notifications.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			From:            cfg.MailFrom,
		})
	}
	return notifications.NewLogNotifier()
}
