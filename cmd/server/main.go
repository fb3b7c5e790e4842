// Command server runs the citizen welfare portal API.
//
// All backing services are optional: without DATABASE_URL the portal runs on
// in-memory stores, without REDIS_URL profile reads skip the cache, without
// S3_BUCKET files stay in process memory, and without KAFKA_BROKERS audit
// events do too. A bare `go run ./cmd/server` therefore gives a working
// single-process portal for development.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"seva/internal/application"
	applicationhandler "seva/internal/application/handler"
	"seva/internal/assistant"
	assistanthandler "seva/internal/assistant/handler"
	"seva/internal/audit"
	"seva/internal/auth"
	authhandler "seva/internal/auth/handler"
	"seva/internal/document"
	documenthandler "seva/internal/document/handler"
	"seva/internal/document/storage"
	sevahttp "seva/internal/http"
	"seva/internal/platform/config"
	"seva/internal/platform/httpserver"
	"seva/internal/platform/logger"
	"seva/internal/platform/metrics"
	"seva/internal/platform/postgres"
	"seva/internal/platform/redis"
	"seva/internal/profile"
	profilehandler "seva/internal/profile/handler"
	"seva/internal/scheme"
	schemehandler "seva/internal/scheme/handler"
	"seva/internal/verification"
)

func main() {
	log := logger.New()

	if err := run(log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	m := metrics.New()

	catalog, err := scheme.LoadCatalog()
	if err != nil {
		return err
	}

	// Stores: postgres when configured, in-memory otherwise.
	var (
		userStore auth.Store        = auth.NewInMemoryStore()
		profStore profile.Store     = profile.NewInMemoryStore()
		docStore  document.Store    = document.NewInMemoryStore()
		appStore  application.Store = application.NewInMemoryStore()
	)
	if cfg.Postgres.URL != "" {
		pool, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		userStore = auth.NewPostgresStore(pool)
		profStore = profile.NewPostgresStore(pool)
		docStore = document.NewPostgresStore(pool)
		appStore = application.NewPostgresStore(pool)
		log.Info("using postgres stores")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	var profCache profile.Cache
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		profCache = profile.NewRedisCache(redisClient, cfg.Redis.ProfileTTL)
		log.Info("profile cache enabled")
	}

	var blobs storage.BlobStore = storage.NewInMemoryBlobStore()
	if cfg.S3.Bucket != "" {
		s3Store, err := storage.NewS3BlobStore(ctx, cfg.S3.Bucket, cfg.S3.Region)
		if err != nil {
			return err
		}
		blobs = s3Store
		log.Info("using s3 blob storage", "bucket", cfg.S3.Bucket)
	} else {
		log.Warn("S3_BUCKET not set, keeping uploads in memory")
	}

	var auditSink audit.Sink = audit.NewInMemorySink()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
		log.Info("audit events flowing to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	auditor := audit.NewPublisher(log)
	auditWorker := audit.NewWorker(auditor, auditSink, log)

	// Services.
	tokens := auth.NewTokenService(cfg.Auth)
	profileSvc := profile.NewService(profStore, profCache, auditor, m, log)
	authSvc := auth.NewService(userStore, tokens, profileSvc, auditor, m, log)

	verifier := verification.NewClient(cfg.Verifier)
	docSvc := document.NewService(docStore, blobs, verifier, auditor, m, log, cfg.Upload.MaxBytes)
	dispatcher := verification.NewDispatcher(verifier, docSvc, m, log, cfg.Verifier.Timeout)
	docSvc.SetDispatcher(dispatcher)

	appSvc := application.NewService(appStore, catalog, docSvc, auditor, m, log)

	var completer assistant.Completer
	if cfg.Assistant.BaseURL != "" {
		completer = assistant.NewClient(cfg.Assistant)
	}
	assistantSvc := assistant.NewService(completer, auditor, log)

	appHandler := applicationhandler.New(appSvc, log)
	docHandler := documenthandler.New(docSvc, log)
	router := sevahttp.NewRouter(sevahttp.Handlers{
		Auth:            authhandler.New(authSvc, log),
		Profile:         profilehandler.New(profileSvc, log),
		Scheme:          schemehandler.New(catalog, profileSvc, m, log),
		Document:        docHandler,
		Application:     appHandler,
		Assistant:       assistanthandler.New(assistantSvc, log),
		VerifyRegistrar: docHandler,
		AdminRegistrar:  appHandler,
	}, tokens, m, log)

	srv := httpserver.New(cfg.Server, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return auditWorker.Run(ctx)
	})
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
