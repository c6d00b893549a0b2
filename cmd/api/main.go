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

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/bryanwahyu/compliance-copilot/internal/application"
	appai "github.com/bryanwahyu/compliance-copilot/internal/application/ai"
	appcompliance "github.com/bryanwahyu/compliance-copilot/internal/application/compliance"
	appcontract "github.com/bryanwahyu/compliance-copilot/internal/application/contract"
	apprevision "github.com/bryanwahyu/compliance-copilot/internal/application/revision"
	apprules "github.com/bryanwahyu/compliance-copilot/internal/application/rules"
	"github.com/bryanwahyu/compliance-copilot/internal/bootstrap"
	"github.com/bryanwahyu/compliance-copilot/internal/config"
	"github.com/bryanwahyu/compliance-copilot/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/compliance-copilot/internal/infra/storage"
	"github.com/bryanwahyu/compliance-copilot/internal/logger"
	"github.com/bryanwahyu/compliance-copilot/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		hclog.Default().Error("config load error", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Logger.Level, "compliance-copilot")
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log hclog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MongoURI != "" {
		log.Warn("MONGODB_URI is set but MongoDB is not supported; using the configured database driver", "driver", cfg.Database.Driver)
	}

	st, err := bootstrap.OpenStores(ctx, cfg, log.Named("db"))
	if err != nil {
		return err
	}
	defer st.Close()

	checkers := map[string]middleware.HealthChecker{}
	if st.DB != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: st.DB}
	}

	var archive appcompliance.DocumentArchive
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		archive = store
		checkers["storage"] = middleware.CheckFunc(store.Ping)
	}

	providers, reviewer := bootstrap.Providers(ctx, cfg, log.Named("ai"))
	chain := appai.NewService(log.Named("chain"), cfg.Analysis.Providers, providers)
	if len(chain.Providers()) == 0 {
		log.Warn("no AI providers configured; analyses will fail until a key is set")
	}

	cache, err := appcompliance.NewCache(cfg.Analysis.CacheSize)
	if err != nil {
		return err
	}
	clock := application.SystemClock{}
	rulesSvc := &apprules.Service{Repo: st.Rules, Clock: clock, Log: log.Named("rules")}
	revisions, err := apprevision.NewService(cfg.Analysis.SessionSize, clock, log.Named("revisions"))
	if err != nil {
		return err
	}

	contractSvc := &appcontract.Service{Log: log.Named("contract")}
	if reviewer != nil {
		contractSvc.Reviewer = reviewer
	}

	svc := httpserver.Services{
		Compliance: &appcompliance.Service{
			Analyzer: chain,
			Rules:    rulesSvc,
			Archive:  archive,
			Repo:     st.Analyses,
			Cache:    cache,
			Clock:    clock,
			Log:      log.Named("compliance"),
			KeyFunc:  minioStore.DocumentKey,
		},
		Rules:     rulesSvc,
		Contract:  contractSvc,
		Revisions: revisions,
	}

	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		APIKeys:        cfg.Server.APIKeys,
		RateLimiter:    middleware.NewRateLimiter(ctx, cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate),
		HealthCheckers: checkers,
		Providers:      chain.Providers(),
		Log:            log.Named("http"),
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // provider calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", addr, "providers", chain.Providers(), "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return err
	}
	log.Info("shutting down server...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	return srv.Shutdown(ctx2)
}
