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
	"github.com/prometheus/client_golang/prometheus/collectors"
	rdb "github.com/redis/go-redis/v9"

	"github.com/vaweTech/authgate/internal/config"
	"github.com/vaweTech/authgate/internal/credentials"
	"github.com/vaweTech/authgate/internal/http/handlers"
	"github.com/vaweTech/authgate/internal/http/router"
	"github.com/vaweTech/authgate/internal/identity"
	"github.com/vaweTech/authgate/internal/metrics"
	"github.com/vaweTech/authgate/internal/oauth"
	"github.com/vaweTech/authgate/internal/observability/logger"
	"github.com/vaweTech/authgate/internal/rate"
	"github.com/vaweTech/authgate/internal/roles"
	memstore "github.com/vaweTech/authgate/internal/store/adapters/memory"
	mongostore "github.com/vaweTech/authgate/internal/store/adapters/mongo"
	pgstore "github.com/vaweTech/authgate/internal/store/adapters/pg"
	"github.com/vaweTech/authgate/internal/store/core"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logger is not up yet; stderr is all we have.
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "authgate",
		Version:     os.Getenv("SERVICE_VERSION"),
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if err := metrics.Register(registry); err != nil {
		log.Fatal("metrics registration failed", logger.Err(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, checks, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal("store init failed", logger.Err(err))
	}
	defer func() { _ = store.Close(context.Background()) }()

	limiter, rcheck := buildLimiter(cfg)
	if rcheck != nil {
		checks = append(checks, *rcheck)
	}

	// Credential + token minting pipeline for the REST fallbacks.
	creds := credentials.NewEnvFileProvider(cfg.Identity.ServiceAccountFile)
	minter := oauth.NewMinter(creds, cfg.Identity.ProjectID)
	if cfg.Identity.TokenURL != "" {
		minter.TokenURL = cfg.Identity.TokenURL
	}

	keys := identity.NewCertSource(cfg.Identity.CertURL)
	var lookup identity.AccountLookup
	if cfg.Identity.APIKey != "" {
		lookup = identity.NewLookupClient(cfg.Identity.LookupBaseURL, cfg.Identity.APIKey)
	}

	admins := cfg.AdminAllowlist()
	superadmins := cfg.SuperadminAllowlist()

	verifier := &identity.Verifier{
		Keys:        keys,
		Lookup:      lookup,
		Admins:      admins,
		Superadmins: superadmins,
		Production:  cfg.Production(),
		ProjectID:   cfg.Identity.ProjectID,
	}

	docs := roles.NewRESTDocumentClient(minter)
	if cfg.Identity.DocumentsBaseURL != "" {
		docs.BaseURL = cfg.Identity.DocumentsBaseURL
	}

	resolver := &roles.Resolver{
		Store:       store,
		Docs:        docs,
		Admins:      admins,
		Superadmins: superadmins,
		Production:  cfg.Production(),
	}

	handler := router.New(router.Deps{
		Config:   cfg,
		Verifier: verifier,
		Resolver: resolver,
		Store:    store,
		Limiter:  limiter,
		Registry: registry,
		Checks:   checks,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("server listening",
		logger.String("addr", cfg.Server.Addr),
		logger.String("env", cfg.App.Env),
		logger.String("storage", cfg.Storage.Driver),
		logger.Bool("rate_limiting", cfg.Rate.Enabled),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", logger.Err(err))
	}
	log.Info("server stopped")
}

// openStore builds the configured primary store plus its readiness check.
func openStore(ctx context.Context, cfg *config.Config) (core.UserStore, []handlers.ReadyCheck, error) {
	switch cfg.Storage.Driver {
	case "memory", "":
		return memstore.New(), nil, nil
	case "mongo":
		s, err := mongostore.New(ctx, cfg.Storage.Mongo.URI, cfg.Storage.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		return s, []handlers.ReadyCheck{{Name: "mongo", Check: s.Ping}}, nil
	case "postgres":
		s, err := pgstore.New(ctx, cfg.Storage.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, []handlers.ReadyCheck{{Name: "postgres", Check: s.Ping}}, nil
	default:
		return nil, nil, errors.New("unknown storage driver: " + cfg.Storage.Driver)
	}
}

// buildLimiter builds the rate-limiting backend. Returns a readiness check
// only for backends with an external dependency.
func buildLimiter(cfg *config.Config) (rate.Limiter, *handlers.ReadyCheck) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	if cfg.Rate.Backend == "redis" && cfg.Rate.Redis.Addr != "" {
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Rate.Redis.Addr,
			DB:   cfg.Rate.Redis.DB,
		})
		check := handlers.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}}
		return rate.NewRedisLimiter(client, cfg.Rate.Redis.Prefix), &check
	}
	return rate.NewMemoryLimiter(), nil
}
