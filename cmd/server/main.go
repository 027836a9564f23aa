package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	issuerhandler "worldpass/internal/issuer/handler"
	issuerservice "worldpass/internal/issuer/service"
	issuerstore "worldpass/internal/issuer/store"
	"worldpass/internal/platform/config"
	"worldpass/internal/platform/httpserver"
	"worldpass/internal/platform/logger"
	platformredis "worldpass/internal/platform/redis"
	"worldpass/internal/token"
	"worldpass/internal/vault"
	vchandler "worldpass/internal/vc/handler"
	"worldpass/internal/vc/metrics"
	vcservice "worldpass/internal/vc/service"
	credentialstore "worldpass/internal/vc/store/credential"
	"worldpass/internal/vc/store/nonce"
	"worldpass/internal/vc/store/status"
	audit "worldpass/pkg/platform/audit"
	auditkafka "worldpass/pkg/platform/audit/kafka"
	auditpublisher "worldpass/pkg/platform/audit/publisher"
	auditmemory "worldpass/pkg/platform/audit/store/memory"
	auditpostgres "worldpass/pkg/platform/audit/store/postgres"
	"worldpass/pkg/platform/httputil"
	adminmw "worldpass/pkg/platform/middleware/admin"
	"worldpass/pkg/platform/middleware/metadata"
	"worldpass/pkg/platform/middleware/requestid"
	"worldpass/pkg/platform/middleware/requesttime"
)

// noncePurger is satisfied by the nonce stores that need janitor sweeps.
// The Redis store relies on key TTLs instead and does not implement it.
type noncePurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// main wires storage, services, and transport, then runs the server until a
// shutdown signal. Business logic lives in the internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Typed as the interface so an unset vault stays a true nil and the
	// stores fall back to plaintext.
	var cipher credentialstore.Cipher
	if cfg.VaultSecret != "" {
		v, err := vault.New(cfg.VaultSecret)
		if err != nil {
			log.Error("vault init failed", "error", err)
			os.Exit(1)
		}
		cipher = v
	} else {
		log.Warn("credential vault disabled, storing payloads in plaintext")
	}

	var (
		nonceStore   vcservice.NonceStore
		statusStore  vcservice.StatusStore
		credStore    vcservice.CredentialStore
		issuerStore  issuerstore.Store
		auditStore   audit.Store
		nonceJanitor noncePurger
	)
	healthChecks := map[string]func(context.Context) error{}

	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}

		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("pgx pool init failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pgNonces := nonce.NewPostgres(pool)
		nonceStore = pgNonces
		nonceJanitor = pgNonces
		statusStore = status.NewPostgres(db)
		credStore = credentialstore.NewPostgres(db, cipher)
		issuerStore = issuerstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
		healthChecks["postgres"] = db.PingContext
		log.Info("using postgres-backed stores")
	} else {
		memNonces := nonce.NewInMemory()
		nonceStore = memNonces
		nonceJanitor = memNonces
		statusStore = status.NewInMemory()
		credStore = credentialstore.NewInMemory(cipher)
		issuerStore = issuerstore.NewInMemory()
		auditStore = auditmemory.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	if cfg.Redis.URL != "" {
		redisClient, err := platformredis.New(cfg.Redis)
		if err != nil {
			log.Error("redis init failed", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		nonceStore = nonce.NewRedis(redisClient.Client)
		nonceJanitor = nil
		healthChecks["redis"] = redisClient.Health
		log.Info("using redis nonce store")
	}

	auditSink := auditStore
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka audit init failed", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		if err := kafkaSink.EnsureTopic(ctx, 3); err != nil {
			log.Error("kafka topic setup failed", "error", err)
			os.Exit(1)
		}
		auditSink = kafkaSink
		log.Info("audit trail routed to kafka", "topic", cfg.Kafka.Topic)
	}

	publisher := auditpublisher.NewPublisher(auditSink,
		auditpublisher.WithAsyncBuffer(256),
		auditpublisher.WithLogger(log),
	)
	defer publisher.Close()

	vcMetrics := metrics.New()
	vcSvc := vcservice.New(nonceStore, statusStore, credStore,
		vcservice.WithLogger(log),
		vcservice.WithAuditPublisher(publisher),
		vcservice.WithMetrics(vcMetrics),
		vcservice.WithMaxChallengeTTL(cfg.NonceMaxTTL),
	)
	issuerSvc := issuerservice.New(issuerStore,
		issuerservice.WithLogger(log),
		issuerservice.WithAuditPublisher(publisher),
	)
	tokens := token.NewService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)

	vcHandler := vchandler.New(vcSvc, log)
	issuerHandler := issuerhandler.New(issuerSvc, vcSvc, log)

	router := chi.NewRouter()
	router.Use(requestid.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)

	router.Route("/v1", func(r chi.Router) {
		vcHandler.Register(r)
		issuerHandler.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdminToken(tokens, log))
			issuerHandler.RegisterAdmin(r)
		})
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		for name, check := range healthChecks {
			if err := check(r.Context()); err != nil {
				log.WarnContext(r.Context(), "health check failed", "component", name, "error", err)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":    "degraded",
					"component": name,
				})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting worldpass server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if nonceJanitor != nil {
		group.Go(func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-groupCtx.Done():
					return nil
				case <-ticker.C:
					purged, err := nonceJanitor.PurgeExpired(groupCtx, time.Now())
					if err != nil {
						log.Warn("nonce purge failed", "error", err)
						continue
					}
					if purged > 0 {
						log.Debug("purged expired nonces", "count", purged)
					}
				}
			}
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
