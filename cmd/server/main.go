package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"craftgate/internal/audit"
	"craftgate/internal/auth"
	"craftgate/internal/directory"
	"craftgate/internal/jwttoken"
	"craftgate/internal/platform/config"
	"craftgate/internal/platform/httpserver"
	"craftgate/internal/platform/logger"
	"craftgate/internal/platform/metrics"
	"craftgate/internal/platform/redis"
	"craftgate/internal/profile"
	httptransport "craftgate/internal/transport/http"
	"craftgate/internal/xbl"
)

// main wires dependencies and owns the process lifecycle. Business
// logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Warn("redis not configured, login throttling disabled")
	}

	var (
		playerStore  auth.Store
		profileStore profile.Store
		serverStore  directory.Store
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		playerStore = auth.NewPostgresStore(db)
		profileStore = profile.NewPostgresStore(db)
		serverStore = directory.NewPostgresStore(db)
	} else {
		log.Warn("postgres not configured, using in-memory stores")
		playerStore = auth.NewMemoryStore()
		profileStore = profile.NewMemoryStore()
		serverStore = directory.NewMemoryStore()
	}

	var sink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		log.Warn("kafka not configured, audit events stay in memory")
		sink = audit.NewMemorySink()
	}
	auditlog := audit.NewPublisher(log)
	auditWorker := audit.NewWorker(auditlog, sink, log)

	m := metrics.New()
	if cfg.JWTSigningKey == "" {
		log.Warn("jwt signing key not configured, using the insecure development key")
		cfg.JWTSigningKey = config.DevSigningKey
	}
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "craftgate")

	flow := xbl.NewFlow(xbl.NewHTTPClient(), xbl.Config{
		TitleID:      cfg.Xbox.TitleID,
		RelyingParty: cfg.Xbox.RelyingParty,
		Scope:        cfg.Xbox.Scope,
	}, log)
	profSvc := profile.NewService(profileStore, flow, auditlog, m, log)

	dirSvc := directory.NewService(serverStore, profSvc, log)
	var throttleClient *auth.LoginThrottle
	if redisClient != nil {
		throttleClient = auth.NewLoginThrottle(redisClient.Client)
	}
	authSvc := auth.NewService(playerStore, tokens, throttleClient, dirSvc, auditlog, m, log)

	router := httptransport.NewRouter(log, httptransport.NewTokenValidator(tokens),
		[]httptransport.Registrar{httptransport.NewAuthHandler(authSvc)},
		[]httptransport.Registrar{
			httptransport.NewProfileHandler(profSvc, cfg.Xbox.AlivePeriod),
			httptransport.NewDirectoryHandler(dirSvc),
		},
	)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return httpserver.Shutdown(srv)
	})
	return g.Wait()
}
