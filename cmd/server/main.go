package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	agencyhandler "agencyhub/internal/agency/handler"
	agencymetrics "agencyhub/internal/agency/metrics"
	agencyservice "agencyhub/internal/agency/service"
	"agencyhub/internal/audit"
	authhandler "agencyhub/internal/auth/handler"
	authmetrics "agencyhub/internal/auth/metrics"
	authservice "agencyhub/internal/auth/service"
	"agencyhub/internal/auth/store/lockout"
	jwttoken "agencyhub/internal/jwt_token"
	"agencyhub/internal/platform/config"
	"agencyhub/internal/platform/httpserver"
	"agencyhub/internal/platform/kafka"
	"agencyhub/internal/platform/logger"
	platformmetrics "agencyhub/internal/platform/metrics"
	"agencyhub/internal/platform/redis"
	httptransport "agencyhub/internal/transport/http"
	"agencyhub/pkg/platform/circuit"
)

const (
	auditQueueSize     = 1024
	auditProbeInterval = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg, err := config.FromEnv()
	log := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	lockoutOpt, closeRedis, err := buildLockout(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	g, ctx := errgroup.WithContext(ctx)

	auditSink, closeAudit, err := buildAuditSink(ctx, cfg, log, g)
	if err != nil {
		return err
	}
	publisher := audit.NewPublisher(auditSink)

	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTTTL)
	authSvc := authservice.New(st.users, jwt,
		authservice.WithLogger(log),
		authservice.WithAuditPublisher(publisher),
		authservice.WithMetrics(authmetrics.New(nil)),
		lockoutOpt,
	)

	agencySvc := agencyservice.New(st.agencies, st.clients, st.analytics,
		agencyservice.WithLogger(log),
		agencyservice.WithAuditPublisher(publisher),
		agencyservice.WithMetrics(agencymetrics.New(nil)),
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Observer: platformmetrics.New(nil),
		Tokens:   jwttoken.NewJWTServiceAdapter(jwt, authSvc),
		Auth:     authhandler.New(authSvc, log),
		Agencies: agencyhandler.New(agencySvc, log),
	})

	servers := []*http.Server{httpserver.New(cfg.Addr, router)}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", platformmetrics.Handler())
		servers = append(servers, httpserver.New(cfg.MetricsAddr, mux))
	}

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			log.Info("listening", "addr", srv.Addr, "env", cfg.Environment, "store", cfg.StoreBackend)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		// in-flight requests are done; nothing publishes after this
		closeAudit()
		return errors.Join(errs...)
	})

	return g.Wait()
}

// buildAuditSink publishes audit events to Kafka through a background queue
// when brokers are configured, and to the log otherwise. A broker outage
// diverts events to the log until a probe succeeds. The returned close func
// stops intake; the worker then flushes the queue and exits.
func buildAuditSink(ctx context.Context, cfg config.Server, log *slog.Logger, g *errgroup.Group) (audit.Sink, func(), error) {
	client, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return audit.NewLogSink(log), func() {}, nil
	}
	log.Info("publishing audit events to kafka", "topic", client.Topic())

	queue := audit.NewQueue(auditQueueSize)
	sink := audit.NewFallbackSink(audit.NewKafkaSink(client), audit.NewLogSink(log),
		circuit.New("kafka-audit"), auditProbeInterval, log)
	worker := audit.NewWorker(sink, queue, log)
	g.Go(func() error {
		defer client.Close()
		// outlives the errgroup context so shutdown-time events still flush
		return worker.Run(context.WithoutCancel(ctx))
	})
	return queue, queue.Close, nil
}

// buildLockout keeps failed-login counters in Redis when configured so they
// are shared across instances.
func buildLockout(ctx context.Context, cfg config.Server, log *slog.Logger) (authservice.Option, func(), error) {
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return authservice.WithLockout(lockout.NewInMemory(), cfg.Lockout.MaxFailures, cfg.Lockout.Window), func() {}, nil
	}
	log.Info("using redis lockout store")
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error("failed to close redis", "error", err)
		}
	}
	return authservice.WithLockout(lockout.NewRedis(client.Client), cfg.Lockout.MaxFailures, cfg.Lockout.Window), closeFn, nil
}
