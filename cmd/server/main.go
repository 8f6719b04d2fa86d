package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/notifyhub/jf-pushover-webhook/internal/api"
	"github.com/notifyhub/jf-pushover-webhook/internal/config"
	"github.com/notifyhub/jf-pushover-webhook/internal/fetcher"
	"github.com/notifyhub/jf-pushover-webhook/internal/metrics"
	"github.com/notifyhub/jf-pushover-webhook/internal/provider"
	"github.com/notifyhub/jf-pushover-webhook/internal/service"
	"github.com/notifyhub/jf-pushover-webhook/internal/tracing"
)

const serviceName = "jf-pushover-webhook"

type args struct {
	EnvFile  string `arg:"--env-file,env:ENV_FILE" help:"dotenv file to load before reading the environment (default ./.env when present)"`
	PrintEnv bool   `arg:"--print-env" help:"print the supported environment variables and exit"`
}

func (args) Description() string {
	return "Relays generic and Jellyfin webhooks to Pushover."
}

func main() {
	var a args
	arg.MustParse(&a)

	if a.PrintEnv {
		desc, err := config.Describe()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(desc)
		return
	}

	bootLogger, _ := zap.NewProduction()

	// ---- configuration ----
	if err := config.LoadDotEnv(a.EnvFile); err != nil {
		bootLogger.Fatal("failed to load env file", zap.Error(err))
	}
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLogger.Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped cleanly")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- tracing ----
	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	prov := provider.NewPushoverProvider(provider.PushoverConfig{
		APIURL:  cfg.PushoverAPIURL,
		Token:   cfg.PushoverAPIToken,
		User:    cfg.PushoverUserKey,
		Timeout: cfg.RequestTimeout.Std(),
		Breaker: provider.DefaultBreakerConfig("pushover"),
	}, client, logger)
	images := fetcher.NewImageFetcher(client, cfg.RequestTimeout.Std())

	onSent, onFailed, onImage := m.RelayHooks()
	relay := service.NewRelayService(prov, images, service.Hooks{
		OnSent:   onSent,
		OnFailed: onFailed,
		OnImage:  onImage,
	}, logger)

	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		logger.Warn("pushover credentials missing, sends will fail with 503", zap.Strings("missing", missing))
	}
	if cfg.AuthToken == "" {
		logger.Warn("AUTH_TOKEN not set: /webhook is open and /jf-pushover-webhook rejects every request")
	}

	// ---- HTTP server ----
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(cfg, relay, prov, m, reg, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Duration("request_timeout", cfg.RequestTimeout.Std()),
			zap.Bool("tracing", cfg.OTLPEndpoint != ""))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// ---- graceful shutdown ----
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		// 1. Stop accepting new HTTP requests and drain in-flight relays.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}
		// 2. Flush pending spans.
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}
