// Copyright (c) Microsoft. All rights reserved.

// Command adkagent hands the configured agent graph to the Google ADK
// launcher (console, web UI or API server, selected by its arguments).
//
// Usage:
//
//	go run ./cmd/adkagent console
//	ROOT_AGENT=weather_time go run ./cmd/adkagent web api webui
//	METRICS_ADDR=:9464 go run ./cmd/adkagent console   # also serve /metrics
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/full"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/adkhost"
	"github.com/SchwartzKamel/chatbot-template/internal/agents"
	"github.com/SchwartzKamel/chatbot-template/internal/config"
	"github.com/SchwartzKamel/chatbot-template/internal/logging"
	"github.com/SchwartzKamel/chatbot-template/internal/telemetry"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
	"github.com/SchwartzKamel/chatbot-template/openai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := config.Environ(".env")
	if err != nil {
		slog.Error("failed to read environment", "error", err)
		os.Exit(1)
	}

	app, err := build(ctx, env, os.Stderr)
	if err != nil {
		var missing *config.MissingError
		if errors.As(err, &missing) {
			slog.Error("missing required environment variables", "missing", missing.Missing)
		} else {
			slog.Error("startup failed", "error", err)
		}
		os.Exit(1)
	}
	defer func() {
		if err := app.shutdown(context.Background()); err != nil {
			app.logger.Warn("tracer shutdown failed", "error", err)
		}
	}()
	if app.metricsAddr != "" {
		srv := serveMetrics(app.metricsAddr, app.metrics.Handler(), app.logger)
		defer srv.Shutdown(context.Background())
	}

	l := full.NewLauncher()
	cfg := &launcher.Config{AgentLoader: agent.NewSingleLoader(app.root)}
	if err := l.Execute(ctx, cfg, os.Args[1:]); err != nil {
		app.logger.Error("run failed", "error", err, "usage", l.CommandLineSyntax())
		os.Exit(1)
	}
}

// setupTracing is replaced in tests.
var setupTracing = telemetry.SetupTracing

type app struct {
	logger      *slog.Logger
	root        agent.Agent
	metrics     *telemetry.Metrics
	metricsAddr string
	shutdown    func(context.Context) error
}

// build validates env and binds the selected agent graph. Nothing is sent
// to the model until the launcher runs. The tracer is shut down again if
// anything after its setup fails.
func build(ctx context.Context, env map[string]string, logw io.Writer) (_ *app, err error) {
	cfg, err := config.Load(env, config.ProfileADK)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, logw)
	slog.SetDefault(logger)

	shutdown, err := setupTracing(ctx, cfg.TracesExporter)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err == nil {
			return
		}
		if serr := shutdown(context.Background()); serr != nil {
			logger.Warn("tracer shutdown failed", "error", serr)
		}
	}()
	logger.Info("configuration loaded", cfg.LogAttrs()...)

	search := tools.NewSearchClient(cfg.Context7.APIKey,
		tools.WithSearchURL(cfg.Context7.BaseURL),
		tools.WithSearchLogger(logger),
	)
	if cfg.Context7.Probe {
		search.Probe(ctx)
	}
	reg := tools.Default(search, time.Now)

	variant, err := agents.ParseVariant(cfg.RootAgent, agents.VariantOrchestrator)
	if err != nil {
		return nil, err
	}
	m := agents.AzureModel(cfg.Azure)
	root := agents.Root(variant, m)

	clients := agents.AzureClients(nil, openai.WithChatMiddleware(
		af.CircuitBreakerMiddleware(af.BreakerConfig{Name: m.ID(), MaxFailures: cfg.Limits.BreakerFailures}, logger),
	))
	metrics := telemetry.NewMetrics()
	host := &adkhost.Host{
		Models:   adkhost.Models(clients),
		Limiter:  cfg.Limits.Limiter(),
		Observer: metrics,
		Logger:   logger,
	}
	a, err := host.Bind(ctx, root, reg)
	if err != nil {
		return nil, err
	}
	logger.Info("agent ready", "root", a.Name(), "variant", string(variant), "model", m)
	return &app{
		logger:      logger,
		root:        a,
		metrics:     metrics,
		metricsAddr: cfg.MetricsAddr,
		shutdown:    shutdown,
	}, nil
}

// serveMetrics exposes h at GET /metrics on addr in the background; the
// ADK launcher owns the main listener.
func serveMetrics(addr string, h http.Handler, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("metrics listening", "addr", addr)
	return srv
}
