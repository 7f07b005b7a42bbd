// Copyright (c) Microsoft. All rights reserved.

// Command mafagent runs the configured agent on the in-repo agent framework
// against an Azure AI Foundry deployment, either as an interactive console
// or as a local HTTP server.
//
// Usage:
//
//	go run ./cmd/mafagent                      # chat with the Joker Agent
//	go run ./cmd/mafagent -agent weather_time
//	go run ./cmd/mafagent -serve -addr :8080   # dev server + /metrics + /mcp
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/agents"
	"github.com/SchwartzKamel/chatbot-template/internal/config"
	"github.com/SchwartzKamel/chatbot-template/internal/devui"
	"github.com/SchwartzKamel/chatbot-template/internal/logging"
	"github.com/SchwartzKamel/chatbot-template/internal/mafhost"
	"github.com/SchwartzKamel/chatbot-template/internal/mcpserver"
	"github.com/SchwartzKamel/chatbot-template/internal/telemetry"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

const version = "0.1.0"

// keyServeAPIKey optionally protects the invoke endpoint in -serve mode.
const keyServeAPIKey = "AGENT_API_KEY"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := config.Environ(".env")
	if err != nil {
		slog.Error("failed to read environment", "error", err)
		os.Exit(1)
	}

	err = run(ctx, os.Args[1:], env, agents.AzureClients(nil), os.Stdin, os.Stdout, os.Stderr)
	var missing *config.MissingError
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.As(err, &missing):
		slog.Error("missing required environment variables", "missing", missing.Missing)
		os.Exit(1)
	default:
		slog.Error("agent failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, env map[string]string, clients agents.ClientFactory, in io.Reader, out, logw io.Writer) error {
	fs := flag.NewFlagSet("mafagent", flag.ContinueOnError)
	fs.SetOutput(logw)
	variantName := fs.String("agent", string(agents.VariantJoker), "agent graph to run: orchestrator, weather_time or joker")
	serve := fs.Bool("serve", false, "run the HTTP dev server instead of the console")
	addr := fs.String("addr", "127.0.0.1:8080", "listen address in -serve mode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(env, config.ProfileFoundry)
	if err != nil {
		return err
	}
	logger := logging.New(cfg.Log, logw)
	slog.SetDefault(logger)

	shutdown, err := telemetry.SetupTracing(ctx, cfg.TracesExporter)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
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

	// ROOT_AGENT wins over the flag default but not over an explicit flag.
	name := *variantName
	if cfg.RootAgent != "" && !flagSet(fs, "agent") {
		name = cfg.RootAgent
	}
	variant, err := agents.ParseVariant(name, agents.VariantJoker)
	if err != nil {
		return err
	}
	m := agents.FoundryModel(cfg.Foundry)
	root := agents.Root(variant, m)

	metrics := telemetry.NewMetrics()
	host := &mafhost.Host{
		Clients: clients,
		Options: []af.AgentOption{
			af.WithAgentMiddleware(
				af.LoggingMiddleware(logger),
				af.TracingMiddleware(),
				metrics.AgentMiddleware(),
			),
			af.WithChatMiddleware(af.CircuitBreakerMiddleware(af.BreakerConfig{
				Name:        m.ID(),
				MaxFailures: cfg.Limits.BreakerFailures,
			}, logger)),
			af.WithFunctionMiddleware(
				af.ToolTracingMiddleware(),
				af.RateLimitMiddleware(cfg.Limits.Limiter()),
				metrics.FunctionMiddleware(),
			),
		},
	}
	agent, err := host.Bind(ctx, root, reg)
	if err != nil {
		return err
	}
	logger.Info(fmt.Sprintf("Starting %s...", agent.Name()), "variant", string(variant), "model", m)

	if *serve {
		srv, err := devui.New(mafhost.Flatten(agent),
			devui.WithLogger(logger),
			devui.WithAPIKey(env[keyServeAPIKey]),
			devui.WithHandler("GET /metrics", metrics.Handler()),
			devui.WithHandler("/mcp", mcpserver.HTTPHandler(mcpserver.New(reg, version))),
		)
		if err != nil {
			return err
		}
		logger.Info("dev server listening", "addr", *addr)
		return srv.ListenAndServe(ctx, *addr)
	}
	return chat(ctx, agent, in, out)
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// chat runs a console conversation until EOF, "quit" or "exit".
func chat(ctx context.Context, agent *af.Agent, in io.Reader, out io.Writer) error {
	session := agent.NewSession()
	fmt.Fprintf(out, "Chat with %s (type 'quit' to exit)\n\n", agent.Name())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			return nil
		}

		resp, err := agent.Run(ctx, []af.Message{af.NewUserMessage(input)}, af.WithSession(session))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.ErrorContext(ctx, "agent run failed", "error", err)
			fmt.Fprintln(out, "Error: the agent could not answer, see the log.")
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", agent.Name(), resp.Text())
		if resp.Usage.TotalTokens > 0 {
			fmt.Fprintf(out, "  [tokens: %d in, %d out]\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
		}
		fmt.Fprintln(out)
	}
}
