// Copyright (c) Microsoft. All rights reserved.

package adkhost

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"

	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

// ErrUnsupportedTool is returned for registry entries whose argument type
// has no ADK binding.
var ErrUnsupportedTool = errors.New("tool has no ADK binding")

const tracerName = "github.com/SchwartzKamel/chatbot-template/internal/adkhost"

// Output is the structured tool response ADK hands back to the model. It
// carries the same fields as [tools.Result]'s wire form.
type Output struct {
	Status       string `json:"status"`
	Report       string `json:"report,omitempty"`
	Results      any    `json:"results,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func outputOf(r tools.Result) Output {
	switch v := r.(type) {
	case tools.Report:
		return Output{Status: string(tools.StatusSuccess), Report: v.Text}
	case tools.Found:
		return Output{Status: string(tools.StatusSuccess), Results: v.Results}
	case tools.Failure:
		return Output{Status: string(tools.StatusError), ErrorMessage: v.Message}
	default:
		return Output{Status: string(r.Status())}
	}
}

// Observer receives one observation per tool call.
type Observer interface {
	ObserveTool(name string, status tools.Status, d time.Duration)
}

// guard wraps every tool call with rate limiting, tracing, metrics and a
// debug log line.
type guard struct {
	limiter  *rate.Limiter
	observer Observer
	logger   *slog.Logger
	tracer   trace.Tracer
}

func (g *guard) run(ctx context.Context, name string, call func(context.Context) tools.Result) tools.Result {
	ctx, span := g.tracer.Start(ctx, "tool.invoke", trace.WithAttributes(attribute.String("tool.name", name)))
	defer span.End()

	start := time.Now()
	var res tools.Result
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			res = tools.Failf("Rate limit exceeded for %s: %v", name, err)
		}
	}
	if res == nil {
		res = call(ctx)
	}
	d := time.Since(start)

	span.SetAttributes(attribute.String("tool.status", string(res.Status())))
	if g.observer != nil {
		g.observer.ObserveTool(name, res.Status(), d)
	}
	g.logger.DebugContext(ctx, "tool call", "tool", name, "status", res.Status(), "duration", d)
	return res
}

// Tool binds a registry entry as an ADK function tool.
func (g *guard) Tool(e tools.Entry) (tool.Tool, error) {
	switch f := e.(type) {
	case *tools.Func[tools.CityArgs]:
		return bind(g, f)
	case *tools.Func[tools.SearchArgs]:
		return bind(g, f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTool, e.Name())
	}
}

func bind[Args any](g *guard, f *tools.Func[Args]) (tool.Tool, error) {
	return functiontool.New(
		functiontool.Config{Name: f.Name(), Description: f.Description()},
		func(ctx tool.Context, args Args) (Output, error) {
			res := g.run(ctx, f.Name(), func(ctx context.Context) tools.Result {
				return f.Handle(ctx, args)
			})
			return outputOf(res), nil
		},
	)
}

func newGuard(limiter *rate.Limiter, observer Observer, logger *slog.Logger) *guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &guard{
		limiter:  limiter,
		observer: observer,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
}
