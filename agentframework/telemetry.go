// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/SchwartzKamel/chatbot-template/agentframework"

// LoggingMiddleware returns an [AgentMiddleware] that logs agent runs using slog.
func LoggingMiddleware(logger *slog.Logger) AgentMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			start := time.Now()
			logger.InfoContext(ctx, "agent run started",
				"agent", req.AgentName,
				"message_count", len(req.Messages),
			)

			resp, err := next(ctx, req)

			duration := time.Since(start)
			if err != nil {
				logger.ErrorContext(ctx, "agent run failed",
					"agent", req.AgentName,
					"duration", duration,
					"error", err,
				)
				return nil, err
			}

			logger.InfoContext(ctx, "agent run completed",
				"agent", req.AgentName,
				"duration", duration,
				"response_messages", len(resp.Messages),
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
			)
			return resp, nil
		}
	}
}

// TracingMiddleware returns an [AgentMiddleware] that records one span per
// agent run on the global OpenTelemetry tracer provider.
func TracingMiddleware() AgentMiddleware {
	tracer := otel.Tracer(tracerName)
	return func(next AgentHandler) AgentHandler {
		return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
			ctx, span := tracer.Start(ctx, "agent.run",
				trace.WithAttributes(
					attribute.String("agent.name", req.AgentName),
					attribute.Int("agent.input_messages", len(req.Messages)),
				),
			)
			defer span.End()

			resp, err := next(ctx, req)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			span.SetAttributes(
				attribute.Int("agent.usage.input_tokens", resp.Usage.InputTokens),
				attribute.Int("agent.usage.output_tokens", resp.Usage.OutputTokens),
			)
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}
	}
}

// ToolTracingMiddleware returns a [FunctionMiddleware] recording one span
// per tool invocation.
func ToolTracingMiddleware() FunctionMiddleware {
	tracer := otel.Tracer(tracerName)
	return func(next FunctionHandler) FunctionHandler {
		return func(ctx context.Context, tool Tool, args json.RawMessage) (any, error) {
			ctx, span := tracer.Start(ctx, "tool.invoke",
				trace.WithAttributes(attribute.String("tool.name", tool.Name())),
			)
			defer span.End()

			result, err := next(ctx, tool, args)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			return result, err
		}
	}
}
