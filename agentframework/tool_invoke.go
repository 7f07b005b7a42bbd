// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// InvocationConfig controls the function calling loop.
type InvocationConfig struct {
	// MaxIterations caps model round-trips per run. Default: 40.
	MaxIterations int

	// MaxConsecutiveErrors aborts the run after this many tool failures in a
	// row. Default: 3.
	MaxConsecutiveErrors int

	// TerminateOnUnknown aborts if the model calls a tool that is not offered.
	TerminateOnUnknown bool

	// IncludeDetailedErrors sends the tool error text back to the model
	// instead of a generic message.
	IncludeDetailedErrors bool
}

// DefaultInvocationConfig returns the default configuration.
func DefaultInvocationConfig() InvocationConfig {
	return InvocationConfig{
		MaxIterations:        40,
		MaxConsecutiveErrors: 3,
	}
}

func (c InvocationConfig) withDefaults() InvocationConfig {
	d := DefaultInvocationConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = d.MaxConsecutiveErrors
	}
	return c
}

// toolLoop calls the model, runs any requested tools through the function
// middleware chain, feeds the results back and repeats until the model
// answers without tool calls. The returned response carries every message
// produced during the loop and the summed usage.
type toolLoop struct {
	chat   ChatHandler
	invoke FunctionHandler
	config InvocationConfig
}

func newToolLoop(chat ChatHandler, fnMiddleware []FunctionMiddleware, config InvocationConfig) *toolLoop {
	return &toolLoop{
		chat:   chat,
		invoke: chainFunctionMiddleware(invokeTool, fnMiddleware...),
		config: config.withDefaults(),
	}
}

func invokeTool(ctx context.Context, t Tool, args json.RawMessage) (any, error) {
	return t.Invoke(ctx, args)
}

func (l *toolLoop) run(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error) {
	tools := make(map[string]Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		tools[t.Name()] = t
	}

	var (
		produced          []Message
		usage             UsageDetails
		consecutiveErrors int
	)

	for iteration := 0; iteration < l.config.MaxIterations; iteration++ {
		resp, err := l.chat(ctx, messages, opts)
		if err != nil {
			return nil, err
		}
		usage.Add(resp.Usage)
		produced = append(produced, resp.Messages...)

		var calls []*FunctionCallContent
		for i := range resp.Messages {
			calls = append(calls, resp.Messages[i].FunctionCalls()...)
		}
		if len(calls) == 0 {
			resp.Messages = produced
			resp.Usage = usage
			return resp, nil
		}

		var results []Message
		for _, call := range calls {
			tool, ok := tools[call.Name]
			if !ok {
				if l.config.TerminateOnUnknown {
					return nil, fmt.Errorf("%w: unknown tool %q", ErrToolExecution, call.Name)
				}
				slog.WarnContext(ctx, "unknown tool called", "tool", call.Name)
				results = append(results, NewToolMessage(call.CallID, "error: unknown tool"))
				consecutiveErrors++
				continue
			}
			if tool.DeclarationOnly() {
				resp.Messages = produced
				resp.Usage = usage
				return resp, nil
			}

			result, err := l.invoke(ctx, tool, json.RawMessage(call.Arguments))
			if err != nil {
				consecutiveErrors++
				slog.WarnContext(ctx, "tool invocation error",
					"tool", call.Name,
					"error", err,
					"consecutive_errors", consecutiveErrors,
				)
				if consecutiveErrors >= l.config.MaxConsecutiveErrors {
					return nil, fmt.Errorf("%w: max consecutive errors reached (%d)", ErrToolExecution, consecutiveErrors)
				}
				msg := "error invoking tool"
				if l.config.IncludeDetailedErrors {
					msg = err.Error()
				}
				results = append(results, NewToolMessage(call.CallID, msg))
				continue
			}

			consecutiveErrors = 0
			results = append(results, NewToolMessage(call.CallID, result))
		}

		messages = append(messages, resp.Messages...)
		messages = append(messages, results...)
		produced = append(produced, results...)
	}

	return nil, fmt.Errorf("%w: max iterations reached (%d)", ErrExecution, l.config.MaxIterations)
}
