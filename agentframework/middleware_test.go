// Copyright (c) Microsoft. All rights reserved.

package agentframework_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"golang.org/x/time/rate"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

func TestChainMiddleware_ExecutionOrder(t *testing.T) {
	var order []string

	mw := func(label string) af.AgentMiddleware {
		return func(next af.AgentHandler) af.AgentHandler {
			return func(ctx context.Context, req *af.AgentRequest) (*af.AgentResponse, error) {
				order = append(order, label+"-before")
				resp, err := next(ctx, req)
				order = append(order, label+"-after")
				return resp, err
			}
		}
	}

	agent := af.NewAgent(&mockClient{responseFn: reply("ok")}, af.WithAgentMiddleware(mw("mw1"), mw("mw2")))
	if _, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("hi")}); err != nil {
		t.Fatalf("run: %v", err)
	}

	expected := []string{"mw1-before", "mw2-before", "mw2-after", "mw1-after"}
	if len(order) != len(expected) {
		t.Fatalf("order = %v, want %v", order, expected)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, want %q", i, order[i], v)
		}
	}
}

func TestChatMiddleware_WrapsEveryModelCall(t *testing.T) {
	calls := 0
	counting := af.ChatMiddleware(func(next af.ChatHandler) af.ChatHandler {
		return func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			calls++
			return next(ctx, msgs, opts)
		}
	})

	rounds := 0
	client := &mockClient{
		responseFn: func(context.Context, []af.Message, *af.ChatOptions) (*af.ChatResponse, error) {
			rounds++
			if rounds == 1 {
				return callTool("c1", "echo", `{}`), nil
			}
			return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage("done")}}, nil
		},
	}
	echo := af.NewTool("echo", "", nil, func(context.Context, json.RawMessage) (any, error) { return "echoed", nil })

	agent := af.NewAgent(client, af.WithTools(echo), af.WithChatMiddleware(counting))
	if _, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("x")}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls != 2 {
		t.Errorf("chat middleware saw %d calls, want 2", calls)
	}
}

func TestFunctionMiddleware(t *testing.T) {
	var interceptedToolName string

	fnMw := af.FunctionMiddleware(func(next af.FunctionHandler) af.FunctionHandler {
		return func(ctx context.Context, tool af.Tool, args json.RawMessage) (any, error) {
			interceptedToolName = tool.Name()
			return next(ctx, tool, args)
		}
	})

	tool := af.NewTool("echo", "Echoes input", json.RawMessage(`{"type":"object"}`),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return "echoed", nil
		},
	)

	callCount := 0
	client := &mockClient{
		responseFn: func(ctx context.Context, msgs []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
			callCount++
			if callCount == 1 {
				return callTool("c1", "echo", `{}`), nil
			}
			return &af.ChatResponse{Messages: []af.Message{af.NewAssistantMessage("done")}}, nil
		},
	}

	agent := af.NewAgent(client, af.WithTools(tool), af.WithFunctionMiddleware(fnMw))
	if _, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("test")}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if interceptedToolName != "echo" {
		t.Errorf("intercepted tool = %q, want echo", interceptedToolName)
	}
}

func TestCircuitBreakerMiddleware_OpensAfterFailures(t *testing.T) {
	calls := 0
	failing := af.ChatHandler(func(context.Context, []af.Message, *af.ChatOptions) (*af.ChatResponse, error) {
		calls++
		return nil, &af.ServiceError{StatusCode: 503, Message: "down", Err: af.ErrService}
	})

	handler := af.CircuitBreakerMiddleware(af.BreakerConfig{
		Name:        "test",
		MaxFailures: 2,
		Timeout:     time.Hour,
	}, nil)(failing)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := handler(ctx, nil, nil); !errors.Is(err, af.ErrService) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}

	_, err := handler(ctx, nil, nil)
	if !errors.Is(err, af.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if calls != 2 {
		t.Errorf("backend called %d times, want 2", calls)
	}
}

func TestCircuitBreakerMiddleware_IgnoresInvalidRequests(t *testing.T) {
	calls := 0
	invalid := af.ChatHandler(func(context.Context, []af.Message, *af.ChatOptions) (*af.ChatResponse, error) {
		calls++
		return nil, &af.ServiceError{StatusCode: 400, Message: "bad", Err: af.ErrInvalidRequest}
	})

	handler := af.CircuitBreakerMiddleware(af.BreakerConfig{MaxFailures: 1, Timeout: time.Hour}, nil)(invalid)
	for i := 0; i < 3; i++ {
		if _, err := handler(context.Background(), nil, nil); !errors.Is(err, af.ErrInvalidRequest) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if calls != 3 {
		t.Errorf("backend called %d times, want 3", calls)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	tool := af.NewTool("t", "", nil, func(context.Context, json.RawMessage) (any, error) { return "ran", nil })
	next := af.FunctionHandler(func(ctx context.Context, tl af.Tool, args json.RawMessage) (any, error) {
		return tl.Invoke(ctx, args)
	})

	t.Run("unlimited", func(t *testing.T) {
		h := af.RateLimitMiddleware(rate.NewLimiter(rate.Inf, 0))(next)
		got, err := h(context.Background(), tool, nil)
		if err != nil || got != "ran" {
			t.Fatalf("got %v, %v", got, err)
		}
	})

	t.Run("nil limiter", func(t *testing.T) {
		h := af.RateLimitMiddleware(nil)(next)
		if _, err := h(context.Background(), tool, nil); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("refused", func(t *testing.T) {
		h := af.RateLimitMiddleware(rate.NewLimiter(1, 0))(next)
		_, err := h(context.Background(), tool, nil)
		if !errors.Is(err, af.ErrRateLimited) {
			t.Fatalf("err = %v, want ErrRateLimited", err)
		}
		var te *af.ToolError
		if !errors.As(err, &te) || te.ToolName != "t" {
			t.Errorf("ToolError = %+v", te)
		}
	})
}

func TestLoggingAndTracingMiddleware_PassThrough(t *testing.T) {
	agent := af.NewAgent(&mockClient{responseFn: reply("ok")},
		af.WithName("logged"),
		af.WithAgentMiddleware(af.LoggingMiddleware(nil), af.TracingMiddleware()),
		af.WithFunctionMiddleware(af.ToolTracingMiddleware()),
	)
	resp, err := agent.Run(context.Background(), []af.Message{af.NewUserMessage("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Text() != "ok" {
		t.Errorf("Text = %q", resp.Text())
	}
}
