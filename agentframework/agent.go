// Copyright (c) Microsoft. All rights reserved.

package agentframework

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Agent is a conversational agent composing a [ChatClient] with tools,
// sub-agents and middleware.
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("assistant"),
//	    agentframework.WithInstructions("You are helpful."),
//	    agentframework.WithTools(weatherTool),
//	)
type Agent struct {
	id                 string
	name               string
	description        string
	client             ChatClient
	instructions       string
	tools              []Tool
	subAgents          []*Agent
	defaultOptions     *ChatOptions
	agentMiddleware    []AgentMiddleware
	chatMiddleware     []ChatMiddleware
	functionMiddleware []FunctionMiddleware
	invocationConfig   InvocationConfig
}

// AgentOption configures an [Agent] via [NewAgent].
type AgentOption func(*Agent)

func WithName(name string) AgentOption {
	return func(a *Agent) { a.name = name }
}

func WithDescription(desc string) AgentOption {
	return func(a *Agent) { a.description = desc }
}

// WithInstructions sets the system instructions for the agent.
func WithInstructions(instructions string) AgentOption {
	return func(a *Agent) { a.instructions = instructions }
}

// WithTools adds tools to the agent's default tool set.
func WithTools(tools ...Tool) AgentOption {
	return func(a *Agent) { a.tools = append(a.tools, tools...) }
}

// WithSubAgents registers agents this agent may delegate to. Each one is
// offered to the model as a tool named after the sub-agent.
func WithSubAgents(agents ...*Agent) AgentOption {
	return func(a *Agent) { a.subAgents = append(a.subAgents, agents...) }
}

// WithDefaultOptions sets default [ChatOptions] for all requests.
func WithDefaultOptions(opts *ChatOptions) AgentOption {
	return func(a *Agent) { a.defaultOptions = opts }
}

func WithAgentMiddleware(mws ...AgentMiddleware) AgentOption {
	return func(a *Agent) { a.agentMiddleware = append(a.agentMiddleware, mws...) }
}

// WithChatMiddleware adds [ChatMiddleware] around every model call the
// agent makes, including each round of the tool loop.
func WithChatMiddleware(mws ...ChatMiddleware) AgentOption {
	return func(a *Agent) { a.chatMiddleware = append(a.chatMiddleware, mws...) }
}

func WithFunctionMiddleware(mws ...FunctionMiddleware) AgentOption {
	return func(a *Agent) { a.functionMiddleware = append(a.functionMiddleware, mws...) }
}

// WithInvocationConfig overrides the default [InvocationConfig].
func WithInvocationConfig(cfg InvocationConfig) AgentOption {
	return func(a *Agent) { a.invocationConfig = cfg }
}

// NewAgent creates an Agent with the given [ChatClient] and options.
func NewAgent(client ChatClient, opts ...AgentOption) *Agent {
	a := &Agent{
		id:               uuid.NewString(),
		client:           client,
		invocationConfig: DefaultInvocationConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) ID() string          { return a.id }
func (a *Agent) Name() string        { return a.name }
func (a *Agent) Description() string { return a.description }

// Instructions returns the agent's system instructions.
func (a *Agent) Instructions() string { return a.instructions }

// Tools returns the agent's own tools, excluding sub-agent delegates.
func (a *Agent) Tools() []Tool { return a.tools }

// SubAgents returns the agents this agent may delegate to.
func (a *Agent) SubAgents() []*Agent { return a.subAgents }

// RunOption configures a single [Agent.Run] call.
type RunOption func(*runConfig)

type runConfig struct {
	session *Session
	tools   []Tool
	options *ChatOptions
}

// WithSession attaches a [Session] for multi-turn conversation.
func WithSession(s *Session) RunOption {
	return func(c *runConfig) { c.session = s }
}

// WithRunTools adds per-call tools on top of the agent defaults.
func WithRunTools(tools ...Tool) RunOption {
	return func(c *runConfig) { c.tools = tools }
}

// WithRunOptions provides per-call [ChatOptions] overrides.
func WithRunOptions(opts *ChatOptions) RunOption {
	return func(c *runConfig) { c.options = opts }
}

// Run sends messages to the agent and returns the complete response.
func (a *Agent) Run(ctx context.Context, messages []Message, opts ...RunOption) (*AgentResponse, error) {
	cfg := &runConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := chainAgentMiddleware(a.buildHandler(cfg), a.agentMiddleware...)
	return handler(ctx, &AgentRequest{
		AgentName: a.name,
		Messages:  messages,
		Session:   cfg.session,
		Options:   cfg.options,
	})
}

// NewSession creates a [Session] backed by an in-memory store.
func (a *Agent) NewSession() *Session {
	return NewSession()
}

// AsTool exposes the agent as a tool taking a single request string and
// returning the agent's final text.
func (a *Agent) AsTool() Tool {
	return NewTypedTool(ToolName(a.name), a.description,
		func(ctx context.Context, args delegateArgs) (any, error) {
			resp, err := a.Run(ctx, []Message{NewUserMessage(args.Request)})
			if err != nil {
				return nil, &ToolError{ToolName: a.name, Message: err.Error(), Err: err}
			}
			return resp.Text(), nil
		},
	)
}

type delegateArgs struct {
	Request string `json:"request" jsonschema:"The task or question to hand to this agent."`
}

// ToolName maps an agent name onto the function-name alphabet accepted by
// chat completion APIs.
func ToolName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, name)
}

func (a *Agent) prepareChatOptions(cfg *runConfig) *ChatOptions {
	opts := MergeChatOptions(a.defaultOptions, cfg.options)

	tools := make([]Tool, 0, len(a.tools)+len(a.subAgents)+len(cfg.tools))
	tools = append(tools, a.tools...)
	for _, sub := range a.subAgents {
		tools = append(tools, sub.AsTool())
	}
	tools = append(tools, cfg.tools...)
	if len(tools) > 0 {
		opts.Tools = mergeTools(opts.Tools, tools)
	}

	opts.Instructions = joinInstructions(a.instructions, opts.Instructions)
	return opts
}

func (a *Agent) buildHandler(cfg *runConfig) AgentHandler {
	chat := chainChatMiddleware(a.client.Response, a.chatMiddleware...)

	return func(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
		chatOpts := a.prepareChatOptions(cfg)

		var all []Message
		if req.Session != nil {
			history, err := req.Session.history(ctx)
			if err != nil {
				return nil, err
			}
			all = append(all, history...)
		}
		all = append(all, req.Messages...)
		all = PrependInstructions(all, chatOpts.Instructions)

		slog.DebugContext(ctx, "agent run",
			"agent_id", a.id,
			"agent_name", a.name,
			"message_count", len(all),
			"tool_count", len(chatOpts.Tools),
		)

		var (
			resp *ChatResponse
			err  error
		)
		if len(chatOpts.Tools) > 0 {
			resp, err = newToolLoop(chat, a.functionMiddleware, a.invocationConfig).run(ctx, all, chatOpts)
		} else {
			resp, err = chat(ctx, all, chatOpts)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecution, err)
		}

		if req.Session != nil {
			if err := req.Session.record(ctx, req.Messages, resp.Messages); err != nil {
				slog.WarnContext(ctx, "failed to update session", "error", err)
			}
		}

		return &AgentResponse{
			Messages:   resp.Messages,
			ResponseID: resp.ResponseID,
			AgentID:    a.id,
			AgentName:  a.name,
			Usage:      resp.Usage,
		}, nil
	}
}
