// Copyright (c) Microsoft. All rights reserved.

// Package adkhost runs agent descriptors on the Google Agent Development
// Kit. Every descriptor becomes an llmagent; registry entries become
// function tools and sub-agents stay ADK sub-agents.
package adkhost

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/agents"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

// ModelFactory returns the ADK model serving a descriptor's model.
type ModelFactory func(agents.Model) (model.LLM, error)

// Models adapts a chat client factory. One [Model] is created per model ID
// and shared by every agent that references it.
func Models(clients agents.ClientFactory) ModelFactory {
	var (
		mu    sync.Mutex
		cache = make(map[string]model.LLM)
	)
	return func(m agents.Model) (model.LLM, error) {
		mu.Lock()
		defer mu.Unlock()
		if llm, ok := cache[m.ID()]; ok {
			return llm, nil
		}
		client, err := clients(m)
		if err != nil {
			return nil, err
		}
		llm := NewModel(m.ID(), client)
		cache[m.ID()] = llm
		return llm, nil
	}
}

// Host binds descriptors into ADK agents.
type Host struct {
	Models ModelFactory
	// Limiter throttles tool calls across all agents; nil disables it.
	Limiter  *rate.Limiter
	Observer Observer
	Logger   *slog.Logger
}

var _ agents.Host[agent.Agent] = (*Host)(nil)

// Bind builds the ADK agent tree for root.
func (h *Host) Bind(ctx context.Context, root *agents.Descriptor, reg *tools.Registry) (agent.Agent, error) {
	if err := agents.Validate(root, reg); err != nil {
		return nil, err
	}
	g := newGuard(h.Limiter, h.Observer, h.Logger)
	return h.bind(ctx, g, root, reg)
}

func (h *Host) bind(ctx context.Context, g *guard, d *agents.Descriptor, reg *tools.Registry) (agent.Agent, error) {
	subs := make([]agent.Agent, 0, len(d.SubAgents))
	for _, sd := range d.SubAgents {
		sub, err := h.bind(ctx, g, sd, reg)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	entries, err := reg.Select(d.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", d.Name, err)
	}
	adkTools := make([]tool.Tool, 0, len(entries))
	for _, e := range entries {
		t, err := g.Tool(e)
		if err != nil {
			return nil, fmt.Errorf("agent %q: %w", d.Name, err)
		}
		adkTools = append(adkTools, t)
	}

	llm, err := h.Models(d.Model)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", d.Name, err)
	}

	// ADK agent names are identifiers; "Joker Agent" becomes "Joker_Agent".
	a, err := llmagent.New(llmagent.Config{
		Name:        af.ToolName(d.Name),
		Description: d.Description,
		Instruction: d.Instruction,
		Model:       llm,
		Tools:       adkTools,
		SubAgents:   subs,
	})
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", d.Name, err)
	}
	return a, nil
}
