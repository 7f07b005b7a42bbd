// Copyright (c) Microsoft. All rights reserved.

// Package mafhost runs agent descriptors on the in-repo agent framework.
package mafhost

import (
	"context"
	"encoding/json"
	"fmt"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/agents"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

// Host binds descriptors into [af.Agent] graphs. Sub-agents are offered to
// their parent's model as tools.
type Host struct {
	// Clients resolves the chat client for each descriptor's model.
	Clients agents.ClientFactory
	// Options are applied to every agent after its descriptor settings,
	// typically middleware.
	Options []af.AgentOption
}

var _ agents.Host[*af.Agent] = (*Host)(nil)

// Bind builds the agent for root and, recursively, its sub-agents.
func (h *Host) Bind(ctx context.Context, root *agents.Descriptor, reg *tools.Registry) (*af.Agent, error) {
	if err := agents.Validate(root, reg); err != nil {
		return nil, err
	}
	return h.bind(ctx, root, reg)
}

func (h *Host) bind(ctx context.Context, d *agents.Descriptor, reg *tools.Registry) (*af.Agent, error) {
	subs := make([]*af.Agent, 0, len(d.SubAgents))
	for _, sd := range d.SubAgents {
		sub, err := h.bind(ctx, sd, reg)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	entries, err := reg.Select(d.Tools...)
	if err != nil {
		return nil, fmt.Errorf("agent %q: %w", d.Name, err)
	}
	afTools := make([]af.Tool, len(entries))
	for i, e := range entries {
		afTools[i] = Tool(e)
	}

	client, err := h.Clients(d.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: agent %q: %w", af.ErrInitialization, d.Name, err)
	}

	opts := []af.AgentOption{
		af.WithName(d.Name),
		af.WithDescription(d.Description),
		af.WithInstructions(d.Instruction),
	}
	if len(afTools) > 0 {
		opts = append(opts, af.WithTools(afTools...))
	}
	if len(subs) > 0 {
		opts = append(opts, af.WithSubAgents(subs...))
	}
	opts = append(opts, h.Options...)
	return af.NewAgent(client, opts...), nil
}

// Tool adapts a registry entry to an [af.Tool]. The result handed back to
// the model is the entry's [tools.Result]; the tool never returns an error.
func Tool(e tools.Entry) af.Tool {
	return af.NewTool(e.Name(), e.Description(), af.SchemaOf(e.ArgsType()),
		func(ctx context.Context, args json.RawMessage) (any, error) {
			return e.Call(ctx, args), nil
		},
	)
}

// Flatten returns root followed by its sub-agents, depth first.
func Flatten(root *af.Agent) []*af.Agent {
	out := []*af.Agent{root}
	for _, sub := range root.SubAgents() {
		out = append(out, Flatten(sub)...)
	}
	return out
}
