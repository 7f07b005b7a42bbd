// Copyright (c) Microsoft. All rights reserved.

// Package agents declares the agent graphs this module exposes and the
// interface host frameworks implement to run them.
package agents

import (
	"context"
	"fmt"

	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

// Descriptor is a declarative agent: what it is told, which model it uses,
// which registry tools it may call and which agents it coordinates.
type Descriptor struct {
	Name        string
	Description string
	Instruction string
	Model       Model
	Tools       []string
	SubAgents   []*Descriptor
}

// Walk visits d and its sub-agents depth first, parents before children,
// stopping at the first error.
func (d *Descriptor) Walk(fn func(*Descriptor) error) error {
	if err := fn(d); err != nil {
		return err
	}
	for _, sub := range d.SubAgents {
		if err := sub.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every tool named in the graph rooted at d is
// registered in reg.
func Validate(d *Descriptor, reg *tools.Registry) error {
	return d.Walk(func(n *Descriptor) error {
		if _, err := reg.Select(n.Tools...); err != nil {
			return fmt.Errorf("agent %q: %w", n.Name, err)
		}
		return nil
	})
}

// Host binds a descriptor graph and the tool registry into a runnable value
// of a specific agent framework.
type Host[A any] interface {
	Bind(ctx context.Context, root *Descriptor, reg *tools.Registry) (A, error)
}
