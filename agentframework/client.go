// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "context"

// ChatClient is the interface for an LLM backend.
// Provider packages (e.g., openai) implement it.
type ChatClient interface {
	Response(ctx context.Context, messages []Message, opts *ChatOptions) (*ChatResponse, error)
}

// ToolChoice controls how the model selects tools.
type ToolChoice string

const (
	ToolChoiceAuto     ToolChoice = "auto"
	ToolChoiceRequired ToolChoice = "required"
	ToolChoiceNone     ToolChoice = "none"
)

// ChatOptions configures a single chat completion request.
// Nil pointer fields mean "use the provider default".
type ChatOptions struct {
	ModelID      string
	Temperature  *float64
	MaxTokens    *int
	Tools        []Tool
	ToolChoice   ToolChoice
	User         string
	Instructions string
}

// MergeChatOptions overlays override onto base and returns a new value.
// Zero fields in override leave base untouched, instructions are joined
// with a newline and tools are merged by name with override winning.
func MergeChatOptions(base, override *ChatOptions) *ChatOptions {
	switch {
	case base == nil && override == nil:
		return &ChatOptions{}
	case base == nil:
		cp := *override
		return &cp
	case override == nil:
		cp := *base
		return &cp
	}

	merged := *base
	if override.ModelID != "" {
		merged.ModelID = override.ModelID
	}
	if override.Temperature != nil {
		merged.Temperature = override.Temperature
	}
	if override.MaxTokens != nil {
		merged.MaxTokens = override.MaxTokens
	}
	if override.ToolChoice != "" {
		merged.ToolChoice = override.ToolChoice
	}
	if override.User != "" {
		merged.User = override.User
	}
	merged.Instructions = joinInstructions(merged.Instructions, override.Instructions)
	if len(override.Tools) > 0 {
		merged.Tools = mergeTools(merged.Tools, override.Tools)
	}
	return &merged
}

func joinInstructions(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}

// mergeTools keeps base order, replaces same-named entries and appends new ones.
func mergeTools(base, override []Tool) []Tool {
	byName := make(map[string]Tool, len(override))
	for _, t := range override {
		byName[t.Name()] = t
	}
	out := make([]Tool, 0, len(base)+len(override))
	seen := make(map[string]bool, len(base)+len(override))
	for _, t := range base {
		if o, ok := byName[t.Name()]; ok {
			t = o
		}
		out = append(out, t)
		seen[t.Name()] = true
	}
	for _, t := range override {
		if !seen[t.Name()] {
			out = append(out, t)
			seen[t.Name()] = true
		}
	}
	return out
}
