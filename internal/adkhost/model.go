// Copyright (c) Microsoft. All rights reserved.

package adkhost

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

// Model implements model.LLM on top of an [af.ChatClient], so ADK agents
// reach Azure OpenAI through the same client and middleware as the
// agent-framework host.
type Model struct {
	name   string
	client af.ChatClient
}

var _ model.LLM = (*Model)(nil)

// NewModel wraps client under name, e.g. "azure/gpt-4o".
func NewModel(name string, client af.ChatClient) *Model {
	return &Model{name: name, client: client}
}

func (m *Model) Name() string { return m.name }

// GenerateContent sends one chat request. Streaming is not supported; the
// complete response is yielded once.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	msgs, err := convertContents(req.Contents)
	if err != nil {
		return nil, err
	}
	opts := &af.ChatOptions{}

	if cfg := req.Config; cfg != nil {
		if si := systemText(cfg.SystemInstruction); si != "" {
			msgs = append([]af.Message{af.NewSystemMessage(si)}, msgs...)
		}
		if cfg.Temperature != nil {
			t := float64(*cfg.Temperature)
			opts.Temperature = &t
		}
		if cfg.MaxOutputTokens > 0 {
			n := int(cfg.MaxOutputTokens)
			opts.MaxTokens = &n
		}
		opts.Tools = declarations(cfg.Tools)
		if len(opts.Tools) > 0 {
			opts.ToolChoice = af.ToolChoiceAuto
		}
	}

	resp, err := m.client.Response(ctx, msgs, opts)
	if err != nil {
		return nil, err
	}
	return convertResponse(resp)
}

func systemText(c *genai.Content) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// convertContents maps ADK history to chat messages. Function responses
// become one tool message each, following the assistant message that
// requested them.
func convertContents(contents []*genai.Content) ([]af.Message, error) {
	var out []af.Message
	for _, c := range contents {
		if c == nil || len(c.Parts) == 0 {
			continue
		}
		role := af.RoleUser
		if c.Role == "model" {
			role = af.RoleAssistant
		}

		msg := af.Message{Role: role}
		var results []af.Message
		for _, p := range c.Parts {
			switch {
			case p == nil || p.Thought:
			case p.FunctionCall != nil:
				args, err := json.Marshal(p.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("%w: function call %s: %v", af.ErrInvalidRequest, p.FunctionCall.Name, err)
				}
				msg.Contents = append(msg.Contents, &af.FunctionCallContent{
					CallID:    p.FunctionCall.ID,
					Name:      p.FunctionCall.Name,
					Arguments: string(args),
				})
			case p.FunctionResponse != nil:
				results = append(results, af.NewToolMessage(p.FunctionResponse.ID, p.FunctionResponse.Response))
			case p.Text != "":
				msg.Contents = append(msg.Contents, &af.TextContent{Text: p.Text})
			}
		}
		if len(msg.Contents) > 0 {
			out = append(out, msg)
		}
		out = append(out, results...)
	}
	return out, nil
}

// declarations turns ADK function declarations into declaration-only
// tools. ADK executes the calls itself.
func declarations(ts []*genai.Tool) []af.Tool {
	var out []af.Tool
	for _, t := range ts {
		if t == nil {
			continue
		}
		for _, fd := range t.FunctionDeclarations {
			if fd == nil {
				continue
			}
			out = append(out, af.NewTool(fd.Name, fd.Description, parameters(fd), nil, af.WithDeclarationOnly()))
		}
	}
	return out
}

// parameters prefers the JSON schema; ADK's own tools such as
// transfer_to_agent only set the genai schema.
func parameters(fd *genai.FunctionDeclaration) json.RawMessage {
	var v any
	switch {
	case fd.ParametersJsonSchema != nil:
		v = fd.ParametersJsonSchema
	case fd.Parameters != nil:
		v = jsonSchema(fd.Parameters)
	default:
		return af.SchemaOf(nil)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return af.SchemaOf(nil)
	}
	return b
}

// jsonSchema converts s to JSON Schema. genai type names are upper case,
// which the chat API rejects.
func jsonSchema(s *genai.Schema) map[string]any {
	out := map[string]any{}
	if s.Type != "" && s.Type != genai.TypeUnspecified {
		out["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if s.Format != "" {
		out["format"] = s.Format
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = jsonSchema(s.Items)
	}
	if len(s.AnyOf) > 0 {
		anyOf := make([]any, 0, len(s.AnyOf))
		for _, sub := range s.AnyOf {
			if sub != nil {
				anyOf = append(anyOf, jsonSchema(sub))
			}
		}
		out["anyOf"] = anyOf
	}
	if len(s.Properties) > 0 || out["type"] == "object" {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			if p != nil {
				props[name] = jsonSchema(p)
			}
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func convertResponse(resp *af.ChatResponse) (*model.LLMResponse, error) {
	var parts []*genai.Part
	hasCalls := false
	for i := range resp.Messages {
		for _, c := range resp.Messages[i].Contents {
			switch v := c.(type) {
			case *af.TextContent:
				if v.Text != "" {
					parts = append(parts, &genai.Part{Text: v.Text})
				}
			case *af.FunctionCallContent:
				var args map[string]any
				if v.Arguments != "" {
					if err := json.Unmarshal([]byte(v.Arguments), &args); err != nil {
						return nil, fmt.Errorf("%w: arguments of %s: %v", af.ErrInvalidResponse, v.Name, err)
					}
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   v.CallID,
					Name: v.Name,
					Args: args,
				}})
				hasCalls = true
			}
		}
	}

	out := &model.LLMResponse{
		Content:      &genai.Content{Role: "model", Parts: parts},
		TurnComplete: !hasCalls,
	}
	switch resp.FinishReason {
	case af.FinishReasonLength:
		out.FinishReason = genai.FinishReasonMaxTokens
	case af.FinishReasonContentFilter:
		out.FinishReason = genai.FinishReasonSafety
	default:
		out.FinishReason = genai.FinishReasonStop
	}
	if u := resp.Usage; u.TotalTokens > 0 || u.InputTokens > 0 {
		out.UsageMetadata = &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     int32(u.InputTokens),
			CandidatesTokenCount: int32(u.OutputTokens),
			TotalTokenCount:      int32(u.TotalTokens),
		}
	}
	return out, nil
}
