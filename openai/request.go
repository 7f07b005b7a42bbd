// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"encoding/json"
	"strings"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

// chatRequest is the Chat Completions request body.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_completion_tokens,omitempty"`
	Tools       []toolSpec    `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
	User        string        `json:"user,omitempty"`
}

type chatMessage struct {
	Role       string     `json:"role"`
	Content    *string    `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function functionSpec `json:"function"`
}

type functionSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// buildRequest converts framework types into a Chat Completions request.
func buildRequest(messages []af.Message, opts *af.ChatOptions, defaultModel string) *chatRequest {
	req := &chatRequest{Model: defaultModel}
	if opts != nil {
		if opts.ModelID != "" {
			req.Model = opts.ModelID
		}
		req.Temperature = opts.Temperature
		req.MaxTokens = opts.MaxTokens
		req.User = opts.User
		for _, t := range opts.Tools {
			req.Tools = append(req.Tools, toolSpec{
				Type: "function",
				Function: functionSpec{
					Name:        t.Name(),
					Description: t.Description(),
					Parameters:  t.Parameters(),
				},
			})
		}
		if len(req.Tools) > 0 {
			req.ToolChoice = convertToolChoice(opts.ToolChoice)
		}
	}
	req.Messages = convertMessages(messages)
	return req
}

// convertMessages translates framework messages into wire messages. A tool
// message becomes one wire message per function result.
func convertMessages(messages []af.Message) []chatMessage {
	out := make([]chatMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case af.RoleTool:
			for _, c := range msg.Contents {
				if fr, ok := c.(*af.FunctionResultContent); ok {
					out = append(out, chatMessage{
						Role:       string(af.RoleTool),
						ToolCallID: fr.CallID,
						Content:    ptr(marshalResult(fr.Result)),
					})
				}
			}

		case af.RoleAssistant:
			cm := chatMessage{Role: string(msg.Role), Name: msg.AuthorName}
			for _, fc := range msg.FunctionCalls() {
				cm.ToolCalls = append(cm.ToolCalls, toolCall{
					ID:       fc.CallID,
					Type:     "function",
					Function: functionCall{Name: fc.Name, Arguments: fc.Arguments},
				})
			}
			if text := msg.Text(); text != "" || len(cm.ToolCalls) == 0 {
				cm.Content = ptr(text)
			}
			out = append(out, cm)

		default:
			out = append(out, chatMessage{
				Role:    string(msg.Role),
				Name:    msg.AuthorName,
				Content: ptr(plainText(msg.Contents)),
			})
		}
	}
	return out
}

// plainText flattens text and error parts of a user or system message.
func plainText(cs af.Contents) string {
	var b strings.Builder
	for _, c := range cs {
		switch v := c.(type) {
		case *af.TextContent:
			b.WriteString(v.Text)
		case *af.ErrorContent:
			b.WriteString(v.Message)
		}
	}
	return b.String()
}

func convertToolChoice(tc af.ToolChoice) any {
	if tc == "" {
		return nil
	}
	return string(tc)
}

func marshalResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	return string(b)
}

func ptr[T any](v T) *T { return &v }
