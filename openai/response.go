// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

// chatCompletionResponse is the Chat Completions response body.
type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   *usage   `json:"usage,omitempty"`
}

type choice struct {
	Index        int         `json:"index"`
	Message      respMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type respMessage struct {
	Role      string     `json:"role"`
	Content   *string    `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// parseChatResponse converts the wire response into framework types. Only
// the first choice is used.
func parseChatResponse(raw *chatCompletionResponse) *af.ChatResponse {
	resp := &af.ChatResponse{
		ResponseID: raw.ID,
		ModelID:    raw.Model,
	}

	if raw.Usage != nil {
		resp.Usage = af.UsageDetails{
			InputTokens:  raw.Usage.PromptTokens,
			OutputTokens: raw.Usage.CompletionTokens,
			TotalTokens:  raw.Usage.TotalTokens,
		}
	}

	if len(raw.Choices) == 0 {
		return resp
	}

	c := raw.Choices[0]
	resp.FinishReason = af.FinishReason(c.FinishReason)

	role := af.Role(c.Message.Role)
	if role == "" {
		role = af.RoleAssistant
	}
	msg := af.Message{Role: role}
	if c.Message.Content != nil && *c.Message.Content != "" {
		msg.Contents = append(msg.Contents, &af.TextContent{Text: *c.Message.Content})
	}
	for _, tc := range c.Message.ToolCalls {
		msg.Contents = append(msg.Contents, &af.FunctionCallContent{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	resp.Messages = []af.Message{msg}
	return resp
}
