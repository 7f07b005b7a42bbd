// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "strings"

// UsageDetails holds token consumption for a model response.
type UsageDetails struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Add accumulates o into u.
func (u *UsageDetails) Add(o UsageDetails) {
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.TotalTokens += o.TotalTokens
}

// ChatResponse is the complete response from a [ChatClient].
type ChatResponse struct {
	Messages     []Message
	ResponseID   string
	ModelID      string
	FinishReason FinishReason
	Usage        UsageDetails
	Raw          any
}

// Text returns the concatenated text of all messages in this response.
func (r *ChatResponse) Text() string {
	return joinText(r.Messages)
}

// AgentResponse is the complete response from an [Agent] run.
type AgentResponse struct {
	Messages   []Message
	ResponseID string
	AgentID    string
	AgentName  string
	Usage      UsageDetails
}

// Text returns the concatenated text of all messages in this response.
func (r *AgentResponse) Text() string {
	return joinText(r.Messages)
}

func joinText(msgs []Message) string {
	var b strings.Builder
	for i := range msgs {
		b.WriteString(msgs[i].Text())
	}
	return b.String()
}
