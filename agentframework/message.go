// Copyright (c) Microsoft. All rights reserved.

package agentframework

import "strings"

// Role identifies the author of a [Message].
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// FinishReason indicates why the model stopped generating.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
)

// Message is a single chat message exchanged with an agent or model.
type Message struct {
	Role       Role
	Contents   Contents
	AuthorName string
}

// Text returns the concatenated text of all [TextContent] items.
func (m *Message) Text() string {
	var b strings.Builder
	for _, c := range m.Contents {
		if tc, ok := c.(*TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

// FunctionCalls returns the tool calls carried by the message, in order.
func (m *Message) FunctionCalls() []*FunctionCallContent {
	var calls []*FunctionCallContent
	for _, c := range m.Contents {
		if fc, ok := c.(*FunctionCallContent); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Contents: Contents{&TextContent{Text: text}}}
}

func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Contents: Contents{&TextContent{Text: text}}}
}

func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Contents: Contents{&TextContent{Text: text}}}
}

// NewToolMessage creates a tool-role [Message] answering the call callID.
func NewToolMessage(callID string, result any) Message {
	return Message{
		Role: RoleTool,
		Contents: Contents{&FunctionResultContent{
			CallID: callID,
			Result: result,
		}},
	}
}

// PrependInstructions inserts a system message at the front unless
// instructions are empty or a system message is already present.
func PrependInstructions(messages []Message, instructions string) []Message {
	if instructions == "" {
		return messages
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			return messages
		}
	}
	return append([]Message{NewSystemMessage(instructions)}, messages...)
}
