// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

// Client implements [agentframework.ChatClient] over the Chat Completions
// API of OpenAI or an Azure OpenAI deployment. Use [New] to create one.
type Client struct {
	tp      transport
	model   string
	handler af.ChatHandler
}

var _ af.ChatClient = (*Client)(nil)

// New creates a [Client] with the given API key and options. The key may be
// empty when [WithAzureCredential] is used.
//
//	client := openai.New(os.Getenv("AZURE_API_KEY"),
//	    openai.WithBaseURL(os.Getenv("AZURE_API_BASE")),
//	    openai.WithAzureDeployment("gpt-4o", "2024-10-21"),
//	)
func New(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}
	model := cfg.model
	if model == "" {
		model = cfg.deployment
	}
	return newWithTransport(newHTTPTransport(apiKey, cfg), model, cfg.chatMiddleware...)
}

func newWithTransport(tp transport, model string, mws ...af.ChatMiddleware) *Client {
	c := &Client{tp: tp, model: model}
	c.handler = af.ChainChatMiddleware(c.coreResponse, mws...)
	return c
}

// Model returns the default model or deployment name.
func (c *Client) Model() string { return c.model }

// Response sends a chat completion request and returns the complete response.
func (c *Client) Response(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	return c.handler(ctx, messages, opts)
}

func (c *Client) coreResponse(ctx context.Context, messages []af.Message, opts *af.ChatOptions) (*af.ChatResponse, error) {
	resp, err := c.tp.do(ctx, buildRequest(messages, opts, c.model))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", af.ErrService, err)
	}

	var raw chatCompletionResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", af.ErrInvalidResponse, err)
	}

	result := parseChatResponse(&raw)
	result.Raw = &raw
	return result, nil
}
