// Copyright (c) Microsoft. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/agents"
	"github.com/SchwartzKamel/chatbot-template/internal/config"
)

type cannedClient struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests [][]af.Message
}

func (c *cannedClient) Response(_ context.Context, msgs []af.Message, _ *af.ChatOptions) (*af.ChatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, msgs)
	if c.err != nil {
		return nil, c.err
	}
	return &af.ChatResponse{
		Messages: []af.Message{af.NewAssistantMessage(c.reply)},
		Usage:    af.UsageDetails{InputTokens: 7, OutputTokens: 3, TotalTokens: 10},
	}, nil
}

func foundryEnv() map[string]string {
	return map[string]string{
		config.KeyFoundryEndpoint:   "https://example.services.ai.azure.com/api/projects/demo",
		config.KeyFoundryDeployment: "gpt-4o-mini",
	}
}

func clientsFor(c af.ChatClient, seen *[]agents.Model) agents.ClientFactory {
	return func(m agents.Model) (af.ChatClient, error) {
		if seen != nil {
			*seen = append(*seen, m)
		}
		return c, nil
	}
}

func TestRun_ConsoleJoker(t *testing.T) {
	client := &cannedClient{reply: "Why did the gopher cross the road?"}
	var models []agents.Model
	var out, logs bytes.Buffer

	err := run(context.Background(), nil, foundryEnv(), clientsFor(client, &models),
		strings.NewReader("tell me a joke\n\nanother\nquit\n"), &out, &logs)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Joker Agent: Why did the gopher cross the road?")
	assert.Contains(t, out.String(), "[tokens: 7 in, 3 out]")
	assert.Contains(t, logs.String(), "Starting Joker Agent...")

	require.Len(t, models, 1)
	assert.Equal(t, "azure_ai/gpt-4o-mini", models[0].ID())

	require.Len(t, client.requests, 2, "blank lines are skipped")
	first := client.requests[0]
	assert.Equal(t, af.RoleSystem, first[0].Role)
	assert.Equal(t, "You are good at telling jokes.", first[0].Text())
	assert.Greater(t, len(client.requests[1]), len(first), "session history carried into the second turn")
}

func TestRun_AgentFlagAndRootAgent(t *testing.T) {
	client := &cannedClient{reply: "ok"}
	env := foundryEnv()
	env[config.KeyRootAgent] = "weather_time"

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), nil, env, clientsFor(client, nil), strings.NewReader(""), &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "Chat with weather_time_agent")

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"-agent", "joker"}, env, clientsFor(client, nil), strings.NewReader(""), &out, &bytes.Buffer{}))
	assert.Contains(t, out.String(), "Chat with Joker Agent", "explicit flag wins")
}

func TestRun_ModelErrorKeepsConsoleAlive(t *testing.T) {
	client := &cannedClient{err: errors.New("boom")}
	var out bytes.Buffer
	err := run(context.Background(), nil, foundryEnv(), clientsFor(client, nil),
		strings.NewReader("hi\nexit\n"), &out, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Error: the agent could not answer")
}

func TestRun_Errors(t *testing.T) {
	client := &cannedClient{}

	err := run(context.Background(), nil, map[string]string{}, clientsFor(client, nil), strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	var missing *config.MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{config.KeyFoundryEndpoint, config.KeyFoundryDeployment}, missing.Missing)

	err = run(context.Background(), []string{"-agent", "pirate"}, foundryEnv(), clientsFor(client, nil), strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, agents.ErrUnknownVariant)

	err = run(context.Background(), []string{"-h"}, foundryEnv(), clientsFor(client, nil), strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	assert.ErrorIs(t, err, flag.ErrHelp)
}
