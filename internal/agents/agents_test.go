// Copyright (c) Microsoft. All rights reserved.

package agents_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SchwartzKamel/chatbot-template/internal/agents"
	"github.com/SchwartzKamel/chatbot-template/internal/config"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
	"github.com/SchwartzKamel/chatbot-template/openai"
)

var testModel = agents.AzureModel(config.Azure{
	APIKey:     "top-secret",
	APIBase:    "https://res.openai.azure.com",
	APIVersion: "2024-10-21",
	Deployment: "gpt-4o",
})

func TestModel(t *testing.T) {
	assert.Equal(t, "azure/gpt-4o", testModel.ID())
	assert.Equal(t, "azure/gpt-4o@https://res.openai.azure.com", testModel.String())
	assert.NotContains(t, testModel.String(), "top-secret")

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("model", "model", testModel)
	assert.Contains(t, buf.String(), "azure/gpt-4o")
	assert.NotContains(t, buf.String(), "top-secret")

	fm := agents.FoundryModel(config.Foundry{ProjectEndpoint: "https://p", Deployment: "gpt-4o-mini"})
	assert.Equal(t, "azure_ai/gpt-4o-mini", fm.ID())
}

func TestOrchestrator(t *testing.T) {
	root := agents.Root(agents.VariantOrchestrator, testModel)

	assert.Equal(t, "Orchestrator", root.Name)
	assert.Equal(t, "I coordinate tasks across multiple agents for efficient operation.", root.Description)
	assert.Equal(t, "I manage and delegate tasks to specialized agents.", root.Instruction)
	assert.Empty(t, root.Tools)
	require.Len(t, root.SubAgents, 1)

	runner := root.SubAgents[0]
	assert.Equal(t, "ToolRunner", runner.Name)
	assert.Equal(t, "I am responsible for running tools and executing specific functions.", runner.Description)
	assert.Equal(t, "I can execute tools and provide results as needed.", runner.Instruction)
	assert.Equal(t, []string{tools.NameSearch}, runner.Tools)
	assert.Equal(t, testModel, runner.Model)
}

func TestWeatherTimeAndJoker(t *testing.T) {
	wt := agents.Root(agents.VariantWeatherTime, testModel)
	assert.Equal(t, "weather_time_agent", wt.Name)
	assert.Equal(t, []string{tools.NameWeather, tools.NameTime}, wt.Tools)
	assert.Empty(t, wt.SubAgents)

	joker := agents.Root(agents.VariantJoker, testModel)
	assert.Equal(t, "Joker Agent", joker.Name)
	assert.Equal(t, "You are good at telling jokes.", joker.Instruction)
	assert.Empty(t, joker.Tools)

	assert.Equal(t, "Orchestrator", agents.Root("", testModel).Name)
}

func TestRoot_CapturesModelByValue(t *testing.T) {
	m := testModel
	root := agents.Root(agents.VariantOrchestrator, m)
	m.Deployment = "changed"
	assert.Equal(t, "gpt-4o", root.Model.Deployment)
	assert.Equal(t, "gpt-4o", root.SubAgents[0].Model.Deployment)
}

func TestParseVariant(t *testing.T) {
	v, err := agents.ParseVariant("", agents.VariantJoker)
	require.NoError(t, err)
	assert.Equal(t, agents.VariantJoker, v)

	v, err = agents.ParseVariant("weather_time", agents.VariantJoker)
	require.NoError(t, err)
	assert.Equal(t, agents.VariantWeatherTime, v)

	_, err = agents.ParseVariant("pirate", agents.VariantJoker)
	require.ErrorIs(t, err, agents.ErrUnknownVariant)
}

func TestWalk(t *testing.T) {
	var names []string
	err := agents.Root(agents.VariantOrchestrator, testModel).Walk(func(d *agents.Descriptor) error {
		names = append(names, d.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Orchestrator", "ToolRunner"}, names)

	stop := errors.New("stop")
	calls := 0
	err = agents.Root(agents.VariantOrchestrator, testModel).Walk(func(*agents.Descriptor) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestValidate(t *testing.T) {
	reg := tools.Default(tools.NewSearchClient(""), nil)
	for _, v := range agents.Variants {
		assert.NoError(t, agents.Validate(agents.Root(v, testModel), reg), v)
	}

	empty, err := tools.NewRegistry()
	require.NoError(t, err)
	err = agents.Validate(agents.Root(agents.VariantOrchestrator, testModel), empty)
	require.ErrorIs(t, err, tools.ErrUnknownTool)
	assert.Contains(t, err.Error(), "ToolRunner")
}

type staticCredential struct{ calls int }

func (c *staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.calls++
	return azcore.AccessToken{Token: "t", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func TestAzureClients(t *testing.T) {
	credCalls := 0
	cred := &staticCredential{}
	factory := agents.AzureClients(func() (azcore.TokenCredential, error) {
		credCalls++
		return cred, nil
	})

	c1, err := factory(testModel)
	require.NoError(t, err)
	c2, err := factory(testModel)
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, "gpt-4o", c1.(*openai.Client).Model())

	fm := agents.FoundryModel(config.Foundry{
		ProjectEndpoint: "https://res.services.ai.azure.com/api/projects/demo",
		Deployment:      "gpt-4o-mini",
	})
	fc, err := factory(fm)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", fc.(*openai.Client).Model())
	assert.Equal(t, 1, credCalls)

	keyed := fm
	keyed.Deployment = "phi-4"
	keyed.APIKey = "k"
	_, err = factory(keyed)
	require.NoError(t, err)
	assert.Equal(t, 1, credCalls)

	_, err = factory(agents.Model{Provider: "bedrock", Deployment: "x"})
	assert.Error(t, err)

	bad := fm
	bad.Deployment = "other"
	bad.Endpoint = "not a url"
	_, err = factory(bad)
	assert.Error(t, err)
}

func TestAzureClients_CredentialError(t *testing.T) {
	factory := agents.AzureClients(func() (azcore.TokenCredential, error) {
		return nil, errors.New("az not logged in")
	})
	_, err := factory(agents.FoundryModel(config.Foundry{
		ProjectEndpoint: "https://res.services.ai.azure.com",
		Deployment:      "gpt-4o",
	}))
	assert.ErrorContains(t, err, "az not logged in")
}
