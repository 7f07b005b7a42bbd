// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"log/slog"

	"github.com/SchwartzKamel/chatbot-template/internal/config"
)

// Provider names the hosting service of a [Model].
type Provider string

const (
	// ProviderAzure is an Azure OpenAI resource addressed by deployment.
	ProviderAzure Provider = "azure"
	// ProviderFoundry is an Azure AI Foundry project.
	ProviderFoundry Provider = "azure_ai"
)

// Model is the model reference a descriptor captures by value.
type Model struct {
	Provider   Provider
	Deployment string
	Endpoint   string
	APIVersion string
	APIKey     string
}

// AzureModel builds the model reference of the ADK profile.
func AzureModel(c config.Azure) Model {
	return Model{
		Provider:   ProviderAzure,
		Deployment: c.Deployment,
		Endpoint:   c.APIBase,
		APIVersion: c.APIVersion,
		APIKey:     c.APIKey,
	}
}

// FoundryModel builds the model reference of the Foundry profile.
func FoundryModel(c config.Foundry) Model {
	return Model{
		Provider:   ProviderFoundry,
		Deployment: c.Deployment,
		Endpoint:   c.ProjectEndpoint,
		APIVersion: c.APIVersion,
		APIKey:     c.APIKey,
	}
}

// ID returns the routing name, e.g. "azure/gpt-4o".
func (m Model) ID() string {
	return string(m.Provider) + "/" + m.Deployment
}

// String never includes the API key.
func (m Model) String() string {
	if m.Endpoint == "" {
		return m.ID()
	}
	return m.ID() + "@" + m.Endpoint
}

func (m Model) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", m.ID()),
		slog.String("endpoint", m.Endpoint),
		slog.String("api_version", m.APIVersion),
	)
}
