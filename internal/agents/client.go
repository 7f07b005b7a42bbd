// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/openai"
)

// DefaultFoundryAPIVersion is used when a Foundry model has no API version.
const DefaultFoundryAPIVersion = "2024-05-01-preview"

// ClientFactory returns the chat client serving a model.
type ClientFactory func(Model) (af.ChatClient, error)

// CredentialFunc creates the token credential used for keyless Foundry
// models.
type CredentialFunc func() (azcore.TokenCredential, error)

// AzureCLICredential authenticates with the signed-in Azure CLI account.
func AzureCLICredential() (azcore.TokenCredential, error) {
	return azidentity.NewAzureCLICredential(nil)
}

// AzureClients returns a factory creating one [openai.Client] per model ID.
// Clients are cached so agents sharing a model share a client. newCred is
// called at most once, for the first keyless Foundry model; nil selects
// [AzureCLICredential].
func AzureClients(newCred CredentialFunc, opts ...openai.Option) ClientFactory {
	if newCred == nil {
		newCred = AzureCLICredential
	}
	var (
		mu      sync.Mutex
		clients = make(map[string]af.ChatClient)
		cred    azcore.TokenCredential
	)
	return func(m Model) (af.ChatClient, error) {
		mu.Lock()
		defer mu.Unlock()
		if c, ok := clients[m.ID()]; ok {
			return c, nil
		}

		var c *openai.Client
		switch m.Provider {
		case ProviderAzure:
			c = openai.New(m.APIKey, append([]openai.Option{
				openai.WithBaseURL(m.Endpoint),
				openai.WithAzureDeployment(m.Deployment, m.APIVersion),
			}, opts...)...)

		case ProviderFoundry:
			base, err := foundryInferenceURL(m.Endpoint)
			if err != nil {
				return nil, err
			}
			version := m.APIVersion
			if version == "" {
				version = DefaultFoundryAPIVersion
			}
			fopts := []openai.Option{
				openai.WithBaseURL(base),
				openai.WithModel(m.Deployment),
				openai.WithAPIVersion(version),
			}
			if m.APIKey == "" {
				if cred == nil {
					if cred, err = newCred(); err != nil {
						return nil, fmt.Errorf("azure credential: %w", err)
					}
				}
				fopts = append(fopts, openai.WithAzureCredential(cred))
			}
			c = openai.New(m.APIKey, append(fopts, opts...)...)

		default:
			return nil, fmt.Errorf("unsupported model provider %q", m.Provider)
		}

		clients[m.ID()] = c
		return c, nil
	}
}

// foundryInferenceURL maps a project endpoint such as
// https://res.services.ai.azure.com/api/projects/p to the resource's model
// inference route https://res.services.ai.azure.com/models.
func foundryInferenceURL(endpoint string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid Foundry project endpoint %q", endpoint)
	}
	return u.Scheme + "://" + u.Host + "/models", nil
}
