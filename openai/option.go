// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

// clientConfig holds resolved configuration for the client.
type clientConfig struct {
	baseURL         string
	httpClient      *http.Client
	headers         map[string]string
	model           string
	deployment      string
	apiVersion      string
	azureCredential azcore.TokenCredential
	chatMiddleware  []af.ChatMiddleware
}

// azure reports whether requests target an Azure OpenAI style endpoint.
func (c *clientConfig) azure() bool {
	return c.deployment != "" || c.apiVersion != "" || c.azureCredential != nil
}

// Option configures a [Client].
type Option func(*clientConfig)

// WithBaseURL overrides the API base URL, e.g. an Azure resource endpoint
// such as https://my-resource.openai.azure.com.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) { c.baseURL = url }
}

// WithHTTPClient provides a custom http.Client for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = client }
}

// WithHeaders adds custom headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) { c.headers = headers }
}

// WithModel sets the default model for requests.
func WithModel(model string) Option {
	return func(c *clientConfig) { c.model = model }
}

// WithAzureDeployment routes requests to an Azure OpenAI deployment:
//
//	{baseURL}/openai/deployments/{deployment}/chat/completions?api-version={apiVersion}
//
// The API key is then sent in the api-key header and the deployment doubles
// as the default model.
func WithAzureDeployment(deployment, apiVersion string) Option {
	return func(c *clientConfig) {
		c.deployment = deployment
		c.apiVersion = apiVersion
	}
}

// WithAPIVersion appends an api-version query parameter without deployment
// routing, as used by Azure AI Foundry project endpoints.
func WithAPIVersion(apiVersion string) Option {
	return func(c *clientConfig) { c.apiVersion = apiVersion }
}

// WithAzureCredential enables Microsoft Entra ID token authentication. Tokens
// are requested for the Cognitive Services scope on every call; the
// credential caches and refreshes them.
func WithAzureCredential(cred azcore.TokenCredential) Option {
	return func(c *clientConfig) { c.azureCredential = cred }
}

// WithChatMiddleware adds middleware to the chat pipeline.
// Middleware is applied in the order provided (first = outermost).
func WithChatMiddleware(mw ...af.ChatMiddleware) Option {
	return func(c *clientConfig) { c.chatMiddleware = append(c.chatMiddleware, mw...) }
}
