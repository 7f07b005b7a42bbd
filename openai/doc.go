// Copyright (c) Microsoft. All rights reserved.

// Package openai provides a [ChatClient] for the Chat Completions API,
// targeting either api.openai.com or an Azure OpenAI deployment.
//
// Azure OpenAI with an API key:
//
//	client := openai.New(key,
//	    openai.WithBaseURL("https://my-resource.openai.azure.com"),
//	    openai.WithAzureDeployment("gpt-4o", "2024-10-21"),
//	)
//
// Azure with Microsoft Entra ID:
//
//	cred, _ := azidentity.NewAzureCLICredential(nil)
//	client := openai.New("",
//	    openai.WithBaseURL(endpoint),
//	    openai.WithAzureDeployment(deployment, apiVersion),
//	    openai.WithAzureCredential(cred),
//	)
//
// # Configuration
//
//   - [WithModel]: set the default model
//   - [WithBaseURL]: override the API endpoint
//   - [WithAzureDeployment]: route to an Azure deployment and use the api-key header
//   - [WithAPIVersion]: add an api-version query parameter only
//   - [WithAzureCredential]: authenticate with an azcore.TokenCredential
//   - [WithHTTPClient]: provide a custom http.Client
//   - [WithHeaders]: add custom headers to every request
//   - [WithChatMiddleware]: wrap every call, e.g. with a circuit breaker
//
// # Testing
//
// Provide a mock http.Client via [WithHTTPClient] with a custom RoundTripper.
package openai
