// Copyright (c) Microsoft. All rights reserved.

package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
)

const (
	defaultBaseURL   = "https://api.openai.com/v1"
	cognitiveScope   = "https://cognitiveservices.azure.com/.default"
	completionsPath  = "/chat/completions"
	deploymentPrefix = "/openai/deployments/"
)

// transport is the seam between the client and net/http.
type transport interface {
	do(ctx context.Context, body any) (*http.Response, error)
}

type httpTransport struct {
	client          *http.Client
	endpoint        string
	apiKey          string
	azure           bool
	headers         map[string]string
	azureCredential azcore.TokenCredential
}

func newHTTPTransport(apiKey string, cfg *clientConfig) *httpTransport {
	t := &httpTransport{
		client:          cfg.httpClient,
		endpoint:        completionsURL(cfg),
		apiKey:          apiKey,
		azure:           cfg.azure(),
		headers:         cfg.headers,
		azureCredential: cfg.azureCredential,
	}
	if t.client == nil {
		t.client = http.DefaultClient
	}
	return t
}

// completionsURL resolves the chat completions URL for cfg.
func completionsURL(cfg *clientConfig) string {
	base := strings.TrimRight(cfg.baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	u := base
	if cfg.deployment != "" {
		u += deploymentPrefix + url.PathEscape(cfg.deployment)
	}
	u += completionsPath
	if cfg.apiVersion != "" {
		u += "?" + url.Values{"api-version": {cfg.apiVersion}}.Encode()
	}
	return u
}

func (t *httpTransport) do(ctx context.Context, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch {
	case t.azureCredential != nil:
		token, err := t.azureCredential.GetToken(ctx, policy.TokenRequestOptions{
			Scopes: []string{cognitiveScope},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: get azure token: %v", af.ErrAuth, err)
		}
		slog.DebugContext(ctx, "using Entra ID token authentication", "token_expires_on", token.ExpiresOn)
		req.Header.Set("Authorization", "Bearer "+token.Token)
	case t.azure:
		req.Header.Set("api-key", t.apiKey)
	default:
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %v", af.ErrService, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseErrorResponse(resp)
	}

	return resp, nil
}

// parseErrorResponse reads an error response body and returns a typed error.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = string(body)
	}

	svcErr := &af.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       apiErr.Error.Code,
	}

	switch {
	case apiErr.Error.Code == "content_filter":
		svcErr.Err = af.ErrContentFilter
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		svcErr.Err = af.ErrAuth
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound:
		svcErr.Err = af.ErrInvalidRequest
	default:
		svcErr.Err = af.ErrService
	}

	return svcErr
}
