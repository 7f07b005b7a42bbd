// Copyright (c) Microsoft. All rights reserved.

package mcpserver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SchwartzKamel/chatbot-template/internal/mcpserver"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return ""
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "get_weather"
	req.Params.Arguments = args
	return req
}

func TestHandler_Success(t *testing.T) {
	h := mcpserver.Handler(tools.WeatherFunc())
	res, err := h(context.Background(), call(map[string]any{"city": "New York"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.JSONEq(t,
		`{"status":"success","report":"The weather in New York is sunny with a temperature of 25 degrees Celsius (41 degrees Fahrenheit)."}`,
		textOf(t, res))
}

func TestHandler_Failure(t *testing.T) {
	h := mcpserver.Handler(tools.WeatherFunc())
	res, err := h(context.Background(), call(map[string]any{"city": "Paris"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.JSONEq(t,
		`{"status":"error","error_message":"Weather information for 'Paris' is not available."}`,
		textOf(t, res))
}

func TestHandler_NoArguments(t *testing.T) {
	now := func() time.Time { return time.Date(2025, 1, 15, 17, 0, 0, 0, time.UTC) }
	h := mcpserver.Handler(tools.TimeFunc(now))
	res, err := h(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError, "empty city is not New York")
}

func TestTool_Schema(t *testing.T) {
	tool := mcpserver.Tool(tools.WeatherFunc())
	assert.Equal(t, tools.NameWeather, tool.Name)

	b, err := json.Marshal(tool)
	require.NoError(t, err)
	var decoded struct {
		InputSchema struct {
			Type       string         `json:"type"`
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		} `json:"inputSchema"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "object", decoded.InputSchema.Type)
	assert.Contains(t, decoded.InputSchema.Properties, "city")
	assert.Equal(t, []string{"city"}, decoded.InputSchema.Required)
}

func TestNew(t *testing.T) {
	reg := tools.Default(tools.NewSearchClient(""), time.Now)
	s := mcpserver.New(reg, "test")
	require.NotNil(t, s)
	assert.NotNil(t, mcpserver.HTTPHandler(s))
}
