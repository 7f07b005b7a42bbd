// Copyright (c) Microsoft. All rights reserved.

package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	af "github.com/SchwartzKamel/chatbot-template/agentframework"
	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

const namespace = "chatbot"

// Metrics holds the Prometheus collectors for agent and tool activity on a
// private registry.
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	agentRuns    *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool calls by outcome",
			},
			[]string{"tool", "status"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_call_duration_seconds",
				Help:      "Tool call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		agentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_runs_total",
				Help:      "Total number of agent runs by outcome",
			},
			[]string{"agent", "status"},
		),
	}
	m.registry.MustRegister(m.toolCalls, m.toolDuration, m.agentRuns)
	return m
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(name string, status tools.Status, d time.Duration) {
	m.toolCalls.WithLabelValues(name, string(status)).Inc()
	m.toolDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ObserveRun records one agent run.
func (m *Metrics) ObserveRun(agent string, err error) {
	status := tools.StatusSuccess
	if err != nil {
		status = tools.StatusError
	}
	m.agentRuns.WithLabelValues(agent, string(status)).Inc()
}

// FunctionMiddleware records every tool call made by an agent. A
// [tools.Result] contributes its own status.
func (m *Metrics) FunctionMiddleware() af.FunctionMiddleware {
	return func(next af.FunctionHandler) af.FunctionHandler {
		return func(ctx context.Context, tool af.Tool, args json.RawMessage) (any, error) {
			start := time.Now()
			result, err := next(ctx, tool, args)
			m.ObserveTool(tool.Name(), statusOf(result, err), time.Since(start))
			return result, err
		}
	}
}

// AgentMiddleware counts agent runs.
func (m *Metrics) AgentMiddleware() af.AgentMiddleware {
	return func(next af.AgentHandler) af.AgentHandler {
		return func(ctx context.Context, req *af.AgentRequest) (*af.AgentResponse, error) {
			resp, err := next(ctx, req)
			m.ObserveRun(req.AgentName, err)
			return resp, err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ToolCalls returns the call counter for one tool and outcome.
func (m *Metrics) ToolCalls(name string, status tools.Status) prometheus.Counter {
	return m.toolCalls.WithLabelValues(name, string(status))
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

func statusOf(result any, err error) tools.Status {
	if err != nil {
		return tools.StatusError
	}
	if r, ok := result.(tools.Result); ok {
		return r.Status()
	}
	return tools.StatusSuccess
}
