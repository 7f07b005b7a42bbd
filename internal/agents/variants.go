// Copyright (c) Microsoft. All rights reserved.

package agents

import (
	"errors"
	"fmt"

	"github.com/SchwartzKamel/chatbot-template/internal/tools"
)

// ErrUnknownVariant is returned by [ParseVariant].
var ErrUnknownVariant = errors.New("unknown agent variant")

// Variant selects which agent graph is exported as the root.
type Variant string

const (
	// VariantOrchestrator coordinates a tool runner holding the Context7
	// search tool.
	VariantOrchestrator Variant = "orchestrator"
	// VariantWeatherTime answers weather and time questions.
	VariantWeatherTime Variant = "weather_time"
	// VariantJoker tells jokes and has no tools.
	VariantJoker Variant = "joker"
)

// Variants lists every supported variant.
var Variants = []Variant{VariantOrchestrator, VariantWeatherTime, VariantJoker}

// ParseVariant maps s to a variant, falling back to def when s is empty.
func ParseVariant(s string, def Variant) (Variant, error) {
	if s == "" {
		return def, nil
	}
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Root assembles the graph for v. Assembly does not validate its input;
// unrecognized variants get the orchestrator.
func Root(v Variant, m Model) *Descriptor {
	switch v {
	case VariantWeatherTime:
		return WeatherTime(m)
	case VariantJoker:
		return Joker(m)
	default:
		return Orchestrator(m)
	}
}

// ToolRunner runs the Context7 search tool on behalf of a coordinator.
func ToolRunner(m Model) *Descriptor {
	return &Descriptor{
		Name:        "ToolRunner",
		Description: "I am responsible for running tools and executing specific functions.",
		Instruction: "I can execute tools and provide results as needed.",
		Model:       m,
		Tools:       []string{tools.NameSearch},
	}
}

// Orchestrator delegates to a [ToolRunner].
func Orchestrator(m Model) *Descriptor {
	return &Descriptor{
		Name:        "Orchestrator",
		Description: "I coordinate tasks across multiple agents for efficient operation.",
		Instruction: "I manage and delegate tasks to specialized agents.",
		Model:       m,
		SubAgents:   []*Descriptor{ToolRunner(m)},
	}
}

func WeatherTime(m Model) *Descriptor {
	return &Descriptor{
		Name:        "weather_time_agent",
		Description: "Agent to answer questions about the time and weather in a city.",
		Instruction: "You are a helpful agent who can answer user questions about the time and weather in a city.",
		Model:       m,
		Tools:       []string{tools.NameWeather, tools.NameTime},
	}
}

func Joker(m Model) *Descriptor {
	return &Descriptor{
		Name:        "Joker Agent",
		Description: "Tells jokes on request.",
		Instruction: "You are good at telling jokes.",
		Model:       m,
	}
}
