// Copyright (c) Microsoft. All rights reserved.

// Package agentframework provides the core types for building tool-calling
// agents in Go: a composable Agent with sub-agent delegation, a function
// calling loop, middleware pipelines and conversation sessions.
//
// # Quick Start
//
// Create a ChatClient (e.g., from the openai package) and build an Agent:
//
//	client := openai.New(apiKey,
//	    openai.WithBaseURL(endpoint),
//	    openai.WithAzureDeployment("gpt-4o", "2024-10-21"),
//	)
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithName("assistant"),
//	    agentframework.WithInstructions("You are helpful."),
//	    agentframework.WithTools(myTool),
//	)
//
//	resp, err := agent.Run(ctx, []agentframework.Message{
//	    agentframework.NewUserMessage("Hello!"),
//	})
//
// # Tools
//
// Use [NewTypedTool] for tools with a schema generated from the argument
// struct. The jsonschema tag is the property description; fields without
// omitempty are required:
//
//	type CityArgs struct {
//	    City string `json:"city" jsonschema:"Name of the city"`
//	}
//
//	tool := agentframework.NewTypedTool("get_weather", "Get the weather",
//	    func(ctx context.Context, args CityArgs) (any, error) {
//	        return lookup(args.City), nil
//	    },
//	)
//
// # Sub-agents
//
// [WithSubAgents] offers other agents to the model as tools. The model hands
// the sub-agent a request string and receives its final answer.
//
// # Middleware
//
// Cross-cutting behavior attaches at three levels:
//
//	agent := agentframework.NewAgent(client,
//	    agentframework.WithAgentMiddleware(agentframework.LoggingMiddleware(logger)),
//	    agentframework.WithChatMiddleware(agentframework.CircuitBreakerMiddleware(cfg, logger)),
//	    agentframework.WithFunctionMiddleware(agentframework.RateLimitMiddleware(limiter)),
//	)
//
// # Sessions
//
//	session := agent.NewSession()
//	resp1, _ := agent.Run(ctx, msgs1, agentframework.WithSession(session))
//	resp2, _ := agent.Run(ctx, msgs2, agentframework.WithSession(session))
package agentframework
