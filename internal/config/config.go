// Copyright (c) Microsoft. All rights reserved.

// Package config loads and validates the environment both agent entry points
// depend on.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/time/rate"
)

// Environment keys.
const (
	KeyAzureAPIKey     = "AZURE_API_KEY"
	KeyAzureAPIBase    = "AZURE_API_BASE"
	KeyAzureAPIVersion = "AZURE_API_VERSION"
	KeyAzureDeployment = "AZURE_DEPLOYMENT_NAME"

	KeyFoundryEndpoint   = "AZURE_AI_PROJECT_ENDPOINT"
	KeyFoundryDeployment = "AZURE_AI_MODEL_DEPLOYMENT_NAME"
	KeyFoundryAPIKey     = "AZURE_AI_API_KEY"
	KeyFoundryAPIVersion = "AZURE_AI_API_VERSION"

	KeyContext7APIKey  = "CONTEXT7_API_KEY"
	KeyContext7BaseURL = "CONTEXT7_BASE_URL"
	KeyContext7Probe   = "CONTEXT7_PROBE"

	KeyRootAgent       = "ROOT_AGENT"
	KeyLogLevel        = "LOG_LEVEL"
	KeyLogFormat       = "LOG_FORMAT"
	KeyTracesExporter  = "OTEL_TRACES_EXPORTER"
	KeyToolRateLimit   = "TOOL_RATE_LIMIT"
	KeyToolRateBurst   = "TOOL_RATE_BURST"
	KeyBreakerFailures = "MODEL_BREAKER_FAILURES"
	KeyMetricsAddr     = "METRICS_ADDR"
)

// Exporter names accepted by OTEL_TRACES_EXPORTER.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

var (
	// ErrMissing is wrapped by [MissingError].
	ErrMissing = errors.New("missing required environment variables")
	// ErrInvalid is wrapped by [InvalidError].
	ErrInvalid = errors.New("invalid configuration value")
)

// Profile selects which set of keys is required.
type Profile int

const (
	// ProfileADK requires the Azure OpenAI keys used by the ADK entry point.
	ProfileADK Profile = iota
	// ProfileFoundry requires the Azure AI Foundry project keys.
	ProfileFoundry
)

func (p Profile) String() string {
	switch p {
	case ProfileADK:
		return "adk"
	case ProfileFoundry:
		return "foundry"
	default:
		return "profile(" + strconv.Itoa(int(p)) + ")"
	}
}

// Required returns the keys the profile cannot run without, in reporting
// order.
func (p Profile) Required() []string {
	switch p {
	case ProfileFoundry:
		return []string{KeyFoundryEndpoint, KeyFoundryDeployment}
	default:
		return []string{KeyAzureAPIKey, KeyAzureAPIBase, KeyAzureAPIVersion, KeyAzureDeployment}
	}
}

// MissingError lists required keys that were absent or empty.
type MissingError struct {
	Missing []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissing, strings.Join(e.Missing, ", "))
}

func (e *MissingError) Unwrap() error { return ErrMissing }

// InvalidError reports an optional key whose value could not be parsed.
type InvalidError struct {
	Key   string
	Value string
	Err   error
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s: %s=%q: %v", ErrInvalid, e.Key, e.Value, e.Err)
}

func (e *InvalidError) Unwrap() []error { return []error{ErrInvalid, e.Err} }

// Azure holds the Azure OpenAI connection used by the ADK profile.
type Azure struct {
	APIKey     string
	APIBase    string
	APIVersion string
	Deployment string
}

// Foundry holds the Azure AI Foundry project connection. APIKey is optional;
// without it the Azure CLI credential is used.
type Foundry struct {
	ProjectEndpoint string
	Deployment      string
	APIKey          string
	APIVersion      string
}

// Context7 configures the documentation search tool.
type Context7 struct {
	APIKey  string
	// BaseURL overrides the search endpoint; empty keeps the tool default.
	BaseURL string
	Probe   bool
}

// Log configures the process logger.
type Log struct {
	Level  string
	Format string
}

// Limits bounds tool and model traffic.
type Limits struct {
	// ToolRate is the sustained tool calls per second; 0 disables limiting.
	ToolRate  float64
	ToolBurst int
	// BreakerFailures is the consecutive model failures that open the
	// circuit; 0 takes the middleware default.
	BreakerFailures uint32
}

// Limiter returns the tool-call limiter, or nil when limiting is disabled.
// A zero burst admits one call at a time.
func (l Limits) Limiter() *rate.Limiter {
	if l.ToolRate <= 0 {
		return nil
	}
	burst := l.ToolBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(l.ToolRate), burst)
}

// Config is the validated process configuration.
type Config struct {
	Profile        Profile
	Azure          Azure
	Foundry        Foundry
	Context7       Context7
	RootAgent      string
	Log            Log
	TracesExporter string
	Limits         Limits
	// MetricsAddr is where the ADK entry point serves /metrics; empty
	// disables it.
	MetricsAddr string
}

// Load validates env for profile p. Every missing required key is reported
// at once; nothing is read from the process environment.
func Load(env map[string]string, p Profile) (*Config, error) {
	var missing []string
	for _, key := range p.Required() {
		if env[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingError{Missing: missing}
	}

	cfg := &Config{
		Profile: p,
		Azure: Azure{
			APIKey:     env[KeyAzureAPIKey],
			APIBase:    env[KeyAzureAPIBase],
			APIVersion: env[KeyAzureAPIVersion],
			Deployment: env[KeyAzureDeployment],
		},
		Foundry: Foundry{
			ProjectEndpoint: env[KeyFoundryEndpoint],
			Deployment:      env[KeyFoundryDeployment],
			APIKey:          env[KeyFoundryAPIKey],
			APIVersion:      env[KeyFoundryAPIVersion],
		},
		Context7: Context7{
			APIKey:  env[KeyContext7APIKey],
			BaseURL: env[KeyContext7BaseURL],
		},
		RootAgent: env[KeyRootAgent],
		Log: Log{
			Level:  withDefault(env[KeyLogLevel], "info"),
			Format: withDefault(env[KeyLogFormat], "text"),
		},
		TracesExporter: strings.ToLower(withDefault(env[KeyTracesExporter], ExporterNone)),
		MetricsAddr:    env[KeyMetricsAddr],
	}

	var err error
	if cfg.Context7.Probe, err = parseBool(env, KeyContext7Probe); err != nil {
		return nil, err
	}
	if cfg.Limits.ToolRate, err = parseFloat(env, KeyToolRateLimit); err != nil {
		return nil, err
	}
	if cfg.Limits.ToolBurst, err = parseInt(env, KeyToolRateBurst); err != nil {
		return nil, err
	}
	failures, err := parseInt(env, KeyBreakerFailures)
	if err != nil {
		return nil, err
	}
	cfg.Limits.BreakerFailures = uint32(failures)

	switch cfg.TracesExporter {
	case ExporterNone, ExporterStdout:
	default:
		return nil, &InvalidError{
			Key:   KeyTracesExporter,
			Value: env[KeyTracesExporter],
			Err:   errors.New("want stdout or none"),
		}
	}
	return cfg, nil
}

// LogAttrs returns the non-secret settings as slog key/value pairs.
func (c *Config) LogAttrs() []any {
	attrs := []any{"profile", c.Profile.String()}
	switch c.Profile {
	case ProfileFoundry:
		attrs = append(attrs,
			"endpoint", c.Foundry.ProjectEndpoint,
			"deployment", c.Foundry.Deployment,
			"api_key_auth", c.Foundry.APIKey != "",
		)
	default:
		attrs = append(attrs,
			"api_base", c.Azure.APIBase,
			"api_version", c.Azure.APIVersion,
			"deployment", c.Azure.Deployment,
		)
	}
	return append(attrs,
		"context7", c.Context7.APIKey != "",
		"root_agent", c.RootAgent,
		"traces", c.TracesExporter,
	)
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseBool(env map[string]string, key string) (bool, error) {
	v := env[key]
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &InvalidError{Key: key, Value: v, Err: err}
	}
	return b, nil
}

func parseFloat(env map[string]string, key string) (float64, error) {
	v := env[key]
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		if err == nil {
			err = errors.New("must not be negative")
		}
		return 0, &InvalidError{Key: key, Value: v, Err: err}
	}
	return f, nil
}

func parseInt(env map[string]string, key string) (int, error) {
	v := env[key]
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		if err == nil {
			err = errors.New("must not be negative")
		}
		return 0, &InvalidError{Key: key, Value: v, Err: err}
	}
	return n, nil
}
