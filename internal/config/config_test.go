// Copyright (c) Microsoft. All rights reserved.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SchwartzKamel/chatbot-template/internal/config"
)

func adkEnv() map[string]string {
	return map[string]string{
		config.KeyAzureAPIKey:     "secret",
		config.KeyAzureAPIBase:    "https://res.openai.azure.com",
		config.KeyAzureAPIVersion: "2024-10-21",
		config.KeyAzureDeployment: "gpt-4o",
	}
}

func TestLoad_ADK(t *testing.T) {
	env := adkEnv()
	env[config.KeyContext7APIKey] = "c7"

	cfg, err := config.Load(env, config.ProfileADK)
	require.NoError(t, err)

	assert.Equal(t, config.Azure{
		APIKey:     "secret",
		APIBase:    "https://res.openai.azure.com",
		APIVersion: "2024-10-21",
		Deployment: "gpt-4o",
	}, cfg.Azure)
	assert.Equal(t, "c7", cfg.Context7.APIKey)
	assert.Empty(t, cfg.Context7.BaseURL, "tools.DefaultSearchURL applies")
	assert.False(t, cfg.Context7.Probe)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, config.ExporterNone, cfg.TracesExporter)
}

func TestLoad_OptionalContext7(t *testing.T) {
	cfg, err := config.Load(adkEnv(), config.ProfileADK)
	require.NoError(t, err)
	assert.Empty(t, cfg.Context7.APIKey)
}

func TestLoad_MissingReportedInOrder(t *testing.T) {
	_, err := config.Load(map[string]string{
		config.KeyAzureAPIBase: "https://x",
	}, config.ProfileADK)

	require.ErrorIs(t, err, config.ErrMissing)
	var me *config.MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{
		config.KeyAzureAPIKey,
		config.KeyAzureAPIVersion,
		config.KeyAzureDeployment,
	}, me.Missing)
	assert.Contains(t, err.Error(), "AZURE_API_KEY, AZURE_API_VERSION, AZURE_DEPLOYMENT_NAME")
}

func TestLoad_EmptyCountsAsMissing(t *testing.T) {
	env := adkEnv()
	env[config.KeyAzureDeployment] = ""

	_, err := config.Load(env, config.ProfileADK)
	var me *config.MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{config.KeyAzureDeployment}, me.Missing)
}

func TestLoad_AllMissing(t *testing.T) {
	_, err := config.Load(nil, config.ProfileADK)
	var me *config.MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, config.ProfileADK.Required(), me.Missing)
}

func TestLoad_Foundry(t *testing.T) {
	_, err := config.Load(adkEnv(), config.ProfileFoundry)
	var me *config.MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{config.KeyFoundryEndpoint, config.KeyFoundryDeployment}, me.Missing)

	cfg, err := config.Load(map[string]string{
		config.KeyFoundryEndpoint:   "https://proj.services.ai.azure.com/models",
		config.KeyFoundryDeployment: "gpt-4o-mini",
	}, config.ProfileFoundry)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Foundry.Deployment)
	assert.Empty(t, cfg.Foundry.APIKey)
}

func TestLoad_Optionals(t *testing.T) {
	env := adkEnv()
	env[config.KeyContext7Probe] = "true"
	env[config.KeyContext7BaseURL] = "http://localhost:9999/search"
	env[config.KeyToolRateLimit] = "2.5"
	env[config.KeyToolRateBurst] = "4"
	env[config.KeyBreakerFailures] = "3"
	env[config.KeyTracesExporter] = "STDOUT"
	env[config.KeyRootAgent] = "weather_time"
	env[config.KeyMetricsAddr] = ":9464"

	cfg, err := config.Load(env, config.ProfileADK)
	require.NoError(t, err)
	assert.True(t, cfg.Context7.Probe)
	assert.Equal(t, "http://localhost:9999/search", cfg.Context7.BaseURL)
	assert.Equal(t, config.Limits{ToolRate: 2.5, ToolBurst: 4, BreakerFailures: 3}, cfg.Limits)
	assert.Equal(t, config.ExporterStdout, cfg.TracesExporter)
	assert.Equal(t, "weather_time", cfg.RootAgent)
	assert.Equal(t, ":9464", cfg.MetricsAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{config.KeyContext7Probe, "maybe"},
		{config.KeyToolRateLimit, "fast"},
		{config.KeyToolRateLimit, "-1"},
		{config.KeyToolRateBurst, "x"},
		{config.KeyBreakerFailures, "-2"},
		{config.KeyTracesExporter, "jaeger"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			env := adkEnv()
			env[tc.key] = tc.value

			_, err := config.Load(env, config.ProfileADK)
			require.ErrorIs(t, err, config.ErrInvalid)
			var ie *config.InvalidError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tc.key, ie.Key)
		})
	}
}

func TestLoad_MissingBeatsInvalid(t *testing.T) {
	_, err := config.Load(map[string]string{config.KeyToolRateLimit: "bad"}, config.ProfileADK)
	assert.True(t, errors.Is(err, config.ErrMissing))
	assert.False(t, errors.Is(err, config.ErrInvalid))
}

func TestLogAttrs_NoSecrets(t *testing.T) {
	env := adkEnv()
	env[config.KeyContext7APIKey] = "c7-secret"
	cfg, err := config.Load(env, config.ProfileADK)
	require.NoError(t, err)

	for _, v := range cfg.LogAttrs() {
		assert.NotEqual(t, "secret", v)
		assert.NotEqual(t, "c7-secret", v)
	}
	assert.Contains(t, cfg.LogAttrs(), "gpt-4o")
}

func TestEnviron(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("CT_TEST_A=one\nCT_TEST_B=one\n"), 0o600))
	require.NoError(t, os.WriteFile(second, []byte("CT_TEST_B=two\nCT_TEST_C=two\n"), 0o600))
	t.Setenv("CT_TEST_C", "process")

	env, err := config.Environ(first, filepath.Join(dir, "absent.env"), second)
	require.NoError(t, err)
	assert.Equal(t, "one", env["CT_TEST_A"])
	assert.Equal(t, "two", env["CT_TEST_B"])
	assert.Equal(t, "process", env["CT_TEST_C"])
}

func TestProfileString(t *testing.T) {
	assert.Equal(t, "adk", config.ProfileADK.String())
	assert.Equal(t, "foundry", config.ProfileFoundry.String())
}

func TestLimits_Limiter(t *testing.T) {
	assert.Nil(t, config.Limits{}.Limiter())

	l := config.Limits{ToolRate: 2, ToolBurst: 0}.Limiter()
	require.NotNil(t, l)
	assert.InDelta(t, 2.0, float64(l.Limit()), 1e-9)
	assert.Equal(t, 1, l.Burst())

	assert.Equal(t, 5, config.Limits{ToolRate: 1, ToolBurst: 5}.Limiter().Burst())
}
