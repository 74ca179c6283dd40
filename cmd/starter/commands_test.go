package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webstack/starter/internal/model"
)

func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if name, _, _ := strings.Cut(kv, "="); strings.HasPrefix(name, "APP_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func execute(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSettingsCommand(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("APP_NAME", "Demo")
	t.Setenv("APP_SECRET_KEY", "keep-this-out-of-output")

	code, stdout, _ := execute(t, "settings", "--no-env-file")
	require.Equal(t, exitOK, code)
	assert.NotContains(t, stdout, "keep-this-out-of-output")

	var s model.Settings
	require.NoError(t, json.Unmarshal([]byte(stdout), &s))
	assert.Equal(t, "Demo", s.AppName)
	assert.Equal(t, "development", s.Environment)
}

func TestSettingsCommand_Schema(t *testing.T) {
	clearAppEnv(t)

	code, stdout, _ := execute(t, "settings", "--schema")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "APP_SERVER__PORT")
}

func TestInvalidConfigurationExitsWithConfigCode(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("APP_SERVER__PORT", "not-a-port")
	t.Setenv("APP_LOG_LEVEL", "loud")

	for _, args := range [][]string{{"--no-env-file"}, {"serve", "--no-env-file"}, {"settings", "--no-env-file"}} {
		code, stdout, stderr := execute(t, args...)
		assert.Equal(t, exitConfig, code, args)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "Invalid configuration")
		assert.Contains(t, stderr, "APP_SERVER__PORT")
		assert.Contains(t, stderr, "not-a-port")
	}
}

func TestProductionWithoutSecretExitsWithConfigCode(t *testing.T) {
	clearAppEnv(t)
	t.Setenv("APP_ENVIRONMENT", "production")
	t.Setenv("APP_DEBUG", "false")

	code, _, stderr := execute(t, "settings")
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr, "secret_key")
}

func TestVersionCommand(t *testing.T) {
	code, stdout, _ := execute(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "starter dev (commit unknown)\n", stdout)
}

func TestUnknownCommandFails(t *testing.T) {
	code, _, stderr := execute(t, "frobnicate")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "unknown command")
}
