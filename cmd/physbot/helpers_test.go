package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/germanamz/physbot/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello w...", truncate("hello world, again", 10))
	assert.Equal(t, "hello world", truncate("hello\nworld", 20))
	assert.Equal(t, "no limit", truncate("no limit", 0))
	assert.Empty(t, truncate("", 5))
}

func TestTruncate_WideRunes(t *testing.T) {
	// Each ideograph takes two cells.
	out := truncate("量子力学の問題", 8)
	assert.LessOrEqual(t, len([]rune(out)), 5)
	assert.Contains(t, out, "...")
}

func TestResolveConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.Equal(t, "custom.yaml", resolveConfigPath("custom.yaml"))
	assert.Empty(t, resolveConfigPath(""))

	require.NoError(t, os.WriteFile(defaultConfigFile, []byte("provider: {}\n"), 0o600))
	assert.Equal(t, defaultConfigFile, resolveConfigPath(""))
	assert.Equal(t, "custom.yaml", resolveConfigPath("custom.yaml"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), "nope.env")))
}

func TestLoadDotEnv_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PHYSBOT_TEST_DOTENV=loaded\n"), 0o600))
	t.Setenv("PHYSBOT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("PHYSBOT_TEST_DOTENV"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("PHYSBOT_TEST_DOTENV"))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), "parseLevel(%q)", tt.input)
	}
}

func TestRenderReply(t *testing.T) {
	mdRenderer = nil

	answer := renderReply(engine.Reply{Outcome: engine.OutcomeAnswer, Text: "F = ma"})
	assert.Contains(t, answer, "Here's your answer:")
	assert.Contains(t, answer, "F = ma")

	assert.Contains(t, renderReply(engine.Reply{Outcome: engine.OutcomeEmpty, Text: engine.EmptyInputNotice}), engine.EmptyInputNotice)
	assert.Contains(t, renderReply(engine.Reply{Outcome: engine.OutcomeRejected, Text: engine.DefaultRefusal}), engine.DefaultRefusal)

	failed := renderReply(engine.Reply{Outcome: engine.OutcomeFailed, Text: engine.FailureNotice, Err: errors.New("boom")})
	assert.Contains(t, failed, engine.FailureNotice)
	assert.NotContains(t, failed, "boom")
}

func TestBootstrap_MissingAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")

	_, _, _, err := bootstrap(&globalOpts{envFile: ".env"}, os.Stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrMissingAPIKey)
}

func TestBootstrap_FromDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GEMINI_API_KEY", "")
	require.NoError(t, os.Unsetenv("GEMINI_API_KEY"))
	require.NoError(t, os.WriteFile(".env", []byte("GEMINI_API_KEY=from-dotenv\n"), 0o600))

	logPath := filepath.Join(dir, "physbot.log")
	eng, log, closeLog, err := bootstrap(&globalOpts{envFile: ".env", logFile: logPath, logLevel: "debug"}, os.Stderr)
	require.NoError(t, err)
	defer closeLog()

	require.NotNil(t, log)
	assert.Equal(t, "from-dotenv", eng.Config().Provider.APIKey)
	assert.Equal(t, engine.KindGeminiCompat, eng.Config().Provider.Kind)

	data, err := os.ReadFile(logPath) //nolint:gosec // test path
	require.NoError(t, err)
	assert.Contains(t, string(data), "engine ready")
}
