package common

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "LOCAL_LLM_URL", "LOCAL_LLM_MODEL", "OPENAI_MODEL",
		"LLM_TIMEOUT", "LLM_MAX_CONTEXT_TOKENS", "LLM_FALLBACK", "CONTENT_DIR", "NAMES_FILE",
		"ANONYMIZER_MATCH", "OCR_DPI", "LOG_LEVEL", "BATCH_LEDGER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := LoadConfig()

	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.OpenAIBaseURL)
	assert.Equal(t, "gpt-4o", cfg.LLM.DefaultModel)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 128000, cfg.LLM.MaxContextTokens)
	assert.Equal(t, FallbackNone, cfg.LLM.Fallback)
	assert.Equal(t, "./templates", cfg.Content.Dir)
	assert.Equal(t, "fold", cfg.Anonymizer.Match)
	assert.Equal(t, "ces+eng", cfg.OCR.TesseractLang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.LLM.HostedConfigured())
	assert.False(t, cfg.LLM.SelfHostedConfigured())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-x")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("LLM_MAX_CONTEXT_TOKENS", "8192")
	t.Setenv("LLM_FALLBACK", "Self_Hosted")
	t.Setenv("OCR_DPI", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.True(t, cfg.LLM.HostedConfigured())
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 8192, cfg.LLM.MaxContextTokens)
	assert.Equal(t, FallbackSelfHosted, cfg.LLM.Fallback)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to ""
	require.NoError(t, os.Unsetenv("LOCAL_LLM_URL"))
	p := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(p, []byte("LOCAL_LLM_URL=http://localhost:8080/v1\n"), 0o644))

	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), p)
	assert.Equal(t, "http://localhost:8080/v1", os.Getenv("LOCAL_LLM_URL"))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLM:     LLMConfig{LocalURL: "http://x", MaxContextTokens: 100, Fallback: FallbackNone},
			Content: ContentConfig{Dir: "./templates"},
		}
	}
	require.NoError(t, valid().Validate())

	c := valid()
	c.LLM.Fallback = "always"
	assert.Equal(t, CodeConfiguration, KindOf(c.Validate()))

	c = valid()
	c.LLM.MaxContextTokens = 0
	assert.Contains(t, c.Validate().Error(), "LLM_MAX_CONTEXT_TOKENS")

	c = valid()
	c.Content.Dir = ""
	assert.Contains(t, c.Validate().Error(), "CONTENT_DIR")

	c = valid()
	c.LLM.LocalURL = " "
	err := c.Validate()
	assert.True(t, errors.Is(err, ErrNoBackend))
	assert.True(t, errors.Is(err, ErrConfiguration))
}
