package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. It is built once at process
// start and handed to each component; nothing reads the environment later.
type Config struct {
	LLM        LLMConfig
	Content    ContentConfig
	Anonymizer AnonymizerConfig
	OCR        OCRConfig
	Batch      BatchConfig
	LogLevel   slog.Level
}

// LLMConfig holds provider selection and request limits.
type LLMConfig struct {
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	LocalURL         string
	LocalModel       string
	DefaultModel     string
	Timeout          time.Duration
	MaxContextTokens int
	Fallback         string // "none" | "self_hosted"
}

// ContentConfig locates the prompt template and the data blocks.
type ContentConfig struct {
	Dir       string
	NamesFile string
}

// AnonymizerConfig selects the name match policy.
type AnonymizerConfig struct {
	Match string // "fold" | "literal"
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string
	Pdftoppm      string
	TesseractLang string
	TessdataDir   string
	DPI           int
	MaxPages      int
}

// BatchConfig holds batch tool defaults.
type BatchConfig struct {
	LedgerPath string
}

// ErrNoBackend is returned by Validate last, after every other check passed,
// so callers may choose to start anyway and fail per request.
var ErrNoBackend = ConfigurationError("either OPENAI_API_KEY or LOCAL_LLM_URL is required")

const (
	FallbackNone       = "none"
	FallbackSelfHosted = "self_hosted"
)

// LoadDotEnv loads a .env file when present. A missing file is not an error.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("config.dotenv.load_failed", "path", p, "error", err)
		}
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			LocalURL:         getEnv("LOCAL_LLM_URL", ""),
			LocalModel:       getEnv("LOCAL_LLM_MODEL", "local-model"),
			DefaultModel:     getEnv("OPENAI_MODEL", "gpt-4o"),
			Timeout:          getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			MaxContextTokens: getEnvAsInt("LLM_MAX_CONTEXT_TOKENS", 128000),
			Fallback:         strings.ToLower(getEnv("LLM_FALLBACK", FallbackNone)),
		},
		Content: ContentConfig{
			Dir:       getEnv("CONTENT_DIR", "./templates"),
			NamesFile: getEnv("NAMES_FILE", "./templates/names.lst"),
		},
		Anonymizer: AnonymizerConfig{
			Match: strings.ToLower(getEnv("ANONYMIZER_MATCH", "fold")),
		},
		OCR: OCRConfig{
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractLang: getEnv("TESSERACT_LANG", "ces+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Batch: BatchConfig{
			LedgerPath: getEnv("BATCH_LEDGER", "./processed.sqlite"),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// HostedConfigured reports whether the hosted provider credential is present.
func (c LLMConfig) HostedConfigured() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// SelfHostedConfigured reports whether a self-hosted endpoint is present.
func (c LLMConfig) SelfHostedConfigured() bool {
	return strings.TrimSpace(c.LocalURL) != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration. Missing provider settings are
// reported here but the dispatcher also re-checks at call time.
func (c *Config) Validate() error {
	if c.LLM.Fallback != FallbackNone && c.LLM.Fallback != FallbackSelfHosted {
		return ConfigurationError("LLM_FALLBACK must be one of: none | self_hosted")
	}
	if c.LLM.MaxContextTokens <= 0 {
		return ConfigurationError("LLM_MAX_CONTEXT_TOKENS must be positive")
	}
	if c.Content.Dir == "" {
		return ConfigurationError("CONTENT_DIR is required")
	}
	if !c.LLM.HostedConfigured() && !c.LLM.SelfHostedConfigured() {
		return ErrNoBackend
	}
	return nil
}
