package openai

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Backend names used in logs and results.
const (
	BackendHosted     = "hosted"
	BackendSelfHosted = "self_hosted"
)

// Config for a chat-completions client. The same client serves the hosted
// provider (APIKey set) and a self-hosted OpenAI-compatible server.
type Config struct {
	Name          string        // BackendHosted | BackendSelfHosted
	APIKey        string        // sent as a bearer token when non-empty
	BaseURL       string        // e.g. https://api.openai.com/v1
	ModelOverride string        // self-hosted servers often ignore or reject hosted ids
	Timeout       time.Duration // http client timeout
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Name == "" {
		cfg.Name = BackendHosted
	}
	if cfg.BaseURL == "" && cfg.Name == BackendHosted {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger.With("backend", cfg.Name),
	}
}

// Name identifies the backend.
func (c *Client) Name() string { return c.cfg.Name }

// MapModel returns the model id this backend actually sends.
func (c *Client) MapModel(requested string) string {
	if c.cfg.ModelOverride != "" {
		return c.cfg.ModelOverride
	}
	return requested
}

// Endpoint is the full chat-completions URL.
func (c *Client) Endpoint() string { return c.cfg.BaseURL + "/chat/completions" }
