package openai

import (
	"log/slog"
	"net/http"
	"time"
)

// Config for the OpenAI client.
type Config struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	VisionModel string // e.g., "gpt-4o-mini"
	TextModel   string
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
}

// Client is the paid fallback provider variant.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gpt-4o-mini"
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}
