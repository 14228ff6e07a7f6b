package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/bizledger/docextract/internal/llm"
)

const providerName = "gemini"

// Config for the Gemini client.
type Config struct {
	APIKey      string
	VisionModel string // default gemini-1.5-flash
	TextModel   string // default gemini-1.5-flash
	Temperature float32
}

// Client is the primary (free tier) provider variant.
type Client struct {
	cfg    Config
	genai  *genai.Client
	logger *slog.Logger
}

func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = "gemini-1.5-flash"
	}
	if cfg.TextModel == "" {
		cfg.TextModel = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = slog.Default()
	}

	gc, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger.Info("llm.gemini.init", "vision_model", cfg.VisionModel, "text_model", cfg.TextModel)
	return &Client{cfg: cfg, genai: gc, logger: logger}, nil
}

func (c *Client) Name() string { return providerName }

func (c *Client) Close() error { return c.genai.Close() }

func (c *Client) ExtractFromImage(ctx context.Context, image []byte, prompt, mimeType string) (json.RawMessage, error) {
	model := c.genai.GenerativeModel(c.cfg.VisionModel)
	model.SetTemperature(c.cfg.Temperature)

	parts := []genai.Part{
		genai.Text(prompt + "\n\nReturn ONLY valid JSON, no other text."),
		genai.Blob{MIMEType: mimeType, Data: image},
	}
	return c.generate(ctx, model, parts, "image", len(image))
}

func (c *Client) ExtractFromText(ctx context.Context, text, prompt string) (json.RawMessage, error) {
	model := c.genai.GenerativeModel(c.cfg.TextModel)
	model.SetTemperature(c.cfg.Temperature)

	full := prompt + "\n\nInput text:\n" + text + "\n\nReturn ONLY valid JSON, no other text."
	return c.generate(ctx, model, []genai.Part{genai.Text(full)}, "text", len(text))
}

func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, parts []genai.Part, kind string, inputLen int) (json.RawMessage, error) {
	start := time.Now()
	c.logger.Info("llm.gemini.request", "kind", kind, "input_len", inputLen)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		reason := classify(err)
		c.logger.Error("llm.gemini.error",
			"kind", kind, "reason", string(reason), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.NewProviderError(providerName, reason, err)
	}

	text := joinTextParts(resp)
	if text == "" {
		err := fmt.Errorf("empty response from gemini")
		c.logger.Error("llm.gemini.empty_response", "kind", kind)
		return nil, llm.NewProviderError(providerName, llm.ReasonUnparsable, err)
	}

	obj, err := llm.DecodeJSONObject(text)
	if err != nil {
		c.logger.Error("llm.gemini.unparsable",
			"kind", kind, "error", err, "response_len", len(text),
		)
		return nil, llm.NewProviderError(providerName, llm.ReasonUnparsable, err)
	}

	c.logger.Info("llm.gemini.ok",
		"kind", kind, "response_bytes", len(obj),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return obj, nil
}

func joinTextParts(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(sb.String())
}

func classify(err error) llm.FailureReason {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return llm.ClassifyHTTPStatus(gerr.Code)
	}
	return llm.ClassifyErr(err)
}
