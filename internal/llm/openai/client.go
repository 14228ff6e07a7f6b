package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizledger/docextract/internal/llm"
)

const providerName = "openai"

const systemPrompt = "You are a data extraction assistant. Extract information from documents and return ONLY valid JSON."

func (c *Client) Name() string { return providerName }

// ExtractFromImage implements llm.Provider using chat/completions with an
// inline data-URL image part.
func (c *Client) ExtractFromImage(ctx context.Context, image []byte, prompt, mimeType string) (json.RawMessage, error) {
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)
	body := map[string]any{
		"model":       c.cfg.VisionModel,
		"temperature": c.cfg.Temperature,
		"max_tokens":  2000,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": prompt},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			}},
		},
	}
	return c.extract(ctx, body, "image", len(image))
}

// ExtractFromText implements llm.Provider using text-only chat/completions.
func (c *Client) ExtractFromText(ctx context.Context, text, prompt string) (json.RawMessage, error) {
	body := map[string]any{
		"model":       c.cfg.TextModel,
		"temperature": c.cfg.Temperature,
		"max_tokens":  2000,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt + "\n\nInput text:\n" + text},
		},
	}
	return c.extract(ctx, body, "text", len(text))
}

func (c *Client) extract(ctx context.Context, body map[string]any, kind string, inputLen int) (json.RawMessage, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.openai.request",
		"req_id", rid, "kind", kind, "input_len", inputLen, "temp", c.cfg.Temperature,
	)

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, status, err := c.post(ctx, endpoint, body)
	if err != nil {
		reason := llm.ClassifyErr(err)
		if status != 0 {
			reason = llm.ClassifyHTTPStatus(status)
		}
		c.logger.Error("llm.openai.http_error",
			"req_id", rid, "status", status, "reason", string(reason), "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.NewProviderError(providerName, reason, err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.openai.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return nil, llm.NewProviderError(providerName, llm.ReasonUnparsable, fmt.Errorf("decode openai response: %w", err))
	}
	if len(cc.Choices) == 0 {
		return nil, llm.NewProviderError(providerName, llm.ReasonUnparsable, fmt.Errorf("no choices in openai response"))
	}

	obj, err := llm.DecodeJSONObject(cc.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("llm.openai.unparsable",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.NewProviderError(providerName, llm.ReasonUnparsable, err)
	}

	c.logger.Info("llm.openai.ok",
		"req_id", rid, "kind", kind, "response_bytes", len(obj),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return obj, nil
}

// post sends the request and returns body bytes plus the HTTP status. A
// non-2xx status is returned as an error with the status preserved so the
// caller can classify it.
func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("openai http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			c.logger.Warn("openai response body close error", "error", cerr)
		}
	}(resp.Body)

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, resp.StatusCode, fmt.Errorf("openai status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, resp.StatusCode, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
