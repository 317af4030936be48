// Package openai implements llm.SemanticExtractor against an OpenAI-style
// chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
	"github.com/nvaldebenito/contratos-pipeline/internal/llm"
)

// Extract sends the contract text with the extraction prompt and decodes the
// model's JSON answer. One attempt; the caller's ctx bounds the whole call.
func (c *Client) Extract(ctx context.Context, contractText string) (map[string]any, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(contractText),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &common.SemanticExtractionError{Reason: "rate limiter wait", Cause: err}
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.SystemPrompt},
			{"role": "user", "content": llm.BuildPrompt(contractText)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		if common.IsTimeout(err) {
			return nil, err
		}
		return nil, &common.SemanticExtractionError{Reason: "chat completion request", Cause: err}
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.logger.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, &common.SemanticExtractionError{Reason: "decode completion response", Cause: err}
	}
	if len(cc.Choices) == 0 {
		return nil, &common.SemanticExtractionError{Reason: "no choices in completion response"}
	}

	doc, err := llm.DecodeDocument(cc.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("llm.extract.invalid_output",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"sections", len(doc),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat completions http error: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Warn("response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat completions status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}
