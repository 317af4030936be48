// Package extract provides the text-extraction stage and its Azure Document
// Intelligence adapter. The adapter drives the prebuilt-layout model over the
// REST surface: submit the document, then poll the returned operation until
// it settles.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nvaldebenito/contratos-pipeline/internal/common"
)

const (
	analyzeAPIVersion = "2024-11-30"
	defaultPollEvery  = 2 * time.Second
)

type DocIntelConfig struct {
	Endpoint  string
	Key       string
	Timeout   time.Duration // http client timeout per request
	PollEvery time.Duration
}

type DocIntelClient struct {
	cfg    DocIntelConfig
	http   *http.Client
	logger *slog.Logger
}

func NewDocIntelClient(cfg DocIntelConfig, logger *slog.Logger) *DocIntelClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = defaultPollEvery
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DocIntelClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Extract runs prebuilt-layout analysis over the document bytes and returns
// the recognized text per page. Failures wrap into *common.ExtractionError;
// ctx cancellation passes through untouched.
func (c *DocIntelClient) Extract(ctx context.Context, document []byte) (TextExtractionResult, error) {
	start := time.Now()
	if len(document) == 0 {
		return TextExtractionResult{}, &common.ExtractionError{
			Document: "", Cause: fmt.Errorf("empty document"),
		}
	}

	opURL, err := c.submit(ctx, document)
	if err != nil {
		if common.IsTimeout(err) {
			return TextExtractionResult{}, err
		}
		return TextExtractionResult{}, &common.ExtractionError{Cause: err}
	}

	pages, warnings, err := c.poll(ctx, opURL)
	if err != nil {
		if common.IsTimeout(err) {
			return TextExtractionResult{}, err
		}
		return TextExtractionResult{}, &common.ExtractionError{Cause: err}
	}

	res := TextExtractionResult{
		Pages:    pages,
		Duration: time.Since(start),
		Warnings: warnings,
	}
	c.logger.Info("docintel.extract.ok",
		"pages", res.PageCount(),
		"words", res.WordCount(),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// submit posts the document and returns the operation URL to poll.
func (c *DocIntelClient) submit(ctx context.Context, document []byte) (string, error) {
	body, err := json.Marshal(map[string]string{
		"base64Source": base64.StdEncoding.EncodeToString(document),
	})
	if err != nil {
		return "", fmt.Errorf("encode analyze request: %w", err)
	}

	url := fmt.Sprintf(
		"%s/documentintelligence/documentModels/prebuilt-layout:analyze?api-version=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), analyzeAPIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("analyze request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("analyze status %d: %s", resp.StatusCode, payload)
	}
	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("analyze response missing Operation-Location header")
	}
	return opURL, nil
}

type analyzeResult struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		Pages []struct {
			PageNumber int `json:"pageNumber"`
			Lines      []struct {
				Content string `json:"content"`
			} `json:"lines"`
		} `json:"pages"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// poll waits for the analysis operation to settle.
func (c *DocIntelClient) poll(ctx context.Context, opURL string) ([]string, []string, error) {
	ticker := time.NewTicker(c.cfg.PollEvery)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
		if err != nil {
			return nil, nil, err
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.Key)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, nil, fmt.Errorf("poll request: %w", err)
		}
		payload, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, nil, fmt.Errorf("read poll response: %w", readErr)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, nil, fmt.Errorf("poll status %d: %s", resp.StatusCode, payload)
		}

		var result analyzeResult
		if err := json.Unmarshal(payload, &result); err != nil {
			return nil, nil, fmt.Errorf("decode poll response: %w", err)
		}

		switch result.Status {
		case "succeeded":
			var pages []string
			var warnings []string
			for _, p := range result.AnalyzeResult.Pages {
				var b strings.Builder
				for _, line := range p.Lines {
					b.WriteString(line.Content)
					b.WriteByte('\n')
				}
				text := strings.TrimRight(b.String(), "\n")
				if text == "" {
					warnings = append(warnings, fmt.Sprintf("page %d has no recognized text", p.PageNumber))
				}
				pages = append(pages, text)
			}
			if len(pages) == 0 {
				return nil, nil, fmt.Errorf("analysis succeeded with zero pages")
			}
			return pages, warnings, nil
		case "failed":
			return nil, nil, fmt.Errorf("analysis failed: %s: %s", result.Error.Code, result.Error.Message)
		case "running", "notStarted":
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-ticker.C:
			}
		default:
			return nil, nil, fmt.Errorf("unexpected analysis status %q", result.Status)
		}
	}
}
