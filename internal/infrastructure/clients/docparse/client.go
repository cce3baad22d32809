package docparse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zojatech/healthmate/backend/pkg/config"
	apperrors "github.com/zojatech/healthmate/backend/pkg/errors"
	"github.com/zojatech/healthmate/backend/pkg/retry"
)

// Client calls the external document parsing service, which converts an
// uploaded file (PDF, image) into markdown text.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   retry.Config
}

// NewClient creates a new parsing service client.
func NewClient(cfg *config.ParserConfig) *Client {
	timeout := 60 * time.Second
	if cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		retryCfg: retry.Config{
			MaxAttempts:     3,
			InitialDelay:    500 * time.Millisecond,
			MaxDelay:        5 * time.Second,
			BackoffFactor:   2.0,
			MaxTotalTimeout: 2 * timeout,
		},
	}
}

type parseRequest struct {
	FileURL  string `json:"file_url"`
	MimeType string `json:"mime_type,omitempty"`
	Format   string `json:"format"`
}

type parseResponse struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

// Parse submits the stored file to the parsing service and returns the
// extracted text. Transient upstream failures are retried; an empty body
// after a successful parse is an error because nothing downstream can run
// without text.
func (c *Client) Parse(ctx context.Context, filePath, mimeType string) (string, error) {
	if c.baseURL == "" {
		return "", apperrors.NewExternalError("document parsing service is not configured", nil)
	}

	body, err := json.Marshal(parseRequest{
		FileURL:  filePath,
		MimeType: mimeType,
		Format:   "markdown",
	})
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode parse request", err)
	}

	var text string
	err = retry.DoWithLog(ctx, c.retryCfg, "docparse", func() error {
		parsed, reqErr := c.doParse(ctx, body)
		if reqErr != nil {
			return reqErr
		}
		text = parsed
		return nil
	}, func(attempt int, err error, nextDelay time.Duration) {
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("next_delay", nextDelay).
			Msg("document parse attempt failed, retrying")
	})
	if err != nil {
		return "", apperrors.NewExternalError("document parsing service failed", err)
	}

	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewExternalError("document parsing service returned no text", nil)
	}
	return text, nil
}

func (c *Client) doParse(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/parse", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("parsing service returned status %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	var parsed parseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing service returned invalid JSON: %w", err)
	}
	if parsed.Markdown != "" {
		return parsed.Markdown, nil
	}
	return parsed.Text, nil
}

func truncateBody(body []byte) string {
	const max = 256
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
