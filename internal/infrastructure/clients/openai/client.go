package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements providers.TextGenerator against the OpenAI chat
// completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *tokenBucket
}

// NewClient creates a new OpenAI client.
func NewClient(cfg *config.OpenAIConfig) (*Client, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	limiter := newTokenBucket(cfg.RateLimitRPM, cfg.RateLimitBurst)

	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: limiter,
	}, nil
}

// Name identifies this provider in logs and metrics.
func (c *Client) Name() string {
	return "openai"
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate issues one chat completion call and returns the raw model text.
func (c *Client) Generate(ctx context.Context, req providers.GenerationRequest) (string, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			recordGenerationMetric(ctx, c.model, 0, 0, err)
			return "", err
		}
		recordRateLimitWait(ctx, c.model, time.Since(waitStart))
	}

	payload := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": req.System},
			{"role": "user", "content": req.Prompt},
		},
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.JSONMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		recordGenerationMetric(ctx, c.model, 0, time.Since(start), err)
		return "", fmt.Errorf("%w: %v", providers.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := fmt.Errorf("status %d", resp.StatusCode)
		recordGenerationMetric(ctx, c.model, resp.StatusCode, time.Since(start), statusErr)
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return "", fmt.Errorf("%w: openai request failed with status %d", providers.ErrGenerationUnauthorized, resp.StatusCode)
		case resp.StatusCode == http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: openai request failed with status %d", providers.ErrGenerationQuota, resp.StatusCode)
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500:
			return "", fmt.Errorf("%w: openai request failed with status %d", providers.ErrGenerationUnavailable, resp.StatusCode)
		default:
			return "", fmt.Errorf("openai request failed with status %d", resp.StatusCode)
		}
	}

	var envelope chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		recordGenerationMetric(ctx, c.model, resp.StatusCode, time.Since(start), err)
		return "", err
	}
	if len(envelope.Choices) == 0 {
		missingErr := errors.New("openai response missing choices")
		recordGenerationMetric(ctx, c.model, resp.StatusCode, time.Since(start), missingErr)
		return "", missingErr
	}

	text := strings.TrimSpace(envelope.Choices[0].Message.Content)
	if text == "" {
		emptyErr := errors.New("openai response missing content")
		recordGenerationMetric(ctx, c.model, resp.StatusCode, time.Since(start), emptyErr)
		return "", emptyErr
	}

	recordGenerationMetric(ctx, c.model, resp.StatusCode, time.Since(start), nil)
	return text, nil
}

func newTokenBucket(rpm int, burst int) *tokenBucket {
	if rpm == 0 {
		rpm = 60
	}
	if rpm < 0 {
		return nil
	}
	if burst <= 0 {
		burst = 5
	}
	return newTokenBucketWithRate(rpm, burst)
}

type tokenBucket struct {
	tokens chan struct{}
}

func newTokenBucketWithRate(rpm int, burst int) *tokenBucket {
	bucket := &tokenBucket{
		tokens: make(chan struct{}, burst),
	}

	for i := 0; i < burst; i++ {
		bucket.tokens <- struct{}{}
	}

	interval := time.Minute / time.Duration(rpm)
	if interval <= 0 {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			select {
			case bucket.tokens <- struct{}{}:
			default:
			}
		}
	}()

	return bucket
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.tokens:
		return nil
	}
}

type generationMetrics struct {
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestErrors   metric.Int64Counter
	rateLimitWait   metric.Float64Histogram
}

var genMetricsInit = false
var genMetrics generationMetrics

func ensureGenMetrics() {
	if genMetricsInit {
		return
	}
	meter := otel.Meter("github.com/zojatech/healthmate/backend/openai")

	requestCount, err := meter.Int64Counter(
		"ai.generation.request.count",
		metric.WithDescription("Number of generation requests"),
	)
	if err != nil {
		return
	}
	requestDuration, err := meter.Float64Histogram(
		"ai.generation.request.duration",
		metric.WithDescription("Generation request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}
	requestErrors, err := meter.Int64Counter(
		"ai.generation.request.errors",
		metric.WithDescription("Number of generation request errors"),
	)
	if err != nil {
		return
	}
	rateLimitWait, err := meter.Float64Histogram(
		"ai.generation.rate_limit.wait",
		metric.WithDescription("Time spent waiting for the provider rate limiter in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return
	}

	genMetrics = generationMetrics{
		requestCount:    requestCount,
		requestDuration: requestDuration,
		requestErrors:   requestErrors,
		rateLimitWait:   rateLimitWait,
	}
	genMetricsInit = true
}

func recordGenerationMetric(ctx context.Context, model string, statusCode int, duration time.Duration, err error) {
	ensureGenMetrics()
	if !genMetricsInit {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", statusCode))
	}

	genMetrics.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	genMetrics.requestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	if err != nil {
		genMetrics.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordRateLimitWait(ctx context.Context, model string, wait time.Duration) {
	ensureGenMetrics()
	if !genMetricsInit {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("ai.provider", "openai"),
		attribute.String("ai.model", model),
	}
	genMetrics.rateLimitWait.Record(ctx, float64(wait.Milliseconds()), metric.WithAttributes(attrs...))
}
