package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout    = 60 * time.Second
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
	defaultRetryAttempts  = 3

	contentPlaceholder = "{content}"
)

// Config captures the runtime settings required to talk to the provider.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// Params are the generation parameters for one request. A zero Model falls
// back to the client's configured model.
type Params struct {
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Request is one logical transformation call: rendered prompts plus
// generation parameters.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	Params       Params

	// Notify, when non-nil, is invoked after each failed attempt that will
	// be retried, before the backoff sleep. Callers use it to surface
	// per-request retry state.
	Notify func(attempt int, err error)
}

// Result carries the generated text and how many attempts the call took.
type Result struct {
	Text     string
	Attempts int
}

// Client executes chat-completion requests against an OpenAI-compatible API
// with retry, backoff, and transient/permanent error classification.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
	retryObserver    func(attempt int, err error)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the total number of tries (defaults to 3).
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// WithRetryObserver installs a callback invoked after each failed attempt
// that will be retried. Callers use it to surface retry state.
func WithRetryObserver(observer func(attempt int, err error)) Option {
	return func(c *Client) {
		c.retryObserver = observer
	}
}

// NewClient constructs a transformation client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Model:          strings.TrimSpace(cfg.Model),
			Referer:        strings.TrimSpace(cfg.Referer),
			Title:          strings.TrimSpace(cfg.Title),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:       &http.Client{Timeout: timeout},
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = "https://openrouter.ai/api/v1/chat/completions"
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

// RenderUserPrompt substitutes content into the template's {content} marker.
func RenderUserPrompt(template, content string) (string, error) {
	if !strings.Contains(template, contentPlaceholder) {
		return "", fmt.Errorf("user prompt template missing %s placeholder", contentPlaceholder)
	}
	return strings.ReplaceAll(template, contentPlaceholder, content), nil
}

// Execute performs one logical transformation call. Transient failures are
// retried with capped exponential backoff up to the configured attempt
// ceiling; permanent failures return immediately. The returned error is a
// *ClassifiedError except when the context was cancelled.
func (c *Client) Execute(ctx context.Context, req Request) (Result, error) {
	var empty Result
	if strings.TrimSpace(req.SystemPrompt) == "" {
		return empty, &ClassifiedError{Class: ClassPermanent, Attempts: 0, Err: errors.New("system prompt required")}
	}
	if strings.TrimSpace(req.UserPrompt) == "" {
		return empty, &ClassifiedError{Class: ClassPermanent, Attempts: 0, Err: errors.New("user prompt required")}
	}
	if c.cfg.APIKey == "" {
		return empty, &ClassifiedError{Class: ClassPermanent, Attempts: 0, Err: errors.New("api key required")}
	}

	model := strings.TrimSpace(req.Params.Model)
	if model == "" {
		model = c.cfg.Model
	}
	payload := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Params.Temperature,
		MaxTokens:   req.Params.MaxTokens,
		TopP:        req.Params.TopP,
	}

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		content, err := c.sendChatRequestOnce(ctx, payload)
		if err == nil {
			return Result{Text: content, Attempts: attempt}, nil
		}
		// A client-side HTTP timeout also wraps context.DeadlineExceeded;
		// only the caller's own context ends the retry loop early. Per-call
		// timeouts fall through to classification and are retried.
		if ctx.Err() != nil {
			return empty, err
		}
		if classifyCause(err) == ClassPermanent {
			return empty, &ClassifiedError{Class: ClassPermanent, Attempts: attempt, Err: err}
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		if c.retryObserver != nil {
			c.retryObserver(attempt, err)
		}
		if req.Notify != nil {
			req.Notify(attempt, err)
		}
		if sleepErr := c.sleep(ctx, c.delayFor(err, attempt)); sleepErr != nil {
			return empty, sleepErr
		}
	}
	return empty, &ClassifiedError{
		Class:    ClassTransient,
		Attempts: attempts,
		Err:      fmt.Errorf("failed after %d attempts: %w", attempts, lastErr),
	}
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	TopP        float64       `json:"top_p,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type emptyContentError struct{}

func (emptyContentError) Error() string {
	return "llm request: empty completion content"
}

type apiError struct {
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("llm request: api error: %s", e.Message)
}

func (c *Client) sendChatRequestOnce(ctx context.Context, payload chatCompletionRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", &apiError{Message: fmt.Sprintf("encode body: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", &apiError{Message: fmt.Sprintf("new request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: http error (timeout=%s): %w", c.timeoutDuration(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return "", &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if completion.Error != nil {
		return "", &apiError{Message: strings.TrimSpace(completion.Error.Message)}
	}
	for _, choice := range completion.Choices {
		if content := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); content != "" {
			return content, nil
		}
	}
	return "", emptyContentError{}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// classifyCause maps a single-attempt failure onto the retry taxonomy.
func classifyCause(err error) ErrorClass {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return ClassTransient
		default:
			// Auth failures, malformed requests, and hard quota errors.
			return ClassPermanent
		}
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return ClassPermanent
	}

	var emptyErr emptyContentError
	if errors.As(err, &emptyErr) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ClassTransient
	}

	// Undecodable bodies and other transport-adjacent surprises.
	return ClassTransient
}

func (c *Client) delayFor(err error, attempt int) time.Duration {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		return c.capDelay(statusErr.RetryAfter)
	}
	return c.backoffDelay(attempt)
}

// backoffDelay doubles the base delay per completed attempt, capped at the
// configured maximum: attempt 1 -> base, attempt 2 -> base*2, ...
func (c *Client) backoffDelay(attempt int) time.Duration {
	base := c.retryBaseDelay
	if base <= 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay > maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	return c.capDelay(delay)
}

func (c *Client) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	maxDelay := c.retryMaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) timeoutDuration() time.Duration {
	if c.httpClient == nil || c.httpClient.Timeout <= 0 {
		return defaultHTTPTimeout
	}
	return c.httpClient.Timeout
}

func (c *Client) retryAttempts() int {
	if c.retryMaxAttempts <= 0 {
		return 1
	}
	return c.retryMaxAttempts
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
