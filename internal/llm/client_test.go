package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func completionPayload(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{"content": content},
			},
		},
	}
}

func testRequest() Request {
	return Request{
		SystemPrompt: "You are a careful editor.",
		UserPrompt:   "Process: hello",
		Params:       Params{Temperature: 0.7, MaxTokens: 256, TopP: 0.9},
	}
}

func TestExecuteSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var payload chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Model != "demo-model" {
			t.Fatalf("unexpected model %q", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" || payload.Messages[1].Role != "user" {
			t.Fatalf("unexpected messages %+v", payload.Messages)
		}
		if err := json.NewEncoder(w).Encode(completionPayload("edited text")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	result, err := client.Execute(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Text != "edited text" {
		t.Fatalf("unexpected text %q", result.Text)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", result.Attempts)
	}
}

func TestExecuteRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(completionPayload("ok"))
	}))
	defer server.Close()

	var slept []time.Duration
	var observed []int
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(3),
		WithRetryBackoff(2*time.Second, 30*time.Second),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryObserver(func(attempt int, err error) { observed = append(observed, attempt) }),
	)

	result, err := client.Execute(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	if len(slept) != 2 || slept[0] != 2*time.Second || slept[1] != 4*time.Second {
		t.Fatalf("unexpected backoff delays %v", slept)
	}
	if len(observed) != 2 || observed[0] != 1 || observed[1] != 2 {
		t.Fatalf("unexpected retry observations %v", observed)
	}
}

func TestExecuteTransientExhaustion(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)

	_, err := client.Execute(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	class, ok := Classify(err)
	if !ok || class != ClassTransient {
		t.Fatalf("expected transient classification, got %v (ok=%v)", class, ok)
	}
	if got := Attempts(err); got != 3 {
		t.Fatalf("expected 3 attempts recorded, got %d", got)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 HTTP calls, got %d", calls.Load())
	}
}

func TestExecuteRetriesClientTimeout(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			time.Sleep(500 * time.Millisecond)
			return
		}
		_ = json.NewEncoder(w).Encode(completionPayload("late but fine"))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		WithRetryMaxAttempts(3),
		WithSleeper(func(time.Duration) {}),
	)

	result, err := client.Execute(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	if result.Text != "late but fine" {
		t.Fatalf("unexpected text %q", result.Text)
	}
}

func TestExecuteClientTimeoutExhaustionIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}),
		WithRetryMaxAttempts(2),
		WithSleeper(func(time.Duration) {}),
	)

	_, err := client.Execute(context.Background(), testRequest())
	if err == nil {
		t.Fatal("expected error")
	}
	class, ok := Classify(err)
	if !ok || class != ClassTransient {
		t.Fatalf("expected transient classification, got %v (ok=%v)", class, ok)
	}
	if got := Attempts(err); got != 2 {
		t.Fatalf("expected 2 attempts recorded, got %d", got)
	}
}

func TestExecutePermanentFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(5),
		WithSleeper(func(time.Duration) { t.Fatal("permanent errors must not sleep") }),
	)

	_, err := client.Execute(context.Background(), testRequest())
	class, ok := Classify(err)
	if !ok || class != ClassPermanent {
		t.Fatalf("expected permanent classification, got %v (ok=%v): %v", class, ok, err)
	}
	if got := Attempts(err); got != 1 {
		t.Fatalf("expected exactly one attempt, got %d", got)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one HTTP call, got %d", calls.Load())
	}
}

func TestExecuteHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(completionPayload("ok"))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(2),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)

	if _, err := client.Execute(context.Background(), testRequest()); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if len(slept) != 1 || slept[0] != 7*time.Second {
		t.Fatalf("expected Retry-After delay, got %v", slept)
	}
}

func TestExecuteBackoffCapped(t *testing.T) {
	client := NewClient(
		Config{APIKey: "test", Model: "demo"},
		WithRetryBackoff(2*time.Second, 5*time.Second),
	)
	if got := client.backoffDelay(1); got != 2*time.Second {
		t.Fatalf("attempt 1 delay = %v", got)
	}
	if got := client.backoffDelay(2); got != 4*time.Second {
		t.Fatalf("attempt 2 delay = %v", got)
	}
	if got := client.backoffDelay(3); got != 5*time.Second {
		t.Fatalf("attempt 3 delay should cap at max, got %v", got)
	}
	if got := client.backoffDelay(10); got != 5*time.Second {
		t.Fatalf("deep attempts should stay capped, got %v", got)
	}
}

func TestExecuteContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo"},
		WithRetryMaxAttempts(5),
		WithSleeper(func(time.Duration) { cancel() }),
	)

	_, err := client.Execute(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if _, ok := Classify(err); ok {
		t.Fatalf("cancellation should not be classified, got %v", err)
	}
}

func TestExecuteMissingAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "demo"})
	_, err := client.Execute(context.Background(), testRequest())
	class, ok := Classify(err)
	if !ok || class != ClassPermanent {
		t.Fatalf("expected permanent classification for missing key, got %v", err)
	}
}

func TestExecuteAPIErrorPayloadIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model not found"},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	_, err := client.Execute(context.Background(), testRequest())
	class, ok := Classify(err)
	if !ok || class != ClassPermanent {
		t.Fatalf("expected permanent classification, got %v", err)
	}
}

func TestRenderUserPrompt(t *testing.T) {
	rendered, err := RenderUserPrompt("Summarize: {content}", "body text")
	if err != nil {
		t.Fatalf("RenderUserPrompt: %v", err)
	}
	if rendered != "Summarize: body text" {
		t.Fatalf("unexpected rendering %q", rendered)
	}

	if _, err := RenderUserPrompt("no placeholder", "x"); err == nil {
		t.Fatal("expected error for template without placeholder")
	}
}
