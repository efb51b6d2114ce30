package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testDescriptor(family Family, endpoint string) Descriptor {
	return Descriptor{
		ID:        "test-provider",
		Family:    family,
		Model:     "test-model",
		Endpoint:  endpoint,
		MaxTokens: 2048,
	}
}

func successHandler(t *testing.T, capture *map[string]interface{}, captureHeaders *http.Header) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("failed to decode request body: %v", err)
			}
			*capture = body
		}
		if captureHeaders != nil {
			*captureHeaders = r.Header.Clone()
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Привіт, світе!"}},
			},
			"usage": map[string]int{"total_tokens": 42},
		})
	}
}

func TestClient_Complete_Success(t *testing.T) {
	var gotBody map[string]interface{}
	var gotHeaders http.Header
	server := httptest.NewServer(successHandler(t, &gotBody, &gotHeaders))
	defer server.Close()

	c := NewClientWithHTTPClient(server.Client())
	d := testDescriptor(FamilyOpenAI, server.URL)

	completion, err := c.Complete(context.Background(), d, "sk-test", "translate this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if completion.Text != "Привіт, світе!" {
		t.Errorf("unexpected text %q", completion.Text)
	}
	if completion.TotalTokens != 42 {
		t.Errorf("expected 42 tokens, got %d", completion.TotalTokens)
	}
	if completion.Latency <= 0 {
		t.Error("expected positive latency")
	}

	if gotHeaders.Get("Authorization") != "Bearer sk-test" {
		t.Errorf("unexpected auth header %q", gotHeaders.Get("Authorization"))
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("unexpected model %v", gotBody["model"])
	}
	if _, ok := gotBody["frequency_penalty"]; !ok {
		t.Error("openai family request should carry frequency_penalty")
	}

	messages, ok := gotBody["messages"].([]interface{})
	if !ok || len(messages) != 1 {
		t.Fatalf("expected a single user message, got %v", gotBody["messages"])
	}
	msg := messages[0].(map[string]interface{})
	if msg["role"] != "user" {
		t.Errorf("expected user role, got %v", msg["role"])
	}
}

func TestClient_Complete_CerebrasOmitsFrequencyPenalty(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(successHandler(t, &gotBody, nil))
	defer server.Close()

	c := NewClientWithHTTPClient(server.Client())
	d := testDescriptor(FamilyCerebras, server.URL)

	if _, err := c.Complete(context.Background(), d, "sk", "p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := gotBody["frequency_penalty"]; present {
		t.Error("cerebras request must omit frequency_penalty")
	}
}

func TestClient_Complete_OpenRouterExtraHeaders(t *testing.T) {
	var gotHeaders http.Header
	server := httptest.NewServer(successHandler(t, nil, &gotHeaders))
	defer server.Close()

	c := NewClientWithHTTPClient(server.Client())
	d := testDescriptor(FamilyOpenRouter, server.URL)

	if _, err := c.Complete(context.Background(), d, "sk", "p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotHeaders.Get("X-Title") == "" || gotHeaders.Get("HTTP-Referer") == "" {
		t.Error("openrouter request missing attribution headers")
	}
}

func TestClient_Complete_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "401 maps to AuthError",
			statusCode: http.StatusUnauthorized,
			body:       `{"error": "invalid key"}`,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				if !errors.As(err, &authErr) {
					t.Fatalf("expected AuthError, got %T", err)
				}
			},
		},
		{
			name:       "429 maps to RateLimitError with body",
			statusCode: http.StatusTooManyRequests,
			body:       `Rate limit reached. Please try again in 30s.`,
			check: func(t *testing.T, err error) {
				var rateErr *RateLimitError
				if !errors.As(err, &rateErr) {
					t.Fatalf("expected RateLimitError, got %T", err)
				}
				if rateErr.Message == "" {
					t.Error("expected error body preserved for classification")
				}
			},
		},
		{
			name:       "500 maps to HTTPError",
			statusCode: http.StatusInternalServerError,
			body:       `upstream exploded`,
			check: func(t *testing.T, err error) {
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("expected HTTPError, got %T", err)
				}
				if httpErr.StatusCode != http.StatusInternalServerError {
					t.Errorf("unexpected status %d", httpErr.StatusCode)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := NewClientWithHTTPClient(server.Client())
			d := testDescriptor(FamilyOpenAI, server.URL)

			_, err := c.Complete(context.Background(), d, "sk", "p")
			if err == nil {
				t.Fatal("expected an error")
			}
			tt.check(t, err)
		})
	}
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	c := NewClientWithHTTPClient(server.Client())
	d := testDescriptor(FamilyOpenAI, server.URL)

	_, err := c.Complete(context.Background(), d, "sk", "p")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for empty choices, got %v", err)
	}
}

func TestClient_Complete_ContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	c := NewClientWithHTTPClient(server.Client())
	d := testDescriptor(FamilyOpenAI, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := c.Complete(ctx, d, "sk", "p")
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestStatusAndBody(t *testing.T) {
	status, body := StatusAndBody(&AuthError{Provider: "p", Message: "User not found"})
	if status != 401 || body != "User not found" {
		t.Errorf("auth: got (%d, %q)", status, body)
	}

	status, _ = StatusAndBody(&RateLimitError{Provider: "p", Message: "slow down"})
	if status != 429 {
		t.Errorf("rate limit: got %d", status)
	}

	status, _ = StatusAndBody(&HTTPError{Provider: "p", StatusCode: 503, Body: "unavailable"})
	if status != 503 {
		t.Errorf("http: got %d", status)
	}

	status, _ = StatusAndBody(errors.New("dial tcp: connection refused"))
	if status != 0 {
		t.Errorf("transport: got %d", status)
	}
}

func TestNewClient_DefaultTimeout(t *testing.T) {
	c := NewClient(0)
	if c.httpClient.Timeout != 60*time.Second {
		t.Errorf("expected 60s default timeout, got %v", c.httpClient.Timeout)
	}
}
