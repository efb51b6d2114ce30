package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Completion is the parsed result of one chat-completions call.
type Completion struct {
	Text        string
	TotalTokens int
	Latency     time.Duration
}

// Client issues chat-completions requests to any configured backend. It is
// stateless and safe for concurrent use; credentials are passed per call so
// the key pool can rotate them.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a provider client. timeout bounds each outbound call in
// addition to any deadline on the caller's context.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewClientWithHTTPClient wraps an existing *http.Client, used by tests to
// point at httptest servers.
func NewClientWithHTTPClient(hc *http.Client) *Client {
	return &Client{httpClient: hc}
}

// samplingParams are the family-specific generation settings. Translation
// wants low temperature across the board; Cerebras rejects
// frequency_penalty so its entry leaves it unset.
type samplingParams struct {
	temperature      float64
	topP             float64
	frequencyPenalty float64
	hasFreqPenalty   bool
}

var familyParams = map[Family]samplingParams{
	FamilyOpenAI:     {temperature: 0.3, topP: 0.9, frequencyPenalty: 0.2, hasFreqPenalty: true},
	FamilyOpenRouter: {temperature: 0.3, topP: 0.9, frequencyPenalty: 0.2, hasFreqPenalty: true},
	FamilyGroq:       {temperature: 0.2, topP: 0.9, frequencyPenalty: 0.1, hasFreqPenalty: true},
	FamilyCerebras:   {temperature: 0.2, topP: 0.95},
	FamilyDeepSeek:   {temperature: 0.4, topP: 0.95, frequencyPenalty: 0.2, hasFreqPenalty: true},
}

// buildRequestBody assembles the chat-completions JSON body for one call.
func buildRequestBody(d Descriptor, prompt string) map[string]interface{} {
	params, ok := familyParams[d.Family]
	if !ok {
		params = familyParams[FamilyOpenAI]
	}

	body := map[string]interface{}{
		"model": d.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens":  d.MaxTokens,
		"temperature": params.temperature,
		"top_p":       params.topP,
	}
	if params.hasFreqPenalty {
		body["frequency_penalty"] = params.frequencyPenalty
	}
	return body
}

// buildHeaders returns the headers for one call: bearer auth plus any
// family-specific extras.
func buildHeaders(d Descriptor, apiKey string) map[string]string {
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
	if d.Family == FamilyOpenRouter {
		headers["HTTP-Referer"] = "https://polytran.local"
		headers["X-Title"] = "Polytran"
	}
	return headers
}

// Complete sends one translation prompt to the provider and parses the
// response. Failures are returned as typed errors (AuthError,
// RateLimitError, HTTPError, ParseError) so the caller can classify them
// into health-state transitions.
func (c *Client) Complete(ctx context.Context, d Descriptor, apiKey, prompt string) (*Completion, error) {
	start := time.Now()

	jsonData, err := json.Marshal(buildRequestBody(d, prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %q: %w", d.ID, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %q: %w", d.ID, err)
	}
	for k, v := range buildHeaders(d, apiKey) {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %q failed: %w", d.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Bounded read: error bodies are pattern-matched, not stored whole.
		rawBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
		return nil, classifyHTTPFailure(d.ID, resp.StatusCode, string(rawBody))
	}

	var completionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completionResp); err != nil {
		return nil, &ParseError{Provider: d.ID, Cause: err}
	}
	if len(completionResp.Choices) == 0 {
		return nil, &ParseError{Provider: d.ID, Cause: fmt.Errorf("empty choices in response")}
	}

	return &Completion{
		Text:        completionResp.Choices[0].Message.Content,
		TotalTokens: completionResp.Usage.TotalTokens,
		Latency:     time.Since(start),
	}, nil
}

// classifyHTTPFailure turns a non-2xx response into the matching typed
// error. Fine-grained cooldown extraction happens later in the health
// classifier; here only the error family is decided.
func classifyHTTPFailure(providerID string, statusCode int, body string) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{Provider: providerID, Message: body}
	case http.StatusTooManyRequests:
		return &RateLimitError{Provider: providerID, Message: body}
	default:
		return &HTTPError{Provider: providerID, StatusCode: statusCode, Body: body}
	}
}
