// Package ai implements the Gemini text-generation client used for entity
// disambiguation and content refinement, plus the prompt builders and
// response sanitizer around it.
//
// Every call site treats a failed or empty response as "no AI opinion" and
// falls back to non-AI behavior; nothing in the pipeline depends on the
// service being reachable.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const httpTimeout = 90 * time.Second

// ErrUnavailable is returned when the client has no API key configured.
// Callers fall back to their non-AI path.
var ErrUnavailable = errors.New("ai service not configured")

// Client calls the Gemini generateContent API. If APIKey is empty, Generate
// returns ErrUnavailable without making a request and the pipeline runs
// without AI assistance.
type Client struct {
	APIKey  string
	BaseURL string
	client  *http.Client
}

// NewClient constructs a Client with a shared HTTP client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// generateRequest mirrors the Gemini generateContent request body.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse mirrors the top-level Gemini response.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends a prompt and returns the sanitized generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", ErrUnavailable
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	reqURL := c.BaseURL + "?key=" + c.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("json unmarshal: %w", err)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response has no candidates")
	}

	return Sanitize(apiResp.Candidates[0].Content.Parts[0].Text), nil
}
