// Package openai implements provider.Embedder against the OpenAI embeddings
// REST endpoint. Answer generation goes through the Anthropic client; this
// client only turns chunk and query text into vectors.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const embeddingsAPIURL = "https://api.openai.com/v1/embeddings"

// Client calls the OpenAI embeddings API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new embeddings client.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    embeddingsAPIURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Embed generates an embedding vector for each of the given texts.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	requestBody := map[string]interface{}{
		"model": c.model,
		"input": texts,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status: %d", resp.StatusCode)
	}

	var openaiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	vecs := make([][]float32, len(openaiResp.Data))
	for i, d := range openaiResp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}
