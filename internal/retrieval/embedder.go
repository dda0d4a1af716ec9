// internal/retrieval/embedder.go
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"care-chatbot/internal/common/config"
)

// Embedder turns text into a fixed-dimension dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ==========================
// HTTP embedding API client
// ==========================

// HTTPEmbedder calls an external embedding API.
type HTTPEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	client     *http.Client
}

// NewHTTPEmbedder builds a client from config.
func NewHTTPEmbedder(cfg config.EmbeddingConfig) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed calls the embedding endpoint.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding API returned %d: %s", resp.StatusCode, string(payload))
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(out.Embedding) != e.dimensions {
		return nil, fmt.Errorf("embedding API returned %d dimensions, expected %d", len(out.Embedding), e.dimensions)
	}

	return out.Embedding, nil
}

func (e *HTTPEmbedder) Dimensions() int {
	return e.dimensions
}

// ==========================
// Deterministic local embedder
// ==========================

// LocalEmbedder produces deterministic bag-of-words hash embeddings. It is
// the offline fallback when no embedding API is configured, and it keeps the
// retrieval round-trip testable: texts sharing terms land near each other.
type LocalEmbedder struct {
	dimensions int
}

// NewLocalEmbedder creates a local embedder with the given dimension count.
func NewLocalEmbedder(dimensions int) *LocalEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &LocalEmbedder{dimensions: dimensions}
}

// Embed hashes each token into a stable pseudo-random direction and sums
// the directions, then normalizes to unit length.
func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dimensions)

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:\"'()[]")
		if token == "" {
			continue
		}
		h := fnv.New64a()
		h.Write([]byte(token))
		rng := rand.New(rand.NewSource(int64(h.Sum64())))
		for i := range vec {
			vec[i] += float32(rng.NormFloat64())
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec, nil
}

func (e *LocalEmbedder) Dimensions() int {
	return e.dimensions
}

// backoffEmbedder retries transient embedding failures with capped backoff.
type backoffEmbedder struct {
	inner      Embedder
	maxRetries int
}

// WithRetry wraps an embedder with bounded retries.
func WithRetry(inner Embedder, maxRetries int) Embedder {
	return &backoffEmbedder{inner: inner, maxRetries: maxRetries}
}

func (b *backoffEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt <= b.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<(attempt-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		vec, err := b.inner.Embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", b.maxRetries+1, lastErr)
}

func (b *backoffEmbedder) Dimensions() int {
	return b.inner.Dimensions()
}
