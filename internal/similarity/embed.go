package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
)

const defaultEmbedTimeout = 30 * time.Second

// EmbedProvider scores texts by cosine similarity of dense vectors from
// an OpenAI-compatible embeddings endpoint.
type EmbedProvider struct {
	client *EmbedClient
	model  string
}

func NewEmbedProvider(opts Options, stats *CallStats) *EmbedProvider {
	return &EmbedProvider{
		client: NewEmbedClient(opts, stats),
		model:  opts.Model,
	}
}

func (p *EmbedProvider) Info() Info {
	return Info{Name: "embedding-api", Model: p.model, Mode: ModeEmbedding}
}

// Score embeds the query and all texts in a single batch and compares
// each text vector against the query vector.
func (p *EmbedProvider) Score(ctx context.Context, texts []string, query string) ([]float64, error) {
	inputs := make([]string, 0, len(texts)+1)
	inputs = append(inputs, ClampTokens(query, maxInputTokens))
	for _, t := range texts {
		inputs = append(inputs, ClampTokens(t, maxInputTokens))
	}

	vecs, err := p.client.Embed(ctx, inputs)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(texts))
	for i := range texts {
		scores[i] = cosine32(vecs[0], vecs[i+1])
	}
	return scores, nil
}

// Close releases idle connections held by the underlying client.
func (p *EmbedProvider) Close() { p.client.Close() }

// EmbedClient talks to an OpenAI-compatible POST /embeddings endpoint.
type EmbedClient struct {
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	stats      *CallStats
}

func NewEmbedClient(opts Options, stats *CallStats) *EmbedClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultEmbedTimeout
	}
	return &EmbedClient{
		baseURL:    strings.TrimRight(opts.Endpoint, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		dimensions: opts.Dimensions,
		httpClient: &http.Client{Timeout: timeout},
		stats:      stats,
	}
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed returns one vector per input, in input order. Rate limits and
// server errors are retried with backoff; other failures return at
// once.
func (c *EmbedClient) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	var vecs [][]float32
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		vecs, lastErr = c.embedOnce(ctx, inputs)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return vecs, lastErr
}

func (c *EmbedClient) embedOnce(ctx context.Context, inputs []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := c.doRequest(ctx, inputs)
	c.stats.Record(time.Since(start).Milliseconds(), err == nil)
	return vecs, err
}

func (c *EmbedClient) doRequest(ctx context.Context, inputs []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input:          inputs,
		Model:          c.model,
		Dimensions:     c.dimensions,
		EncodingFormat: "float",
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("embeddings api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: truncate(string(respBody), 200)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings api status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var apiResp embeddingResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return nil, fmt.Errorf("embeddings error: %s: %s", apiResp.Error.Type, apiResp.Error.Message)
	}
	if len(apiResp.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings count mismatch: want %d, got %d", len(inputs), len(apiResp.Data))
	}

	// Responses are not required to preserve input order.
	sort.Slice(apiResp.Data, func(i, j int) bool { return apiResp.Data[i].Index < apiResp.Data[j].Index })
	vecs := make([][]float32, len(apiResp.Data))
	for i, d := range apiResp.Data {
		vecs[i] = d.Embedding
	}
	return vecs, nil
}

// Close releases idle connections.
func (c *EmbedClient) Close() { c.httpClient.CloseIdleConnections() }

func cosine32(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		av, bv := float64(a[i]), float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
