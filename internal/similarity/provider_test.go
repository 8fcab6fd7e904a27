package similarity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_NoEndpointStartsOnFallback(t *testing.T) {
	s := NewSelector(Options{}, zerolog.Nop())

	assert.Equal(t, ModeCorpus, s.Info().Mode)
	assert.False(t, s.Degraded())

	scores, info, err := s.Score(context.Background(),
		[]string{"city walking tours", "tax filing deadlines"}, "plan city tours")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, ModeCorpus, info.Mode)
	assert.Greater(t, scores[0], scores[1])
}

func TestSelector_EmbeddingEndpointScores(t *testing.T) {
	var mu sync.Mutex
	var gotAuth string
	var gotReq embeddingRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotReq)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		// Vectors served out of index order on purpose.
		fmt.Fprint(w, `{"data":[
			{"embedding":[0,1],"index":2},
			{"embedding":[1,0],"index":0},
			{"embedding":[1,0],"index":1}
		]}`)
	}))
	defer srv.Close()

	s := NewSelector(Options{Endpoint: srv.URL, APIKey: "test-key", Model: "all-minilm"}, zerolog.Nop())
	defer s.Close()

	scores, info, err := s.Score(context.Background(),
		[]string{"matches the query", "unrelated text"}, "the query")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.InDelta(t, 0.0, scores[1], 1e-9)

	assert.Equal(t, ModeEmbedding, info.Mode)
	assert.Equal(t, "all-minilm", info.Model)
	assert.False(t, s.Degraded())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "all-minilm", gotReq.Model)
	assert.Equal(t, "float", gotReq.EncodingFormat)
	require.Len(t, gotReq.Input, 3)
	assert.Equal(t, "the query", gotReq.Input[0], "query embeds first, texts follow")
}

func TestSelector_HardFailurePinsFallback(t *testing.T) {
	var mu sync.Mutex
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		http.Error(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewSelector(Options{Endpoint: srv.URL, Model: "missing-model"}, zerolog.Nop())
	defer s.Close()

	texts := []string{"harbor ferry schedules", "hotel cancellation policy"}

	scores, info, err := s.Score(context.Background(), texts, "ferry schedules")
	require.NoError(t, err, "fallback must absorb the embedding failure")
	require.Len(t, scores, 2)
	assert.Equal(t, ModeCorpus, info.Mode)
	assert.True(t, s.Degraded())

	_, info, err = s.Score(context.Background(), texts, "ferry schedules")
	require.NoError(t, err)
	assert.Equal(t, ModeCorpus, info.Mode)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "degraded selector must not call the endpoint again")
}

func TestSelector_ContextCancellationDoesNotDegrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"embedding":[1],"index":0},{"embedding":[1],"index":1}]}`)
	}))
	defer srv.Close()

	s := NewSelector(Options{Endpoint: srv.URL, Model: "all-minilm"}, zerolog.Nop())
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Score(ctx, []string{"anything"}, "query")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.False(t, s.Degraded(), "caller cancellation says nothing about provider health")
	assert.Equal(t, ModeEmbedding, s.Info().Mode)
}

func TestSelector_EmptyInput(t *testing.T) {
	s := NewSelector(Options{}, zerolog.Nop())

	scores, _, err := s.Score(context.Background(), nil, "query")
	require.NoError(t, err)
	assert.Empty(t, scores)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&RetryableError{StatusCode: 429, Message: "slow down"}))
	assert.True(t, IsRetryable(fmt.Errorf("embed: %w", &RetryableError{StatusCode: 503})))
	assert.False(t, IsRetryable(errors.New("model not found")))
	assert.False(t, IsRetryable(nil))
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.GreaterOrEqual(t, Backoff(0), time.Second)
		assert.Less(t, Backoff(0), 1500*time.Millisecond)

		assert.GreaterOrEqual(t, Backoff(3), 8*time.Second)
		assert.Less(t, Backoff(3), 12*time.Second)

		assert.GreaterOrEqual(t, Backoff(10), 30*time.Second)
		assert.Less(t, Backoff(10), 45*time.Second)
	}
}
