// Package similarity scores section texts against a persona query.
//
// Two provider modes exist: a remote embedding endpoint and a local
// corpus-statistics fallback that needs no external resources. The mode
// is chosen once per process from configuration, and a hard embedding
// failure permanently pins the fallback so later runs in the same
// process do not flap between providers.
package similarity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider mode names recorded in run metadata.
const (
	ModeEmbedding = "embedding"
	ModeCorpus    = "corpus-statistics"
)

// Info identifies the provider that produced a run's scores.
type Info struct {
	Name  string `json:"name"`
	Model string `json:"model"`
	Mode  string `json:"mode"`
}

// Options configures the embedding provider. Leaving Endpoint or Model
// empty disables embeddings and the selector starts on the fallback.
type Options struct {
	Endpoint   string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
}

// Selector owns the provider choice for the process. Safe for
// concurrent use.
type Selector struct {
	embed    *EmbedProvider
	fallback *TFIDF
	stats    *CallStats
	log      zerolog.Logger

	mu       sync.Mutex
	degraded bool
}

// NewSelector picks the provider variant once, based on configuration.
func NewSelector(opts Options, log zerolog.Logger) *Selector {
	s := &Selector{
		fallback: NewTFIDF(),
		stats:    NewCallStats(time.Hour),
		log:      log,
	}
	if opts.Endpoint != "" && opts.Model != "" {
		s.embed = NewEmbedProvider(opts, s.stats)
		log.Info().Str("model", opts.Model).Msg("similarity provider: embedding endpoint")
	} else {
		log.Info().Msg("no embedding endpoint configured, using corpus-statistics similarity")
	}
	return s
}

// Score returns one similarity per text, aligned by index, plus the
// provider that produced them. A hard embedding failure degrades to the
// fallback for this and all later calls. Context cancellation and
// deadline expiry pass through unchanged: a caller-side timeout says
// nothing about the provider's health.
func (s *Selector) Score(ctx context.Context, texts []string, query string) ([]float64, Info, error) {
	if len(texts) == 0 {
		return []float64{}, s.Info(), nil
	}
	if s.embedActive() {
		scores, err := s.embed.Score(ctx, texts, query)
		if err == nil {
			return scores, s.embed.Info(), nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, s.embed.Info(), err
		}
		s.degrade(err)
	}
	return s.fallback.Score(texts, query), s.fallback.Info(), nil
}

// Info reports the currently active provider.
func (s *Selector) Info() Info {
	if s.embedActive() {
		return s.embed.Info()
	}
	return s.fallback.Info()
}

// Degraded reports whether a failed embedding call has pinned the
// fallback.
func (s *Selector) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Stats exposes the embedding call statistics collector.
func (s *Selector) Stats() *CallStats { return s.stats }

// Close releases the embedding client's idle connections, if any.
func (s *Selector) Close() {
	if s.embed != nil {
		s.embed.Close()
	}
}

func (s *Selector) embedActive() bool {
	if s.embed == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.degraded
}

func (s *Selector) degrade(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	s.degraded = true
	s.log.Warn().Err(err).Msg("embedding provider failed, using corpus-statistics similarity from now on")
}
