package similarity

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// MaxRetries is the number of attempts made for a single embedding
// request before the error is surfaced to the selector.
const MaxRetries = 3

// RetryableError marks an embedding API failure that is worth retrying,
// such as a rate limit or a server-side error.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("embeddings api returned status %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether err is a transient embedding failure.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff returns the wait before retry attempt n (0-based):
// exponential with a cap, plus jitter to avoid thundering herds.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<attempt) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}
