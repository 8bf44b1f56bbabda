package upload

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/p-n-ai/teaching-torch/internal/catalog"
)

// Simulated stores nothing. It drains the body, waits a random delay in
// [MinDelay, MaxDelay] and returns the descriptor the file would have had.
type Simulated struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewSimulated returns a Simulated uploader with the given delay bounds.
func NewSimulated(minDelay, maxDelay time.Duration) *Simulated {
	return &Simulated{MinDelay: minDelay, MaxDelay: maxDelay}
}

func (s *Simulated) Upload(ctx context.Context, req Request) (catalog.FileData, error) {
	if err := req.validate(); err != nil {
		return catalog.FileData{}, err
	}
	n, err := io.Copy(io.Discard, req.Body)
	if err != nil {
		return catalog.FileData{}, fmt.Errorf("reading upload: %w", err)
	}

	timer := time.NewTimer(s.delay())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return catalog.FileData{}, ctx.Err()
	case <-timer.C:
	}

	return req.descriptor(n), nil
}

func (s *Simulated) delay() time.Duration {
	if s.MaxDelay <= s.MinDelay {
		return max(s.MinDelay, 0)
	}
	return s.MinDelay + rand.N(s.MaxDelay-s.MinDelay+1)
}
