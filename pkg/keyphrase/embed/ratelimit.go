package embed

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a remote Provider. Each Embed call consumes
// one token regardless of batch size.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with the given burst.
func NewRateLimited(inner Provider, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Embed implements Provider.
func (r *RateLimited) Embed(ctx context.Context, batch []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, batch)
}
