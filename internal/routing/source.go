package routing

import (
	"context"

	"golang.org/x/time/rate"
)

// GraphSource fetches and weights raw map data for an area. The
// production source talks to a shared public map server; everything
// behind this interface is slow and rate-sensitive.
type GraphSource interface {
	FetchGraph(ctx context.Context, areaKey string) (*RoadGraph, error)
}

// RateLimitedSource wraps a source with a token-bucket limiter so
// concurrent cache misses cannot hammer the upstream server.
type RateLimitedSource struct {
	inner GraphSource
	lim   *rate.Limiter
}

func NewRateLimitedSource(inner GraphSource, perSecond float64, burst int) *RateLimitedSource {
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedSource{inner: inner, lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (s *RateLimitedSource) FetchGraph(ctx context.Context, areaKey string) (*RoadGraph, error) {
	if err := s.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.FetchGraph(ctx, areaKey)
}
