package geocoding

import (
	"context"
	"errors"

	"github.com/foxxcyber/food-finder/internal/geo"
)

// ChainProvider asks each provider in turn and returns the first point found
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider creates a chain; nil providers are skipped
func NewChainProvider(providers ...Provider) *ChainProvider {
	c := &ChainProvider{}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Resolve implements Provider. If every provider fails, the errors are joined;
// the result is transient only if some provider failed transiently.
func (c *ChainProvider) Resolve(ctx context.Context, text string) (geo.LatLng, error) {
	if len(c.providers) == 0 {
		return geo.LatLng{}, ErrNoResults
	}

	var errs []error
	for _, p := range c.providers {
		point, err := p.Resolve(ctx, text)
		if err == nil {
			return point, nil
		}
		if ctx.Err() != nil {
			return geo.LatLng{}, ctx.Err()
		}
		errs = append(errs, err)
	}
	return geo.LatLng{}, errors.Join(errs...)
}
