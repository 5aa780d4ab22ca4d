package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/search"
)

const (
	defaultAttemptTimeout = 5 * time.Second
	defaultRetries        = 2
	defaultBackoff        = 250 * time.Millisecond
	maxCacheEntries       = 10000
)

var (
	ErrNoResults = errors.New("no results found")
	// ErrTransient marks provider failures worth retrying
	ErrTransient = errors.New("transient geocoding failure")
)

// Provider resolves free text (an address or a ZIP code) to a point
type Provider interface {
	Resolve(ctx context.Context, text string) (geo.LatLng, error)
}

// Options tunes the retry and timeout behaviour of a Geocoder
type Options struct {
	AttemptTimeout time.Duration
	Retries        int
	Backoff        time.Duration
}

// Geocoder validates input, calls the provider with a per-attempt timeout,
// retries transient failures and caches successful lookups. Every failure is
// reported as "no point" rather than an error.
type Geocoder struct {
	provider Provider
	opts     Options

	mu    sync.RWMutex
	cache map[string]geo.LatLng
}

var _ search.Geocoder = (*Geocoder)(nil)

// New creates a Geocoder around provider
func New(provider Provider, opts Options) *Geocoder {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	return &Geocoder{
		provider: provider,
		opts:     opts,
		cache:    make(map[string]geo.LatLng),
	}
}

// DefaultOptions returns the standard retry settings
func DefaultOptions() Options {
	return Options{
		AttemptTimeout: defaultAttemptTimeout,
		Retries:        defaultRetries,
		Backoff:        defaultBackoff,
	}
}

// GeocodeZip resolves a ZIP or ZIP+4 code. Invalid codes are rejected before
// the provider is consulted.
func (g *Geocoder) GeocodeZip(ctx context.Context, zip string) (geo.LatLng, bool) {
	if !search.ValidateZip(zip) {
		return geo.LatLng{}, false
	}
	return g.lookup(ctx, zip)
}

// GeocodeAddress resolves free-text address input
func (g *Geocoder) GeocodeAddress(ctx context.Context, text string) (geo.LatLng, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return geo.LatLng{}, false
	}
	return g.lookup(ctx, text)
}

// Resolve is the error-returning form used by the geocode endpoint
func (g *Geocoder) Resolve(ctx context.Context, text string) (geo.LatLng, error) {
	p, ok := g.GeocodeAddress(ctx, text)
	if !ok {
		return geo.LatLng{}, fmt.Errorf("%w for %q", ErrNoResults, text)
	}
	return p, nil
}

func (g *Geocoder) lookup(ctx context.Context, text string) (geo.LatLng, bool) {
	key := strings.ToLower(text)

	g.mu.RLock()
	p, hit := g.cache[key]
	g.mu.RUnlock()
	if hit {
		return p, true
	}

	p, err := g.resolveWithRetry(ctx, text)
	if err != nil {
		if !errors.Is(err, ErrNoResults) && ctx.Err() == nil {
			log.Printf("Warning: geocoding %q failed: %v", text, err)
		}
		return geo.LatLng{}, false
	}
	if !p.Valid() {
		log.Printf("Warning: geocoder returned out-of-range point %v for %q", p, text)
		return geo.LatLng{}, false
	}

	g.mu.Lock()
	if len(g.cache) >= maxCacheEntries {
		g.cache = make(map[string]geo.LatLng)
	}
	g.cache[key] = p
	g.mu.Unlock()

	return p, true
}

func (g *Geocoder) resolveWithRetry(ctx context.Context, text string) (geo.LatLng, error) {
	var lastErr error
	for attempt := 0; attempt <= g.opts.Retries; attempt++ {
		if attempt > 0 {
			wait := g.opts.Backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return geo.LatLng{}, ctx.Err()
			case <-time.After(wait):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.opts.AttemptTimeout)
		p, err := g.provider.Resolve(attemptCtx, text)
		cancel()
		if err == nil {
			return p, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTransient(err) {
			return geo.LatLng{}, err
		}
	}
	return geo.LatLng{}, lastErr
}

func isTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}
