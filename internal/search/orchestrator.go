package search

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/foxxcyber/food-finder/internal/geo"
	"github.com/foxxcyber/food-finder/internal/models"
)

const (
	DefaultCoordinateRadiusMiles = 25.0
	DefaultAddressRadiusMiles    = 15.0

	// HasMoreThreshold is the result count at which more results may exist
	HasMoreThreshold = 20

	DefaultLimit = 50
	MaxLimit     = 100

	textSearchLimit = 200
)

// SearchResult is the ranked outcome of one search
type SearchResult struct {
	Query   ParsedQuery        `json:"query"`
	Center  *geo.LatLng        `json:"center,omitempty"`
	Items   []SearchResultItem `json:"items"`
	HasMore bool               `json:"has_more"`
}

// Searcher runs a single search
type Searcher interface {
	Search(ctx context.Context, q ParsedQuery, f SearchFilters) (*SearchResult, error)
}

// Orchestrator resolves a parsed query to a center point, fetches candidates
// from the store and ranks them.
type Orchestrator struct {
	store    LocationStore
	geocoder Geocoder
}

// NewOrchestrator creates an orchestrator over an explicitly provided store and geocoder
func NewOrchestrator(store LocationStore, geocoder Geocoder) *Orchestrator {
	return &Orchestrator{
		store:    store,
		geocoder: geocoder,
	}
}

// Search runs q with filters f. Failures are returned as *Error; a cancelled
// context is returned as the context's own error so callers can drop the call.
func (o *Orchestrator) Search(ctx context.Context, q ParsedQuery, f SearchFilters) (*SearchResult, error) {
	var (
		candidates []*models.Location
		center     *geo.LatLng
		cutoff     *float64
		err        error
	)

	switch q.Kind {
	case QueryZipcode:
		candidates, err = o.store.FindByZipRegion(ctx, q.Value)
		if err != nil {
			return nil, o.storeFailure(ctx, "zip region", err)
		}
		// best effort: a missing center only disables distance annotation
		if p, ok := o.geocoder.GeocodeZip(ctx, q.Value); ok {
			center = &p
		}
		if f.RadiusMiles != nil && *f.RadiusMiles > 0 {
			cutoff = f.RadiusMiles
		}

	case QueryCoordinates:
		if q.Point == nil || !q.Point.Valid() {
			return nil, invalidQuery("Coordinates are out of range")
		}
		p := *q.Point
		center = &p
		radius := radiusOrDefault(f.RadiusMiles, DefaultCoordinateRadiusMiles)
		cutoff = &radius
		candidates, err = o.store.FindByRadius(ctx, p, geo.MilesToKm(radius))
		if err != nil {
			return nil, o.storeFailure(ctx, "radius", err)
		}
		if len(candidates) == 0 {
			return nil, o.classifyEmpty(ctx, noResultsWithin(radius))
		}

	case QueryAddress:
		candidates, err = o.store.FindByText(ctx, q.Value, TextSearchOptions{Limit: textSearchLimit})
		if err != nil {
			return nil, o.storeFailure(ctx, "text", err)
		}
		// geocode fallback only when the text match found nothing at all
		if len(candidates) == 0 {
			p, ok := o.geocoder.GeocodeAddress(ctx, q.Value)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !ok {
				return nil, geocodingFailed(fmt.Errorf("could not resolve %q", q.Value))
			}
			center = &p
			radius := radiusOrDefault(f.RadiusMiles, DefaultAddressRadiusMiles)
			cutoff = &radius
			candidates, err = o.store.FindByRadius(ctx, p, geo.MilesToKm(radius))
			if err != nil {
				return nil, o.storeFailure(ctx, "radius", err)
			}
			if len(candidates) == 0 {
				return nil, o.classifyEmpty(ctx, noResultsWithin(radius))
			}
		}

	case QueryInvalid:
		return nil, invalidQuery(q.Reason)

	default:
		return nil, invalidQuery(reasonEmpty)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := BuildItems(candidates, center)
	items = ApplyFilters(items, f)
	if cutoff != nil {
		items = WithinRadius(items, *cutoff)
	}
	SortItems(items)

	if len(items) == 0 {
		var none *Error
		if cutoff != nil {
			none = noResultsWithin(*cutoff)
		} else {
			none = noResultsForQuery(q)
		}
		return nil, o.classifyEmpty(ctx, none)
	}

	// counted before the page is cut, so a small limit still reports the rest
	limit := clampLimit(f.Limit)
	hasMore := len(items) > limit || len(items) >= HasMoreThreshold
	if len(items) > limit {
		items = items[:limit]
	}

	return &SearchResult{
		Query:   q,
		Center:  center,
		Items:   items,
		HasMore: hasMore,
	}, nil
}

// Health probes the underlying store. A failed probe or a disconnected store
// is reported as a StoreUnavailable error alongside whatever health was read.
func (o *Orchestrator) Health(ctx context.Context) (StoreHealth, error) {
	health, err := o.store.Probe(ctx)
	if err != nil {
		return health, storeUnavailable(err)
	}
	if !health.Connected {
		return health, storeUnavailable(errors.New("store reported disconnected"))
	}
	return health, nil
}

// classifyEmpty distinguishes an unreachable or empty store from a query that
// legitimately matched nothing.
func (o *Orchestrator) classifyEmpty(ctx context.Context, none *Error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	health, err := o.store.Probe(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Printf("Warning: store probe failed: %v", err)
		return storeUnavailable(err)
	}
	if !health.Connected {
		return storeUnavailable(errors.New("store reported disconnected"))
	}
	if health.RecordCount == 0 {
		return emptyStore()
	}
	return none
}

func (o *Orchestrator) storeFailure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	log.Printf("Warning: %s search against store failed: %v", op, err)
	return storeUnavailable(fmt.Errorf("%s query: %w", op, err))
}

func radiusOrDefault(r *float64, def float64) float64 {
	if r == nil || *r <= 0 {
		return def
	}
	return *r
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
