package geocoding

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/foxxcyber/food-finder/internal/geo"
)

type scriptedProvider struct {
	mu    sync.Mutex
	calls []string
	errs  []error
	point geo.LatLng
}

func (p *scriptedProvider) Resolve(ctx context.Context, text string) (geo.LatLng, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, text)
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		if err != nil {
			return geo.LatLng{}, err
		}
	}
	return p.point, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func fastOptions(retries int) Options {
	return Options{AttemptTimeout: time.Second, Retries: retries, Backoff: time.Millisecond}
}

var denver = geo.LatLng{Latitude: 39.7392, Longitude: -104.9903}

func TestGeocodeZipValidation(t *testing.T) {
	tests := []struct {
		zip  string
		want bool
	}{
		{"80202", true},
		{"80202-1234", true},
		{"8020", false},
		{"802021", false},
		{"abcde", false},
		{" 80202", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.zip, func(t *testing.T) {
			p := &scriptedProvider{point: denver}
			g := New(p, fastOptions(0))
			_, ok := g.GeocodeZip(context.Background(), tt.zip)
			if ok != tt.want {
				t.Errorf("GeocodeZip(%q) ok = %v, want %v", tt.zip, ok, tt.want)
			}
			if !tt.want && p.callCount() != 0 {
				t.Errorf("provider called %d times for invalid zip", p.callCount())
			}
		})
	}
}

func TestGeocodeAddressEmpty(t *testing.T) {
	p := &scriptedProvider{point: denver}
	g := New(p, fastOptions(0))
	if _, ok := g.GeocodeAddress(context.Background(), "   "); ok {
		t.Error("expected empty address to fail")
	}
	if p.callCount() != 0 {
		t.Error("provider should not be called for empty input")
	}
}

func TestGeocoderRetriesTransient(t *testing.T) {
	p := &scriptedProvider{
		point: denver,
		errs:  []error{ErrOverQueryLimit, ErrTransient, nil},
	}
	g := New(p, fastOptions(2))

	got, ok := g.GeocodeAddress(context.Background(), "1600 Broadway, Denver")
	if !ok {
		t.Fatal("expected success after retries")
	}
	if got != denver {
		t.Errorf("got %v, want %v", got, denver)
	}
	if p.callCount() != 3 {
		t.Errorf("calls = %d, want 3", p.callCount())
	}
}

func TestGeocoderGivesUpAfterRetries(t *testing.T) {
	p := &scriptedProvider{
		point: denver,
		errs:  []error{ErrTransient, ErrTransient, ErrTransient, ErrTransient},
	}
	g := New(p, fastOptions(1))

	if _, ok := g.GeocodeAddress(context.Background(), "somewhere"); ok {
		t.Fatal("expected failure")
	}
	if p.callCount() != 2 {
		t.Errorf("calls = %d, want 2", p.callCount())
	}
}

func TestGeocoderDoesNotRetryPermanent(t *testing.T) {
	p := &scriptedProvider{point: denver, errs: []error{ErrRequestDenied}}
	g := New(p, fastOptions(3))

	if _, ok := g.GeocodeAddress(context.Background(), "somewhere"); ok {
		t.Fatal("expected failure")
	}
	if p.callCount() != 1 {
		t.Errorf("calls = %d, want 1", p.callCount())
	}
}

func TestGeocoderCachesSuccess(t *testing.T) {
	p := &scriptedProvider{point: denver}
	g := New(p, fastOptions(0))

	for _, text := range []string{"Denver, CO", "denver, co", "DENVER, CO"} {
		if _, ok := g.GeocodeAddress(context.Background(), text); !ok {
			t.Fatalf("GeocodeAddress(%q) failed", text)
		}
	}
	if p.callCount() != 1 {
		t.Errorf("calls = %d, want 1", p.callCount())
	}
}

func TestGeocoderDoesNotCacheFailure(t *testing.T) {
	p := &scriptedProvider{point: denver, errs: []error{ErrNoResults}}
	g := New(p, fastOptions(0))

	if _, ok := g.GeocodeAddress(context.Background(), "Denver"); ok {
		t.Fatal("first call should fail")
	}
	if _, ok := g.GeocodeAddress(context.Background(), "Denver"); !ok {
		t.Fatal("second call should succeed")
	}
}

func TestGeocoderRejectsOutOfRange(t *testing.T) {
	p := &scriptedProvider{point: geo.LatLng{Latitude: 123, Longitude: 0}}
	g := New(p, fastOptions(0))
	if _, ok := g.GeocodeAddress(context.Background(), "nowhere"); ok {
		t.Error("expected out-of-range point to be rejected")
	}
}

func TestGeocoderCancelledContext(t *testing.T) {
	p := &scriptedProvider{point: denver, errs: []error{ErrTransient}}
	g := New(p, Options{AttemptTimeout: time.Second, Retries: 5, Backoff: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, ok := g.GeocodeAddress(ctx, "Denver"); ok {
		t.Fatal("expected failure after cancellation")
	}
	if p.callCount() != 1 {
		t.Errorf("calls = %d, want 1", p.callCount())
	}
}

func TestResolveReturnsErrNoResults(t *testing.T) {
	p := &scriptedProvider{point: denver, errs: []error{ErrNoResults}}
	g := New(p, fastOptions(0))
	_, err := g.Resolve(context.Background(), "nowhere")
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("err = %v, want ErrNoResults", err)
	}
}

func TestChainProvider(t *testing.T) {
	first := &scriptedProvider{errs: []error{ErrNoResults}}
	second := &scriptedProvider{point: denver}
	c := NewChainProvider(first, nil, second)

	got, err := c.Resolve(context.Background(), "80202")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != denver {
		t.Errorf("got %v, want %v", got, denver)
	}
	if first.callCount() != 1 || second.callCount() != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.callCount(), second.callCount())
	}
}

func TestChainProviderAllFail(t *testing.T) {
	c := NewChainProvider(
		&scriptedProvider{errs: []error{ErrNoResults}},
		&scriptedProvider{errs: []error{ErrOverQueryLimit}},
	)
	_, err := c.Resolve(context.Background(), "x")
	if !errors.Is(err, ErrNoResults) || !errors.Is(err, ErrTransient) {
		t.Errorf("err = %v, want joined no-results and transient", err)
	}

	if _, err := NewChainProvider().Resolve(context.Background(), "x"); !errors.Is(err, ErrNoResults) {
		t.Errorf("empty chain err = %v, want ErrNoResults", err)
	}
}
