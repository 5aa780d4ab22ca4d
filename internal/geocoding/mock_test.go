package geocoding

import (
	"context"
	"errors"
	"testing"

	"github.com/foxxcyber/food-finder/internal/geo"
)

func TestMockProviderKnownZip(t *testing.T) {
	m := NewMockProvider()
	got, err := m.Resolve(context.Background(), "10001")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != knownZipCentroids["10001"] {
		t.Errorf("got %v, want table centroid", got)
	}

	plus4, _ := m.Resolve(context.Background(), "10001-0001")
	if plus4 != got {
		t.Errorf("ZIP+4 resolved to %v, want %v", plus4, got)
	}
}

func TestMockProviderDeterministic(t *testing.T) {
	m := NewMockProvider()
	inputs := []string{"99999", "123 Main St, Springfield", "Boulder, CO", "x"}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			a, err := m.Resolve(context.Background(), in)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			b, _ := m.Resolve(context.Background(), in)
			if a != b {
				t.Errorf("non-deterministic: %v vs %v", a, b)
			}
			if a.Latitude < mockMinLat || a.Latitude > mockMaxLat {
				t.Errorf("latitude %v outside continental box", a.Latitude)
			}
			if a.Longitude < mockMinLng || a.Longitude > mockMaxLng {
				t.Errorf("longitude %v outside continental box", a.Longitude)
			}
		})
	}
}

func TestMockProviderCaseInsensitive(t *testing.T) {
	m := NewMockProvider()
	a, _ := m.Resolve(context.Background(), "Boulder, CO")
	b, _ := m.Resolve(context.Background(), "  boulder, co ")
	if a != b {
		t.Errorf("%v != %v", a, b)
	}
}

func TestMockProviderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockProvider().Resolve(ctx, "10001"); err == nil {
		t.Error("expected error on cancelled context")
	}
}

func TestStrictMockProvider(t *testing.T) {
	m := NewStrictMockProvider()
	tests := []struct {
		in      string
		want    geo.LatLng
		wantErr bool
	}{
		{"10001", knownZipCentroids["10001"], false},
		{"10 W 30th St, New York, NY 10001", knownZipCentroids["10001"], false},
		{"1600 Broadway, Denver, CO 80202-1234", knownZipCentroids["80202"], false},
		{"99999", geo.LatLng{}, true},
		{"123 Main St, Springfield", geo.LatLng{}, true},
		{"1 Elm St, Nowhere, KS 67000", geo.LatLng{}, true},
		{"Boulder, CO", geo.LatLng{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := m.Resolve(context.Background(), tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrNoResults) {
					t.Fatalf("Resolve() = %v, %v; want ErrNoResults", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
