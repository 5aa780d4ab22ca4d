package search

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stuckProvider struct{}

func (stuckProvider) CurrentPosition(ctx context.Context) (Position, error) {
	select {}
}

type failingProvider struct{ err error }

func (f failingProvider) CurrentPosition(ctx context.Context) (Position, error) {
	return Position{}, f.err
}

func TestAcquireFromClientReport(t *testing.T) {
	lat, lng := 39.7392, -104.9903
	pos, err := Acquire(context.Background(), ClientReport{Latitude: &lat, Longitude: &lng, Accuracy: 30}, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Latitude != lat || pos.Longitude != lng || pos.Accuracy != 30 {
		t.Errorf("unexpected position %+v", pos)
	}
}

func TestAcquireErrorCodes(t *testing.T) {
	tests := []struct {
		code int
		want ErrorKind
	}{
		{GeoCodePermissionDenied, KindGeolocationDenied},
		{GeoCodePositionUnavailable, KindGeolocationUnavailable},
		{GeoCodeTimeout, KindGeolocationTimeout},
		{42, KindGeolocationUnavailable},
	}

	for _, tt := range tests {
		_, err := Acquire(context.Background(), ClientReport{ErrorCode: tt.code}, time.Second)
		if KindOf(err) != tt.want {
			t.Errorf("code %d: got %v, want %s", tt.code, err, tt.want)
		}
	}
}

func TestAcquireTimeout(t *testing.T) {
	start := time.Now()
	_, err := Acquire(context.Background(), stuckProvider{}, 20*time.Millisecond)
	if KindOf(err) != KindGeolocationTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Acquire did not honor its timeout")
	}
}

func TestAcquireInvalidPosition(t *testing.T) {
	lat, lng := 120.0, 0.0
	_, err := Acquire(context.Background(), ClientReport{Latitude: &lat, Longitude: &lng}, time.Second)
	if KindOf(err) != KindGeolocationUnavailable {
		t.Errorf("expected unavailable for out-of-range position, got %v", err)
	}

	_, err = Acquire(context.Background(), ClientReport{}, time.Second)
	if KindOf(err) != KindGeolocationUnavailable {
		t.Errorf("expected unavailable for missing position, got %v", err)
	}
}

func TestAcquireClassifiesProviderErrors(t *testing.T) {
	_, err := Acquire(context.Background(), failingProvider{err: errors.New("gps off")}, time.Second)
	if KindOf(err) != KindGeolocationUnavailable {
		t.Errorf("got %v", err)
	}

	_, err = Acquire(context.Background(), failingProvider{err: context.DeadlineExceeded}, time.Second)
	if KindOf(err) != KindGeolocationTimeout {
		t.Errorf("got %v", err)
	}
}
