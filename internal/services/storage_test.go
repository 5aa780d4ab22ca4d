package services

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPhotoKey(t *testing.T) {
	tests := []struct {
		contentType string
		wantExt     string
		wantErr     error
	}{
		{"image/jpeg", ".jpg", nil},
		{"IMAGE/PNG", ".png", nil},
		{"image/webp; charset=binary", ".webp", nil},
		{"application/pdf", "", ErrUnsupportedPhotoType},
		{"", "", ErrUnsupportedPhotoType},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			key, err := PhotoKey("loc-1", tt.contentType)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PhotoKey() error = %v", err)
			}
			if !strings.HasPrefix(key, "locations/loc-1/") || !strings.HasSuffix(key, tt.wantExt) {
				t.Errorf("key = %q", key)
			}
		})
	}
}

func TestPhotoKeyUnique(t *testing.T) {
	a, _ := PhotoKey("loc-1", "image/jpeg")
	b, _ := PhotoKey("loc-1", "image/jpeg")
	if a == b {
		t.Errorf("keys should differ, both %q", a)
	}
}

func TestSniffPhoto(t *testing.T) {
	png := "\x89PNG\r\n\x1a\n" + strings.Repeat("p", 600)
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"jpeg", "\xff\xd8\xff\xe0" + strings.Repeat("j", 100), "image/jpeg", nil},
		{"png longer than sniff window", png, "image/png", nil},
		{"webp", "RIFF\x00\x00\x00\x00WEBPVP8 " + strings.Repeat("w", 40), "image/webp", nil},
		{"html renamed to jpg", "<html><body>hi</body></html>", "", ErrUnsupportedPhotoType},
		{"empty", "", "", ErrUnsupportedPhotoType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, r, err := sniffPhoto(strings.NewReader(tt.body))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("sniffPhoto() error = %v", err)
			}
			if ct != tt.want {
				t.Errorf("content type = %q, want %q", ct, tt.want)
			}
			replayed, _ := io.ReadAll(r)
			if string(replayed) != tt.body {
				t.Errorf("replayed %d bytes, want %d", len(replayed), len(tt.body))
			}
		})
	}
}
