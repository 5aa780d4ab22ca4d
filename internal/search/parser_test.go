package search

import (
	"math"
	"testing"
)

func TestParseZipcode(t *testing.T) {
	tests := []string{"12345", "02139", "90210", "12345-6789", "00000"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			q := Parse(input)
			if q.Kind != QueryZipcode {
				t.Fatalf("Parse(%q).Kind = %s, want zipcode", input, q.Kind)
			}
			if q.Value != input {
				t.Errorf("Parse(%q).Value = %q, want exact input", input, q.Value)
			}
		})
	}
}

func TestParsePaddedZipIsInvalid(t *testing.T) {
	for _, input := range []string{" 12345", "12345 ", "\t12345-6789\n", "  02139  "} {
		q := Parse(input)
		if q.Kind != QueryInvalid {
			t.Errorf("Parse(%q).Kind = %s, want invalid", input, q.Kind)
		}
	}
}

func TestParseZipAttemptIsInvalid(t *testing.T) {
	tests := []string{"1", "12", "123", "1234", "12345-", "12345-6", "12345-67", "12345-678", "1-", "123-45"}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			q := Parse(input)
			if q.Kind != QueryInvalid {
				t.Fatalf("Parse(%q).Kind = %s, want invalid", input, q.Kind)
			}
			if q.Reason != "Please enter a valid 5-digit ZIP code" {
				t.Errorf("Parse(%q).Reason = %q", input, q.Reason)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		q := Parse(input)
		if q.Kind != QueryInvalid || q.Reason != "empty or invalid query" {
			t.Errorf("Parse(%q) = %+v, want empty invalid", input, q)
		}
	}
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		input    string
		lat, lng float64
	}{
		{"40.7128,-74.0060", 40.7128, -74.0060},
		{"40.7128, -74.0060", 40.7128, -74.0060},
		{"-33.8688,151.2093", -33.8688, 151.2093},
		{"90,180", 90, 180},
		{"-90,-180", -90, -180},
		{"0,0", 0, 0},
		{"  39.5,  -105.25  ", 39.5, -105.25},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q := Parse(tt.input)
			if q.Kind != QueryCoordinates {
				t.Fatalf("Parse(%q).Kind = %s, want coordinates", tt.input, q.Kind)
			}
			if math.Abs(q.Point.Latitude-tt.lat) > 1e-12 || math.Abs(q.Point.Longitude-tt.lng) > 1e-12 {
				t.Errorf("Parse(%q) = %v, want %v,%v", tt.input, *q.Point, tt.lat, tt.lng)
			}
		})
	}
}

func TestParseOutOfRangeCoordinatesFallThroughToAddress(t *testing.T) {
	for _, input := range []string{"91,0", "0,181", "-90.5,10", "200,-300"} {
		q := Parse(input)
		if q.Kind != QueryAddress {
			t.Errorf("Parse(%q).Kind = %s, want address", input, q.Kind)
		}
		if q.Value != input {
			t.Errorf("Parse(%q).Value = %q", input, q.Value)
		}
	}
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123 Main St, Springfield", "123 Main St, Springfield"},
		{"  Denver, CO  ", "Denver, CO"},
		{"123456", "123456"},
		{"Food Bank of the Rockies", "Food Bank of the Rockies"},
	}

	for _, tt := range tests {
		q := Parse(tt.input)
		if q.Kind != QueryAddress {
			t.Errorf("Parse(%q).Kind = %s, want address", tt.input, q.Kind)
			continue
		}
		if q.Value != tt.want {
			t.Errorf("Parse(%q).Value = %q, want %q", tt.input, q.Value, tt.want)
		}
	}
}

func TestValidateZip(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"12345", true},
		{"12345-6789", true},
		{"1234", false},
		{"123456", false},
		{"12a45", false},
		{" 12345", false},
		{"12345-678", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidateZip(tt.input); got != tt.expected {
			t.Errorf("ValidateZip(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}
