package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMigrationVersionsAscending(t *testing.T) {
	versions := migrationVersions()
	if len(versions) != len(migrations) {
		t.Fatalf("got %d versions, want %d", len(versions), len(migrations))
	}
	for i, v := range versions {
		if v != i+1 {
			t.Errorf("versions[%d] = %d, want %d", i, v, i+1)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"food bank", "food bank"},
		{"100%", `100\%`},
		{"st_john", `st\_john`},
		{`a\b`, `a\\b`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := escapeLike(tt.in); got != tt.want {
				t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", dup, "users_email_key", true},
		{"any constraint", dup, "", true},
		{"wrapped", fmt.Errorf("insert: %w", dup), "users_email_key", true},
		{"other constraint", dup, "regions_name_state_key", false},
		{"other code", &pgconn.PgError{Code: "23503"}, "", false},
		{"plain error", errors.New("boom"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNonNilStrings(t *testing.T) {
	if got := nonNilStrings(nil); got == nil || len(got) != 0 {
		t.Errorf("nonNilStrings(nil) = %#v", got)
	}
	in := []string{"en"}
	if got := nonNilStrings(in); len(got) != 1 || got[0] != "en" {
		t.Errorf("nonNilStrings(%v) = %v", in, got)
	}
}
