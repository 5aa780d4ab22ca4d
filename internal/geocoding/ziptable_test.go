package geocoding

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

const sampleCSV = `Zipcode,ZipCodeType,City,State,LocationType,Lat,Long
80202,STANDARD,DENVER,CO,PRIMARY,39.7527,-104.9995
10001,STANDARD,NEW YORK,NY,PRIMARY,40.7506,-73.9972
BADZIP,STANDARD,NOWHERE,XX,PRIMARY,1,1
99999,STANDARD,BROKEN,XX,PRIMARY,not-a-number,1
short,row
80202,STANDARD,DUPLICATE,CO,PRIMARY,0,0
`

func newTestZipTable(t *testing.T) *ZipTableProvider {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(zipTableSchema); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return NewZipTableProvider(db)
}

func TestZipTableImportAndResolve(t *testing.T) {
	z := newTestZipTable(t)
	ctx := context.Background()

	n, err := z.ImportCSV(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if n != 2 {
		t.Errorf("imported %d rows, want 2", n)
	}

	count, err := z.Count(ctx)
	if err != nil || count != 2 {
		t.Errorf("Count() = %d, %v; want 2", count, err)
	}

	tests := []struct {
		name    string
		input   string
		wantLat float64
		wantErr error
	}{
		{"five digit", "80202", 39.7527, nil},
		{"zip plus four", "10001-1234", 40.7506, nil},
		{"missing", "55555", 0, ErrNoResults},
		{"not a zip", "Denver, CO", 0, ErrNoResults},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := z.Resolve(ctx, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got.Latitude != tt.wantLat {
				t.Errorf("latitude = %v, want %v", got.Latitude, tt.wantLat)
			}
		})
	}
}

func TestZipTableEmptyCSV(t *testing.T) {
	z := newTestZipTable(t)
	n, err := z.ImportCSV(context.Background(), strings.NewReader(""))
	if err != nil || n != 0 {
		t.Errorf("ImportCSV(empty) = %d, %v", n, err)
	}
}
