package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func TestUpsertCountryIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	for _, code := range []string{"us", "US", " de "} {
		if err := UpsertCountry(ctx, db, code); err != nil {
			t.Fatalf("upsert %q: %v", code, err)
		}
	}
	codes, err := ListCountries(ctx, db)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 2 || codes[0] != "DE" || codes[1] != "US" {
		t.Fatalf("expected [DE US], got %v", codes)
	}
	if err := UpsertCountry(ctx, db, "  "); err == nil {
		t.Fatalf("expected error for blank country code")
	}
}

func TestTopFirstNamesOrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := UpsertCountry(ctx, db, "US"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	rows := []FirstName{
		{Country: "US", Gender: "M", RankedName: RankedName{Name: "Michael", Rank: 2, Occurrences: 80}},
		{Country: "US", Gender: "M", RankedName: RankedName{Name: "James", Rank: 1, Occurrences: 90}},
		{Country: "US", Gender: "M", RankedName: RankedName{Name: "John", Rank: 3, Occurrences: 70}},
		{Country: "US", Gender: "F", RankedName: RankedName{Name: "Mary", Rank: 1, Occurrences: 95}},
	}
	for _, r := range rows {
		if err := InsertFirstName(ctx, db, r); err != nil {
			t.Fatalf("insert %s: %v", r.Name, err)
		}
	}

	got, err := TopFirstNames(ctx, db, "US", "M", 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(got) != 2 || got[0].Name != "James" || got[1].Name != "Michael" {
		t.Fatalf("unexpected ranking: %+v", got)
	}

	got, err = TopFirstNames(ctx, db, "US", "F", 10)
	if err != nil {
		t.Fatalf("top female: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Mary" {
		t.Fatalf("unexpected female ranking: %+v", got)
	}

	got, err = TopFirstNames(ctx, db, "ZZ", "M", 10)
	if err != nil {
		t.Fatalf("unknown country: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows for unknown country, got %+v", got)
	}

	got, err = TopFirstNames(ctx, db, "US", "M", 0)
	if err != nil || got != nil {
		t.Fatalf("expected nil result for n=0, got %+v, %v", got, err)
	}
}

func TestInsertRejectsInvalidRows(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := InsertFirstName(ctx, db, FirstName{Country: "US", Gender: "X", RankedName: RankedName{Name: "Alex", Rank: 1}}); err == nil {
		t.Fatalf("expected gender validation error")
	}
	if err := InsertLastName(ctx, db, LastName{Country: "US", RankedName: RankedName{Name: "Smith", Rank: 0}}); err == nil {
		t.Fatalf("expected rank validation error")
	}
	if err := InsertLastName(ctx, db, LastName{Country: "US", RankedName: RankedName{Name: " ", Rank: 1}}); err == nil {
		t.Fatalf("expected name validation error")
	}
}

func TestLastNameUpsertReplacesRank(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if err := UpsertCountry(ctx, db, "DE"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	row := LastName{Country: "DE", RankedName: RankedName{Name: "Müller", Rank: 3, Occurrences: 10}}
	if err := InsertLastName(ctx, db, row); err != nil {
		t.Fatalf("insert: %v", err)
	}
	row.Rank = 1
	row.Occurrences = 50
	if err := InsertLastName(ctx, db, row); err != nil {
		t.Fatalf("re-insert: %v", err)
	}

	got, err := TopLastNames(ctx, db, "DE", 5)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(got) != 1 || got[0].Rank != 1 || got[0].Occurrences != 50 {
		t.Fatalf("expected replaced row, got %+v", got)
	}
	if err := QuickCheck(ctx, db); err != nil {
		t.Fatalf("quick_check: %v", err)
	}
}

func TestOpenPathWithURIMetacharacters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "names?v=1#50%.db")
	ctx := context.Background()

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := UpsertCountry(ctx, conn, "US"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	conn.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected dataset at %s: %v", path, err)
	}

	ro, err := OpenReadOnly(path)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()
	codes, err := ListCountries(ctx, ro)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 1 || codes[0] != "US" {
		t.Fatalf("expected [US], got %v", codes)
	}
	if err := UpsertCountry(ctx, ro, "DE"); err == nil {
		t.Fatalf("expected write to fail on a read-only dataset")
	}
}

func TestFileDSN(t *testing.T) {
	tests := []struct{ path, query, want string }{
		{":memory:", "", ":memory:"},
		{"names.db", "", "file:names.db"},
		{"/data/a?b#c%d.db", "mode=ro", "file:/data/a%3Fb%23c%25d.db?mode=ro"},
	}
	for _, tt := range tests {
		if got := fileDSN(tt.path, tt.query); got != tt.want {
			t.Errorf("fileDSN(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
		}
	}
}
