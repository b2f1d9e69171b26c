package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/namelex/pkg/db"
)

func writeSource(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestImportRanksNamesPerCountry(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "US.csv", "first_name,last_name,gender,country_code\n"+
		"James,Smith,M,US\n"+
		"James,Jordan,M,US\n"+
		"Jordan,Smith,M,US\n"+
		"Mary,Smith,F,US\n"+
		"Alex,Brown,,US\n")
	// No country column: falls back to the file name.
	writeSource(t, dir, "in.csv", "Priya,Sharma,F\nPriya,Patel,F\nAarav,Sharma,M\n")

	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	im := NewImporter(conn, nil)
	im.Workers = 2
	var progress []int
	im.OnProgress = func(done, total int) {
		assert.Equal(t, 2, total)
		progress = append(progress, done)
	}

	sum, err := im.Import(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, progress)
	assert.Equal(t, Summary{Files: 2, Countries: 2, FirstNames: 5, LastNames: 5}, sum)

	ctx := context.Background()
	codes, err := db.ListCountries(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, []string{"IN", "US"}, codes)

	male, err := db.TopFirstNames(ctx, conn, "US", "M", 10)
	require.NoError(t, err)
	require.Len(t, male, 2)
	assert.Equal(t, db.RankedName{Name: "James", Rank: 1, Occurrences: 2}, male[0])
	assert.Equal(t, db.RankedName{Name: "Jordan", Rank: 2, Occurrences: 1}, male[1])

	lastUS, err := db.TopLastNames(ctx, conn, "US", 10)
	require.NoError(t, err)
	require.Len(t, lastUS, 3)
	assert.Equal(t, "Smith", lastUS[0].Name)
	// Ties are broken alphabetically.
	assert.Equal(t, "Brown", lastUS[1].Name)
	assert.Equal(t, "Jordan", lastUS[2].Name)

	female, err := db.TopFirstNames(ctx, conn, "IN", "F", 10)
	require.NoError(t, err)
	require.Len(t, female, 1)
	assert.Equal(t, 2, female[0].Occurrences)
}

func TestImportReplacesPreviousRankings(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()
	ctx := context.Background()

	first := t.TempDir()
	writeSource(t, first, "DE.csv", "Lukas,Müller,M,DE\nLukas,Schmidt,M,DE\n")
	_, err = NewImporter(conn, nil).Import(ctx, first)
	require.NoError(t, err)

	second := t.TempDir()
	writeSource(t, second, "DE.csv", "Ben,Weber,M,DE\n")
	_, err = NewImporter(conn, nil).Import(ctx, second)
	require.NoError(t, err)

	got, err := db.TopLastNames(ctx, conn, "DE", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Weber", got[0].Name)
}

func TestImportLimitsPerCountry(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "FR.csv", "Jean,Martin,M,FR\nJean,Bernard,M,FR\nLouis,Martin,M,FR\nHugo,Petit,M,FR\n")

	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	im := NewImporter(conn, nil)
	im.MaxPerCountry = 1
	sum, err := im.Import(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.FirstNames)
	assert.Equal(t, 1, sum.LastNames)

	got, err := db.TopLastNames(context.Background(), conn, "FR", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Martin", got[0].Name)
}

func TestImportRejectsDuplicateCountries(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "a.csv", "Ana,Silva,F,BR\n")
	writeSource(t, dir, "b.csv", "Joao,Santos,M,BR\n")

	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewImporter(conn, nil).Import(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BR")
}

func TestImportRequiresSourceFiles(t *testing.T) {
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	defer conn.Close()

	_, err = NewImporter(conn, nil).Import(context.Background(), t.TempDir())
	assert.Error(t, err)

	_, err = NewImporter(conn, nil).Import(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestParseFileSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "JP.csv", "Hiroshi,Sato,M,JP\nlonely\n,,F,JP\nYuki,Tanaka,F,JP\nRen\xe9,Sato,M,JP\nKen,M\xfcller,M,JP\n")

	res, err := parseFile(filepath.Join(dir, "JP.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 4, res.Skipped)
	assert.NotContains(t, res.Countries["JP"].first["M"], "Ken")
	require.Contains(t, res.Countries, "JP")
	assert.Equal(t, 1, res.Countries["JP"].first["F"]["Yuki"])
	assert.Equal(t, 1, res.Countries["JP"].last["Sato"])
}

func TestRankBreaksTiesByName(t *testing.T) {
	got := rank(map[string]int{"b": 2, "a": 2, "c": 5}, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, []int{1, 2, 3}, []int{got[0].Rank, got[1].Rank, got[2].Rank})
}
