package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/japaniel/namelex/pkg/db"
)

// countryTally accumulates name occurrences for one country.
type countryTally struct {
	first map[string]map[string]int // gender -> name -> occurrences
	last  map[string]int
}

func newCountryTally() *countryTally {
	return &countryTally{
		first: map[string]map[string]int{"M": {}, "F": {}},
		last:  map[string]int{},
	}
}

// fileResult is the parsed content of one source file.
type fileResult struct {
	Path      string
	Countries map[string]*countryTally
	Rows      int
	Skipped   int
}

// parseFile reads a raw name-dataset CSV file. Rows are
// first_name,last_name,gender,country_code; the country column falls back
// to the file name (US.csv -> US) when absent.
func parseFile(path string) (fileResult, error) {
	res := fileResult{Path: path, Countries: map[string]*countryTally{}}

	f, err := os.Open(path)
	if err != nil {
		return res, err
	}
	defer f.Close()

	fallback := strings.ToUpper(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true

	for line := 0; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("read %s: %w", path, err)
		}
		if line == 0 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "first_name") {
			continue
		}
		if len(record) < 2 {
			res.Skipped++
			continue
		}

		first := strings.TrimSpace(record[0])
		last := strings.TrimSpace(record[1])
		gender := ""
		if len(record) > 2 {
			gender = strings.ToUpper(strings.TrimSpace(record[2]))
		}
		country := fallback
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			country = strings.ToUpper(strings.TrimSpace(record[3]))
		}
		if (first == "" && last == "") || !utf8.ValidString(first) || !utf8.ValidString(last) {
			res.Skipped++
			continue
		}

		t, ok := res.Countries[country]
		if !ok {
			t = newCountryTally()
			res.Countries[country] = t
		}
		if byName, ok := t.first[gender]; ok && first != "" {
			byName[first]++
		}
		if last != "" {
			t.last[last]++
		}
		res.Rows++
	}
	return res, nil
}

// rank orders names by occurrences (desc) then name (asc) and assigns
// 1-based ranks. limit <= 0 keeps every name.
func rank(counts map[string]int, limit int) []db.RankedName {
	out := make([]db.RankedName, 0, len(counts))
	for name, n := range counts {
		out = append(out, db.RankedName{Name: name, Occurrences: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Occurrences != out[j].Occurrences {
			return out[i].Occurrences > out[j].Occurrences
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
