// Package dataset loads the bundled demographic name database and answers
// ranked first-name and last-name queries per country.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/japaniel/namelex/pkg/db"
)

// Gender identifies the gender partition of a first-name ranking.
type Gender string

const (
	Male   Gender = "M"
	Female Gender = "F"
)

// Genders lists every gender code recognized by the dataset.
var Genders = []Gender{Male, Female}

// NameEntry is a single ranked name returned by a query. Gender is empty for
// last names.
type NameEntry struct {
	Name    string
	Country string
	Gender  Gender
	Rank    int
}

// Options controls how the dataset is loaded.
type Options struct {
	Path string
	// LoadTimeout bounds Initialize. Zero means no limit.
	LoadTimeout time.Duration
	// MaxResidentBytes rejects datasets larger than this many bytes. Zero means no limit.
	MaxResidentBytes int64
	Logger           *zap.Logger
}

// Handle is an initialized, read-only dataset.
type Handle struct {
	conn      *sql.DB
	path      string
	countries []string
	known     map[string]bool
	log       *zap.Logger
}

// Initialize opens the dataset at opts.Path, verifies it and loads the
// country index. Every failure is returned as a *ResourceError.
func Initialize(ctx context.Context, opts Options) (*Handle, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	info, err := os.Stat(opts.Path)
	if err != nil {
		return nil, &ResourceError{Op: "stat", Path: opts.Path, Err: err}
	}
	if info.IsDir() {
		return nil, &ResourceError{Op: "stat", Path: opts.Path, Err: errors.New("is a directory")}
	}
	if opts.MaxResidentBytes > 0 && info.Size() > opts.MaxResidentBytes {
		return nil, &ResourceError{
			Op:   "load",
			Path: opts.Path,
			Err:  fmt.Errorf("%w: %d bytes > %d bytes", ErrMemoryBudget, info.Size(), opts.MaxResidentBytes),
		}
	}

	if opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.LoadTimeout)
		defer cancel()
	}

	log.Info("loading name dataset", zap.String("path", opts.Path), zap.Int64("bytes", info.Size()))
	start := time.Now()

	conn, err := db.OpenReadOnly(opts.Path)
	if err != nil {
		return nil, &ResourceError{Op: "open", Path: opts.Path, Err: err}
	}

	h := &Handle{conn: conn, path: opts.Path, log: log}
	if err := h.load(ctx); err != nil {
		conn.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", ErrLoadTimeout, opts.LoadTimeout)
		}
		return nil, &ResourceError{Op: "load", Path: opts.Path, Err: err}
	}

	log.Info("name dataset loaded",
		zap.Int("countries", len(h.countries)),
		zap.Duration("duration", time.Since(start)),
	)
	return h, nil
}

func (h *Handle) load(ctx context.Context) error {
	if err := h.conn.PingContext(ctx); err != nil {
		return err
	}
	if err := db.QuickCheck(ctx, h.conn); err != nil {
		return fmt.Errorf("corrupt dataset: %w", err)
	}
	countries, err := db.ListCountries(ctx, h.conn)
	if err != nil {
		return fmt.Errorf("read country index: %w", err)
	}
	// The deadline may expire between queries without any of them failing.
	if err := ctx.Err(); err != nil {
		return err
	}
	h.countries = countries
	h.known = make(map[string]bool, len(countries))
	for _, c := range countries {
		h.known[c] = true
	}
	return nil
}

// Close releases the underlying database.
func (h *Handle) Close() error {
	return h.conn.Close()
}

// CountryCodes returns every country code present in the dataset, sorted.
func (h *Handle) CountryCodes() []string {
	out := make([]string, len(h.countries))
	copy(out, h.countries)
	return out
}

// HasCountry reports whether the dataset knows the given country code.
func (h *Handle) HasCountry(code string) bool {
	return h.known[strings.ToUpper(strings.TrimSpace(code))]
}

// TopFirstNames returns up to n of the highest-ranked first names for a
// country and gender. Unknown countries and empty partitions yield an empty
// result, not an error.
func (h *Handle) TopFirstNames(ctx context.Context, country string, gender Gender, n int) ([]NameEntry, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if n <= 0 || !h.known[country] {
		return nil, nil
	}
	rows, err := db.TopFirstNames(ctx, h.conn, country, string(gender), n)
	if err != nil {
		return nil, &ResourceError{Op: "query", Path: h.path, Err: fmt.Errorf("first names %s/%s: %w", country, gender, err)}
	}
	return toEntries(rows, country, gender), nil
}

// TopLastNames returns up to n of the highest-ranked last names for a country.
func (h *Handle) TopLastNames(ctx context.Context, country string, n int) ([]NameEntry, error) {
	country = strings.ToUpper(strings.TrimSpace(country))
	if n <= 0 || !h.known[country] {
		return nil, nil
	}
	rows, err := db.TopLastNames(ctx, h.conn, country, n)
	if err != nil {
		return nil, &ResourceError{Op: "query", Path: h.path, Err: fmt.Errorf("last names %s: %w", country, err)}
	}
	return toEntries(rows, country, ""), nil
}

func toEntries(rows []db.RankedName, country string, gender Gender) []NameEntry {
	out := make([]NameEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, NameEntry{Name: r.Name, Country: country, Gender: gender, Rank: r.Rank})
	}
	return out
}
