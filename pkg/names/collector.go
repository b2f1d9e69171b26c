// Package names gathers normalized first-name and last-name candidates from
// the dataset.
package names

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/japaniel/namelex/pkg/dataset"
)

// Source answers ranked name queries. *dataset.Handle implements it.
type Source interface {
	TopFirstNames(ctx context.Context, country string, gender dataset.Gender, n int) ([]dataset.NameEntry, error)
	TopLastNames(ctx context.Context, country string, n int) ([]dataset.NameEntry, error)
	HasCountry(code string) bool
}

// Candidates holds the two candidate sets of one collection run.
type Candidates struct {
	First *CandidateSet
	Last  *CandidateSet
	// Rejected lists requested country codes the dataset does not know.
	Rejected []string
	// Empty lists recognized countries that contributed no names at all.
	Empty []string
}

// Err returns a *ValidationError when any requested code was rejected.
func (c *Candidates) Err() error {
	if len(c.Rejected) == 0 {
		return nil
	}
	return &ValidationError{Codes: c.Rejected}
}

// Collector queries a Source for the top names of every country.
type Collector struct {
	src Source
	log *zap.Logger
}

// NewCollector creates a Collector over src.
func NewCollector(src Source, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{src: src, log: log}
}

// Collect gathers up to topN first names per gender and topN last names for
// each country. Countries with no data contribute nothing; unknown codes are
// recorded in Candidates.Rejected. Only dataset errors are returned.
func (c *Collector) Collect(ctx context.Context, countries []string, topN int) (*Candidates, error) {
	out := &Candidates{First: NewCandidateSet(), Last: NewCandidateSet()}
	if topN <= 0 {
		return out, nil
	}

	seen := make(map[string]bool, len(countries))
	for _, raw := range countries {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		if !c.src.HasCountry(code) {
			c.log.Warn("unrecognized country code", zap.String("country", raw))
			out.Rejected = append(out.Rejected, raw)
			continue
		}

		contributed := 0
		for _, g := range dataset.Genders {
			entries, err := c.src.TopFirstNames(ctx, code, g, topN)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				out.First.Add(e.Name)
			}
			contributed += len(entries)
		}

		entries, err := c.src.TopLastNames(ctx, code, topN)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out.Last.Add(e.Name)
		}
		contributed += len(entries)

		if contributed == 0 {
			out.Empty = append(out.Empty, code)
		}
		c.log.Debug("country collected", zap.String("country", code), zap.Int("names", contributed))
	}

	c.log.Info("name candidates collected",
		zap.Int("countries", len(countries)),
		zap.Int("first_names", out.First.Len()),
		zap.Int("last_names", out.Last.Len()),
	)
	return out, nil
}
