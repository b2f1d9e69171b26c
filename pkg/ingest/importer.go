// Package ingest builds the sqlite name dataset from raw per-country CSV
// files: files are parsed on a WorkerPool and ranked rows are persisted
// through a BatchWriter.
package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/japaniel/namelex/pkg/dataset"
	"github.com/japaniel/namelex/pkg/db"
)

// rowsPerWrite is the number of ranking rows persisted by one WriteFunc.
const rowsPerWrite = 256

// Summary reports what an import wrote.
type Summary struct {
	Files       int
	Countries   int
	FirstNames  int
	LastNames   int
	SkippedRows int
}

// Importer loads raw source files into a dataset database.
type Importer struct {
	DB *sql.DB
	// Workers parse files concurrently; BatchSize is the number of writes per transaction.
	Workers   int
	BatchSize int
	// MaxPerCountry keeps only the best-ranked names per country and role. 0 keeps all.
	MaxPerCountry int
	Logger        *zap.Logger
	// OnProgress is called after each parsed file with the number of files done and total.
	OnProgress func(done, total int)
}

// NewImporter creates an Importer with default concurrency settings.
func NewImporter(conn *sql.DB, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		DB:        conn,
		Workers:   4,
		BatchSize: 50,
		Logger:    log,
	}
}

// Import parses every CSV file in dir and replaces the rankings of each
// country found. An unreadable file aborts the import.
func (im *Importer) Import(ctx context.Context, dir string) (Summary, error) {
	var sum Summary

	files, err := dataset.SourceFiles(dir)
	if err != nil {
		return sum, fmt.Errorf("list source files: %w", err)
	}
	if len(files) == 0 {
		return sum, fmt.Errorf("no csv source files in %s", dir)
	}
	sum.Files = len(files)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		errMu    sync.Mutex
		firstErr error
	)
	record := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		errMu.Unlock()
		cancel()
	}

	pool := NewWorkerPool(im.Workers, len(files))
	pool.OnError = record
	pool.Start(ctx)

	results := make(chan fileResult, im.Workers)
	go func() {
		defer close(results)
		defer pool.Close()
		for _, path := range files {
			path := path
			err := pool.SubmitCtx(ctx, func(ctx context.Context) error {
				res, err := parseFile(path)
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
				select {
				case results <- res:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			if err != nil {
				record(err)
				return
			}
		}
	}()

	bw := NewBatchWriter(im.DB, im.BatchSize, 0, im.Logger)
	bw.OnError = func(err error) { record(err) }

	done := 0
	seen := map[string]bool{}
	for res := range results {
		done++
		if ctx.Err() != nil {
			// Drain so workers can exit; the first error is already recorded.
			continue
		}
		sum.SkippedRows += res.Skipped
		if err := im.persist(bw, res, &sum, seen); err != nil {
			record(err)
		}
		im.Logger.Debug("source file parsed",
			zap.String("path", res.Path),
			zap.Int("rows", res.Rows),
			zap.Int("skipped", res.Skipped),
		)
		if im.OnProgress != nil {
			im.OnProgress(done, len(files))
		}
	}

	if err := bw.Close(); err != nil {
		record(err)
	}

	errMu.Lock()
	defer errMu.Unlock()
	if firstErr != nil {
		return sum, firstErr
	}
	sum.Countries = len(seen)
	im.Logger.Info("name dataset imported",
		zap.Int("files", sum.Files),
		zap.Int("countries", sum.Countries),
		zap.Int("first_names", sum.FirstNames),
		zap.Int("last_names", sum.LastNames),
		zap.Int("skipped_rows", sum.SkippedRows),
	)
	return sum, nil
}

// persist queues the ranked rows of every country in res.
func (im *Importer) persist(bw *BatchWriter, res fileResult, sum *Summary, seen map[string]bool) error {
	countries := make([]string, 0, len(res.Countries))
	for c := range res.Countries {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	for _, country := range countries {
		if seen[country] {
			return fmt.Errorf("country %s appears in more than one source file", country)
		}
		seen[country] = true
		t := res.Countries[country]

		var firsts []db.FirstName
		for _, g := range dataset.Genders {
			for _, r := range rank(t.first[string(g)], im.MaxPerCountry) {
				firsts = append(firsts, db.FirstName{Country: country, Gender: string(g), RankedName: r})
			}
		}
		var lasts []db.LastName
		for _, r := range rank(t.last, im.MaxPerCountry) {
			lasts = append(lasts, db.LastName{Country: country, RankedName: r})
		}

		c := country
		if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
			if err := db.UpsertCountry(ctx, tx, c); err != nil {
				return err
			}
			return db.ClearCountry(ctx, tx, c)
		}); err != nil {
			return err
		}
		for chunk := range slices.Chunk(firsts, rowsPerWrite) {
			if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
				for _, row := range chunk {
					if err := db.InsertFirstName(ctx, tx, row); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return err
			}
		}
		for chunk := range slices.Chunk(lasts, rowsPerWrite) {
			if err := bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
				for _, row := range chunk {
					if err := db.InsertLastName(ctx, tx, row); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return err
			}
		}
		sum.FirstNames += len(firsts)
		sum.LastNames += len(lasts)
	}
	return nil
}
