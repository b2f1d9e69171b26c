package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UpsertCountry registers a country code. Codes are stored upper-case.
func UpsertCountry(ctx context.Context, db DBExecutor, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("country code must be non-empty")
	}
	_, err := db.ExecContext(ctx, `INSERT INTO countries (code) VALUES (?) ON CONFLICT(code) DO NOTHING`, code)
	if err != nil {
		return fmt.Errorf("upsert country %s: %w", code, err)
	}
	return nil
}

// InsertFirstName stores or replaces a first-name ranking row.
func InsertFirstName(ctx context.Context, db DBExecutor, row FirstName) error {
	if err := validateRow(row.Country, row.Name, row.Rank); err != nil {
		return err
	}
	if row.Gender != "M" && row.Gender != "F" {
		return fmt.Errorf("gender must be M or F, got %q", row.Gender)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO first_names (country, gender, name, rank, occurrences)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(country, gender, name) DO UPDATE SET
		  rank = excluded.rank,
		  occurrences = excluded.occurrences`,
		row.Country, row.Gender, row.Name, row.Rank, row.Occurrences)
	if err != nil {
		return fmt.Errorf("insert first name %s/%s: %w", row.Country, row.Name, err)
	}
	return nil
}

// InsertLastName stores or replaces a last-name ranking row.
func InsertLastName(ctx context.Context, db DBExecutor, row LastName) error {
	if err := validateRow(row.Country, row.Name, row.Rank); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `INSERT INTO last_names (country, name, rank, occurrences)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(country, name) DO UPDATE SET
		  rank = excluded.rank,
		  occurrences = excluded.occurrences`,
		row.Country, row.Name, row.Rank, row.Occurrences)
	if err != nil {
		return fmt.Errorf("insert last name %s/%s: %w", row.Country, row.Name, err)
	}
	return nil
}

func validateRow(country, name string, rank int) error {
	if strings.TrimSpace(country) == "" {
		return fmt.Errorf("country must be non-empty")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name must be non-empty")
	}
	if rank < 1 {
		return fmt.Errorf("rank must be positive, got %d", rank)
	}
	return nil
}

// ListCountries returns every registered country code in ascending order.
func ListCountries(ctx context.Context, db DBExecutor) ([]string, error) {
	query, args, err := sq.Select("code").From("countries").OrderBy("code ASC").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		out = append(out, code)
	}
	return out, rows.Err()
}

// TopFirstNames returns up to n first names for a country and gender, best rank first.
func TopFirstNames(ctx context.Context, db DBExecutor, country, gender string, n int) ([]RankedName, error) {
	if n <= 0 {
		return nil, nil
	}
	b := sq.Select("name", "rank", "occurrences").
		From("first_names").
		Where(sq.Eq{"country": country, "gender": gender}).
		OrderBy("rank ASC", "name ASC").
		Limit(uint64(n))
	return queryRanked(ctx, db, b)
}

// TopLastNames returns up to n last names for a country, best rank first.
func TopLastNames(ctx context.Context, db DBExecutor, country string, n int) ([]RankedName, error) {
	if n <= 0 {
		return nil, nil
	}
	b := sq.Select("name", "rank", "occurrences").
		From("last_names").
		Where(sq.Eq{"country": country}).
		OrderBy("rank ASC", "name ASC").
		Limit(uint64(n))
	return queryRanked(ctx, db, b)
}

func queryRanked(ctx context.Context, db DBExecutor, b sq.SelectBuilder) ([]RankedName, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RankedName
	for rows.Next() {
		var r RankedName
		if err := rows.Scan(&r.Name, &r.Rank, &r.Occurrences); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QuickCheck runs sqlite's integrity probe and returns an error unless it reports "ok".
func QuickCheck(ctx context.Context, db DBExecutor) error {
	var result string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check`).Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("quick_check: %s", result)
	}
	return nil
}

// ClearCountry removes every ranking row for a country so a re-import
// replaces rather than merges.
func ClearCountry(ctx context.Context, db DBExecutor, country string) error {
	country = strings.ToUpper(strings.TrimSpace(country))
	for _, table := range []string{"first_names", "last_names"} {
		query, args, err := sq.Delete(table).Where(sq.Eq{"country": country}).ToSql()
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, country, err)
		}
	}
	return nil
}
