package db

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// InitDB applies the embedded name dataset migrations to the given connection.
func InitDB(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Open opens a writable sqlite dataset at path and applies migrations.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", fileDSN(path, ""))
	if err != nil {
		return nil, err
	}
	// Writes go through one committer; a single connection also keeps
	// ":memory:" databases from splitting across connections.
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// OpenReadOnly opens an existing sqlite dataset without write access.
// The file is not touched until the first query runs.
func OpenReadOnly(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", fileDSN(path, "mode=ro"))
}

// fileDSN builds a sqlite URI for path with '?', '#' and '%' escaped so
// they stay part of the file name.
func fileDSN(path, query string) string {
	if path == ":memory:" {
		return path
	}
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath()
	if query != "" {
		dsn += "?" + query
	}
	return dsn
}
