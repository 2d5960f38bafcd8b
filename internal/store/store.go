package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/kindex/internal/schema"
)

//go:embed schema.sql
var schemaSQL string

// SchemaVersion is the layout written by this build, stamped into
// PRAGMA user_version when a database is initialised.
const SchemaVersion = 1

// DefaultCacheSize is the number of decoded definitions kept in memory.
const DefaultCacheSize = 64

// ErrSchemaVersion is returned by Open for a database whose layout this
// build does not know, e.g. one written by a newer kindex.
var ErrSchemaVersion = errors.New("unsupported store schema version")

// connParams are applied by the driver to every connection it opens.
var connParams = url.Values{
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
	"_foreign_keys": {"on"},
}

// Store provides durable storage for definitions and index runs.
type Store struct {
	db   *sql.DB
	defs *lru.Cache[string, *schema.Definition]
}

// Open creates or opens the SQLite database at path.
//
// A fresh database is initialised with the embedded schema and stamped
// with SchemaVersion. An existing one must already carry SchemaVersion;
// anything newer fails with ErrSchemaVersion rather than being written
// with a layout it was not created for.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?"+connParams.Encode())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// One writer at a time; also pins ":memory:" to a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	cache, err := lru.New[string, *schema.Definition](DefaultCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: definition cache: %w", path, err)
	}

	return &Store{db: db, defs: cache}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initSchema creates the tables of a fresh database and checks the
// version of an existing one.
func initSchema(db *sql.DB) error {
	raw, err := pragma(db, "user_version")
	if err != nil {
		return err
	}
	version, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	switch {
	case version == SchemaVersion:
		return nil
	case version > SchemaVersion:
		return fmt.Errorf("%w: database is v%d, this build writes v%d", ErrSchemaVersion, version, SchemaVersion)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	// PRAGMA does not take bind parameters.
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("stamp user_version: %w", err)
	}
	return tx.Commit()
}

// pragma reads the current value of a connection setting.
func pragma(db *sql.DB, name string) (string, error) {
	var value string
	if err := db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
