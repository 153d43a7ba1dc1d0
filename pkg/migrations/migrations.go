package migrations

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var remoteSchemes = []string{"libsql://", "https://", "http://", "wss://", "ws://"}

// IsRemote reports whether `path` is a libsql server url rather than a local
// sqlite file.
func IsRemote(path string) bool {
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(path, scheme) {
			return true
		}
	}
	return false
}

func wrapOpenDB(err error) error {
	return fmt.Errorf("open db: %w", err)
}

// OpenDB opens a local sqlite database (or `:memory:`), or a libsql
// database when `path` is a url.
func OpenDB(path string) (*sql.DB, error) {
	if IsRemote(path) {
		db, err := sql.Open("libsql", path)
		if err != nil {
			return nil, wrapOpenDB(err)
		}
		return db, nil
	}

	if path != ":memory:" {
		os.MkdirAll(filepath.Dir(path), 0777)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, wrapOpenDB(err)
	}

	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	// a single connection also keeps `:memory:` databases alive between queries.
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		db.Close()
		return nil, wrapOpenDB(err)
	}

	return db, nil
}

func wrapOpenAndMigrate(err error) error {
	return fmt.Errorf("open and migrate db: %w", err)
}

// OpenAndMigrateDB opens the database at `path` and applies `schema`, the
// schema must only contain idempotent statements (`IF NOT EXISTS`).
func OpenAndMigrateDB(schema, path string) (*sql.DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, wrapOpenAndMigrate(err)
	}
	_, err = db.Exec(schema)
	if err != nil {
		db.Close()
		return nil, wrapOpenAndMigrate(err)
	}
	return db, nil
}
