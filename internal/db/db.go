package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/andy/rechnungsbuch/internal/logger"
	_ "github.com/mutecomm/go-sqlcipher/v4"
	"github.com/rs/zerolog"
)

// DB is the encrypted ledger store shared by all repositories
type DB struct {
	*sql.DB
	log zerolog.Logger
}

// pragmas run on every new store. With a wrong key sqlcipher cannot read
// the header, so the journal pragma is the first statement to fail.
var pragmas = []struct {
	stmt string
	what string
}{
	{"PRAGMA foreign_keys = ON", "enable foreign keys"},
	{"PRAGMA journal_mode = WAL", "enable WAL mode (wrong password?)"},
}

func dsn(path, key string) string {
	return path + "?_key=" + url.QueryEscape(key)
}

// Open unlocks the ledger database at path with key, creating the file and
// its directory on first use.
func Open(path, key string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(path, key))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the pragmas in effect and serializes the
	// versioned invoice updates.
	sqlDB.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p.stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to %s: %w", p.what, err)
		}
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := Wrap(sqlDB)
	store.log.Debug().Str("path", path).Msg("ledger database unlocked")
	return store, nil
}

// Wrap adopts an already opened connection, e.g. a sqlmock handle in tests
func Wrap(sqlDB *sql.DB) *DB {
	return &DB{DB: sqlDB, log: logger.WithComponent("db")}
}

func (db *DB) Close() error {
	db.log.Debug().Msg("closing ledger database")
	return db.DB.Close()
}
