package sqlitestore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-blog-admin/store"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
)`

var _ store.Repo = (*SQLiteStore)(nil)

// SQLiteStore is the durable scope, a single key/value table in a local database file.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates the parent directory with owner-only permissions and opens or creates the database at path.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("[sqlitestore.Open] path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] create data folder")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "[sqlitestore.Open] open database")
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "[sqlitestore.Open] %s", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "[sqlitestore.Open] create schema")
	}
	if err := os.Chmod(path, 0o600); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("could not restrict session database permissions")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "[SQLiteStore.Get] %s", key)
	}
	return value, nil
}

func (s *SQLiteStore) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = strftime('%s','now')`, key, value)
	return errors.Wrapf(err, "[SQLiteStore.Set] %s", key)
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	return errors.Wrapf(err, "[SQLiteStore.Delete] %s", key)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
