package store

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the current location in a single-row settings table
// using the pure Go sqlite driver.
type SQLiteStore struct {
	db    *sql.DB
	codec locationCodec
}

// NewSQLite opens (or creates) the database at path and applies the schema.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		log.Println("store: could not set WAL mode:", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS settings (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Save writes loc under LocationKey. Failures are logged and swallowed.
func (s *SQLiteStore) Save(loc weather.Location) {
	raw, err := s.codec.encode(loc)
	if err != nil {
		logSaveFailure(err)
		return
	}
	if err := s.put(LocationKey, string(raw)); err != nil {
		logSaveFailure(err)
	}
}

// Load reads the location stored under LocationKey. Missing rows, storage
// errors and malformed values all report false.
func (s *SQLiteStore) Load() (weather.Location, bool) {
	raw, err := s.get(LocationKey)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Println("store: error reading saved location:", err)
		}
		return weather.Location{}, false
	}
	return s.codec.decode([]byte(raw))
}

func (s *SQLiteStore) put(key, value string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO settings(key, value, updated_at) VALUES(?,?,?)`,
		key, value, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	return value, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
