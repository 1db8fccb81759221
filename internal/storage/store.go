package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/ext/unicode"
)

var (
	// ErrNotFound is returned when a looked-up record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is returned when the caller supplied unusable input.
	ErrInvalid = errors.New("invalid input")
)

// DBFile is the database file name inside the data directory.
const DBFile = "provenance.db"

// Store is the provenance database: nodes, relationships, projects and
// workflow templates.
type Store struct {
	db      *sql.DB
	dataDir string
	now     func() time.Time
}

// Open opens (or creates) provenance.db under dataDir and runs migrations.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	// Unicode-aware lower() and LIKE so name search folds non-ASCII letters.
	dbPath := filepath.Join(dataDir, DBFile)
	db, err := driver.Open("file:"+dbPath+dsnPragmas, unicode.Register)
	if err != nil {
		return nil, fmt.Errorf("open provenance db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping provenance db: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate provenance db: %w", err)
	}

	return &Store{db: db, dataDir: dataDir, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the base data directory.
func (s *Store) DataDir() string {
	return s.dataDir
}

// newID returns id unchanged, or a fresh UUID when id is blank.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

// normalizeTime parses an RFC 3339 (or SQLite datetime) timestamp and
// re-renders it in UTC so stored times sort lexically. Blank stays blank.
func normalizeTime(field, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	t, err := parseTime(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s %q is not a timestamp", ErrInvalid, field, value)
	}
	return formatTime(t), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
