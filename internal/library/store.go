package library

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// BookMetadataRecord is the persisted per-book row. It is created on import,
// updated on every re-open, and is the only state this subsystem keeps
// across sessions.
type BookMetadataRecord struct {
	ID           string // first 16 hex chars of the content digest
	LegacyID     string // sanitized filename, kept for pre-digest lookups
	FilePath     string
	Title        string
	CoverPath    string
	LastModified time.Time
	FileSize     int64
	LastRead     time.Time
	Digest       string // full content digest, hex
}

// MetadataStore persists BookMetadataRecords in a sqlite database.
type MetadataStore struct {
	db  *sql.DB
	log *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id            TEXT PRIMARY KEY,
	legacy_id     TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	title         TEXT NOT NULL,
	cover_path    TEXT NOT NULL DEFAULT '',
	last_modified INTEGER NOT NULL,
	file_size     INTEGER NOT NULL,
	last_read     INTEGER NOT NULL DEFAULT 0,
	digest        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_books_file_size ON books(file_size);
CREATE INDEX IF NOT EXISTS idx_books_legacy_id ON books(legacy_id);
`

// OpenStore opens (creating if needed) the metadata database at path.
func OpenStore(path string, log *zap.Logger) (*MetadataStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init metadata store: %w", err)
	}
	return &MetadataStore{db: db, log: log}, nil
}

// Close releases the database handle.
func (s *MetadataStore) Close() error {
	return s.db.Close()
}

// Upsert inserts the record or replaces the existing row with the same id.
// Importing the same book twice therefore never creates a second record.
func (s *MetadataStore) Upsert(rec BookMetadataRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO books (id, legacy_id, file_path, title, cover_path, last_modified, file_size, last_read, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			legacy_id = excluded.legacy_id,
			file_path = excluded.file_path,
			title = excluded.title,
			cover_path = excluded.cover_path,
			last_modified = excluded.last_modified,
			file_size = excluded.file_size,
			last_read = excluded.last_read,
			digest = excluded.digest`,
		rec.ID, rec.LegacyID, rec.FilePath, rec.Title, rec.CoverPath,
		rec.LastModified.Unix(), rec.FileSize, rec.LastRead.Unix(), rec.Digest)
	if err != nil {
		return fmt.Errorf("upsert book %s: %w", rec.ID, err)
	}
	return nil
}

// Get fetches a record by id. Returns (nil, nil) when absent.
func (s *MetadataStore) Get(id string) (*BookMetadataRecord, error) {
	return s.queryOne(`SELECT id, legacy_id, file_path, title, cover_path,
		last_modified, file_size, last_read, digest FROM books WHERE id = ?`, id)
}

// ByLegacyID fetches a record by its sanitized-filename id.
func (s *MetadataStore) ByLegacyID(legacyID string) (*BookMetadataRecord, error) {
	return s.queryOne(`SELECT id, legacy_id, file_path, title, cover_path,
		last_modified, file_size, last_read, digest FROM books WHERE legacy_id = ?`, legacyID)
}

// BySize returns every record whose file size matches. This is the
// duplicate detector's pre-filter.
func (s *MetadataStore) BySize(size int64) ([]BookMetadataRecord, error) {
	rows, err := s.db.Query(`SELECT id, legacy_id, file_path, title, cover_path,
		last_modified, file_size, last_read, digest FROM books WHERE file_size = ?`, size)
	if err != nil {
		return nil, fmt.Errorf("query by size: %w", err)
	}
	defer rows.Close()

	var recs []BookMetadataRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// All returns every record, most recently read first.
func (s *MetadataStore) All() ([]BookMetadataRecord, error) {
	rows, err := s.db.Query(`SELECT id, legacy_id, file_path, title, cover_path,
		last_modified, file_size, last_read, digest FROM books ORDER BY last_read DESC`)
	if err != nil {
		return nil, fmt.Errorf("query all books: %w", err)
	}
	defer rows.Close()

	var recs []BookMetadataRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

// TouchLastRead records that a book was opened.
func (s *MetadataStore) TouchLastRead(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE books SET last_read = ? WHERE id = ?`, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("touch last_read for %s: %w", id, err)
	}
	return nil
}

func (s *MetadataStore) queryOne(query string, arg any) (*BookMetadataRecord, error) {
	row := s.db.QueryRow(query, arg)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*BookMetadataRecord, error) {
	var rec BookMetadataRecord
	var lastModified, lastRead int64
	err := row.Scan(&rec.ID, &rec.LegacyID, &rec.FilePath, &rec.Title, &rec.CoverPath,
		&lastModified, &rec.FileSize, &lastRead, &rec.Digest)
	if err != nil {
		return nil, err
	}
	rec.LastModified = time.Unix(lastModified, 0)
	rec.LastRead = time.Unix(lastRead, 0)
	return &rec, nil
}

// SanitizeID derives the legacy record id from a filename: the base name
// without extension, every non-alphanumeric character stripped. Distinct
// names can collide after sanitization, which is why it is no longer the
// primary key.
func SanitizeID(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var b strings.Builder
	for _, r := range base {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
