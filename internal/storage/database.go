package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS subjects (
			subject_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS assets (
			asset_id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			stored_path TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			mime_type TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			status TEXT NOT NULL DEFAULT 'stored',
			FOREIGN KEY (subject_id) REFERENCES subjects(subject_id)
		);`,
		`CREATE TABLE IF NOT EXISTS asset_index_status (
			asset_id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			error TEXT,
			ocr_engine TEXT,
			warning TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS asset_pages (
			asset_id TEXT NOT NULL,
			page_num INTEGER NOT NULL,
			image_path TEXT NOT NULL,
			width INTEGER,
			height INTEGER,
			PRIMARY KEY (asset_id, page_num)
		);`,
		`CREATE TABLE IF NOT EXISTS asset_ocr_pages (
			asset_id TEXT NOT NULL,
			page_num INTEGER NOT NULL,
			ocr_json_path TEXT NOT NULL,
			text_len INTEGER NOT NULL DEFAULT 0,
			avg_conf REAL NOT NULL DEFAULT 0,
			needs_caption INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (asset_id, page_num)
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			page_num INTEGER NOT NULL,
			text TEXT NOT NULL,
			bbox_json TEXT,
			start_block INTEGER NOT NULL,
			end_block INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_asset_page ON chunks(asset_id, page_num);`,
		`CREATE TABLE IF NOT EXISTS notes (
			notes_id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			markdown TEXT NOT NULL,
			generated_by TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			meta_json TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS notes_chunks (
			notes_chunk_id TEXT PRIMARY KEY,
			notes_id TEXT NOT NULL,
			subject_id TEXT NOT NULL,
			asset_id TEXT NOT NULL,
			section_title TEXT,
			text TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_chunks_notes ON notes_chunks(notes_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// parseSQLiteTime parses the DATETIME strings SQLite hands back. The format
// varies between CURRENT_TIMESTAMP defaults and RFC3339 values written by Go.
func parseSQLiteTime(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", value)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
