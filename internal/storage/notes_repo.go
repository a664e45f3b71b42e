package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_notes_store.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/storage NotesStore

import (
	"context"
	"database/sql"
	"fmt"
)

// NotesStore defines the interface for notes storage operations.
type NotesStore interface {
	// Upsert inserts or replaces a notes row, preserving the original created_at.
	Upsert(ctx context.Context, notes *NotesRecord) error
	// GetByID returns a notes row by id. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, notesID string) (*NotesRecord, error)
	// GetLatest returns the notes row for a subject/asset pair, or ErrNotFound.
	GetLatest(ctx context.Context, subjectID, assetID string) (*NotesRecord, error)
	// DeleteChunks deletes all derived chunks for a notes id.
	DeleteChunks(ctx context.Context, notesID string) error
	// InsertChunk inserts a derived notes chunk.
	InsertChunk(ctx context.Context, chunk *NotesChunkRecord) error
	// ListChunks returns all derived chunks for a notes id.
	ListChunks(ctx context.Context, notesID string) ([]NotesChunkRecord, error)
	// DeleteByAsset removes all notes rows and derived chunks for an asset.
	DeleteByAsset(ctx context.Context, assetID string) error
}

// NotesRepo provides methods for notes operations.
// It implements the NotesStore interface.
type NotesRepo struct {
	db *sql.DB
}

// NewNotesRepo creates a new NotesRepo.
func NewNotesRepo(db *sql.DB) *NotesRepo {
	return &NotesRepo{db: db}
}

// Upsert inserts or replaces a notes row. The version column carries the
// monotonic version; created_at of the first version is preserved.
func (r *NotesRepo) Upsert(ctx context.Context, notes *NotesRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notes (notes_id, subject_id, asset_id, version, markdown, generated_by, created_at, updated_at, meta_json)
		 VALUES (?, ?, ?, ?, ?, ?,
		         COALESCE((SELECT created_at FROM notes WHERE notes_id = ?), CURRENT_TIMESTAMP),
		         CURRENT_TIMESTAMP, ?)`,
		notes.ID, notes.SubjectID, notes.AssetID, notes.Version, notes.Markdown,
		notes.GeneratedBy, notes.ID, nullable(notes.MetaJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert notes: %w", err)
	}
	return nil
}

// GetByID returns a notes row by id. Returns ErrNotFound if not found.
func (r *NotesRepo) GetByID(ctx context.Context, notesID string) (*NotesRecord, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT notes_id, subject_id, asset_id, version, markdown, generated_by, created_at, updated_at, meta_json
		 FROM notes WHERE notes_id = ?`,
		notesID,
	))
}

// GetLatest returns the notes row for a subject/asset pair, or ErrNotFound.
func (r *NotesRepo) GetLatest(ctx context.Context, subjectID, assetID string) (*NotesRecord, error) {
	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT notes_id, subject_id, asset_id, version, markdown, generated_by, created_at, updated_at, meta_json
		 FROM notes WHERE subject_id = ? AND asset_id = ?
		 ORDER BY version DESC LIMIT 1`,
		subjectID, assetID,
	))
}

func (r *NotesRepo) scanOne(row *sql.Row) (*NotesRecord, error) {
	var notes NotesRecord
	var createdAtStr, updatedAtStr string
	var meta sql.NullString

	err := row.Scan(&notes.ID, &notes.SubjectID, &notes.AssetID, &notes.Version,
		&notes.Markdown, &notes.GeneratedBy, &createdAtStr, &updatedAtStr, &meta)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}

	notes.MetaJSON = meta.String
	notes.CreatedAt, err = parseSQLiteTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	notes.UpdatedAt, err = parseSQLiteTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return &notes, nil
}

// DeleteChunks deletes all derived chunks for a notes id.
func (r *NotesRepo) DeleteChunks(ctx context.Context, notesID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM notes_chunks WHERE notes_id = ?", notesID)
	if err != nil {
		return fmt.Errorf("failed to delete notes chunks: %w", err)
	}
	return nil
}

// InsertChunk inserts a derived notes chunk.
func (r *NotesRepo) InsertChunk(ctx context.Context, chunk *NotesChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO notes_chunks (notes_chunk_id, notes_id, subject_id, asset_id, section_title, text)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.NotesID, chunk.SubjectID, chunk.AssetID, nullable(chunk.SectionTitle), chunk.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notes chunk: %w", err)
	}
	return nil
}

// ListChunks returns all derived chunks for a notes id.
func (r *NotesRepo) ListChunks(ctx context.Context, notesID string) ([]NotesChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT notes_chunk_id, notes_id, subject_id, asset_id, section_title, text
		 FROM notes_chunks WHERE notes_id = ?`,
		notesID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var chunks []NotesChunkRecord
	for rows.Next() {
		var chunk NotesChunkRecord
		var section sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.NotesID, &chunk.SubjectID, &chunk.AssetID, &section, &chunk.Text); err != nil {
			return nil, fmt.Errorf("failed to scan notes chunk: %w", err)
		}
		chunk.SectionTitle = section.String
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}

// DeleteByAsset removes all notes rows and derived chunks for an asset.
func (r *NotesRepo) DeleteByAsset(ctx context.Context, assetID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes_chunks WHERE asset_id = ?", assetID); err != nil {
		return fmt.Errorf("failed to delete notes chunks by asset: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM notes WHERE asset_id = ?", assetID); err != nil {
		return fmt.Errorf("failed to delete notes by asset: %w", err)
	}
	return nil
}
