package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_asset_store.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/storage AssetStore

import (
	"context"
	"database/sql"
	"fmt"
)

// AssetStore defines the interface for asset storage operations.
type AssetStore interface {
	// Insert inserts a new asset row. The asset.ID must be set (content hash prefix).
	Insert(ctx context.Context, asset *Asset) error
	// Get returns an asset by id. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, assetID string) (*Asset, error)
	// ListBySubject returns all assets for a subject, newest first.
	ListBySubject(ctx context.Context, subjectID string) ([]Asset, error)
	// Delete removes the asset row and its dependent rows (index status, pages,
	// OCR records, chunks). Vector points must be deleted by the caller first.
	Delete(ctx context.Context, assetID string) error
	// UpsertIndexStatus records the asset's pipeline stage and mirrors it onto
	// the asset row for quick reads.
	UpsertIndexStatus(ctx context.Context, status *IndexStatus) error
	// GetIndexStatus returns the index status row, or ErrNotFound.
	GetIndexStatus(ctx context.Context, assetID string) (*IndexStatus, error)
}

// AssetRepo provides methods for asset operations.
// It implements the AssetStore interface.
type AssetRepo struct {
	db *sql.DB
}

// NewAssetRepo creates a new AssetRepo.
func NewAssetRepo(db *sql.DB) *AssetRepo {
	return &AssetRepo{db: db}
}

// Insert inserts a new asset row.
func (r *AssetRepo) Insert(ctx context.Context, asset *Asset) error {
	status := asset.Status
	if status == "" {
		status = StageStored
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assets (asset_id, subject_id, original_filename, stored_path, sha256, size_bytes, mime_type, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		asset.ID, asset.SubjectID, asset.OriginalFilename, asset.StoredPath,
		asset.SHA256, asset.SizeBytes, asset.MimeType, status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert asset: %w", err)
	}
	return nil
}

// Get returns an asset by id. Returns ErrNotFound if it does not exist.
func (r *AssetRepo) Get(ctx context.Context, assetID string) (*Asset, error) {
	var asset Asset
	var createdAtStr string
	var mimeType sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT asset_id, subject_id, original_filename, stored_path, sha256, size_bytes, mime_type, created_at, status
		 FROM assets WHERE asset_id = ?`,
		assetID,
	).Scan(&asset.ID, &asset.SubjectID, &asset.OriginalFilename, &asset.StoredPath,
		&asset.SHA256, &asset.SizeBytes, &mimeType, &createdAtStr, &asset.Status)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}

	asset.MimeType = mimeType.String
	asset.CreatedAt, err = parseSQLiteTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	return &asset, nil
}

// ListBySubject returns all assets for a subject, newest first.
func (r *AssetRepo) ListBySubject(ctx context.Context, subjectID string) ([]Asset, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT asset_id, subject_id, original_filename, stored_path, sha256, size_bytes, mime_type, created_at, status
		 FROM assets WHERE subject_id = ? ORDER BY created_at DESC, asset_id`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var assets []Asset
	for rows.Next() {
		var asset Asset
		var createdAtStr string
		var mimeType sql.NullString
		if err := rows.Scan(&asset.ID, &asset.SubjectID, &asset.OriginalFilename, &asset.StoredPath,
			&asset.SHA256, &asset.SizeBytes, &mimeType, &createdAtStr, &asset.Status); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		asset.MimeType = mimeType.String
		asset.CreatedAt, err = parseSQLiteTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return assets, nil
}

// Delete removes the asset row and its dependent rows. Dependent rows go first
// so a partial failure never leaves orphans pointing at a missing parent.
func (r *AssetRepo) Delete(ctx context.Context, assetID string) error {
	statements := []string{
		"DELETE FROM notes_chunks WHERE asset_id = ?",
		"DELETE FROM notes WHERE asset_id = ?",
		"DELETE FROM chunks WHERE asset_id = ?",
		"DELETE FROM asset_ocr_pages WHERE asset_id = ?",
		"DELETE FROM asset_pages WHERE asset_id = ?",
		"DELETE FROM asset_index_status WHERE asset_id = ?",
		"DELETE FROM assets WHERE asset_id = ?",
	}
	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt, assetID); err != nil {
			return fmt.Errorf("failed to delete asset rows: %w", err)
		}
	}
	return nil
}

// UpsertIndexStatus records the asset's pipeline stage.
func (r *AssetRepo) UpsertIndexStatus(ctx context.Context, status *IndexStatus) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO asset_index_status (asset_id, stage, error, ocr_engine, warning, updated_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (asset_id) DO UPDATE SET
		 stage = excluded.stage, error = excluded.error, ocr_engine = excluded.ocr_engine,
		 warning = excluded.warning, updated_at = CURRENT_TIMESTAMP`,
		status.AssetID, status.Stage, nullable(status.Error), nullable(status.OCREngine), nullable(status.Warning),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert index status: %w", err)
	}

	// Mirror to assets.status for quick reads.
	_, err = r.db.ExecContext(ctx, "UPDATE assets SET status = ? WHERE asset_id = ?", status.Stage, status.AssetID)
	if err != nil {
		return fmt.Errorf("failed to mirror asset status: %w", err)
	}
	return nil
}

// GetIndexStatus returns the index status row, or ErrNotFound.
func (r *AssetRepo) GetIndexStatus(ctx context.Context, assetID string) (*IndexStatus, error) {
	var status IndexStatus
	var errMsg, engine, warning sql.NullString
	var updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT asset_id, stage, error, ocr_engine, warning, updated_at FROM asset_index_status WHERE asset_id = ?",
		assetID,
	).Scan(&status.AssetID, &status.Stage, &errMsg, &engine, &warning, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query index status: %w", err)
	}

	status.Error = errMsg.String
	status.OCREngine = engine.String
	status.Warning = warning.String
	status.UpdatedAt, err = parseSQLiteTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return &status, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
