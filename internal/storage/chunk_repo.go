package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Upsert inserts or replaces a single chunk. Chunk ids are content-addressed,
	// so replacing an existing id writes identical data.
	Upsert(ctx context.Context, chunk *ChunkRecord) error
	// GetByID gets a chunk by its id. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// ListByAsset returns all chunks for an asset ordered by page_num, start_block.
	ListByAsset(ctx context.Context, subjectID, assetID string) ([]ChunkRecord, error)
	// ListByAssetPages returns chunks for an asset on any of the given pages.
	ListByAssetPages(ctx context.Context, assetID string, pages []int) ([]ChunkRecord, error)
	// DeleteByAsset deletes all chunks for an asset.
	DeleteByAsset(ctx context.Context, assetID string) error
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Upsert inserts or replaces a single chunk.
func (r *ChunkRepo) Upsert(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chunks (chunk_id, subject_id, asset_id, page_num, text, bbox_json, start_block, end_block)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID, chunk.SubjectID, chunk.AssetID, chunk.PageNum, chunk.Text,
		chunk.BBoxJSON, chunk.StartBlock, chunk.EndBlock,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunk: %w", err)
	}
	return nil
}

// GetByID gets a chunk by its id. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	var chunk ChunkRecord
	var bbox sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT chunk_id, subject_id, asset_id, page_num, text, bbox_json, start_block, end_block
		 FROM chunks WHERE chunk_id = ?`,
		id,
	).Scan(&chunk.ID, &chunk.SubjectID, &chunk.AssetID, &chunk.PageNum, &chunk.Text,
		&bbox, &chunk.StartBlock, &chunk.EndBlock)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	chunk.BBoxJSON = bbox.String
	return &chunk, nil
}

// ListByAsset returns all chunks for an asset ordered by page_num, start_block.
func (r *ChunkRepo) ListByAsset(ctx context.Context, subjectID, assetID string) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT chunk_id, subject_id, asset_id, page_num, text, bbox_json, start_block, end_block
		 FROM chunks WHERE subject_id = ? AND asset_id = ?
		 ORDER BY page_num ASC, start_block ASC`,
		subjectID, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	return scanChunks(rows)
}

// ListByAssetPages returns chunks for an asset on any of the given pages.
// Used by neighbor expansion; page order is not significant here.
func (r *ChunkRepo) ListByAssetPages(ctx context.Context, assetID string, pages []int) ([]ChunkRecord, error) {
	if len(pages) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(pages))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(pages)+1)
	args = append(args, assetID)
	for _, p := range pages {
		args = append(args, p)
	}

	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT chunk_id, subject_id, asset_id, page_num, text, bbox_json, start_block, end_block
		 FROM chunks WHERE asset_id = ? AND page_num IN (%s)
		 ORDER BY page_num ASC, start_block ASC`, placeholders),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbor chunks: %w", err)
	}
	return scanChunks(rows)
}

// DeleteByAsset deletes all chunks for an asset.
func (r *ChunkRepo) DeleteByAsset(ctx context.Context, assetID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM chunks WHERE asset_id = ?", assetID)
	if err != nil {
		return fmt.Errorf("failed to delete chunks by asset: %w", err)
	}
	return nil
}

func scanChunks(rows *sql.Rows) ([]ChunkRecord, error) {
	defer func() {
		_ = rows.Close()
	}()

	var chunks []ChunkRecord
	for rows.Next() {
		var chunk ChunkRecord
		var bbox sql.NullString
		if err := rows.Scan(&chunk.ID, &chunk.SubjectID, &chunk.AssetID, &chunk.PageNum, &chunk.Text,
			&bbox, &chunk.StartBlock, &chunk.EndBlock); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.BBoxJSON = bbox.String
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
