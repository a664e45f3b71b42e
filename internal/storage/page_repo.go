package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_page_store.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/storage PageStore

import (
	"context"
	"database/sql"
	"fmt"
)

// PageStore defines the interface for rendered-page and OCR-record operations.
type PageStore interface {
	// UpsertPage inserts or replaces a rendered page row.
	UpsertPage(ctx context.Context, page *PageRecord) error
	// ListByAsset returns all rendered pages for an asset ordered by page_num.
	ListByAsset(ctx context.Context, assetID string) ([]PageRecord, error)
	// UpsertOCRPage inserts or replaces an OCR record for a page.
	UpsertOCRPage(ctx context.Context, rec *OCRPageRecord) error
	// ListOCRByAsset returns all OCR records for an asset ordered by page_num.
	ListOCRByAsset(ctx context.Context, assetID string) ([]OCRPageRecord, error)
}

// PageRepo provides methods for page operations.
// It implements the PageStore interface.
type PageRepo struct {
	db *sql.DB
}

// NewPageRepo creates a new PageRepo.
func NewPageRepo(db *sql.DB) *PageRepo {
	return &PageRepo{db: db}
}

// UpsertPage inserts or replaces a rendered page row.
func (r *PageRepo) UpsertPage(ctx context.Context, page *PageRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO asset_pages (asset_id, page_num, image_path, width, height)
		 VALUES (?, ?, ?, ?, ?)`,
		page.AssetID, page.PageNum, page.ImagePath, page.Width, page.Height,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}
	return nil
}

// ListByAsset returns all rendered pages for an asset ordered by page_num.
func (r *PageRepo) ListByAsset(ctx context.Context, assetID string) ([]PageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT asset_id, page_num, image_path, width, height FROM asset_pages WHERE asset_id = ? ORDER BY page_num",
		assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var pages []PageRecord
	for rows.Next() {
		var page PageRecord
		var width, height sql.NullInt64
		if err := rows.Scan(&page.AssetID, &page.PageNum, &page.ImagePath, &width, &height); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		page.Width = int(width.Int64)
		page.Height = int(height.Int64)
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return pages, nil
}

// UpsertOCRPage inserts or replaces an OCR record for a page.
func (r *PageRepo) UpsertOCRPage(ctx context.Context, rec *OCRPageRecord) error {
	needsCaption := 0
	if rec.NeedsCaption {
		needsCaption = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO asset_ocr_pages (asset_id, page_num, ocr_json_path, text_len, avg_conf, needs_caption)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.AssetID, rec.PageNum, rec.OCRJSONPath, rec.TextLen, rec.AvgConf, needsCaption,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert OCR record: %w", err)
	}
	return nil
}

// ListOCRByAsset returns all OCR records for an asset ordered by page_num.
func (r *PageRepo) ListOCRByAsset(ctx context.Context, assetID string) ([]OCRPageRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT asset_id, page_num, ocr_json_path, text_len, avg_conf, needs_caption
		 FROM asset_ocr_pages WHERE asset_id = ? ORDER BY page_num`,
		assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query OCR records: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []OCRPageRecord
	for rows.Next() {
		var rec OCRPageRecord
		var needsCaption int
		if err := rows.Scan(&rec.AssetID, &rec.PageNum, &rec.OCRJSONPath, &rec.TextLen, &rec.AvgConf, &needsCaption); err != nil {
			return nil, fmt.Errorf("failed to scan OCR record: %w", err)
		}
		rec.NeedsCaption = needsCaption != 0
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
