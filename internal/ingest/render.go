package ingest

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// Renderer turns an uploaded asset into per-page raster images under the data
// root. PDFs get one PNG per page at the configured DPI; plain images become a
// single synthetic page.
type Renderer struct {
	dataRoot string
	dpi      int
}

// NewRenderer creates a renderer writing under dataRoot.
func NewRenderer(dataRoot string, dpi int) *Renderer {
	return &Renderer{dataRoot: dataRoot, dpi: dpi}
}

// PagesDir returns the directory holding an asset's rendered page images.
func (r *Renderer) PagesDir(assetID string) string {
	return filepath.Join(r.dataRoot, "assets", assetID, "pages")
}

// OCRDir returns the directory holding an asset's per-page OCR JSON files.
func (r *Renderer) OCRDir(assetID string) string {
	return filepath.Join(r.dataRoot, "assets", assetID, "ocr")
}

// ChunkBackupPath returns the asset's line-delimited chunk backup file.
func (r *Renderer) ChunkBackupPath(assetID string) string {
	return filepath.Join(r.dataRoot, "assets", assetID, "chunks.jsonl")
}

// RenderAsset renders every page of the asset and returns the page records in
// page-number order. Page numbers are 1-based.
func (r *Renderer) RenderAsset(ctx context.Context, asset *storage.Asset) ([]storage.PageRecord, error) {
	logger := contextutil.LoggerFromContext(ctx)

	pagesDir := r.PagesDir(asset.ID)
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create pages dir: %w", err)
	}

	if isPDF(asset) {
		pages, err := r.renderPDF(asset, pagesDir)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "rendered pdf asset", "asset_id", asset.ID, "pages", len(pages), "dpi", r.dpi)
		return pages, nil
	}

	page, err := r.normalizeImage(asset, pagesDir)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "normalized image asset", "asset_id", asset.ID)
	return []storage.PageRecord{page}, nil
}

func (r *Renderer) renderPDF(asset *storage.Asset, pagesDir string) ([]storage.PageRecord, error) {
	doc, err := fitz.New(asset.StoredPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := make([]storage.PageRecord, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.ImageDPI(i, float64(r.dpi))
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		imagePath := filepath.Join(pagesDir, fmt.Sprintf("page_%04d.png", i+1))
		if err := writePNG(imagePath, img); err != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", i+1, err)
		}

		bounds := img.Bounds()
		pages = append(pages, storage.PageRecord{
			AssetID:   asset.ID,
			PageNum:   i + 1,
			ImagePath: imagePath,
			Width:     bounds.Dx(),
			Height:    bounds.Dy(),
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}
	return pages, nil
}

// normalizeImage copies a single-image asset into the pages dir as page 1,
// preserving the original bytes.
func (r *Renderer) normalizeImage(asset *storage.Asset, pagesDir string) (storage.PageRecord, error) {
	src, err := os.Open(asset.StoredPath)
	if err != nil {
		return storage.PageRecord{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	cfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return storage.PageRecord{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return storage.PageRecord{}, fmt.Errorf("failed to rewind image: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(asset.StoredPath))
	if ext == "" {
		ext = ".png"
	}
	imagePath := filepath.Join(pagesDir, "page_0001"+ext)

	dst, err := os.Create(imagePath)
	if err != nil {
		return storage.PageRecord{}, fmt.Errorf("failed to create page image: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return storage.PageRecord{}, fmt.Errorf("failed to copy page image: %w", err)
	}

	return storage.PageRecord{
		AssetID:   asset.ID,
		PageNum:   1,
		ImagePath: imagePath,
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func isPDF(asset *storage.Asset) bool {
	if asset.MimeType == "application/pdf" {
		return true
	}
	return strings.EqualFold(filepath.Ext(asset.OriginalFilename), ".pdf")
}
