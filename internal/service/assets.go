package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
)

// assetIDLen is the hex prefix length of the content hash used as the asset id.
const assetIDLen = 16

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// AssetService manages uploaded source files and their cascading removal.
type AssetService struct {
	subjects   storage.SubjectStore
	assets     storage.AssetStore
	notes      storage.NotesStore
	vectors    vectorstore.VectorStore
	collection string
	dataRoot   string
}

// NewAssetService creates a new AssetService.
func NewAssetService(
	subjects storage.SubjectStore,
	assets storage.AssetStore,
	notes storage.NotesStore,
	vectors vectorstore.VectorStore,
	collection string,
	dataRoot string,
) *AssetService {
	return &AssetService{
		subjects:   subjects,
		assets:     assets,
		notes:      notes,
		vectors:    vectors,
		collection: collection,
		dataRoot:   dataRoot,
	}
}

// Add stores an uploaded file and registers it as an asset. The asset id is a
// prefix of the content hash, so uploading identical bytes twice returns the
// existing asset instead of creating a duplicate. The returned bool is true
// when a new asset row was created.
func (s *AssetService) Add(ctx context.Context, subjectID, filename string, data []byte) (*storage.Asset, bool, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: subject %s", ErrNotFound, subjectID)
		}
		return nil, false, err
	}
	if len(data) == 0 {
		return nil, false, fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
	}

	sum := sha256.Sum256(data)
	fullHash := hex.EncodeToString(sum[:])
	assetID := fullHash[:assetIDLen]

	existing, err := s.assets.Get(ctx, assetID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		// Same bytes uploaded again. If the stored file went missing since,
		// put it back so the pipeline can recover from the missing stage.
		if _, statErr := os.Stat(existing.StoredPath); statErr != nil {
			if writeErr := s.materialize(existing.StoredPath, data); writeErr != nil {
				return nil, false, fmt.Errorf("failed to restore asset file: %w", writeErr)
			}
			logger.InfoContext(ctx, "re-materialized missing asset file", "asset_id", assetID, "path", existing.StoredPath)
		}
		return existing, false, nil
	}

	name := SanitizeFilename(filename)
	storedPath, err := s.resolveStoredPath(assetID, name)
	if err != nil {
		return nil, false, err
	}
	if err := s.materialize(storedPath, data); err != nil {
		return nil, false, fmt.Errorf("failed to store asset file: %w", err)
	}

	asset := &storage.Asset{
		ID:               assetID,
		SubjectID:        subjectID,
		OriginalFilename: filename,
		StoredPath:       storedPath,
		SHA256:           fullHash,
		SizeBytes:        int64(len(data)),
		MimeType:         detectMime(name, data),
		Status:           storage.StageStored,
	}
	if err := s.assets.Insert(ctx, asset); err != nil {
		return nil, false, fmt.Errorf("failed to insert asset: %w", err)
	}
	if err := s.assets.UpsertIndexStatus(ctx, &storage.IndexStatus{AssetID: assetID, Stage: storage.StageStored}); err != nil {
		logger.WarnContext(ctx, "failed to record initial index status", "asset_id", assetID, "error", err)
	}

	logger.InfoContext(ctx, "asset stored", "asset_id", assetID, "subject_id", subjectID, "size_bytes", len(data))
	created, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return asset, true, nil
	}
	return created, true, nil
}

// Get returns an asset, verifying it belongs to the subject.
func (s *AssetService) Get(ctx context.Context, subjectID, assetID string) (*storage.Asset, error) {
	asset, err := s.assets.Get(ctx, assetID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: asset %s", ErrNotFound, assetID)
		}
		return nil, err
	}
	if asset.SubjectID != subjectID {
		return nil, fmt.Errorf("%w: asset %s", ErrNotFound, assetID)
	}
	return asset, nil
}

// List returns all assets for a subject.
func (s *AssetService) List(ctx context.Context, subjectID string) ([]storage.Asset, error) {
	if _, err := s.subjects.Get(ctx, subjectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject %s", ErrNotFound, subjectID)
		}
		return nil, err
	}
	return s.assets.ListBySubject(ctx, subjectID)
}

// Delete removes an asset and everything derived from it. Vector points go
// first (both slide and notes points carry asset_id in their payload), then
// notes rows, then the asset row with its dependent relational rows, and
// finally the on-disk artifacts.
func (s *AssetService) Delete(ctx context.Context, subjectID, assetID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	asset, err := s.Get(ctx, subjectID, assetID)
	if err != nil {
		return err
	}

	if err := s.vectors.DeleteByAssetID(ctx, s.collection, assetID); err != nil {
		return fmt.Errorf("failed to delete asset vectors: %w", err)
	}
	if err := s.notes.DeleteByAsset(ctx, assetID); err != nil {
		return fmt.Errorf("failed to delete asset notes: %w", err)
	}
	if err := s.assets.Delete(ctx, assetID); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	assetDir := filepath.Join(s.dataRoot, "assets", assetID)
	if err := os.RemoveAll(assetDir); err != nil {
		logger.WarnContext(ctx, "failed to remove asset directory", "dir", assetDir, "error", err)
	}

	logger.InfoContext(ctx, "asset deleted", "asset_id", assetID, "subject_id", subjectID, "filename", asset.OriginalFilename)
	return nil
}

// SanitizeFilename strips path components and unsafe characters from an
// uploaded filename.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.TrimSpace(filename))
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// resolveStoredPath picks a path under the asset directory, suffixing the
// basename if a different file already sits at the natural spot.
func (s *AssetService) resolveStoredPath(assetID, name string) (string, error) {
	dir := filepath.Join(s.dataRoot, "assets", assetID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create asset directory: %w", err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}

func (s *AssetService) materialize(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func detectMime(name string, data []byte) string {
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
