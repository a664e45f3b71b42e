package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/vectorstore VectorStore

import "context"

// Point represents a vector point with its payload.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents one hit from a similarity search.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// CollectionInfo contains information about a vector collection.
type CollectionInfo struct {
	VectorSize  int
	PointsCount int
	Status      string
}

// VectorStore defines the interface for vector index operations.
type VectorStore interface {
	// EnsureCollection creates the collection if absent and validates the
	// vector size if it already exists.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with optional payload filters.
	// Supported filter keys: subject_id, asset_id, notes_id, source_type.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteByAssetID removes every point whose payload references the asset.
	DeleteByAssetID(ctx context.Context, collection string, assetID string) error

	// DeleteByNotesID removes every point belonging to a notes document.
	DeleteByNotesID(ctx context.Context, collection string, notesID string) error

	// GetCollectionInfo returns collection metadata including point count.
	GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error)
}
