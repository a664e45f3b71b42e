package vectorstore

import (
	"fmt"

	"github.com/google/uuid"
)

// pointIDNamespace is fixed forever: point ids are name-based UUIDs over this
// namespace, so the same identity string always maps to the same point id and
// re-indexing overwrites instead of duplicating.
var pointIDNamespace = uuid.MustParse("12345678-1234-5678-1234-567812345678")

// PointIDForChunk derives the deterministic point id for a slide chunk.
func PointIDForChunk(subjectID, assetID string, pageNum int, chunkID string) string {
	identity := fmt.Sprintf("%s:%s:%d:%s", subjectID, assetID, pageNum, chunkID)
	return uuid.NewSHA1(pointIDNamespace, []byte(identity)).String()
}

// PointIDForNotesChunk derives the deterministic point id for a notes chunk.
func PointIDForNotesChunk(notesChunkID string) string {
	identity := "notes:" + notesChunkID
	return uuid.NewSHA1(pointIDNamespace, []byte(identity)).String()
}
