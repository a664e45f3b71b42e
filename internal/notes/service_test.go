package notes

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	llm_mocks "github.com/Jitarth1102/rag-study-assistant/internal/llm/mocks"
	"github.com/Jitarth1102/rag-study-assistant/internal/rag"
	"github.com/Jitarth1102/rag-study-assistant/internal/service"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
	"github.com/Jitarth1102/rag-study-assistant/internal/vectorstore"
	vectorstore_mocks "github.com/Jitarth1102/rag-study-assistant/internal/vectorstore/mocks"
	websearch_mocks "github.com/Jitarth1102/rag-study-assistant/internal/websearch/mocks"
)

const draftMarkdown = "# Alpha\n\nAlpha body content."

type serviceFixture struct {
	svc        *Service
	notes      *storage.NotesRepo
	subjectID  string
	assetID    string
	lastPoints []vectorstore.Point
}

// newServiceFixture wires a notes service against real SQLite repos and
// mocked LLM, search, and vector dependencies. The generator always produces
// draftMarkdown and a clean critique, so the quality loop is a pass-through.
func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	subjects := storage.NewSubjectRepo(db)
	assets := storage.NewAssetRepo(db)
	chunks := storage.NewChunkRepo(db)
	notesRepo := storage.NewNotesRepo(db)

	ctx := context.Background()
	subject, err := subjects.Create(ctx, "Physics")
	if err != nil {
		t.Fatalf("failed to create subject: %v", err)
	}

	f := &serviceFixture{notes: notesRepo, subjectID: subject.ID, assetID: "asset0001"}

	if err := assets.Insert(ctx, &storage.Asset{
		ID: f.assetID, SubjectID: subject.ID, OriginalFilename: "thermo.pdf",
		StoredPath: "/tmp/thermo.pdf", SHA256: "abc", SizeBytes: 10,
	}); err != nil {
		t.Fatalf("failed to insert asset: %v", err)
	}
	if err := chunks.Upsert(ctx, &storage.ChunkRecord{
		ID: "chunk1", SubjectID: subject.ID, AssetID: f.assetID,
		PageNum: 1, Text: "Entropy measures disorder.", StartBlock: 0, EndBlock: 1,
	}); err != nil {
		t.Fatalf("failed to insert chunk: %v", err)
	}

	embedder := llm_mocks.NewMockEmbedder(ctrl)
	embedder.EXPECT().
		EmbedTexts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, texts []string) ([][]float32, error) {
			vecs := make([][]float32, len(texts))
			for i := range vecs {
				vecs[i] = []float32{0.1, 0.2}
			}
			return vecs, nil
		}).
		AnyTimes()

	gen := llm_mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "You are judging") {
				return "No major issues.", nil
			}
			return draftMarkdown, nil
		}).
		AnyTimes()

	vectors := vectorstore_mocks.NewMockVectorStore(ctrl)
	vectors.EXPECT().DeleteByNotesID(gomock.Any(), "test_chunks", gomock.Any()).Return(nil).AnyTimes()
	vectors.EXPECT().
		Upsert(gomock.Any(), "test_chunks", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			f.lastPoints = points
			return nil
		}).
		AnyTimes()

	searcher := websearch_mocks.NewMockSearcher(ctrl)
	quality := NewQualityLoop(gen, searcher, QualityConfig{})

	f.svc = NewService(notesRepo, chunks, assets, embedder, gen, searcher, quality, vectors, ServiceConfig{
		Collection: "test_chunks",
		Judge:      rag.JudgePolicy{WebEnabled: false},
	})
	return f
}

func TestGenerateCreatesAndBumpsVersions(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	r1, err := f.svc.Generate(ctx, f.subjectID, f.assetID)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if r1.Version != 1 || r1.ChunkCount != 1 || r1.UsedWeb {
		t.Errorf("first result = %+v, want version 1, one chunk, no web", r1)
	}

	r2, err := f.svc.Generate(ctx, f.subjectID, f.assetID)
	if err != nil {
		t.Fatalf("second Generate returned error: %v", err)
	}
	if r2.NotesID != r1.NotesID {
		t.Errorf("regeneration changed the notes id: %q vs %q", r2.NotesID, r1.NotesID)
	}
	if r2.Version != 2 {
		t.Errorf("Version = %d, want 2", r2.Version)
	}

	rec, err := f.notes.GetByID(ctx, r1.NotesID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if rec.Version != 2 || rec.GeneratedBy != "llm" || rec.Markdown != draftMarkdown {
		t.Errorf("stored record = %+v", rec)
	}

	if len(f.lastPoints) != 1 {
		t.Fatalf("got %d points, want 1", len(f.lastPoints))
	}
	meta := f.lastPoints[0].Meta
	if meta["source_type"] != "notes" || meta["source_label"] != LabelGenerated {
		t.Errorf("point meta = %+v", meta)
	}
	if meta["notes_id"] != r1.NotesID || meta["version"] != 2 {
		t.Errorf("point meta version info = %v/%v", meta["notes_id"], meta["version"])
	}
}

func TestGenerateWithoutChunksFails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	// An asset that was stored but never indexed has no chunks.
	assets := f.svc.assets
	if err := assets.Insert(ctx, &storage.Asset{
		ID: "bare", SubjectID: f.subjectID, OriginalFilename: "bare.pdf",
		StoredPath: "/tmp/bare.pdf", SHA256: "def", SizeBytes: 5,
	}); err != nil {
		t.Fatalf("failed to insert asset: %v", err)
	}

	_, err := f.svc.Generate(ctx, f.subjectID, "bare")
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}

	_, err = f.svc.Generate(ctx, f.subjectID, "missing")
	if !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateCarriesLabelsForward(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	r1, err := f.svc.Generate(ctx, f.subjectID, f.assetID)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	edited := draftMarkdown + "\n\n# Beta\n\nBrand new user text."
	r2, err := f.svc.Update(ctx, r1.NotesID, edited, "user")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if r2.Version != 2 || r2.ChunkCount != 2 {
		t.Errorf("update result = %+v, want version 2 with 2 chunks", r2)
	}

	rec, err := f.notes.GetByID(ctx, r1.NotesID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if rec.GeneratedBy != "user" {
		t.Errorf("GeneratedBy = %q, want user", rec.GeneratedBy)
	}

	meta := parseMeta(rec.MetaJSON)
	if len(meta.ChunkLabels) != 2 {
		t.Fatalf("got %d chunk labels, want 2: %+v", len(meta.ChunkLabels), meta.ChunkLabels)
	}
	byText := map[string]string{}
	for _, l := range meta.ChunkLabels {
		byText[l.Text] = l.Label
	}
	if byText["Alpha body content."] != LabelGenerated {
		t.Errorf("untouched chunk label = %q, want %q", byText["Alpha body content."], LabelGenerated)
	}
	if byText["Brand new user text."] != LabelUserNotes {
		t.Errorf("new chunk label = %q, want %q", byText["Brand new user text."], LabelUserNotes)
	}

	if _, err := f.svc.Update(ctx, "nonexistent", "# X\n\ny", "user"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveUserNotesCreateThenUpdate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	r1, err := f.svc.SaveUserNotes(ctx, f.subjectID, f.assetID, "# Mine\n\nMy own notes.")
	if err != nil {
		t.Fatalf("SaveUserNotes returned error: %v", err)
	}
	if r1.Version != 1 {
		t.Errorf("Version = %d, want 1", r1.Version)
	}

	rec, err := f.notes.GetByID(ctx, r1.NotesID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if rec.GeneratedBy != "user" {
		t.Errorf("GeneratedBy = %q, want user", rec.GeneratedBy)
	}
	meta := parseMeta(rec.MetaJSON)
	for _, l := range meta.ChunkLabels {
		if l.Label != LabelUserNotes {
			t.Errorf("label = %q, want %q", l.Label, LabelUserNotes)
		}
	}

	// A second save becomes a new version of the same notes.
	r2, err := f.svc.SaveUserNotes(ctx, f.subjectID, f.assetID, "# Mine\n\nMy own notes, revised.")
	if err != nil {
		t.Fatalf("second SaveUserNotes returned error: %v", err)
	}
	if r2.NotesID != r1.NotesID || r2.Version != 2 {
		t.Errorf("second save = %+v, want version 2 of %q", r2, r1.NotesID)
	}
}

func TestReindexKeepsVersion(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	r1, err := f.svc.Generate(ctx, f.subjectID, f.assetID)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	f.lastPoints = nil
	r2, err := f.svc.Reindex(ctx, r1.NotesID)
	if err != nil {
		t.Fatalf("Reindex returned error: %v", err)
	}
	if r2.Version != r1.Version || r2.ChunkCount != r1.ChunkCount {
		t.Errorf("reindex result = %+v, want same version and chunk count as %+v", r2, r1)
	}
	if len(f.lastPoints) != r1.ChunkCount {
		t.Errorf("reindex upserted %d points, want %d", len(f.lastPoints), r1.ChunkCount)
	}

	if _, err := f.svc.Reindex(ctx, "nonexistent"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteByAsset(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Generate(ctx, f.subjectID, f.assetID); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	if err := f.svc.DeleteByAsset(ctx, f.subjectID, f.assetID); err != nil {
		t.Fatalf("DeleteByAsset returned error: %v", err)
	}
	if _, err := f.svc.GetLatest(ctx, f.subjectID, f.assetID); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after delete", err)
	}

	// Deleting an asset with no notes is a no-op.
	if err := f.svc.DeleteByAsset(ctx, f.subjectID, f.assetID); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}
