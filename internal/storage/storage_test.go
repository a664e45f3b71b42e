package storage

import (
	"context"
	"errors"
	"testing"
)

func newTestDB(t *testing.T) *testRepos {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	// Migrate is idempotent.
	if err := Migrate(db); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	return &testRepos{
		subjects: NewSubjectRepo(db),
		assets:   NewAssetRepo(db),
		chunks:   NewChunkRepo(db),
		notes:    NewNotesRepo(db),
		pages:    NewPageRepo(db),
	}
}

type testRepos struct {
	subjects *SubjectRepo
	assets   *AssetRepo
	chunks   *ChunkRepo
	notes    *NotesRepo
	pages    *PageRepo
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Linear Algebra", "linear-algebra"},
		{"  Probability & Stats!  ", "probability-stats"},
		{"---", "subject"},
		{"Ωμέγα", "subject"},
		{"CS 101", "cs-101"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubjectCreateSlugCollision(t *testing.T) {
	r := newTestDB(t)
	ctx := context.Background()

	first, err := r.subjects.Create(ctx, "Physics")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if first.ID != "physics" {
		t.Errorf("ID = %q, want physics", first.ID)
	}

	// Same slug from a different spelling gets a hash suffix.
	second, err := r.subjects.Create(ctx, "physics!")
	if err != nil {
		t.Fatalf("second Create returned error: %v", err)
	}
	if second.ID == first.ID || len(second.ID) != len("physics")+5 {
		t.Errorf("collision ID = %q, want physics-<hash4>", second.ID)
	}

	// The exact same name collides on the hash too and falls to the counter.
	third, err := r.subjects.Create(ctx, "physics!")
	if err != nil {
		t.Fatalf("third Create returned error: %v", err)
	}
	if third.ID != second.ID+"-1" {
		t.Errorf("counter ID = %q, want %q", third.ID, second.ID+"-1")
	}

	if _, err := r.subjects.Create(ctx, "  "); err == nil {
		t.Error("blank name should be rejected")
	}

	all, err := r.subjects.ListAll(ctx)
	if err != nil || len(all) != 3 {
		t.Errorf("ListAll = %v, err = %v", all, err)
	}

	if _, err := r.subjects.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}
}

func TestAssetStatusMirror(t *testing.T) {
	r := newTestDB(t)
	ctx := context.Background()

	if _, err := r.subjects.Create(ctx, "Physics"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	asset := &Asset{
		ID: "a1", SubjectID: "physics", OriginalFilename: "slides.pdf",
		StoredPath: "/tmp/slides.pdf", SHA256: "deadbeef", SizeBytes: 123, MimeType: "application/pdf",
	}
	if err := r.assets.Insert(ctx, asset); err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}

	got, err := r.assets.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Status != StageStored {
		t.Errorf("initial status = %q, want stored", got.Status)
	}

	if err := r.assets.UpsertIndexStatus(ctx, &IndexStatus{
		AssetID: "a1", Stage: StageChunked, OCREngine: "stub", Warning: "tesseract unavailable",
	}); err != nil {
		t.Fatalf("UpsertIndexStatus returned error: %v", err)
	}

	status, err := r.assets.GetIndexStatus(ctx, "a1")
	if err != nil {
		t.Fatalf("GetIndexStatus returned error: %v", err)
	}
	if status.Stage != StageChunked || status.OCREngine != "stub" || status.Warning == "" {
		t.Errorf("status = %+v", status)
	}

	// Stage is mirrored onto the asset row.
	got, _ = r.assets.Get(ctx, "a1")
	if got.Status != StageChunked {
		t.Errorf("mirrored status = %q, want chunked", got.Status)
	}

	// Upsert replaces, never duplicates.
	if err := r.assets.UpsertIndexStatus(ctx, &IndexStatus{AssetID: "a1", Stage: StageIndexed}); err != nil {
		t.Fatalf("second UpsertIndexStatus returned error: %v", err)
	}
	status, _ = r.assets.GetIndexStatus(ctx, "a1")
	if status.Stage != StageIndexed || status.Error != "" {
		t.Errorf("status after clear = %+v", status)
	}
}

func TestAssetDeleteCascades(t *testing.T) {
	r := newTestDB(t)
	ctx := context.Background()

	if _, err := r.subjects.Create(ctx, "Physics"); err != nil {
		t.Fatal(err)
	}
	if err := r.assets.Insert(ctx, &Asset{
		ID: "a1", SubjectID: "physics", OriginalFilename: "f.pdf", StoredPath: "/tmp/f.pdf", SHA256: "x", SizeBytes: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.chunks.Upsert(ctx, &ChunkRecord{ID: "c1", SubjectID: "physics", AssetID: "a1", PageNum: 1, Text: "t"}); err != nil {
		t.Fatal(err)
	}
	if err := r.pages.UpsertPage(ctx, &PageRecord{AssetID: "a1", PageNum: 1, ImagePath: "/tmp/p.png"}); err != nil {
		t.Fatal(err)
	}
	if err := r.notes.Upsert(ctx, &NotesRecord{ID: "n1", SubjectID: "physics", AssetID: "a1", Version: 1, Markdown: "# m", GeneratedBy: "llm"}); err != nil {
		t.Fatal(err)
	}

	if err := r.assets.Delete(ctx, "a1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := r.assets.Get(ctx, "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("asset survived delete: %v", err)
	}
	if chunks, _ := r.chunks.ListByAsset(ctx, "physics", "a1"); len(chunks) != 0 {
		t.Errorf("chunks survived delete: %v", chunks)
	}
	if _, err := r.notes.GetByID(ctx, "n1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("notes survived delete: %v", err)
	}
	if pages, _ := r.pages.ListByAsset(ctx, "a1"); len(pages) != 0 {
		t.Errorf("pages survived delete: %v", pages)
	}
}

func TestChunkListByAssetPages(t *testing.T) {
	r := newTestDB(t)
	ctx := context.Background()

	for _, c := range []ChunkRecord{
		{ID: "c3", SubjectID: "s", AssetID: "a1", PageNum: 3, Text: "three", StartBlock: 0},
		{ID: "c1b", SubjectID: "s", AssetID: "a1", PageNum: 1, Text: "one-b", StartBlock: 2},
		{ID: "c1a", SubjectID: "s", AssetID: "a1", PageNum: 1, Text: "one-a", StartBlock: 0},
		{ID: "other", SubjectID: "s", AssetID: "a2", PageNum: 1, Text: "other asset"},
	} {
		c := c
		if err := r.chunks.Upsert(ctx, &c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.chunks.ListByAssetPages(ctx, "a1", []int{1, 2})
	if err != nil {
		t.Fatalf("ListByAssetPages returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "c1a" || got[1].ID != "c1b" {
		t.Errorf("got %v, want [c1a c1b] in block order", got)
	}

	if got, _ := r.chunks.ListByAssetPages(ctx, "a1", nil); got != nil {
		t.Errorf("empty page list should return nothing, got %v", got)
	}

	all, err := r.chunks.ListByAsset(ctx, "s", "a1")
	if err != nil || len(all) != 3 {
		t.Fatalf("ListByAsset = %v, err = %v", all, err)
	}
	if all[0].ID != "c1a" || all[2].ID != "c3" {
		t.Errorf("ListByAsset order = %v", all)
	}

	// Upserting the same id again replaces the row.
	if err := r.chunks.Upsert(ctx, &ChunkRecord{ID: "c3", SubjectID: "s", AssetID: "a1", PageNum: 3, Text: "three again"}); err != nil {
		t.Fatal(err)
	}
	c3, err := r.chunks.GetByID(ctx, "c3")
	if err != nil || c3.Text != "three again" {
		t.Errorf("GetByID after upsert = %+v, err = %v", c3, err)
	}
}

func TestNotesVersionsAndChunks(t *testing.T) {
	r := newTestDB(t)
	ctx := context.Background()

	v1 := &NotesRecord{ID: "n1", SubjectID: "s", AssetID: "a1", Version: 1, Markdown: "# v1", GeneratedBy: "llm", MetaJSON: `{"used_web":false}`}
	if err := r.notes.Upsert(ctx, v1); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	stored, err := r.notes.GetByID(ctx, "n1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	createdAt := stored.CreatedAt

	v2 := &NotesRecord{ID: "n1", SubjectID: "s", AssetID: "a1", Version: 2, Markdown: "# v2", GeneratedBy: "user"}
	if err := r.notes.Upsert(ctx, v2); err != nil {
		t.Fatalf("second Upsert returned error: %v", err)
	}

	latest, err := r.notes.GetLatest(ctx, "s", "a1")
	if err != nil {
		t.Fatalf("GetLatest returned error: %v", err)
	}
	if latest.Version != 2 || latest.Markdown != "# v2" || latest.GeneratedBy != "user" {
		t.Errorf("latest = %+v", latest)
	}
	if !latest.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at changed across versions: %v vs %v", latest.CreatedAt, createdAt)
	}

	for _, id := range []string{"nc1", "nc2"} {
		if err := r.notes.InsertChunk(ctx, &NotesChunkRecord{
			ID: id, NotesID: "n1", SubjectID: "s", AssetID: "a1", SectionTitle: "Overview", Text: "body " + id,
		}); err != nil {
			t.Fatal(err)
		}
	}
	chunks, err := r.notes.ListChunks(ctx, "n1")
	if err != nil || len(chunks) != 2 {
		t.Fatalf("ListChunks = %v, err = %v", chunks, err)
	}

	if err := r.notes.DeleteChunks(ctx, "n1"); err != nil {
		t.Fatalf("DeleteChunks returned error: %v", err)
	}
	if chunks, _ := r.notes.ListChunks(ctx, "n1"); len(chunks) != 0 {
		t.Errorf("chunks survived DeleteChunks: %v", chunks)
	}

	if err := r.notes.DeleteByAsset(ctx, "a1"); err != nil {
		t.Fatalf("DeleteByAsset returned error: %v", err)
	}
	if _, err := r.notes.GetLatest(ctx, "s", "a1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("notes survived DeleteByAsset: %v", err)
	}
}

func TestStageIndexOf(t *testing.T) {
	if StageIndexOf(StageStored) >= StageIndexOf(StageIndexed) {
		t.Error("stored should order before indexed")
	}
	if StageIndexOf("bogus") != -1 {
		t.Errorf("unknown stage index = %d, want -1", StageIndexOf("bogus"))
	}
}
