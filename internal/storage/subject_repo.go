package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_subject_store.go -package=mocks github.com/Jitarth1102/rag-study-assistant/internal/storage SubjectStore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SubjectStore defines the interface for subject storage operations.
type SubjectStore interface {
	// Create creates a new subject from a display name, generating a unique slug id.
	Create(ctx context.Context, name string) (*Subject, error)
	// Get returns a subject by id. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, subjectID string) (*Subject, error)
	// ListAll returns all subjects, newest first.
	ListAll(ctx context.Context) ([]Subject, error)
}

// SubjectRepo provides methods for subject operations.
// It implements the SubjectStore interface.
type SubjectRepo struct {
	db *sql.DB
}

// NewSubjectRepo creates a new SubjectRepo.
func NewSubjectRepo(db *sql.DB) *SubjectRepo {
	return &SubjectRepo{db: db}
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
var dashRun = regexp.MustCompile(`-{2,}`)

// Slugify converts a display name into a subject id slug.
func Slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = dashRun.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "subject"
	}
	return slug
}

// Create creates a new subject. The id is the slugified name; collisions get a
// short content-hash suffix, then a counter.
func (r *SubjectRepo) Create(ctx context.Context, name string) (*Subject, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("subject name is required")
	}

	existing, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	existingIDs := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		existingIDs[s.ID] = struct{}{}
	}

	base := Slugify(name)
	subjectID := base
	if _, taken := existingIDs[subjectID]; taken {
		hash := sha256.Sum256([]byte(name))
		shortHash := fmt.Sprintf("%x", hash)[:4]
		subjectID = fmt.Sprintf("%s-%s", base, shortHash)
		for counter := 1; ; counter++ {
			if _, taken := existingIDs[subjectID]; !taken {
				break
			}
			subjectID = fmt.Sprintf("%s-%s-%d", base, shortHash, counter)
		}
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO subjects (subject_id, name) VALUES (?, ?)",
		subjectID, strings.TrimSpace(name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert subject: %w", err)
	}

	return r.Get(ctx, subjectID)
}

// Get returns a subject by id. Returns ErrNotFound if it does not exist.
func (r *SubjectRepo) Get(ctx context.Context, subjectID string) (*Subject, error) {
	var subject Subject
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT subject_id, name, created_at FROM subjects WHERE subject_id = ?",
		subjectID,
	).Scan(&subject.ID, &subject.Name, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subject: %w", err)
	}

	subject.CreatedAt, err = parseSQLiteTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	return &subject, nil
}

// ListAll returns all subjects, newest first.
func (r *SubjectRepo) ListAll(ctx context.Context) ([]Subject, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT subject_id, name, created_at FROM subjects ORDER BY created_at DESC, subject_id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query subjects: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var subjects []Subject
	for rows.Next() {
		var subject Subject
		var createdAtStr string
		if err := rows.Scan(&subject.ID, &subject.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan subject: %w", err)
		}
		subject.CreatedAt, err = parseSQLiteTime(createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return subjects, nil
}
