package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jitarth1102/rag-study-assistant/internal/contextutil"
	"github.com/Jitarth1102/rag-study-assistant/internal/storage"
)

// SubjectService manages subjects, the namespaces that group assets and notes.
type SubjectService struct {
	subjects storage.SubjectStore
	dataRoot string
}

// NewSubjectService creates a new SubjectService.
func NewSubjectService(subjects storage.SubjectStore, dataRoot string) *SubjectService {
	return &SubjectService{subjects: subjects, dataRoot: dataRoot}
}

// Create creates a subject from a display name. The repo derives the slug id
// and resolves collisions; this layer validates input and provisions the
// subject's data directory.
func (s *SubjectService) Create(ctx context.Context, name string) (*storage.Subject, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: subject name is required", ErrInvalidInput)
	}

	subject, err := s.subjects.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create subject: %w", err)
	}

	dir := filepath.Join(s.dataRoot, "subjects", subject.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to create subject directory", "dir", dir, "error", err)
	}
	return subject, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, subjectID string) (*storage.Subject, error) {
	subject, err := s.subjects.Get(ctx, subjectID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject %s", ErrNotFound, subjectID)
		}
		return nil, err
	}
	return subject, nil
}

// List returns all subjects.
func (s *SubjectService) List(ctx context.Context) ([]storage.Subject, error) {
	return s.subjects.ListAll(ctx)
}
