package db

import (
	"context"
	"time"

	"github.com/qzarchive/qzarchive/internal/models"
)

// ArchiveStore is the write side used by the archiver
type ArchiveStore struct {
	posts *PostRepository
	runs  *RunRepository
}

// NewArchiveStore creates a store over the archive tables
func NewArchiveStore(repo *Repository) *ArchiveStore {
	return &ArchiveStore{
		posts: NewPostRepository(repo),
		runs:  NewRunRepository(repo),
	}
}

// SavePost stores one post and its comments
func (s *ArchiveStore) SavePost(ctx context.Context, post *models.ArchivedPost) error {
	return s.posts.Save(ctx, post)
}

// StartRun records the beginning of a run
func (s *ArchiveStore) StartRun(ctx context.Context, targetUIN string, now time.Time) (*models.SyncRun, error) {
	return s.runs.Start(ctx, targetUIN, now)
}

// FinishRun records the outcome of a run
func (s *ArchiveStore) FinishRun(ctx context.Context, run *models.SyncRun, runErr error, now time.Time) error {
	return s.runs.Finish(ctx, run, runErr, now)
}
