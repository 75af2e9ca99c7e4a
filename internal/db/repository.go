package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qzarchive/qzarchive/internal/models"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// clampLimit applies the default page size and the upper bound
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// PostRepository provides archived post operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// Save upserts a post and replaces its comments in one transaction
func (r *PostRepository) Save(ctx context.Context, post *models.ArchivedPost) error {
	comments := dedupeComments(post.Comments)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tid"}},
				UpdateAll: true,
			}).
			Create(post).Error; err != nil {
			return fmt.Errorf("failed to upsert post %s: %w", post.TID, err)
		}

		if err := tx.Where("post_tid = ?", post.TID).Delete(&models.ArchivedComment{}).Error; err != nil {
			return fmt.Errorf("failed to clear comments of post %s: %w", post.TID, err)
		}
		if len(comments) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&comments, 100).Error; err != nil {
			return fmt.Errorf("failed to insert comments of post %s: %w", post.TID, err)
		}
		return nil
	})
}

// dedupeComments keeps the first comment of each comment tid, since the
// service may repeat one across page boundaries
func dedupeComments(comments []models.ArchivedComment) []models.ArchivedComment {
	seen := make(map[string]bool, len(comments))
	out := make([]models.ArchivedComment, 0, len(comments))
	for _, c := range comments {
		if seen[c.CommentTID] {
			continue
		}
		seen[c.CommentTID] = true
		out = append(out, c)
	}
	return out
}

// GetByTID retrieves a post with its comments, or nil when it is not archived
func (r *PostRepository) GetByTID(ctx context.Context, tid string) (*models.ArchivedPost, error) {
	var post models.ArchivedPost
	if err := r.db.WithContext(ctx).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("posted_at ASC")
		}).
		Where("tid = ?", tid).
		First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ListByAuthor retrieves the newest posts of an author without comments
func (r *PostRepository) ListByAuthor(ctx context.Context, authorUIN string, limit, offset int) ([]*models.ArchivedPost, error) {
	if offset < 0 {
		offset = 0
	}
	var posts []*models.ArchivedPost
	if err := r.db.WithContext(ctx).
		Where("author_uin = ?", authorUIN).
		Order("posted_at DESC NULLS LAST").
		Order("tid DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// RunRepository provides sync run operations
type RunRepository struct {
	*Repository
}

// NewRunRepository creates a new run repository
func NewRunRepository(repo *Repository) *RunRepository {
	return &RunRepository{Repository: repo}
}

// Start records the beginning of a run
func (r *RunRepository) Start(ctx context.Context, targetUIN string, now time.Time) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:        uuid.New(),
		TargetUIN: targetUIN,
		StartedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to create sync run: %w", err)
	}
	return run, nil
}

// Finish stores the counters and outcome of a run
func (r *RunRepository) Finish(ctx context.Context, run *models.SyncRun, runErr error, now time.Time) error {
	run.FinishedAt = sql.NullTime{Time: now, Valid: true}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	return r.db.WithContext(ctx).Save(run).Error
}

// List retrieves the most recent runs
func (r *RunRepository) List(ctx context.Context, limit int) ([]*models.SyncRun, error) {
	var runs []*models.SyncRun
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(clampLimit(limit)).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
