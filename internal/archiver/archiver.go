package archiver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/internal/models"
	"github.com/qzarchive/qzarchive/internal/qzone"
	"github.com/qzarchive/qzarchive/pkg/config"
	"github.com/qzarchive/qzarchive/pkg/logging"
	"github.com/qzarchive/qzarchive/pkg/telemetry"
)

// Feed lists pages of a user's posts
type Feed interface {
	ListPosts(ctx context.Context, uin string, opts qzone.ListOptions) ([]*models.Post, error)
}

// Hydrator completes a partially loaded post in place
type Hydrator interface {
	Hydrate(ctx context.Context, post *models.Post) error
}

// Store persists archived posts and run records
type Store interface {
	SavePost(ctx context.Context, post *models.ArchivedPost) error
	StartRun(ctx context.Context, targetUIN string, now time.Time) (*models.SyncRun, error)
	FinishRun(ctx context.Context, run *models.SyncRun, runErr error, now time.Time) error
}

// Sink receives every post once the archiver is done with it
type Sink func(post *models.Post, hydrated bool)

// Archiver pages through a feed, hydrates posts and stores them. All calls
// are sequential.
type Archiver struct {
	feed     Feed
	hydrator Hydrator
	store    Store
	sink     Sink
	pages    int
	pageSize int
	mode     string
	now      func() time.Time
	logger   *zap.Logger
}

// Option customizes an Archiver
type Option func(*Archiver)

// WithStore persists posts and runs. Without a store posts only reach the sink.
func WithStore(s Store) Option {
	return func(a *Archiver) { a.store = s }
}

// WithSink receives each post after hydration
func WithSink(s Sink) Option {
	return func(a *Archiver) { a.sink = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// New creates an archiver
func New(feed Feed, hydrator Hydrator, archiverCfg *config.ArchiverConfig, pageSize int, opts ...Option) *Archiver {
	a := &Archiver{
		feed:     feed,
		hydrator: hydrator,
		pages:    archiverCfg.Pages,
		pageSize: pageSize,
		mode:     archiverCfg.Hydrate,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logging.WithComponent("archiver"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.pages <= 0 {
		a.pages = 1
	}
	if a.pageSize <= 0 {
		a.pageSize = 20
	}
	return a
}

// shouldHydrate applies the hydration mode. Reactions are never part of a
// listing, so "unloaded" looks at the other attributes only.
func (a *Archiver) shouldHydrate(post *models.Post) bool {
	switch a.mode {
	case config.HydrateAll:
		return true
	case config.HydrateUnloaded:
		for _, field := range post.UnloadedFields() {
			if field != "reactions" {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Run archives up to the configured number of pages of uin's feed. A listing
// or storage failure ends the run; a hydration failure is counted and the
// partially hydrated post is still stored.
func (a *Archiver) Run(ctx context.Context, uin string) (*models.SyncRun, error) {
	ctx, span := telemetry.StartSpan(ctx, "archiver.run")
	defer span.End()
	span.SetAttributes(attribute.String("uin", uin))

	run, err := a.startRun(ctx, uin)
	if err != nil {
		return nil, err
	}
	logger := a.logger.With(zap.String("run_id", run.ID.String()), zap.String("uin", uin))
	logger.Info("Starting archive run", zap.Int("pages", a.pages), zap.String("hydrate", a.mode))

	runErr := a.archivePages(ctx, uin, run, logger)

	if a.store != nil {
		if err := a.store.FinishRun(ctx, run, runErr, a.now()); err != nil {
			logger.Error("Failed to record run outcome", zap.Error(err))
			if runErr == nil {
				runErr = fmt.Errorf("failed to finish run: %w", err)
			}
		}
	} else {
		run.FinishedAt = sql.NullTime{Time: a.now(), Valid: true}
		if runErr != nil {
			run.Error = runErr.Error()
		}
	}

	if runErr != nil {
		span.RecordError(runErr)
		logger.Error("Archive run failed", zap.Error(runErr),
			zap.Int("listed", run.Listed), zap.Int("hydrated", run.Hydrated), zap.Int("failed", run.Failed))
		return run, runErr
	}
	logger.Info("Archive run finished",
		zap.Int("listed", run.Listed), zap.Int("hydrated", run.Hydrated), zap.Int("failed", run.Failed))
	return run, nil
}

func (a *Archiver) startRun(ctx context.Context, uin string) (*models.SyncRun, error) {
	if a.store == nil {
		return &models.SyncRun{ID: uuid.New(), TargetUIN: uin, StartedAt: a.now()}, nil
	}
	run, err := a.store.StartRun(ctx, uin, a.now())
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return run, nil
}

func (a *Archiver) archivePages(ctx context.Context, uin string, run *models.SyncRun, logger *zap.Logger) error {
	for page := 0; page < a.pages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		opts := qzone.ListOptions{Num: a.pageSize, Pos: page * a.pageSize}
		posts, err := a.feed.ListPosts(ctx, uin, opts)
		if err != nil {
			return fmt.Errorf("failed to list page %d: %w", page, err)
		}
		logger.Debug("Listed page", zap.Int("page", page), zap.Int("posts", len(posts)))

		for _, post := range posts {
			run.Listed++
			if err := a.archivePost(ctx, post, run); err != nil {
				return err
			}
		}

		if len(posts) < a.pageSize {
			break
		}
	}
	return nil
}

func (a *Archiver) archivePost(ctx context.Context, post *models.Post, run *models.SyncRun) error {
	hydrated := false
	if a.shouldHydrate(post) {
		if err := a.hydrator.Hydrate(ctx, post); err != nil {
			run.Failed++
		} else {
			run.Hydrated++
			hydrated = true
		}
	}

	if a.sink != nil {
		a.sink(post, hydrated)
	}
	if a.store == nil {
		return nil
	}

	archived, err := models.NewArchivedPost(post, hydrated, a.now())
	if err != nil {
		return err
	}
	if err := a.store.SavePost(ctx, archived); err != nil {
		return fmt.Errorf("failed to save post %s: %w", post.ID, err)
	}
	return nil
}
