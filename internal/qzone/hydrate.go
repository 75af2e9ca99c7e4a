package qzone

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/internal/models"
	"github.com/qzarchive/qzarchive/pkg/logging"
	"github.com/qzarchive/qzarchive/pkg/telemetry"
)

// commentPageSize is the number of comments the detail endpoint returns per call
const commentPageSize = 20

// Hydrator completes partially loaded posts
type Hydrator struct {
	client *Client
	logger *zap.Logger
}

// NewHydrator creates a hydrator issuing calls through client
func NewHydrator(client *Client) *Hydrator {
	return &Hydrator{
		client: client,
		logger: client.logger.With(zap.String("component", "hydrator")),
	}
}

// Hydrate fetches what the listing left out and re-parses the post in place.
// Steps run in order on one merged payload: the untruncated detail record,
// the remaining comment pages, the reactions, and for posts with media the
// complete picture list. A failing step stops hydration and is returned;
// steps already applied stay applied.
func (h *Hydrator) Hydrate(ctx context.Context, post *models.Post) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "qzone.hydrate")
	defer span.End()
	span.SetAttributes(attribute.String("author", post.AuthorID), attribute.String("tid", post.ID))

	logger := logging.WithPost(h.logger, post.AuthorID, post.ID)
	start := time.Now()
	defer func() {
		telemetry.RecordHydration(ctx, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			logger.Error("Hydration failed", zap.Error(err))
		}
	}()

	if post.ID == "" || post.AuthorID == "" {
		return errors.New("post has no id or author")
	}

	known := len(post.Comments)
	if n, ok := post.CommentCount.Get(); ok && n > known {
		known = n
	}

	merged := post.Raw()
	detail, err := h.client.commentPage(ctx, post.AuthorID, post.ID, 0, commentPageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch post detail: %w", err)
	}
	// the detail record is untruncated; the listing's flag must not survive it
	delete(merged, "has_more_con")
	for k, v := range detail {
		merged[k] = v
	}

	comments := listItems(merged[models.KeyComments])
	batch := len(comments)
	seen := make(map[string]bool, known)
	comments = dedupeComments(comments, seen)
	for pos := commentPageSize; batch >= commentPageSize && pos < known; pos += commentPageSize {
		page, err := h.client.commentPage(ctx, post.AuthorID, post.ID, pos, commentPageSize)
		if err != nil {
			return fmt.Errorf("failed to fetch comments at %d: %w", pos, err)
		}
		items := listItems(page[models.KeyComments])
		batch = len(items)
		comments = append(comments, dedupeComments(items, seen)...)
		logger.Debug("Fetched comment page", zap.Int("pos", pos), zap.Int("count", batch))
	}
	merged[models.KeyComments] = comments

	likes, err := h.client.reactions(ctx, post.AuthorID, post.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch reactions: %w", err)
	}
	merged[models.KeyReactions] = likes

	post.Load(merged)

	if len(post.Media) == 0 {
		logger.Debug("Hydrated post", zap.Int("comments", len(post.Comments)))
		return nil
	}

	urls, err := h.client.pictures(ctx, post.AuthorID, post.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch pictures: %w", err)
	}
	merged = merged.Clone()
	merged[models.KeyPictures] = urls
	post.Load(merged)

	logger.Debug("Hydrated post",
		zap.Int("comments", len(post.Comments)),
		zap.Int("media", len(post.Media)))
	return nil
}

// listItems copies a decoded JSON list; anything else is empty
func listItems(v interface{}) []interface{} {
	items, _ := v.([]interface{})
	return append([]interface{}{}, items...)
}

// dedupeComments drops comments whose tid is already in seen. Pages can
// overlap when comments are added between calls.
func dedupeComments(items []interface{}, seen map[string]bool) []interface{} {
	out := items[:0]
	for _, item := range items {
		if c, ok := models.AsRaw(item); ok {
			if tid := c.String("tid"); tid != "" {
				if seen[tid] {
					continue
				}
				seen[tid] = true
			}
		}
		out = append(out, item)
	}
	return out
}
