package api

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/qzarchive/qzarchive/internal/api/objects"
	"github.com/qzarchive/qzarchive/internal/models"
)

// ErrNotFound is returned for lookups of posts that were never archived
const ErrNotFound = -32001

// PostReader is the read side of the post archive
type PostReader interface {
	GetByTID(ctx context.Context, tid string) (*models.ArchivedPost, error)
	ListByAuthor(ctx context.Context, authorUIN string, limit, offset int) ([]*models.ArchivedPost, error)
}

// RunReader lists recorded sync runs
type RunReader interface {
	List(ctx context.Context, limit int) ([]*models.SyncRun, error)
}

// ArchiveAPI provides the archive.* methods
type ArchiveAPI struct {
	posts  PostReader
	runs   RunReader
	loader *objects.PostLoader
}

// NewArchiveAPI creates a new archive API
func NewArchiveAPI(posts PostReader, runs RunReader) *ArchiveAPI {
	return &ArchiveAPI{
		posts:  posts,
		runs:   runs,
		loader: objects.NewPostLoader(0),
	}
}

type getPostParams struct {
	TID string `json:"tid" validate:"required,max=64"`
}

type listPostsParams struct {
	Author string `json:"author" validate:"required,numeric,max=20"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
}

type listRunsParams struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// GetPost handles archive.get_post
func (a *ArchiveAPI) GetPost(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p getPostParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	archived, err := a.posts.GetByTID(ctx.Request.Context(), p.TID)
	if err != nil {
		return nil, err
	}
	if archived == nil {
		return nil, NewError(ErrNotFound, "post not found")
	}
	return a.loader.LoadPost(archived)
}

// ListPosts handles archive.list_posts
func (a *ArchiveAPI) ListPosts(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p listPostsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	archived, err := a.posts.ListByAuthor(ctx.Request.Context(), p.Author, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	return a.loader.LoadPosts(archived)
}

// ListRuns handles archive.list_runs
func (a *ArchiveAPI) ListRuns(ctx *gin.Context, params json.RawMessage) (interface{}, error) {
	var p listRunsParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}

	runs, err := a.runs.List(ctx.Request.Context(), p.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		out = append(out, objects.RunObject(run))
	}
	return out, nil
}
