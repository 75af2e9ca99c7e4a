package objects

import (
	"fmt"
	"time"

	"github.com/qzarchive/qzarchive/internal/models"
)

// PostLoader turns stored posts into API objects
type PostLoader struct {
	truncateBody int
}

// NewPostLoader creates a new post loader. Content longer than truncateBody
// runes is cut; zero keeps it whole.
func NewPostLoader(truncateBody int) *PostLoader {
	return &PostLoader{truncateBody: truncateBody}
}

// LoadPost rebuilds a stored post and renders it. Attributes that are still
// Unloaded are rendered as null and named in "unloaded".
func (l *PostLoader) LoadPost(archived *models.ArchivedPost) (map[string]interface{}, error) {
	post, err := archived.Post()
	if err != nil {
		return nil, err
	}

	obj := l.postObject(post)
	obj["hydrated"] = archived.Hydrated
	obj["archived_at"] = archived.ArchivedAt.UTC().Format(time.RFC3339)
	return obj, nil
}

// LoadPosts renders a page of stored posts, keeping their order
func (l *PostLoader) LoadPosts(archived []*models.ArchivedPost) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(archived))
	for _, a := range archived {
		obj, err := l.LoadPost(a)
		if err != nil {
			return nil, fmt.Errorf("failed to load post %s: %w", a.TID, err)
		}
		out = append(out, obj)
	}
	return out, nil
}

func (l *PostLoader) postObject(post *models.Post) map[string]interface{} {
	obj := map[string]interface{}{
		"tid":           post.ID,
		"author":        post.AuthorID,
		"author_name":   post.AuthorName,
		"short_content": post.ShortContent,
		"content":       nil,
		"created":       nil,
		"forward_count": nil,
		"comment_count": nil,
		"location":      nil,
		"reactions":     nil,
		"source":        post.Source,
		"comments":      commentObjects(post.Comments),
		"media":         mediaObjects(post.KnownMedia()),
		"pending_media": post.PendingMedia(),
		"unloaded":      unloaded(post),
	}

	if content, ok := post.Content.Get(); ok {
		obj["content"] = l.truncate(content)
	}
	if ts, ok := post.CreatedAt.Get(); ok {
		obj["created"] = ts.UTC().Format(time.RFC3339)
	}
	if n, ok := post.ForwardCount.Get(); ok {
		obj["forward_count"] = n
	}
	if n, ok := post.CommentCount.Get(); ok {
		obj["comment_count"] = n
	}
	if loc, ok := post.Location.Get(); ok {
		obj["location"] = map[string]interface{}{
			"id":    loc.ID,
			"name":  loc.Name,
			"label": loc.Label,
			"pos_x": loc.PosX,
			"pos_y": loc.PosY,
		}
	}
	if reactions, ok := post.Reactions.Get(); ok {
		likes := make(map[string]interface{}, len(reactions))
		for uin, r := range reactions {
			likes[uin] = map[string]interface{}{
				"nick":   r.Nick,
				"avatar": r.Avatar.URL,
			}
		}
		obj["reactions"] = likes
	}

	if post.QuotedPost != nil {
		obj["quoted"] = l.postObject(post.QuotedPost)
	}
	if len(post.Reposts) > 0 {
		reposts := make([]map[string]interface{}, 0, len(post.Reposts))
		for _, r := range post.Reposts {
			reposts = append(reposts, l.postObject(r))
		}
		obj["reposts"] = reposts
	}
	return obj
}

func (l *PostLoader) truncate(s string) string {
	if l.truncateBody <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= l.truncateBody {
		return s
	}
	return string(runes[:l.truncateBody])
}

// unloaded never returns nil so the field always encodes as a list
func unloaded(post *models.Post) []string {
	fields := post.UnloadedFields()
	if fields == nil {
		return []string{}
	}
	return fields
}

func commentObjects(comments []models.Comment) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(comments))
	for _, c := range comments {
		out = append(out, map[string]interface{}{
			"tid":         c.ID,
			"author":      c.AuthorID,
			"author_name": c.AuthorName,
			"content":     c.Content,
			"created":     c.CreatedAt.UTC().Format(time.RFC3339),
			"media":       mediaObjects(c.Media),
			"replies":     commentObjects(c.Replies),
		})
	}
	return out
}

func mediaObjects(media []models.Media) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(media))
	for _, m := range media {
		obj := map[string]interface{}{
			"url":  m.URL,
			"kind": string(m.Kind),
		}
		if m.IsVideo() {
			obj["video_url"] = m.VideoURL
		}
		out = append(out, obj)
	}
	return out
}

// RunObject renders a sync run
func RunObject(run *models.SyncRun) map[string]interface{} {
	obj := map[string]interface{}{
		"id":          run.ID.String(),
		"target":      run.TargetUIN,
		"started_at":  run.StartedAt.UTC().Format(time.RFC3339),
		"finished_at": nil,
		"listed":      run.Listed,
		"hydrated":    run.Hydrated,
		"failed":      run.Failed,
		"error":       run.Error,
	}
	if run.FinishedAt.Valid {
		obj["finished_at"] = run.FinishedAt.Time.UTC().Format(time.RFC3339)
	}
	return obj
}
