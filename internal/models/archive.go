package models

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ArchivedPost is the stored form of a Post. Raw keeps the payload the post
// was last loaded from, so the full Post can be rebuilt with ParsePost.
type ArchivedPost struct {
	TID           string         `gorm:"primaryKey;type:varchar(64);column:tid"`
	AuthorUIN     string         `gorm:"type:varchar(20);not null;index;column:author_uin"`
	AuthorName    string         `gorm:"type:varchar(255);column:author_name"`
	ShortContent  string         `gorm:"type:text;column:short_content"`
	Content       string         `gorm:"type:text;column:content"`
	ContentLoaded bool           `gorm:"not null;default:false;column:content_loaded"`
	PostedAt      sql.NullTime   `gorm:"index;column:posted_at"`
	ForwardCount  sql.NullInt64  `gorm:"column:forward_count"`
	CommentCount  sql.NullInt64  `gorm:"column:comment_count"`
	LikeCount     sql.NullInt64  `gorm:"column:like_count"`
	MediaCount    int            `gorm:"not null;default:0;column:media_count"`
	PendingMedia  int            `gorm:"not null;default:0;column:pending_media"`
	Source        string         `gorm:"type:varchar(255);column:source"`
	LocationName  string         `gorm:"type:varchar(255);column:location_name"`
	QuotedTID     string         `gorm:"type:varchar(64);column:quoted_tid"`
	Hydrated      bool           `gorm:"not null;default:false;column:hydrated"`
	Raw           datatypes.JSON `gorm:"type:jsonb;column:raw"`
	ArchivedAt    time.Time      `gorm:"not null;column:archived_at"`

	Comments []ArchivedComment `gorm:"foreignKey:PostTID;references:TID"`
}

// TableName specifies the table name for ArchivedPost
func (ArchivedPost) TableName() string {
	return "qz_posts"
}

// ArchivedComment is a top-level comment of an archived post
type ArchivedComment struct {
	PostTID    string    `gorm:"primaryKey;type:varchar(64);column:post_tid"`
	CommentTID string    `gorm:"primaryKey;type:varchar(64);column:comment_tid"`
	AuthorUIN  string    `gorm:"type:varchar(20);column:author_uin"`
	AuthorName string    `gorm:"type:varchar(255);column:author_name"`
	Content    string    `gorm:"type:text;column:content"`
	PostedAt   time.Time `gorm:"column:posted_at"`
	ReplyCount int       `gorm:"not null;default:0;column:reply_count"`
}

// TableName specifies the table name for ArchivedComment
func (ArchivedComment) TableName() string {
	return "qz_comments"
}

// SyncRun records one archiver pass over a user's feed
type SyncRun struct {
	ID         uuid.UUID    `gorm:"type:uuid;primaryKey;column:id"`
	TargetUIN  string       `gorm:"type:varchar(20);not null;index;column:target_uin"`
	StartedAt  time.Time    `gorm:"not null;column:started_at"`
	FinishedAt sql.NullTime `gorm:"column:finished_at"`
	Listed     int          `gorm:"not null;default:0;column:listed"`
	Hydrated   int          `gorm:"not null;default:0;column:hydrated"`
	Failed     int          `gorm:"not null;default:0;column:failed"`
	Error      string       `gorm:"type:text;column:error"`
}

// TableName specifies the table name for SyncRun
func (SyncRun) TableName() string {
	return "qz_sync_runs"
}

// NewArchivedPost flattens a post into its stored form
func NewArchivedPost(p *Post, hydrated bool, now time.Time) (*ArchivedPost, error) {
	raw, err := json.Marshal(p.Raw())
	if err != nil {
		return nil, fmt.Errorf("failed to encode raw payload of post %s: %w", p.ID, err)
	}

	a := &ArchivedPost{
		TID:          p.ID,
		AuthorUIN:    p.AuthorID,
		AuthorName:   p.AuthorName,
		ShortContent: p.ShortContent,
		MediaCount:   len(p.Media),
		PendingMedia: p.PendingMedia(),
		Source:       p.Source,
		Hydrated:     hydrated,
		Raw:          datatypes.JSON(raw),
		ArchivedAt:   now,
	}
	if content, ok := p.Content.Get(); ok {
		a.Content = content
		a.ContentLoaded = true
	}
	if ts, ok := p.CreatedAt.Get(); ok {
		a.PostedAt = sql.NullTime{Time: ts, Valid: true}
	}
	if n, ok := p.ForwardCount.Get(); ok {
		a.ForwardCount = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	if n, ok := p.CommentCount.Get(); ok {
		a.CommentCount = sql.NullInt64{Int64: int64(n), Valid: true}
	}
	if reactions, ok := p.Reactions.Get(); ok {
		a.LikeCount = sql.NullInt64{Int64: int64(len(reactions)), Valid: true}
	}
	if loc, ok := p.Location.Get(); ok {
		a.LocationName = loc.Name
	}
	if p.QuotedPost != nil {
		a.QuotedTID = p.QuotedPost.ID
	}

	a.Comments = make([]ArchivedComment, 0, len(p.Comments))
	for _, c := range p.Comments {
		a.Comments = append(a.Comments, ArchivedComment{
			PostTID:    p.ID,
			CommentTID: c.ID,
			AuthorUIN:  c.AuthorID,
			AuthorName: c.AuthorName,
			Content:    c.Content,
			PostedAt:   c.CreatedAt,
			ReplyCount: len(c.Replies),
		})
	}
	return a, nil
}

// Post rebuilds the full Post from the stored payload
func (a *ArchivedPost) Post() (*Post, error) {
	dec := json.NewDecoder(bytes.NewReader(a.Raw))
	dec.UseNumber()
	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode raw payload of post %s: %w", a.TID, err)
	}
	return ParsePost(raw), nil
}
