package models

import "time"

// Comment is a comment on a post. Comments arrive complete: replies and
// attached pictures are parsed from the same payload.
type Comment struct {
	ID         string // comment tid, unique within its post
	Content    string
	CreatedAt  time.Time
	AuthorName string
	AuthorID   string
	Replies    []Comment
	Media      []Media
}

// ParseComment builds a Comment and its replies from a raw comment object
func ParseComment(raw Raw) Comment {
	c := Comment{
		ID:         raw.String("tid"),
		Content:    raw.String("content"),
		AuthorName: raw.String("name"),
		AuthorID:   raw.String("uin"),
	}
	if ts, ok := raw.Time("create_time"); ok {
		c.CreatedAt = ts
	}
	for _, r := range raw.List("list_3") {
		c.Replies = append(c.Replies, ParseComment(r))
	}
	for _, p := range raw.List("rich_info") {
		c.Media = append(c.Media, NewMedia(p.String("burl"), ""))
	}
	return c
}
