package models

import "time"

// Keys the hydrator merges into a payload before re-parsing it
const (
	KeyComments  = "commentlist"
	KeyReactions = "__like"
	KeyPictures  = "__pics"
)

// Location is the place a post was published from
type Location struct {
	ID    string
	Name  string
	Label string
	PosX  string
	PosY  string
}

// Reaction is one user's like on a post
type Reaction struct {
	Nick   string
	Avatar Media
}

// Post is one feed item. Attributes typed Lazy, and entries of Media, may
// be Unloaded: the service has them but this payload did not carry them.
// Hydration fills them in by re-parsing a richer payload into the same Post.
type Post struct {
	ID           string
	AuthorID     string
	AuthorName   string
	ShortContent string
	Content      Lazy[string]
	CreatedAt    Lazy[time.Time]
	ForwardCount Lazy[int]
	CommentCount Lazy[int]
	Location     Lazy[Location]
	Source       string
	Comments     []Comment
	Media        []Lazy[Media]
	QuotedPost   *Post
	Reposts      []*Post
	Reactions    Lazy[map[string]Reaction]

	raw Raw
}

// ParsePost builds a Post from one raw feed item
func ParsePost(raw Raw) *Post {
	p := &Post{}
	p.Load(raw)
	return p
}

// Load replaces every attribute of p with the result of parsing raw. It is
// the only way a Post is upgraded.
func (p *Post) Load(raw Raw) {
	next := Post{
		ID:           raw.String("tid"),
		AuthorID:     raw.String("uin"),
		AuthorName:   raw.String("name"),
		ShortContent: raw.String("content"),
		Source:       raw.String("source_name"),
		raw:          raw,
	}

	for _, c := range raw.List(KeyComments) {
		next.Comments = append(next.Comments, ParseComment(c))
	}

	if _, ok := raw["content"]; ok && !raw.Truthy("has_more_con") {
		next.Content = Known(raw.String("content"))
	}
	if ts, ok := raw.Time("created_time"); ok {
		next.CreatedAt = Known(ts)
	}
	if n, ok := raw.Int("fwdnum"); ok {
		next.ForwardCount = Known(int(n))
	}
	if n, ok := raw.Int("cmtnum"); ok {
		next.CommentCount = Known(int(n))
	}
	if lbs, ok := raw.Object("lbs"); ok {
		next.Location = Known(Location{
			ID:    lbs.String("id"),
			Name:  lbs.String("name"),
			Label: lbs.String("idname"),
			PosX:  lbs.String("pos_x"),
			PosY:  lbs.String("pos_y"),
		})
	}

	next.Media = parsePostMedia(raw)
	next.QuotedPost = parseQuoted(raw)
	next.Reposts = parseReposts(raw)

	if _, ok := raw[KeyReactions]; ok {
		reactions := make(map[string]Reaction)
		for _, l := range raw.List(KeyReactions) {
			reactions[l.String("fuin")] = Reaction{
				Nick:   l.String("nick"),
				Avatar: NewMedia(l.String("portrait"), ""),
			}
		}
		next.Reactions = Known(reactions)
	}

	*p = next
}

func parsePostMedia(raw Raw) []Lazy[Media] {
	var media []Lazy[Media]
	if total, ok := raw.Int("pictotal"); ok && total > 0 {
		for _, pic := range raw.List("pic") {
			if vi, ok := pic.Object("video_info"); ok {
				media = append(media, Known(NewMedia(pic.String("url1"), vi.String("url3"))))
			} else {
				media = append(media, Known(NewMedia(pic.String("url1"), "")))
			}
		}
		for int64(len(media)) < total {
			media = append(media, Pending[Media]())
		}
	}
	for _, v := range raw.List("video") {
		media = append(media, Known(NewMedia(v.String("url1"), v.String("url3"))))
	}

	if _, ok := raw[KeyPictures]; ok {
		media = completeMedia(media, raw.Strings(KeyPictures))
	}
	return media
}

// completeMedia drops the placeholders and appends every listed URL not
// already present.
func completeMedia(media []Lazy[Media], urls []string) []Lazy[Media] {
	out := make([]Lazy[Media], 0, len(media)+len(urls))
	seen := make(map[string]bool, len(media)+len(urls))
	for _, m := range media {
		if v, ok := m.Get(); ok {
			out = append(out, m)
			seen[v.URL] = true
		}
	}
	for _, u := range urls {
		m := NewMedia(u, "")
		if seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		out = append(out, Known(m))
	}
	return out
}

func parseQuoted(raw Raw) *Post {
	if _, ok := raw[QuotedPrefix+"con"]; !ok || !raw.Truthy(QuotedPrefix+"tid") {
		return nil
	}
	sub := Raw{
		KeyComments: []interface{}{},
		"name":      raw.String(QuotedPrefix + "uinname"),
	}
	if con, ok := raw.Object(QuotedPrefix + "con"); ok {
		if content, ok := con["content"]; ok {
			sub["content"] = content
		}
	}
	for k, v := range ExtractPrefixed(raw, QuotedPrefix) {
		sub[k] = v
	}
	return ParsePost(sub)
}

// parseReposts builds the forwards of a post. They only carry a short form
// of their content, so it always starts Unloaded.
func parseReposts(raw Raw) []*Post {
	entries := raw.List("rtlist")
	if len(entries) == 0 {
		return nil
	}
	reposts := make([]*Post, 0, len(entries))
	for _, f := range entries {
		con, ok := f["con"]
		if !ok {
			con = f["content"]
		}
		sub := Raw{"con": con, "content": con}
		for k, v := range f {
			sub[k] = v
		}
		sub["has_more_con"] = 1
		reposts = append(reposts, ParsePost(sub))
	}
	return reposts
}

// Raw returns a copy of the payload the post was last loaded from
func (p *Post) Raw() Raw {
	if p.raw == nil {
		return Raw{}
	}
	return p.raw.Clone()
}

// KnownMedia returns the loaded media, skipping placeholders
func (p *Post) KnownMedia() []Media {
	out := make([]Media, 0, len(p.Media))
	for _, m := range p.Media {
		if v, ok := m.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// PendingMedia counts the media placeholders
func (p *Post) PendingMedia() int {
	return len(p.Media) - len(p.KnownMedia())
}

// UnloadedFields names the attributes hydration can still resolve
func (p *Post) UnloadedFields() []string {
	var fields []string
	if !p.Content.Loaded() {
		fields = append(fields, "content")
	}
	if n, ok := p.CommentCount.Get(); ok && n > len(p.Comments) {
		fields = append(fields, "comments")
	}
	if !p.Location.Loaded() {
		fields = append(fields, "location")
	}
	if !p.Reactions.Loaded() {
		fields = append(fields, "reactions")
	}
	if p.PendingMedia() > 0 {
		fields = append(fields, "media")
	}
	return fields
}

// NeedsHydration reports whether any attribute is still Unloaded
func (p *Post) NeedsHydration() bool {
	return len(p.UnloadedFields()) > 0
}
