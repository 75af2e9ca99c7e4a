package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

// decodeRaw decodes a payload the way the service client does
func decodeRaw(t *testing.T, s string) Raw {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		t.Fatalf("decode %s: %v", s, err)
	}
	return raw
}

const listedPayload = `{
	"tid": "abc123",
	"uin": 10001,
	"name": "alice",
	"content": "first part",
	"has_more_con": 1,
	"created_time": 1500000000,
	"fwdnum": 2,
	"cmtnum": 1,
	"source_name": "iPhone",
	"lbs": {"id": "7", "idname": "West Lake", "name": "Hangzhou", "pos_x": "120.1", "pos_y": "30.2"},
	"pictotal": 3,
	"pic": [{"url1": "https://x/1.jpg"}, {"url1": "https://x/v.jpg", "video_info": {"url3": "https://x/v.mp4"}}],
	"commentlist": [
		{"tid": 1, "content": "nice", "name": "bob", "uin": 20001, "create_time": 1500000100,
		 "list_3": [{"tid": 2, "content": "thanks", "name": "alice", "uin": 10001, "create_time": 1500000200}],
		 "rich_info": [{"burl": "https://x/c.jpg"}]},
		"not an object"
	],
	"rt_tid": "9",
	"rt_uin": 30001,
	"rt_uinname": "bob",
	"rt_con": {"content": "x"},
	"rt_created_time": "yesterday",
	"rtlist": [{"tid": "f1", "uin": 40001, "name": "dave", "con": "forwarding"}]
}`

func TestParsePost(t *testing.T) {
	p := ParsePost(decodeRaw(t, listedPayload))

	if p.ID != "abc123" || p.AuthorID != "10001" || p.AuthorName != "alice" || p.Source != "iPhone" {
		t.Errorf("identity = %q %q %q %q", p.ID, p.AuthorID, p.AuthorName, p.Source)
	}
	if p.ShortContent != "first part" {
		t.Errorf("ShortContent = %q", p.ShortContent)
	}
	if p.Content.Loaded() {
		t.Errorf("Content = %v, want Unloaded when has_more_con is set", p.Content)
	}
	if ts, ok := p.CreatedAt.Get(); !ok || !ts.Equal(time.Unix(1500000000, 0)) {
		t.Errorf("CreatedAt = %v", p.CreatedAt)
	}
	if n, ok := p.ForwardCount.Get(); !ok || n != 2 {
		t.Errorf("ForwardCount = %v", p.ForwardCount)
	}
	if loc, ok := p.Location.Get(); !ok || loc.Name != "Hangzhou" || loc.Label != "West Lake" {
		t.Errorf("Location = %v", p.Location)
	}
	if p.Reactions.Loaded() {
		t.Error("Reactions should be Unloaded without a like list")
	}

	if len(p.Media) != 3 {
		t.Fatalf("len(Media) = %d, want padding to 3", len(p.Media))
	}
	if m, ok := p.Media[1].Get(); !ok || !m.IsVideo() || m.VideoURL != "https://x/v.mp4" {
		t.Errorf("Media[1] = %v", p.Media[1])
	}
	if p.Media[2].Loaded() {
		t.Error("Media[2] should be an Unloaded placeholder")
	}
	if p.PendingMedia() != 1 {
		t.Errorf("PendingMedia() = %d", p.PendingMedia())
	}

	if len(p.Comments) != 1 {
		t.Fatalf("len(Comments) = %d, want non-objects skipped", len(p.Comments))
	}
	c := p.Comments[0]
	if c.ID != "1" || c.AuthorName != "bob" || c.AuthorID != "20001" || c.Content != "nice" {
		t.Errorf("comment = %+v", c)
	}
	if len(c.Replies) != 1 || c.Replies[0].Content != "thanks" {
		t.Errorf("replies = %+v", c.Replies)
	}
	if len(c.Media) != 1 || c.Media[0].URL != "https://x/c.jpg" {
		t.Errorf("comment media = %+v", c.Media)
	}

	want := []string{"content", "reactions", "media"}
	if got := p.UnloadedFields(); !reflect.DeepEqual(got, want) {
		t.Errorf("UnloadedFields() = %v, want %v", got, want)
	}
}

func TestParsePostAbsentFields(t *testing.T) {
	p := ParsePost(Raw{"tid": "t", "uin": "1"})
	if p.Content.Loaded() || p.CreatedAt.Loaded() || p.ForwardCount.Loaded() || p.Location.Loaded() {
		t.Errorf("absent fields should be Unloaded: %+v", p)
	}
	if p.QuotedPost != nil || p.Reposts != nil || p.Media != nil {
		t.Errorf("absent nested values should be empty: %+v", p)
	}
	if p.String() == "" {
		t.Error("String() of a sparse post is empty")
	}
}

func TestParsePostIdempotent(t *testing.T) {
	raw := decodeRaw(t, listedPayload)
	a := ParsePost(raw)
	b := ParsePost(raw)
	if !reflect.DeepEqual(a, b) {
		t.Error("parsing the same payload twice gave different posts")
	}

	a.Load(a.Raw())
	if !reflect.DeepEqual(a, b) {
		t.Error("reloading a post from its own payload changed it")
	}
}

func TestQuotedPost(t *testing.T) {
	p := ParsePost(decodeRaw(t, listedPayload))
	q := p.QuotedPost
	if q == nil {
		t.Fatal("QuotedPost is nil")
	}
	if q.AuthorName != "bob" || q.ID != "9" || q.AuthorID != "30001" {
		t.Errorf("quoted identity = %q %q %q", q.AuthorName, q.ID, q.AuthorID)
	}
	if content, ok := q.Content.Get(); !ok || content != "x" {
		t.Errorf("quoted Content = %v, want x", q.Content)
	}
	if len(q.Comments) != 0 {
		t.Errorf("quoted Comments = %v", q.Comments)
	}
	if q.CreatedAt.Loaded() {
		t.Errorf("quoted CreatedAt = %v, want Unloaded for a non-numeric time", q.CreatedAt)
	}

	noTID := decodeRaw(t, `{"tid":"1","rt_con":{"content":"x"},"rt_tid":""}`)
	if ParsePost(noTID).QuotedPost != nil {
		t.Error("quoted post built without rt_tid")
	}
}

func TestReposts(t *testing.T) {
	p := ParsePost(decodeRaw(t, listedPayload))
	if len(p.Reposts) != 1 {
		t.Fatalf("len(Reposts) = %d", len(p.Reposts))
	}
	r := p.Reposts[0]
	if r.ID != "f1" || r.AuthorName != "dave" {
		t.Errorf("repost identity = %q %q", r.ID, r.AuthorName)
	}
	if r.ShortContent != "forwarding" {
		t.Errorf("repost ShortContent = %q", r.ShortContent)
	}
	if r.Content.Loaded() {
		t.Error("repost Content should start Unloaded")
	}
}

func TestExtractPrefixed(t *testing.T) {
	raw := Raw{"rt_tid": "9", "rt_con": "c", "tid": "1", "art_x": 1}
	got := ExtractPrefixed(raw, QuotedPrefix)
	want := Raw{"tid": "9", "con": "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractPrefixed() = %v, want %v", got, want)
	}
	if len(raw) != 4 {
		t.Error("ExtractPrefixed() modified its input")
	}
}

func TestCompletePictures(t *testing.T) {
	raw := decodeRaw(t, `{
		"tid": "t", "uin": "1", "content": "c",
		"pictotal": 2, "pic": [{"url1": "https://x/1.jpg"}],
		"__pics": ["https://x/1.jpg", "https://x/2.jpg"]
	}`)
	p := ParsePost(raw)

	var urls []string
	for _, m := range p.KnownMedia() {
		urls = append(urls, m.URL)
	}
	if want := []string{"https://x/1.jpg", "https://x/2.jpg"}; !reflect.DeepEqual(urls, want) {
		t.Errorf("media = %v, want %v", urls, want)
	}
	if p.PendingMedia() != 0 {
		t.Errorf("PendingMedia() = %d, want 0", p.PendingMedia())
	}
}

func TestReactions(t *testing.T) {
	raw := decodeRaw(t, `{"tid": "t", "uin": "1", "__like": [
		{"fuin": 30001, "nick": "bob", "portrait": "https://x/bob.jpg"},
		{"fuin": 30002, "nick": "carol", "portrait": "https://x/carol.jpg"}
	]}`)
	reactions, ok := ParsePost(raw).Reactions.Get()
	if !ok || len(reactions) != 2 {
		t.Fatalf("Reactions = %v, %v", reactions, ok)
	}
	if r := reactions["30002"]; r.Nick != "carol" || r.Avatar.URL != "https://x/carol.jpg" {
		t.Errorf("reaction = %+v", r)
	}

	empty, ok := ParsePost(Raw{"__like": []interface{}{}}).Reactions.Get()
	if !ok || len(empty) != 0 {
		t.Errorf("empty like list should be a loaded empty map, got %v, %v", empty, ok)
	}
}
