package models

import (
	"testing"
	"time"
)

func TestArchivedPostRoundTrip(t *testing.T) {
	p := ParsePost(decodeRaw(t, listedPayload))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	a, err := NewArchivedPost(p, false, now)
	if err != nil {
		t.Fatalf("NewArchivedPost() error = %v", err)
	}

	if a.TID != "abc123" || a.AuthorUIN != "10001" || a.QuotedTID != "9" {
		t.Errorf("identity = %q %q %q", a.TID, a.AuthorUIN, a.QuotedTID)
	}
	if a.ContentLoaded || a.Content != "" {
		t.Errorf("truncated content stored as loaded: %q", a.Content)
	}
	if !a.PostedAt.Valid || !a.ForwardCount.Valid || a.ForwardCount.Int64 != 2 {
		t.Errorf("counts = %+v %+v", a.PostedAt, a.ForwardCount)
	}
	if a.LikeCount.Valid {
		t.Error("LikeCount set although reactions are Unloaded")
	}
	if a.MediaCount != 3 || a.PendingMedia != 1 {
		t.Errorf("media = %d pending %d", a.MediaCount, a.PendingMedia)
	}
	if a.LocationName != "Hangzhou" {
		t.Errorf("LocationName = %q", a.LocationName)
	}
	if len(a.Comments) != 1 || a.Comments[0].PostTID != "abc123" || a.Comments[0].ReplyCount != 1 {
		t.Errorf("comments = %+v", a.Comments)
	}

	rebuilt, err := a.Post()
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if rebuilt.String() != p.String() {
		t.Errorf("rebuilt post renders differently:\n%s\nvs\n%s", rebuilt, p)
	}
	if rebuilt.PendingMedia() != p.PendingMedia() || len(rebuilt.Reposts) != len(p.Reposts) {
		t.Error("rebuilt post lost media placeholders or reposts")
	}
}

func TestArchivedPostBadRaw(t *testing.T) {
	a := &ArchivedPost{TID: "x", Raw: []byte("{not json")}
	if _, err := a.Post(); err == nil {
		t.Error("Post() accepted a corrupt payload")
	}
}
