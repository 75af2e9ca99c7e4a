package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"gorm.io/gorm/logger"

	"github.com/qzarchive/qzarchive/internal/models"
	"github.com/qzarchive/qzarchive/pkg/config"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, defaultLimit},
		{-5, defaultLimit},
		{7, 7},
		{maxLimit, maxLimit},
		{maxLimit + 1, maxLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDedupeComments(t *testing.T) {
	in := []models.ArchivedComment{
		{CommentTID: "1", Content: "first"},
		{CommentTID: "2"},
		{CommentTID: "1", Content: "repeat"},
	}
	out := dedupeComments(in)
	if len(out) != 2 || out[0].Content != "first" || out[1].CommentTID != "2" {
		t.Errorf("dedupeComments() = %+v", out)
	}
}

func TestGormLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logger.LogLevel
	}{
		{"DEBUG", logger.Info},
		{"info", logger.Warn},
		{"WARNING", logger.Error},
		{"error", logger.Silent},
		{"", logger.Warn},
	}
	for _, tt := range tests {
		if got := gormLogLevel(tt.in); got != tt.want {
			t.Errorf("gormLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestArchiveRoundTrip needs a disposable PostgreSQL database
func TestArchiveRoundTrip(t *testing.T) {
	url := os.Getenv("QZA_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("QZA_TEST_DATABASE_URL not set")
	}

	database, err := New(&config.DatabaseConfig{URL: url, Enabled: true}, "ERROR")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	repo := NewRepository(database.DB)
	posts := NewPostRepository(repo)
	runs := NewRunRepository(repo)

	tid := "roundtrip-" + time.Now().Format("150405.000000")
	post := models.ParsePost(models.Raw{
		"tid":          tid,
		"uin":          "10001",
		"name":         "alice",
		"content":      "archived",
		"created_time": 1500000000,
		"commentlist": []interface{}{
			map[string]interface{}{"tid": "1", "content": "a", "create_time": 1500000001},
			map[string]interface{}{"tid": "2", "content": "b", "create_time": 1500000002},
		},
	})
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		archived, err := models.NewArchivedPost(post, i == 1, now)
		if err != nil {
			t.Fatal(err)
		}
		if err := posts.Save(ctx, archived); err != nil {
			t.Fatalf("Save() #%d error = %v", i, err)
		}
	}

	got, err := posts.GetByTID(ctx, tid)
	if err != nil || got == nil {
		t.Fatalf("GetByTID() = %v, %v", got, err)
	}
	if !got.Hydrated || len(got.Comments) != 2 || got.Comments[0].Content != "a" {
		t.Errorf("stored post = %+v", got)
	}
	rebuilt, err := got.Post()
	if err != nil {
		t.Fatal(err)
	}
	if content, _ := rebuilt.Content.Get(); content != "archived" {
		t.Errorf("rebuilt content = %q", content)
	}

	missing, err := posts.GetByTID(ctx, "no-such-post")
	if err != nil || missing != nil {
		t.Errorf("GetByTID(missing) = %v, %v", missing, err)
	}

	list, err := posts.ListByAuthor(ctx, "10001", 5, 0)
	if err != nil || len(list) == 0 {
		t.Errorf("ListByAuthor() = %v, %v", list, err)
	}

	run, err := runs.Start(ctx, "10001", now)
	if err != nil {
		t.Fatal(err)
	}
	run.Listed = 1
	if err := runs.Finish(ctx, run, errors.New("partial"), now); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	recent, err := runs.List(ctx, 1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("List() = %v, %v", recent, err)
	}
}
