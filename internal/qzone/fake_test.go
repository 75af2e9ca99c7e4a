package qzone

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/internal/cookies"
	"github.com/qzarchive/qzarchive/pkg/config"
)

var testJar = cookies.Jar{"uin": "o0010001", "p_skey": "session-key", "skey": "@abc"}

// fakeService serves the four feed endpoints from canned payloads and
// records what it was asked for.
type fakeService struct {
	t *testing.T

	mu       sync.Mutex
	list     map[string]interface{}
	detail   map[string]interface{} // fields of the detail record besides commentlist
	comments []map[string]interface{}
	likes    []map[string]interface{}
	pictures []string

	failLikes    bool
	failPictures bool

	detailPositions []int
	requests        []*http.Request
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	f := &fakeService{t: t}

	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.reply(w, "_preloadCallback", f.list)
	})
	mux.HandleFunc("/detail", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		pos, _ := strconv.Atoi(r.URL.Query().Get("pos"))
		num, _ := strconv.Atoi(r.URL.Query().Get("num"))

		f.mu.Lock()
		f.detailPositions = append(f.detailPositions, pos)
		payload := map[string]interface{}{"code": 0}
		for k, v := range f.detail {
			payload[k] = v
		}
		page := []map[string]interface{}{}
		for i := pos; i < pos+num && i < len(f.comments); i++ {
			page = append(page, f.comments[i])
		}
		payload["commentlist"] = page
		f.mu.Unlock()

		f.reply(w, "_Callback", payload)
	})
	mux.HandleFunc("/likes", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failLikes {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		f.reply(w, "_Callback", map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"like_uin_info": f.likes},
		})
	})
	mux.HandleFunc("/pics", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failPictures {
			fmt.Fprint(w, "<html>oops</html>")
			return
		}
		f.reply(w, "_Callback", map[string]interface{}{"code": 0, "imageUrls": f.pictures})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)
}

func (f *fakeService) reply(w http.ResponseWriter, callback string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		f.t.Fatalf("marshal payload: %v", err)
	}
	fmt.Fprintf(w, "%s(%s);", callback, data)
}

func (f *fakeService) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.URL.Path)
	}
	return out
}

func testConfig(srv *httptest.Server) *config.QzoneConfig {
	return &config.QzoneConfig{
		ListURL:     srv.URL + "/list",
		DetailURL:   srv.URL + "/detail",
		LikesURL:    srv.URL + "/likes",
		PicturesURL: srv.URL + "/pics",
		UserAgent:   "qzarchive-test",
		Timeout:     5 * time.Second,
		PageSize:    20,
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	c, err := New(testConfig(srv), testJar, WithLogger(zap.NewNop()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func makeComments(n int) []map[string]interface{} {
	out := make([]map[string]interface{}, n)
	for i := range out {
		out[i] = map[string]interface{}{
			"tid":         i + 1,
			"content":     fmt.Sprintf("comment %d", i+1),
			"name":        "commenter",
			"uin":         20000 + i,
			"create_time": 1500000000 + i,
		}
	}
	return out
}
