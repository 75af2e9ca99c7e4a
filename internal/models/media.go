package models

import "strings"

// MediaKind distinguishes pictures from videos
type MediaKind string

const (
	MediaImage MediaKind = "Image"
	MediaVideo MediaKind = "Video"
)

// imageProxyPrefix is the redirect service that wraps third-party images;
// the real target follows "url=" in its query.
const imageProxyPrefix = "http://p.qpimg.cn/cgi-bin/cgi_imgproxy?"

// Media is a picture or a video attached to a post, comment or profile
type Media struct {
	URL      string
	VideoURL string
	Kind     MediaKind
}

// NewMedia builds a Media. Kind is Video iff videoURL is set; proxied image
// URLs are replaced by their target.
func NewMedia(url, videoURL string) Media {
	m := Media{URL: url, VideoURL: videoURL, Kind: MediaImage}
	if videoURL != "" {
		m.Kind = MediaVideo
	}
	if strings.HasPrefix(url, imageProxyPrefix) {
		if i := strings.Index(url, "url="); i >= 0 {
			m.URL = url[i+len("url="):]
		}
	}
	return m
}

// IsVideo reports whether the media carries a playable video
func (m Media) IsVideo() bool {
	return m.Kind == MediaVideo
}

// SameAs compares media identity, which is the URL alone
func (m Media) SameAs(other Media) bool {
	return m.URL == other.URL
}

// String renders a marker such as [Image]
func (m Media) String() string {
	return "[" + string(m.Kind) + "]"
}
