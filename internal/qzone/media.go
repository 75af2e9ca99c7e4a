package qzone

import (
	"context"
	"io"

	"github.com/qzarchive/qzarchive/internal/models"
)

// OpenMedia opens the picture, or the cover of a video, with the session
// cookies. The caller closes the stream.
func (c *Client) OpenMedia(ctx context.Context, m models.Media) (io.ReadCloser, error) {
	return c.open(ctx, m.URL)
}

// OpenVideo opens the video stream of m. It fails with
// ErrUnsupportedMediaOperation when m is a picture.
func (c *Client) OpenVideo(ctx context.Context, m models.Media) (io.ReadCloser, error) {
	if !m.IsVideo() {
		return nil, ErrUnsupportedMediaOperation
	}
	return c.open(ctx, m.VideoURL)
}
