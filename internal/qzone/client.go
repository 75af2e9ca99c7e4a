package qzone

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/qzarchive/qzarchive/internal/cookies"
	"github.com/qzarchive/qzarchive/internal/models"
	"github.com/qzarchive/qzarchive/pkg/config"
	"github.com/qzarchive/qzarchive/pkg/logging"
	"github.com/qzarchive/qzarchive/pkg/telemetry"
)

// Endpoint names used in logs and metrics
const (
	endpointList     = "list"
	endpointDetail   = "detail"
	endpointLikes    = "likes"
	endpointPictures = "pictures"
)

// Client talks to the feed service on behalf of one logged-in session
type Client struct {
	cfg       config.QzoneConfig
	jar       cookies.Jar
	signer    *Signer
	transport Transport
	logger    *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithTransport replaces the default HTTP transport
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithSigner shares a token memo between clients
func WithSigner(s *Signer) Option {
	return func(c *Client) { c.signer = s }
}

// WithLogger replaces the component logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client. The jar must carry the uin and session key.
func New(cfg *config.QzoneConfig, jar cookies.Jar, opts ...Option) (*Client, error) {
	if err := jar.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg: *cfg,
		jar: jar,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.signer == nil {
		c.signer = NewSigner()
	}
	if c.transport == nil {
		c.transport = NewHTTPTransport(cfg)
	}
	if c.logger == nil {
		c.logger = logging.WithComponent("qzone-client")
	}
	if c.cfg.PageSize <= 0 {
		c.cfg.PageSize = 20
	}

	c.logger.Info("Feed client initialized", zap.String("uin", jar.UIN()))
	return c, nil
}

// ListOptions selects a page of a user's feed. Zero values mean defaults.
type ListOptions struct {
	Num         int // page size; defaults to the configured page size
	Pos         int // offset of the first post
	FType       int
	Sort        int
	ReplyNum    int // comments embedded per post; defaults to 100
	PublicOnly  bool
	CodeVersion int // defaults to 1
}

func (o ListOptions) query(uin string, pageSize int) url.Values {
	num := o.Num
	if num <= 0 {
		num = pageSize
	}
	replyNum := o.ReplyNum
	if replyNum <= 0 {
		replyNum = 100
	}
	codeVersion := o.CodeVersion
	if codeVersion <= 0 {
		codeVersion = 1
	}
	needPrivate := "1"
	if o.PublicOnly {
		needPrivate = "0"
	}

	q := url.Values{}
	q.Set("uin", uin)
	q.Set("ftype", strconv.Itoa(o.FType))
	q.Set("sort", strconv.Itoa(o.Sort))
	q.Set("pos", strconv.Itoa(o.Pos))
	q.Set("num", strconv.Itoa(num))
	q.Set("replynum", strconv.Itoa(replyNum))
	q.Set("callback", "_preloadCallback")
	q.Set("code_version", strconv.Itoa(codeVersion))
	q.Set("format", "jsonp")
	q.Set("need_private_comment", needPrivate)
	return q
}

// ListRaw fetches one page of a user's feed and returns the decoded payload
func (c *Client) ListRaw(ctx context.Context, uin string, opts ListOptions) (models.Raw, error) {
	ctx, span := telemetry.StartSpan(ctx, "qzone.list_raw")
	defer span.End()
	span.SetAttributes(attribute.String("uin", uin), attribute.Int("pos", opts.Pos))

	raw, err := c.get(ctx, endpointList, c.cfg.ListURL, opts.query(uin, c.cfg.PageSize))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list posts of %s: %w", uin, err)
	}
	return raw, nil
}

// ListPosts fetches one page of a user's feed. No post is hydrated. On
// failure it logs and returns an empty slice together with the error, so
// callers may either degrade quietly or tell failure from an empty feed.
func (c *Client) ListPosts(ctx context.Context, uin string, opts ListOptions) ([]*models.Post, error) {
	raw, err := c.ListRaw(ctx, uin, opts)
	if err != nil {
		c.logger.Error("Failed to list posts", zap.String("uin", uin), zap.Int("pos", opts.Pos), zap.Error(err))
		return []*models.Post{}, err
	}

	items := raw.List("msglist")
	posts := make([]*models.Post, 0, len(items))
	for _, item := range items {
		posts = append(posts, models.ParsePost(item))
	}

	c.logger.Debug("Listed posts", zap.String("uin", uin), zap.Int("pos", opts.Pos), zap.Int("count", len(posts)))
	return posts, nil
}

// commentPage fetches the detail record of a post with comments [pos, pos+num)
func (c *Client) commentPage(ctx context.Context, author, tid string, pos, num int) (models.Raw, error) {
	q := url.Values{}
	q.Set("uin", author)
	q.Set("tid", tid)
	q.Set("num", strconv.Itoa(num))
	q.Set("pos", strconv.Itoa(pos))
	q.Set("not_trunc_con", "1")
	return c.get(ctx, endpointDetail, c.cfg.DetailURL, q)
}

// reactions fetches every like of a post
func (c *Client) reactions(ctx context.Context, author, tid string) ([]interface{}, error) {
	q := url.Values{}
	q.Set("uin", c.jar.UIN())
	q.Set("unikey", fmt.Sprintf("http://user.qzone.qq.com/%s/mood/%s", author, tid))
	q.Set("begin_uin", "0")
	q.Set("query_count", "999999")
	q.Set("if_first_page", "1")

	raw, err := c.get(ctx, endpointLikes, c.cfg.LikesURL, q)
	if err != nil {
		return nil, err
	}
	data, ok := raw.Object("data")
	if !ok {
		return nil, fmt.Errorf("%w: likes payload has no data", ErrMalformedEnvelope)
	}
	likes, _ := data["like_uin_info"].([]interface{})
	if likes == nil {
		likes = []interface{}{}
	}
	return likes, nil
}

// pictures fetches the complete picture list of a post
func (c *Client) pictures(ctx context.Context, author, tid string) ([]interface{}, error) {
	q := url.Values{}
	q.Set("uin", author)
	q.Set("tid", tid)

	raw, err := c.get(ctx, endpointPictures, c.cfg.PicturesURL, q)
	if err != nil {
		return nil, err
	}
	urls, _ := raw["imageUrls"].([]interface{})
	if urls == nil {
		urls = []interface{}{}
	}
	return urls, nil
}

// get signs and sends one request and decodes its envelope
func (c *Client) get(ctx context.Context, name, endpoint string, q url.Values) (raw models.Raw, err error) {
	defer func() {
		telemetry.RecordUpstream(ctx, name, err)
	}()

	q.Set("g_tk", strconv.FormatInt(c.signer.Token(c.jar.Secret()), 10))
	u := endpoint + "?" + q.Encode()

	c.logger.Debug("Calling feed service", zap.String("endpoint", name), zap.String("url", u))

	body, err := c.open(ctx, u)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{URL: u, Err: err}
	}
	return DecodeObject(data)
}

func (c *Client) open(ctx context.Context, u string) (io.ReadCloser, error) {
	header := http.Header{}
	header.Set("Cookie", c.jar.Header())
	header.Set("User-Agent", c.cfg.UserAgent)
	return c.transport.Open(ctx, u, header)
}
