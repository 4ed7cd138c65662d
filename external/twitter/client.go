package twitter

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/dota2-results/internal/platform/logging"
	"github.com/riskibarqy/dota2-results/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL = "https://api.x.com"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// rejectionMarkers are upstream messages meaning the post will never be
// accepted, so retrying is pointless.
var rejectionMarkers = []string{"duplicate", "update limit"}

type ClientConfig struct {
	Name        string
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	Logger      *logging.Logger
}

// Client posts to one account through the v2 API.
type Client struct {
	name    string
	baseURL string
	token   string
	timeout time.Duration
	http    *fasthttp.Client
	logger  *logging.Logger
}

var _ usecase.Transport = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "twitter"
	}

	return &Client{
		name:    name,
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.AccessToken),
		timeout: timeout,
		http: &fasthttp.Client{
			Name:                "dota2-results",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		logger: logging.OrDefault(cfg.Logger).Named(name),
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Post(ctx context.Context, text string) error {
	return c.createPost(ctx, postRequest{Text: text})
}

func (c *Client) PostWithMedia(ctx context.Context, text string, png []byte) error {
	mediaID, err := c.uploadMedia(ctx, png)
	if err != nil {
		return err
	}
	return c.createPost(ctx, postRequest{Text: text, Media: &postMedia{MediaIDs: []string{mediaID}}})
}

type postRequest struct {
	Text  string     `json:"text"`
	Media *postMedia `json:"media,omitempty"`
}

type postMedia struct {
	MediaIDs []string `json:"media_ids"`
}

type mediaUploadRequest struct {
	Media         string `json:"media"`
	MediaCategory string `json:"media_category"`
	MediaType     string `json:"media_type"`
}

type idEnvelope struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type errorEnvelope struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) createPost(ctx context.Context, payload postRequest) error {
	var out idEnvelope
	if err := c.postJSON(ctx, "/2/tweets", payload, &out); err != nil {
		return errors.Wrap(err, "create post")
	}
	c.logger.InfoContext(ctx, "post created", "post_id", out.Data.ID, "with_media", payload.Media != nil)
	return nil
}

func (c *Client) uploadMedia(ctx context.Context, png []byte) (string, error) {
	if len(png) == 0 {
		return "", errors.Wrap(usecase.ErrInvalidInput, "media is empty")
	}
	var out idEnvelope
	err := c.postJSON(ctx, "/2/media/upload", mediaUploadRequest{
		Media:         base64.StdEncoding.EncodeToString(png),
		MediaCategory: "tweet_image",
		MediaType:     "image/png",
	}, &out)
	if err != nil {
		return "", errors.Wrap(err, "upload media")
	}
	if out.Data.ID == "" {
		return "", errors.New("upload media: empty media id")
	}
	return out.Data.ID, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, target any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.SetBodyRaw(body)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return errors.Wrapf(err, "send %s", path)
	}

	status := resp.StatusCode()
	raw := resp.Body()
	if status >= 200 && status < 300 {
		if target == nil {
			return nil
		}
		if err := sonic.Unmarshal(raw, target); err != nil {
			return errors.Wrap(err, "decode response")
		}
		return nil
	}
	return classifyFailure(status, raw)
}

// classifyFailure marks duplicate content and rate limiting as rejections.
// Every other failure stays retryable.
func classifyFailure(status int, raw []byte) error {
	message := failureMessage(raw)
	err := errors.Newf("status=%d: %s", status, message)
	if status == fasthttp.StatusTooManyRequests {
		return errors.Mark(errors.Wrap(err, "update limit"), usecase.ErrTransportRejected)
	}
	lower := strings.ToLower(message)
	for _, marker := range rejectionMarkers {
		if strings.Contains(lower, marker) {
			return errors.Mark(err, usecase.ErrTransportRejected)
		}
	}
	return err
}

func failureMessage(raw []byte) string {
	var envelope errorEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err == nil {
		parts := make([]string, 0, 2+len(envelope.Errors))
		for _, part := range []string{envelope.Title, envelope.Detail} {
			if part != "" {
				parts = append(parts, part)
			}
		}
		for _, item := range envelope.Errors {
			if item.Message != "" {
				parts = append(parts, item.Message)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
