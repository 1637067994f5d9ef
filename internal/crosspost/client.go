package crosspost

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/starford/feedpost/internal/apperr"
)

// DefaultBaseURL is the Twitter API v2 root.
const DefaultBaseURL = "https://api.twitter.com/2"

const serviceName = "twitter"

// Client posts text updates with a bearer token.
type Client struct {
	http *resty.Client
}

// NewClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Configuration("cross-post token is not set")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		h.SetTimeout(timeout)
	}
	return &Client{http: h}, nil
}

type postResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PostText publishes text and returns the new post id.
func (c *Client) PostText(ctx context.Context, text string) (string, error) {
	const op = "post"
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post("/tweets")
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", serviceName, op, err)
	}
	if !resp.IsSuccess() {
		return "", &apperr.RemoteServiceError{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(resp.String()),
		}
	}
	var out postResponse
	_ = json.Unmarshal(resp.Body(), &out)
	return out.Data.ID, nil
}

// Poster formats and sends announcements.
type Poster struct {
	formatter Formatter
	client    *Client
	logger    *slog.Logger
}

// NewPoster combines a formatter and a client.
func NewPoster(f Formatter, c *Client, logger *slog.Logger) (*Poster, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: cross-post: %v", apperr.ErrConfiguration, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poster{formatter: f, client: c, logger: logger}, nil
}

// Announce posts an item to the configured account.
func (p *Poster) Announce(ctx context.Context, title, link, summary string) error {
	id, err := p.client.PostText(ctx, p.formatter.Text(title, link, summary))
	if err != nil {
		return err
	}
	p.logger.Info("cross-posted", slog.String("title", title), slog.String("post_id", id))
	return nil
}
