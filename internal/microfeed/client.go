package microfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/media"
)

// APIKeyHeader carries the static API key on every service-owned request.
const APIKeyHeader = "X-MicrofeedAPI-Key"

const serviceName = "microfeed"

// Client talks to a single Microfeed instance.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client for the service at baseURL. Both baseURL and apiKey
// are required.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, apperr.Configuration("microfeed API URL is not set")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.Configuration("microfeed API key is not set")
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json"),
		apiKey: apiKey,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// request returns a request carrying the API key. The presigned PUT must
// not use it.
func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().
		SetContext(ctx).
		SetHeader(APIKeyHeader, c.apiKey)
}

type slotRequest struct {
	Category string `json:"category"`
	Path     string `json:"full_local_file_path"`
	ItemID   string `json:"item_id,omitempty"`
}

// RequestUploadSlot asks the service for a presigned write location for a
// file of the given kind.
func (c *Client) RequestUploadSlot(ctx context.Context, kind media.Kind, filename, itemID string) (*UploadSlot, error) {
	const op = "request upload slot"
	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(slotRequest{Category: string(kind), Path: filename, ItemID: itemID}).
		Post("/api/media_files/presigned_urls/")
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", serviceName, op, err)
	}
	if !resp.IsSuccess() {
		return nil, remoteError(op, resp)
	}

	var slot UploadSlot
	if err := json.Unmarshal(resp.Body(), &slot); err != nil {
		return nil, fmt.Errorf("%s: %s: decode response: %w", serviceName, op, err)
	}
	if slot.PresignedURL == "" || slot.MediaURL == "" {
		return nil, fmt.Errorf("%s: %s: incomplete response: %s", serviceName, op, resp.String())
	}
	return &slot, nil
}

// Transfer writes data to a presigned location.
func (c *Client) Transfer(ctx context.Context, writeURL string, data []byte) error {
	const op = "transfer"
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", media.DetectMIME(data)).
		SetBody(data).
		Put(writeURL)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", serviceName, op, err)
	}
	if !resp.IsSuccess() {
		return remoteError(op, resp)
	}
	return nil
}

// UploadMedia requests a slot, writes data to it and returns the public
// read location.
func (c *Client) UploadMedia(ctx context.Context, data []byte, kind media.Kind, filename, itemID string) (string, error) {
	slot, err := c.RequestUploadSlot(ctx, kind, filename, itemID)
	if err != nil {
		return "", err
	}
	if err := c.Transfer(ctx, slot.PresignedURL, data); err != nil {
		return "", err
	}
	c.logger.Debug("media uploaded",
		slog.String("path", filename),
		slog.String("kind", string(kind)),
		slog.Int("size", len(data)),
		slog.String("media_url", slot.MediaURL))
	return slot.MediaURL, nil
}

// CreateItem creates a new item.
func (c *Client) CreateItem(ctx context.Context, item *Item) (*ItemRef, error) {
	return c.sendItem(ctx, "create item", "POST", "/api/items/", item)
}

// UpdateItem replaces the item with the given id.
func (c *Client) UpdateItem(ctx context.Context, id string, item *Item) (*ItemRef, error) {
	if id == "" {
		return nil, fmt.Errorf("%s: update item: empty id", serviceName)
	}
	ref, err := c.sendItem(ctx, "update item", "PUT", "/api/items/"+id+"/", item)
	if err != nil {
		return nil, err
	}
	if ref.ID == "" {
		ref.ID = id
	}
	return ref, nil
}

func (c *Client) sendItem(ctx context.Context, op, method, path string, item *Item) (*ItemRef, error) {
	if err := item.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %s: invalid item: %w", serviceName, op, err)
	}

	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(item)

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case "POST":
		resp, err = req.Post(path)
	case "PUT":
		resp, err = req.Put(path)
	default:
		return nil, fmt.Errorf("%s: unsupported method %s", serviceName, method)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", serviceName, op, err)
	}
	if !resp.IsSuccess() {
		return nil, remoteError(op, resp)
	}

	ref := &ItemRef{}
	if body := resp.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, ref); err != nil {
			c.logger.Warn("unexpected item response", slog.String("op", op), slog.String("error", err.Error()))
		}
	}
	c.logger.Debug("item sent", slog.String("op", op), slog.String("id", ref.ID), slog.Int("status", resp.StatusCode()))
	return ref, nil
}

// Ping checks that the service is reachable and accepts the API key.
func (c *Client) Ping(ctx context.Context) error {
	const op = "ping"
	resp, err := c.request(ctx).Get("/api/feed/")
	if err != nil {
		return fmt.Errorf("%s: %s: %w", serviceName, op, err)
	}
	if !resp.IsSuccess() {
		return remoteError(op, resp)
	}
	return nil
}

func remoteError(op string, resp *resty.Response) error {
	return &apperr.RemoteServiceError{
		Service:    serviceName,
		Op:         op,
		StatusCode: resp.StatusCode(),
		Body:       strings.TrimSpace(resp.String()),
	}
}
