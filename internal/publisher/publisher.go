// Package publisher runs the read, parse, assemble and submit cycle for a
// single vault note.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/assemble"
	"github.com/starford/feedpost/internal/checksum"
	"github.com/starford/feedpost/internal/ledger"
	"github.com/starford/feedpost/internal/media"
	"github.com/starford/feedpost/internal/microfeed"
	"github.com/starford/feedpost/internal/models"
	"github.com/starford/feedpost/internal/parser"
)

// Vault reads notes by vault-relative path.
type Vault interface {
	Read(path string) ([]byte, error)
}

// Builder assembles items from parsed notes.
type Builder interface {
	Assemble(ctx context.Context, note *parser.Result, notePath, itemID string, ov assemble.Overrides) *microfeed.Item
}

// ItemWriter submits items to the content service.
type ItemWriter interface {
	CreateItem(ctx context.Context, item *microfeed.Item) (*microfeed.ItemRef, error)
	UpdateItem(ctx context.Context, id string, item *microfeed.Item) (*microfeed.ItemRef, error)
}

// Announcer shares a newly created item elsewhere.
type Announcer interface {
	Announce(ctx context.Context, title, link, summary string) error
}

// Result reports the outcome of one publish.
type Result struct {
	Path    string          `json:"path"`
	ItemID  string          `json:"item_id,omitempty"`
	ItemURL string          `json:"item_url,omitempty"`
	Created bool            `json:"created"`
	Skipped bool            `json:"skipped,omitempty"`
	Item    *microfeed.Item `json:"item,omitempty"`
}

// Preview describes what publishing a note would send, without any
// network traffic.
type Preview struct {
	Path        string            `json:"path"`
	Title       string            `json:"title"`
	Frontmatter map[string]any    `json:"frontmatter"`
	Media       []media.Reference `json:"media"`
	Attachment  *media.Reference  `json:"attachment,omitempty"`
	ItemID      string            `json:"item_id,omitempty"`
	Body        string            `json:"body"`
}

// Service publishes notes. Calls are not meant to run concurrently; the
// watcher and CLI invoke it one note at a time.
type Service struct {
	vault    Vault
	builder  Builder
	items    ItemWriter
	ledger   ledger.Store
	announce Announcer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLedger records publications so later runs update instead of create.
func WithLedger(l ledger.Store) Option {
	return func(s *Service) { s.ledger = l }
}

// WithAnnouncer cross-posts newly created items.
func WithAnnouncer(a Announcer) Option {
	return func(s *Service) { s.announce = a }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock sets the time recorded in the ledger.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service.
func New(vault Vault, builder Builder, items ItemWriter, opts ...Option) *Service {
	s := &Service{
		vault:   vault,
		builder: builder,
		items:   items,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish sends the note at notePath, creating the item or updating the
// one recorded in the ledger.
func (s *Service) Publish(ctx context.Context, notePath string, ov assemble.Overrides) (*Result, error) {
	data, err := s.vault.Read(notePath)
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", notePath, err)
	}
	return s.publish(ctx, notePath, data, s.lookup(notePath), ov)
}

// PublishIfChanged publishes the note unless its content matches what was
// last published.
func (s *Service) PublishIfChanged(ctx context.Context, notePath string) (*Result, error) {
	data, err := s.vault.Read(notePath)
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", notePath, err)
	}
	rec := s.lookup(notePath)
	if rec != nil && checksum.Matches(data, rec.Checksum) {
		s.logger.Debug("note unchanged, skipping", slog.String("path", notePath))
		return &Result{Path: notePath, ItemID: rec.ItemID, ItemURL: rec.ItemURL, Skipped: true}, nil
	}
	return s.publish(ctx, notePath, data, rec, assemble.Overrides{})
}

// Preview parses the note and reports the attachment that would be chosen.
func (s *Service) Preview(notePath string) (*Preview, error) {
	data, err := s.vault.Read(notePath)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", notePath, err)
	}
	note := parser.Parse(data, path.Base(notePath))
	p := &Preview{
		Path:        notePath,
		Title:       note.Title,
		Frontmatter: note.Frontmatter,
		Media:       note.Media,
		Attachment:  media.SelectAttachment(note.Media),
		Body:        note.Body,
	}
	if rec := s.lookup(notePath); rec != nil {
		p.ItemID = rec.ItemID
	}
	return p, nil
}

func (s *Service) lookup(notePath string) *models.PublishRecord {
	if s.ledger == nil {
		return nil
	}
	rec, err := s.ledger.Lookup(notePath)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("ledger lookup failed", slog.String("path", notePath), slog.String("error", err.Error()))
		}
		return nil
	}
	return rec
}

func (s *Service) publish(ctx context.Context, notePath string, data []byte, rec *models.PublishRecord, ov assemble.Overrides) (*Result, error) {
	note := parser.Parse(data, path.Base(notePath))

	itemID := ""
	if rec != nil {
		itemID = rec.ItemID
	}
	item := s.builder.Assemble(ctx, note, notePath, itemID, ov)

	var (
		ref *microfeed.ItemRef
		err error
	)
	if itemID != "" {
		ref, err = s.items.UpdateItem(ctx, itemID, item)
	} else {
		ref, err = s.items.CreateItem(ctx, item)
	}
	if err != nil {
		return nil, fmt.Errorf("publish %s: %w", notePath, err)
	}

	res := &Result{
		Path:    notePath,
		ItemID:  ref.ID,
		ItemURL: ref.URL,
		Created: itemID == "",
		Item:    item,
	}
	if res.ItemURL == "" && rec != nil {
		res.ItemURL = rec.ItemURL
	}
	s.logger.Info("note published",
		slog.String("path", notePath),
		slog.String("item_id", res.ItemID),
		slog.Bool("created", res.Created))

	s.record(res, item, data)
	if res.Created {
		s.crossPost(ctx, res, item, note.Body)
	}
	return res, nil
}

func (s *Service) record(res *Result, item *microfeed.Item, data []byte) {
	if s.ledger == nil {
		return
	}
	if res.ItemID == "" {
		s.logger.Warn("service returned no item id, not recorded", slog.String("path", res.Path))
		return
	}
	err := s.ledger.Record(models.PublishRecord{
		Path:        res.Path,
		ItemID:      res.ItemID,
		ItemURL:     res.ItemURL,
		Title:       item.Title,
		Status:      string(item.Status),
		Checksum:    checksum.Sum(data),
		PublishedAt: s.now(),
	})
	if err != nil {
		s.logger.Warn("ledger record failed", slog.String("path", res.Path), slog.String("error", err.Error()))
	}
}

func (s *Service) crossPost(ctx context.Context, res *Result, item *microfeed.Item, body string) {
	if s.announce == nil || item.Status != microfeed.StatusPublished {
		return
	}
	link := res.ItemURL
	if link == "" {
		link = item.URL
	}
	if err := s.announce.Announce(ctx, item.Title, link, body); err != nil {
		s.logger.Warn("cross-post failed", slog.String("path", res.Path), slog.String("error", err.Error()))
	}
}
