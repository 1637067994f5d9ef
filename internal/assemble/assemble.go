// Package assemble turns a parsed note into a publishable item, uploading
// the media it references along the way.
package assemble

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/feedpost/internal/apperr"
	"github.com/starford/feedpost/internal/media"
	"github.com/starford/feedpost/internal/microfeed"
	"github.com/starford/feedpost/internal/parser"
	"github.com/starford/feedpost/internal/render"
	"github.com/starford/feedpost/internal/vaultpath"
)

// DefaultExtensionPrefix marks front matter keys passed through verbatim.
const DefaultExtensionPrefix = "itunes:"

// Vault reads files by vault-relative path.
type Vault interface {
	Read(path string) ([]byte, error)
}

// Uploader stores a file remotely and returns its public location.
type Uploader interface {
	UploadMedia(ctx context.Context, data []byte, kind media.Kind, filename, itemID string) (string, error)
}

// Synthesizer renders a cover image for a note.
type Synthesizer interface {
	Synthesize(title, body string) ([]byte, error)
}

// UploadResult describes one uploaded file.
type UploadResult struct {
	Location        string
	MimeType        string
	SizeBytes       int64
	DurationSeconds int
}

// Assembler builds items. It holds no per-note state and may be reused.
type Assembler struct {
	vault         Vault
	uploader      Uploader
	synth         Synthesizer
	duration      func([]byte) (int, bool)
	defaultStatus microfeed.Status
	prefixes      []string
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithDefaultStatus sets the status used when neither an override nor the
// front matter names a valid one.
func WithDefaultStatus(s microfeed.Status) Option {
	return func(a *Assembler) {
		if _, ok := microfeed.ParseStatus(string(s)); ok {
			a.defaultStatus = s
		}
	}
}

// WithSynthesizer enables cover synthesis for notes without any image.
func WithSynthesizer(s Synthesizer) Option {
	return func(a *Assembler) { a.synth = s }
}

// WithExtensionPrefixes replaces the front matter namespaces copied into
// the item's extension fields.
func WithExtensionPrefixes(prefixes ...string) Option {
	return func(a *Assembler) { a.prefixes = prefixes }
}

// WithDurationProber sets how audio and video durations are determined.
func WithDurationProber(fn func([]byte) (int, bool)) Option {
	return func(a *Assembler) { a.duration = fn }
}

// WithClock sets the publish time source.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New creates an Assembler reading media from vault and storing it with
// uploader.
func New(vault Vault, uploader Uploader, opts ...Option) *Assembler {
	a := &Assembler{
		vault:         vault,
		uploader:      uploader,
		duration:      media.Duration,
		defaultStatus: microfeed.StatusPublished,
		prefixes:      []string{DefaultExtensionPrefix},
		now:           time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the item for note, stored at notePath in the vault.
// itemID is passed along with upload requests when the note was published
// before. Media failures are logged and skipped; assembly always returns
// an item.
func (a *Assembler) Assemble(ctx context.Context, note *parser.Result, notePath, itemID string, ov Overrides) *microfeed.Item {
	s := &session{
		Assembler: a,
		ctx:       ctx,
		notePath:  notePath,
		itemID:    itemID,
		cache:     map[string]outcome{},
	}

	item := &microfeed.Item{
		Title:           note.Title,
		Status:          a.status(note.Frontmatter, ov),
		DatePublishedMs: a.now().UnixMilli(),
	}

	primary := media.SelectAttachment(note.Media)
	if primary != nil {
		item.Attachment = s.attachment(*primary)
	}

	item.Image = s.image(note.Media, primary, item.Attachment)
	if item.Image == "" && ov.Image == nil && a.synth != nil {
		item.Image = s.synthesize(note.Title, note.Body)
	}

	item.ContentHTML = a.renderHTML(s.rewrite(note.Body, note.Media, primary), notePath)
	item.Extensions = a.extensions(note.Frontmatter)

	ov.Apply(item)

	attrs := []any{slog.String("path", notePath), slog.Int("uploads", s.uploads)}
	if item.Attachment != nil {
		attrs = append(attrs, slog.String("kind", string(item.Attachment.Category)))
	}
	a.logger.Info("item assembled", attrs...)
	return item
}

func (a *Assembler) status(fm map[string]any, ov Overrides) microfeed.Status {
	if ov.Status != nil {
		return *ov.Status
	}
	if raw, ok := fm["status"].(string); ok {
		if st, ok := microfeed.ParseStatus(strings.TrimSpace(raw)); ok {
			return st
		}
		a.logger.Warn("ignoring unknown status", slog.String("status", raw))
	}
	return a.defaultStatus
}

func (a *Assembler) extensions(fm map[string]any) map[string]any {
	var out map[string]any
	for k, v := range fm {
		for _, p := range a.prefixes {
			if p != "" && strings.HasPrefix(k, p) {
				if out == nil {
					out = map[string]any{}
				}
				out[k] = v
				break
			}
		}
	}
	return out
}

func (a *Assembler) renderHTML(body, notePath string) string {
	out, err := render.HTML(body)
	if err != nil {
		a.logger.Warn("render failed, sending escaped body",
			slog.String("path", notePath), slog.String("error", err.Error()))
		return "<pre>" + html.EscapeString(body) + "</pre>"
	}
	return out
}

// session carries the state of one Assemble call.
type session struct {
	*Assembler
	ctx      context.Context
	notePath string
	itemID   string
	cache    map[string]outcome
	uploads  int
}

type outcome struct {
	res *UploadResult
	err error
}

// upload stores a local reference at most once per session. Failures are
// logged on first sight and cached.
func (s *session) upload(ref media.Reference) (*UploadResult, error) {
	resolved := vaultpath.Resolve(ref.Location, s.notePath)
	if o, ok := s.cache[resolved]; ok {
		return o.res, o.err
	}
	res, err := s.store(ref.Kind, resolved)
	s.cache[resolved] = outcome{res: res, err: err}
	if err != nil {
		s.logger.Warn("media skipped",
			slog.String("path", resolved),
			slog.String("kind", string(ref.Kind)),
			slog.String("error", err.Error()))
	}
	return res, err
}

func (s *session) store(kind media.Kind, resolved string) (*UploadResult, error) {
	data, err := s.vault.Read(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperr.ErrMediaNotFound, resolved, err)
	}
	name := path.Base(resolved)
	loc, err := s.uploader.UploadMedia(s.ctx, data, kind, name, s.itemID)
	if err != nil {
		return nil, err
	}
	s.uploads++

	res := &UploadResult{
		Location:  loc,
		MimeType:  media.MimeType(name, kind),
		SizeBytes: int64(len(data)),
	}
	if (kind == media.KindAudio || kind == media.KindVideo) && s.duration != nil {
		if d, ok := s.duration(data); ok {
			res.DurationSeconds = d
		}
	}
	return res, nil
}

func (s *session) attachment(ref media.Reference) *microfeed.Attachment {
	if ref.IsExternal() {
		att := &microfeed.Attachment{Category: ref.Kind, URL: ref.Location}
		if ref.Kind != media.KindExternalLink {
			att.MimeType = media.MimeType(ref.Location, ref.Kind)
		}
		return att
	}

	res, err := s.upload(ref)
	if err != nil {
		return nil
	}
	att := &microfeed.Attachment{
		Category:    ref.Kind,
		URL:         res.Location,
		MimeType:    res.MimeType,
		SizeInBytes: res.SizeBytes,
	}
	if ref.Kind == media.KindAudio || ref.Kind == media.KindVideo {
		att.DurationInSeconds = res.DurationSeconds
	}
	return att
}

// image returns the item image: the attachment when it is an image,
// otherwise the first other image that yields a location.
func (s *session) image(refs []media.Reference, primary *media.Reference, att *microfeed.Attachment) string {
	if primary != nil && primary.Kind == media.KindImage && att != nil {
		return att.URL
	}
	for _, ref := range refs {
		if ref.Kind != media.KindImage || isPrimary(ref, primary) {
			continue
		}
		if ref.IsExternal() {
			return ref.Location
		}
		if res, err := s.upload(ref); err == nil {
			return res.Location
		}
	}
	return ""
}

func (s *session) synthesize(title, body string) string {
	data, err := s.synth.Synthesize(title, body)
	if err != nil {
		s.logger.Warn("thumbnail synthesis failed", slog.String("path", s.notePath), slog.String("error", err.Error()))
		return ""
	}
	name := "thumbnail-" + uuid.NewString() + ".png"
	loc, err := s.uploader.UploadMedia(s.ctx, data, media.KindImage, name, s.itemID)
	if err != nil {
		s.logger.Warn("thumbnail upload failed", slog.String("path", name), slog.String("error", err.Error()))
		return ""
	}
	s.uploads++
	return loc
}

// rewrite uploads every local image other than the attachment and replaces
// each occurrence of its location in body.
func (s *session) rewrite(body string, refs []media.Reference, primary *media.Reference) string {
	for _, ref := range refs {
		if ref.Kind != media.KindImage || ref.IsExternal() || isPrimary(ref, primary) {
			continue
		}
		res, err := s.upload(ref)
		if err != nil {
			continue
		}
		body = strings.ReplaceAll(body, ref.Location, res.Location)
	}
	return body
}

func isPrimary(ref media.Reference, primary *media.Reference) bool {
	return primary != nil && ref.Location == primary.Location
}
