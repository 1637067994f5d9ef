// Package microfeed is a client for the Microfeed content service REST API.
package microfeed

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/feedpost/internal/media"
)

// Status is the publication state of an item.
type Status string

const (
	StatusPublished   Status = "published"
	StatusUnpublished Status = "unpublished"
	StatusUnlisted    Status = "unlisted"
)

// ParseStatus returns the Status named by s and whether it is valid.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusPublished, StatusUnpublished, StatusUnlisted:
		return st, true
	}
	return "", false
}

// Item is the payload sent to POST /api/items/ and PUT /api/items/{id}/.
type Item struct {
	Title           string         `json:"title"`
	Status          Status         `json:"status"`
	ContentHTML     string         `json:"content_html"`
	DatePublishedMs int64          `json:"date_published_ms,omitempty"`
	Attachment      *Attachment    `json:"attachment,omitempty"`
	Image           string         `json:"image,omitempty"`
	URL             string         `json:"url,omitempty"`
	Extensions      map[string]any `json:"_microfeed,omitempty"`
}

// Validate checks the item before it is sent.
func (i *Item) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.Title, validation.Required),
		validation.Field(&i.Status, validation.Required,
			validation.In(StatusPublished, StatusUnpublished, StatusUnlisted)),
		validation.Field(&i.Attachment),
	)
}

// Attachment is the single primary media object of an item.
type Attachment struct {
	Category          media.Kind `json:"category"`
	URL               string     `json:"url"`
	MimeType          string     `json:"mime_type,omitempty"`
	SizeInBytes       int64      `json:"size_in_bytes,omitempty"`
	DurationInSeconds int        `json:"duration_in_seconds,omitempty"`
}

// Validate checks the attachment category and location.
func (a *Attachment) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.Category, validation.Required, validation.In(
			media.KindAudio, media.KindVideo, media.KindImage, media.KindDocument, media.KindExternalLink)),
		validation.Field(&a.URL, validation.Required),
	)
}

// ItemRef identifies an item stored by the service.
type ItemRef struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// UploadSlot is a presigned write location and the public read location
// the file will have once written.
type UploadSlot struct {
	PresignedURL string `json:"presigned_url"`
	MediaURL     string `json:"media_url"`
}
