package assemble

import (
	"time"

	"github.com/starford/feedpost/internal/microfeed"
)

// Overrides are caller-supplied values that win over everything derived
// from the note. Nil fields are left alone.
type Overrides struct {
	Title       *string
	Status      *microfeed.Status
	Image       *string
	URL         *string
	PublishedAt *time.Time
}

// Apply writes the set fields onto item.
func (o Overrides) Apply(item *microfeed.Item) {
	if o.Title != nil {
		item.Title = *o.Title
	}
	if o.Status != nil {
		item.Status = *o.Status
	}
	if o.Image != nil {
		item.Image = *o.Image
	}
	if o.URL != nil {
		item.URL = *o.URL
	}
	if o.PublishedAt != nil {
		item.DatePublishedMs = o.PublishedAt.UnixMilli()
	}
}

