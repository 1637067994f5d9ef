// Package crosspost announces newly published items on a social network.
package crosspost

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxLength is the character cap on a single post.
const MaxLength = 280

const summaryLength = 100

// Format selects how much of the item goes into the post.
type Format string

const (
	FormatTitleOnly        Format = "title_only"
	FormatTitleWithLink    Format = "title_with_link"
	FormatTitleWithSummary Format = "title_with_summary"
)

// Formatter builds post text from item fields.
type Formatter struct {
	Format          Format
	IncludeHashtags bool
	// Hashtags is a comma-separated list; entries without a leading '#'
	// are ignored.
	Hashtags string
}

// Validate checks the configured format.
func (f Formatter) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Format, validation.Required,
			validation.In(FormatTitleOnly, FormatTitleWithLink, FormatTitleWithSummary)),
	)
}

// Text renders the post for an item.
func (f Formatter) Text(title, link, summary string) string {
	var text string
	switch f.Format {
	case FormatTitleOnly:
		text = title
	case FormatTitleWithSummary:
		text = title + "\n\n" + truncate(strings.TrimSpace(summary), summaryLength)
		if link != "" {
			text += "\n" + link
		}
	default:
		text = strings.TrimSpace(title + " " + link)
	}

	if f.IncludeHashtags {
		if tags := hashtags(f.Hashtags); tags != "" {
			text += " " + tags
		}
	}
	return truncate(text, MaxLength)
}

func hashtags(list string) string {
	var tags []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		if strings.HasPrefix(t, "#") && len(t) > 1 {
			tags = append(tags, t)
		}
	}
	return strings.Join(tags, " ")
}

// truncate caps s at max runes, ending with "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
