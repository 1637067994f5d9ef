// Package media classifies note references into media kinds and MIME types.
package media

import (
	"strings"
)

// Kind is the category of a media reference. Values match the wire
// categories of the content service.
type Kind string

const (
	KindAudio        Kind = "audio"
	KindVideo        Kind = "video"
	KindImage        Kind = "image"
	KindDocument     Kind = "document"
	KindExternalLink Kind = "external_url"
)

// Reference is a media item discovered in a note.
type Reference struct {
	Kind     Kind   `json:"kind"`
	Location string `json:"location"`
	Label    string `json:"label,omitempty"`
}

// IsExternal reports whether the reference points at an absolute URL
// rather than a file in the vault.
func (r Reference) IsExternal() bool {
	return IsURL(r.Location)
}

// extensions is checked in this order; edit this table to add formats.
var extensions = []struct {
	kind Kind
	exts []string
}{
	{KindAudio, []string{".mp3", ".wav", ".m4a", ".aac", ".ogg", ".flac"}},
	{KindVideo, []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v"}},
	{KindImage, []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}},
	{KindDocument, []string{".pdf", ".doc", ".docx", ".txt", ".rtf"}},
}

// priority is the attachment selection order.
var priority = []Kind{KindAudio, KindVideo, KindImage, KindDocument, KindExternalLink}

// IsURL reports whether s starts with an http or https scheme.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Classify maps a filename or URL to a media kind. The extension may
// appear anywhere in the lowercased input. Inputs that match nothing are
// external links when they are URLs and not media otherwise.
func Classify(s string) (Kind, bool) {
	lower := strings.ToLower(s)
	for _, group := range extensions {
		for _, ext := range group.exts {
			if strings.Contains(lower, ext) {
				return group.kind, true
			}
		}
	}
	if IsURL(s) {
		return KindExternalLink, true
	}
	return "", false
}

// SelectAttachment returns the highest-priority reference, or nil.
func SelectAttachment(refs []Reference) *Reference {
	for _, k := range priority {
		for i := range refs {
			if refs[i].Kind == k {
				return &refs[i]
			}
		}
	}
	return nil
}
