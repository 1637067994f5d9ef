// Package parser extracts front matter, title, and media references from
// Markdown notes.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/starford/feedpost/internal/media"
)

const untitled = "Untitled"

var (
	h1Re      = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
	closingRe = regexp.MustCompile(`(^|[ \t]+)#+[ \t]*$`)
)

// Result holds the output of parsing a Markdown note.
type Result struct {
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Frontmatter map[string]any    `json:"frontmatter"`
	Media       []media.Reference `json:"media"`
}

// Parse extracts front matter, title, media references, and the cleaned
// body from raw Markdown. It never fails: malformed front matter degrades
// to line parsing and a failure while scanning for media leaves the body
// untouched with no media.
func Parse(data []byte, fallbackName string) *Result {
	fm, body := splitFrontmatter(string(data))
	refs, cleaned := scanMedia(body)

	return &Result{
		Title:       deriveTitle(fm, body, fallbackName),
		Body:        cleaned,
		Frontmatter: fm,
		Media:       refs,
	}
}

// scanMedia discovers media and strips local markup. A panic in the scan
// returns the body as-is with no references.
func scanMedia(body string) (refs []media.Reference, cleaned string) {
	defer func() {
		if r := recover(); r != nil {
			refs, cleaned = nil, body
		}
	}()
	matches := discover(body)
	return dedupe(matches), clean(body, matches)
}

// deriveTitle returns the front matter "title" if present, otherwise the
// first H1 heading, otherwise fallbackName without its .md suffix.
func deriveTitle(fm map[string]any, body, fallbackName string) string {
	if t, ok := fm["title"]; ok && t != nil {
		s, isString := t.(string)
		if !isString {
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	for _, m := range h1Re.FindAllStringSubmatch(body, -1) {
		if s := strings.TrimSpace(closingRe.ReplaceAllString(m[1], "")); s != "" {
			return s
		}
	}
	if s := strings.TrimSuffix(fallbackName, ".md"); s != "" {
		return s
	}
	return untitled
}
