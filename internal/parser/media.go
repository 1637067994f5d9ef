package parser

import (
	"regexp"
	"sort"
	"strings"

	"github.com/starford/feedpost/internal/media"
)

// linkRe matches [label](target) and ![label](target); linkedImageRe
// matches an image wrapped in a link, [![label](image)](target); embedRe
// matches ![[target]] and ![[target|label]].
var (
	linkRe        = regexp.MustCompile(`!?\[([^\[\]]*)\]\(([^)]+)\)`)
	linkedImageRe = regexp.MustCompile(`\[!\[([^\[\]]*)\]\(([^)]+)\)\]\(([^)]+)\)`)
	embedRe       = regexp.MustCompile(`!\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)
	bareURLRe     = regexp.MustCompile("https?://[^\\s<>\"{}|\\\\^`\\[\\]()]+")
)

// urlTrailer is sentence punctuation that ends a bare URL rather than
// belonging to it.
const urlTrailer = ".,;:!?'"

// match is one media markup occurrence in the body.
type match struct {
	start, end int
	ref        media.Reference
	markup     bool // link or embed syntax, as opposed to a bare URL
}

func (m match) local() bool {
	return m.markup && !m.ref.IsExternal()
}

// discover returns every media occurrence in body in document order.
func discover(body string) []match {
	var out []match
	var spans [][2]int

	// A local image inside a link takes the whole link with it. The outer
	// target is recorded too when it is media.
	for _, idx := range linkedImageRe.FindAllStringSubmatchIndex(body, -1) {
		spans = append(spans, [2]int{idx[0], idx[1]})
		image := linkTarget(body[idx[4]:idx[5]])
		if kind, ok := media.Classify(image); ok {
			out = append(out, match{
				start:  idx[0],
				end:    idx[1],
				ref:    media.Reference{Kind: kind, Location: image, Label: strings.TrimSpace(body[idx[2]:idx[3]])},
				markup: true,
			})
		}
		target := linkTarget(body[idx[6]:idx[7]])
		if kind, ok := media.Classify(target); ok {
			out = append(out, match{
				start:  idx[0],
				end:    idx[1],
				ref:    media.Reference{Kind: kind, Location: target},
				markup: true,
			})
		}
	}
	linked := len(spans)

	for _, idx := range linkRe.FindAllStringSubmatchIndex(body, -1) {
		if within(spans[:linked], idx[0]) {
			continue
		}
		spans = append(spans, [2]int{idx[0], idx[1]})
		target := linkTarget(body[idx[4]:idx[5]])
		kind, ok := media.Classify(target)
		if !ok {
			continue
		}
		out = append(out, match{
			start:  idx[0],
			end:    idx[1],
			ref:    media.Reference{Kind: kind, Location: target, Label: strings.TrimSpace(body[idx[2]:idx[3]])},
			markup: true,
		})
	}

	for _, idx := range embedRe.FindAllStringSubmatchIndex(body, -1) {
		spans = append(spans, [2]int{idx[0], idx[1]})
		target := strings.TrimSpace(body[idx[2]:idx[3]])
		kind, ok := media.Classify(target)
		if !ok {
			continue
		}
		label := ""
		if idx[4] >= 0 {
			label = strings.TrimSpace(body[idx[4]:idx[5]])
		}
		out = append(out, match{
			start:  idx[0],
			end:    idx[1],
			ref:    media.Reference{Kind: kind, Location: target, Label: label},
			markup: true,
		})
	}

	for _, idx := range bareURLRe.FindAllStringIndex(body, -1) {
		if within(spans, idx[0]) {
			continue
		}
		u := strings.TrimRight(body[idx[0]:idx[1]], urlTrailer)
		kind, ok := media.Classify(u)
		if !ok || kind == media.KindExternalLink {
			continue
		}
		out = append(out, match{start: idx[0], end: idx[0] + len(u), ref: media.Reference{Kind: kind, Location: u}})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

// linkTarget strips angle brackets and an optional quoted title.
func linkTarget(raw string) string {
	t := strings.TrimSpace(raw)
	if i := strings.Index(t, ` "`); i > 0 && strings.HasSuffix(t, `"`) {
		t = strings.TrimSpace(t[:i])
	}
	return strings.TrimSuffix(strings.TrimPrefix(t, "<"), ">")
}

func within(spans [][2]int, pos int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// dedupe keeps the first reference per location.
func dedupe(matches []match) []media.Reference {
	seen := make(map[string]struct{}, len(matches))
	var out []media.Reference
	for _, m := range matches {
		if _, ok := seen[m.ref.Location]; ok {
			continue
		}
		seen[m.ref.Location] = struct{}{}
		out = append(out, m.ref)
	}
	return out
}

// clean deletes every local media markup from body and trims the result.
func clean(body string, matches []match) string {
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !m.local() || m.start < last {
			continue
		}
		b.WriteString(body[last:m.start])
		last = m.end
	}
	b.WriteString(body[last:])
	return strings.TrimSpace(b.String())
}
