// Package thumbnail renders cover images for notes that carry no picture.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand"
	"strings"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Size is the edge length of the square covers, in pixels.
const Size = 1400

const (
	margin        = 96
	bandHeight    = 36
	titleSize     = 88
	titleLine     = 104
	maxTitleLines = 6
	bodySize      = 30
	bodyLine      = 42
	maxBodyLines  = 8
	ellipsis      = "…"
)

// Fonts are parsed once; faces are created per render because a face is
// not safe for concurrent use.
var (
	fontsOnce sync.Once
	titleFont *opentype.Font
	bodyFont  *opentype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if titleFont, fontsErr = opentype.Parse(gobold.TTF); fontsErr != nil {
			return
		}
		bodyFont, fontsErr = opentype.Parse(goregular.TTF)
	})
	if fontsErr != nil {
		return fmt.Errorf("thumbnail: parse font: %w", fontsErr)
	}
	return nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("thumbnail: font face: %w", err)
	}
	return face, nil
}

// Synthesizer renders PNG covers in a style from its catalog.
type Synthesizer struct {
	catalog Catalog
	styleID string

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithStyle pins every cover to the style with the given id. Unknown ids
// fall back to random selection.
func WithStyle(id string) Option {
	return func(s *Synthesizer) { s.styleID = id }
}

// WithRand sets the random source used to pick styles.
func WithRand(rng *rand.Rand) Option {
	return func(s *Synthesizer) { s.rng = rng }
}

// New creates a Synthesizer over catalog.
func New(catalog Catalog, opts ...Option) (*Synthesizer, error) {
	if len(catalog) == 0 {
		return nil, fmt.Errorf("thumbnail: empty style catalog")
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	s := &Synthesizer{
		catalog: catalog,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Style returns the style for the next cover.
func (s *Synthesizer) Style() Style {
	if st, ok := s.catalog.Lookup(s.styleID); ok {
		return st
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, _ := s.catalog.Select(s.rng)
	return st
}

// Synthesize renders a cover for the note and returns PNG bytes.
func (s *Synthesizer) Synthesize(title, body string) ([]byte, error) {
	return Render(s.Style(), title, body)
}

// Render draws a cover in style. Output depends only on its arguments.
func Render(style Style, title, body string) ([]byte, error) {
	p, err := style.palette()
	if err != nil {
		return nil, err
	}
	if err := loadFonts(); err != nil {
		return nil, err
	}
	titleFace, err := newFace(titleFont, titleSize)
	if err != nil {
		return nil, err
	}
	defer titleFace.Close()
	bodyFace, err := newFace(bodyFont, bodySize)
	if err != nil {
		return nil, err
	}
	defer bodyFace.Close()

	img := image.NewRGBA(image.Rect(0, 0, Size, Size))
	fill(img, img.Bounds(), p.background)

	// Primary band across the top, an accent strip under it and a
	// secondary rule at the bottom.
	fill(img, image.Rect(0, 0, Size, bandHeight), p.primary)
	fill(img, image.Rect(0, bandHeight, Size, bandHeight+bandHeight/3), p.accent)
	fill(img, image.Rect(margin, Size-margin-12, Size-margin, Size-margin), p.secondary)

	width := Size - 2*margin
	y := margin + bandHeight*2
	y = drawLines(img, titleFace, p.text, wrap(titleFace, strings.Fields(title), width, maxTitleLines), y, titleLine)

	y += titleLine / 3
	fill(img, image.Rect(margin, y, margin+Size/4, y+10), p.primary)
	y += 10 + titleLine/2

	drawLines(img, bodyFace, p.secondary, wrap(bodyFace, strings.Fields(plain(body)), width, maxBodyLines), y, bodyLine)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("thumbnail: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// wrap breaks words into lines no wider than width. Past maxLines the last
// line ends with an ellipsis. A single word wider than width keeps its own
// line and is clipped when drawn.
func wrap(face font.Face, words []string, width, maxLines int) []string {
	limit := fixed.I(width)
	var lines []string
	line := ""
	for _, w := range words {
		next := w
		if line != "" {
			next = line + " " + w
		}
		if line == "" || font.MeasureString(face, next) <= limit {
			line = next
			continue
		}
		lines = append(lines, line)
		if len(lines) == maxLines {
			lines[maxLines-1] += " " + ellipsis
			return lines
		}
		line = w
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// drawLines draws lines from the left margin starting at top y and returns
// the y coordinate below the last line.
func drawLines(img draw.Image, face font.Face, c color.Color, lines []string, y, lineHeight int) int {
	d := &font.Drawer{Dst: img, Src: image.NewUniform(c), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for _, l := range lines {
		d.Dot = fixed.P(margin, y+ascent)
		d.DrawString(l)
		y += lineHeight
	}
	return y
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
}

// plain drops Markdown punctuation that would show up as noise.
func plain(md string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '#', '*', '_', '`', '>', '[', ']', '(', ')', '!', '|':
			return ' '
		}
		return r
	}, md)
}
