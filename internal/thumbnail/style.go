package thumbnail

import (
	"fmt"
	"image/color"
	"math/rand"
	"strconv"
	"strings"
)

// Style is a named palette used to render a cover.
type Style struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Primary    string `json:"primary" yaml:"primary"`
	Secondary  string `json:"secondary" yaml:"secondary"`
	Accent     string `json:"accent" yaml:"accent"`
	Background string `json:"background" yaml:"background"`
	Text       string `json:"text" yaml:"text"`
}

// Catalog is an ordered set of styles.
type Catalog []Style

// DefaultCatalog returns the built-in styles.
func DefaultCatalog() Catalog {
	return append(Catalog(nil), builtin...)
}

var builtin = Catalog{
	{ID: "minimalist", Name: "Minimalist", Primary: "#000000", Secondary: "#666666", Accent: "#f8f9fa", Background: "#ffffff", Text: "#333333"},
	{ID: "bold-modern", Name: "Bold Modern", Primary: "#ff0080", Secondary: "#00ffff", Accent: "#ffff00", Background: "#1a1a1a", Text: "#ffffff"},
	{ID: "elegant-vintage", Name: "Elegant Vintage", Primary: "#8b4513", Secondary: "#daa520", Accent: "#f5f5dc", Background: "#faf0e6", Text: "#2f1b14"},
	{ID: "futuristic-tech", Name: "Futuristic Tech", Primary: "#00ffff", Secondary: "#8a2be2", Accent: "#00ff41", Background: "#0a0a23", Text: "#e6e6e6"},
	{ID: "scandinavian", Name: "Scandinavian", Primary: "#4a90e2", Secondary: "#f5f5f5", Accent: "#ffc0cb", Background: "#ffffff", Text: "#2c2c2c"},
	{ID: "art-deco", Name: "Art Deco", Primary: "#d4af37", Secondary: "#000000", Accent: "#ffffff", Background: "#1a1a1a", Text: "#d4af37"},
	{ID: "japanese-minimalism", Name: "Japanese Minimalism", Primary: "#2c2c2c", Secondary: "#8e8e8e", Accent: "#f8f8f8", Background: "#ffffff", Text: "#333333"},
	{ID: "postmodern-deconstruction", Name: "Postmodern Deconstruction", Primary: "#ff6b6b", Secondary: "#4ecdc4", Accent: "#45b7d1", Background: "#f9f9f9", Text: "#2c2c2c"},
	{ID: "punk", Name: "Punk", Primary: "#ff0000", Secondary: "#000000", Accent: "#ffffff", Background: "#f5f5f5", Text: "#000000"},
	{ID: "british-rock", Name: "British Rock", Primary: "#dc143c", Secondary: "#ffffff", Accent: "#000080", Background: "#f8f8ff", Text: "#2c2c2c"},
	{ID: "black-metal", Name: "Black Metal", Primary: "#ffffff", Secondary: "#666666", Accent: "#ff0000", Background: "#000000", Text: "#ffffff"},
	{ID: "memphis-design", Name: "Memphis Design", Primary: "#ff69b4", Secondary: "#00ffff", Accent: "#ffff00", Background: "#ffffff", Text: "#333333"},
	{ID: "cyberpunk", Name: "Cyberpunk", Primary: "#00ffff", Secondary: "#ff00ff", Accent: "#00ff00", Background: "#0a0a0a", Text: "#e6e6e6"},
	{ID: "pop-art", Name: "Pop Art", Primary: "#ff0000", Secondary: "#ffff00", Accent: "#0000ff", Background: "#ffffff", Text: "#000000"},
	{ID: "deconstructed-swiss", Name: "Deconstructed Swiss", Primary: "#ff0000", Secondary: "#000000", Accent: "#ffffff", Background: "#f8f8f8", Text: "#333333"},
	{ID: "vaporwave", Name: "Vaporwave", Primary: "#ff00ff", Secondary: "#00ffff", Accent: "#ffff00", Background: "#ff00ff", Text: "#ffffff"},
	{ID: "neo-expressionism", Name: "Neo Expressionism", Primary: "#ff4500", Secondary: "#800080", Accent: "#ffff00", Background: "#2f2f2f", Text: "#ffffff"},
	{ID: "extreme-minimalism", Name: "Extreme Minimalism", Primary: "#000000", Secondary: "#999999", Accent: "#f0f0f0", Background: "#ffffff", Text: "#333333"},
	{ID: "neo-futurism", Name: "Neo Futurism", Primary: "#c0c0c0", Secondary: "#4169e1", Accent: "#ffd700", Background: "#f8f8ff", Text: "#2c2c2c"},
	{ID: "surrealist-collage", Name: "Surrealist Collage", Primary: "#ff69b4", Secondary: "#9370db", Accent: "#ffd700", Background: "#ff69b4", Text: "#ffffff"},
	{ID: "neo-baroque", Name: "Neo Baroque", Primary: "#d4af37", Secondary: "#8b0000", Accent: "#4169e1", Background: "#000000", Text: "#ffd700"},
	{ID: "liquid-morphism", Name: "Liquid Morphism", Primary: "#8a2be2", Secondary: "#00bfff", Accent: "#ff1493", Background: "#8a2be2", Text: "#ffffff"},
	{ID: "hypersensory-minimalism", Name: "Hypersensory Minimalism", Primary: "#f8f8f8", Secondary: "#e8e8e8", Accent: "#d8d8d8", Background: "#ffffff", Text: "#333333"},
	{ID: "neo-expressionist-data", Name: "Neo Expressionist Data", Primary: "#ff4500", Secondary: "#4169e1", Accent: "#ffd700", Background: "#f8f8ff", Text: "#2c2c2c"},
	{ID: "victorian", Name: "Victorian", Primary: "#8b4513", Secondary: "#daa520", Accent: "#dc143c", Background: "#faf0e6", Text: "#2f1b14"},
	{ID: "bauhaus", Name: "Bauhaus", Primary: "#ff0000", Secondary: "#ffff00", Accent: "#0000ff", Background: "#ffffff", Text: "#000000"},
	{ID: "constructivism", Name: "Constructivism", Primary: "#ff0000", Secondary: "#000000", Accent: "#ffffff", Background: "#f8f8f8", Text: "#000000"},
	{ID: "german-expressionism", Name: "German Expressionism", Primary: "#ffff00", Secondary: "#8b0000", Accent: "#228b22", Background: "#191970", Text: "#ffffff"},
}

// Lookup returns the style with the given id.
func (c Catalog) Lookup(id string) (Style, bool) {
	for _, s := range c {
		if s.ID == id {
			return s, true
		}
	}
	return Style{}, false
}

// Select picks a style using rng. The same seed yields the same style.
func (c Catalog) Select(rng *rand.Rand) (Style, bool) {
	if len(c) == 0 || rng == nil {
		return Style{}, false
	}
	return c[rng.Intn(len(c))], true
}

// Validate checks that every color in the catalog parses.
func (c Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c))
	for _, s := range c {
		if s.ID == "" {
			return fmt.Errorf("thumbnail: style without id")
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("thumbnail: duplicate style %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		for _, hex := range []string{s.Primary, s.Secondary, s.Accent, s.Background, s.Text} {
			if _, err := parseHex(hex); err != nil {
				return fmt.Errorf("thumbnail: style %q: %w", s.ID, err)
			}
		}
	}
	return nil
}

type palette struct {
	primary, secondary, accent, background, text color.RGBA
}

func (s Style) palette() (palette, error) {
	var p palette
	for _, f := range []struct {
		dst *color.RGBA
		hex string
	}{
		{&p.primary, s.Primary},
		{&p.secondary, s.Secondary},
		{&p.accent, s.Accent},
		{&p.background, s.Background},
		{&p.text, s.Text},
	} {
		c, err := parseHex(f.hex)
		if err != nil {
			return palette{}, fmt.Errorf("thumbnail: style %q: %w", s.ID, err)
		}
		*f.dst = c
	}
	return p, nil
}

// parseHex reads #rgb or #rrggbb.
func parseHex(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
