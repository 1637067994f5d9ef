package parser

import (
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

var (
	intRe = regexp.MustCompile(`^-?\d+$`)
	fltRe = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// splitFrontmatter separates the front matter block (between a leading ---
// line and the next --- line) from the Markdown body. Without a closing
// delimiter the whole text is body and the map is empty.
func splitFrontmatter(text string) (map[string]any, string) {
	lines := strings.Split(text, "\n")
	if strings.TrimSpace(lines[0]) != delim {
		return map[string]any{}, text
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delim {
			end = i
			break
		}
	}
	if end < 0 {
		return map[string]any{}, text
	}

	block := strings.Join(lines[1:end], "\n")
	body := strings.Join(lines[end+1:], "\n")
	return parseFrontmatter(block), body
}

// parseFrontmatter decodes block as YAML and falls back to line-by-line
// key/value parsing when the YAML is invalid.
func parseFrontmatter(block string) map[string]any {
	if fm, ok := decodeYAML(block); ok {
		return fm
	}
	return parseLines(block)
}

func decodeYAML(block string) (fm map[string]any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			fm, ok = nil, false
		}
	}()
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return nil, false
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return fm, true
}

func parseLines(block string) map[string]any {
	fm := map[string]any{}
	for _, line := range strings.Split(block, "\n") {
		key, value, ok := splitLine(strings.TrimRight(line, "\r"))
		if !ok {
			continue
		}
		fm[key] = coerce(value)
	}
	return fm
}

// splitLine splits "key: value" at the first colon followed by whitespace,
// so namespaced keys such as "itunes:episode" survive intact.
func splitLine(line string) (key, value string, ok bool) {
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' || line[0] == '-' {
		return "", "", false
	}
	idx := strings.Index(line, ": ")
	if tab := strings.Index(line, ":\t"); tab >= 0 && (idx < 0 || tab < idx) {
		idx = tab
	}
	switch {
	case idx >= 0:
		key, value = line[:idx], line[idx+1:]
	case strings.HasSuffix(line, ":"):
		key = line[:len(line)-1]
	default:
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

// coerce converts a raw value: bool, int, float, quoted string, then plain
// string, first match wins.
func coerce(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if intRe.MatchString(v) {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return int(n)
		}
	}
	if fltRe.MatchString(v) {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
