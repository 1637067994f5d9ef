// Package vaultpath resolves media references relative to the note that
// contains them.
package vaultpath

import (
	"path"
	"strings"

	"github.com/starford/feedpost/internal/media"
)

// Resolve maps reference to a vault-relative location given the note's own
// vault-relative path.
//
//   - URLs are returned unchanged.
//   - "./x" is relative to the note's directory.
//   - "../x" pops one directory per leading "../"; popping past the root
//     leaves just the remainder.
//   - a bare "x" is already vault-relative and returned unchanged.
func Resolve(reference, noteLocation string) string {
	if media.IsURL(reference) {
		return reference
	}

	dir := noteDir(noteLocation)

	switch {
	case strings.HasPrefix(reference, "./"):
		return join(dir, strings.TrimPrefix(reference, "./"))

	case strings.HasPrefix(reference, "../"):
		rest := reference
		for strings.HasPrefix(rest, "../") {
			rest = strings.TrimPrefix(rest, "../")
			if len(dir) > 0 {
				dir = dir[:len(dir)-1]
			}
		}
		return join(dir, rest)

	default:
		return reference
	}
}

func noteDir(noteLocation string) []string {
	d := path.Dir(strings.TrimPrefix(noteLocation, "/"))
	if d == "." || d == "/" || d == "" {
		return nil
	}
	return strings.Split(d, "/")
}

func join(dir []string, rest string) string {
	if len(dir) == 0 {
		return rest
	}
	return strings.Join(dir, "/") + "/" + rest
}
