package intake

import (
	"net/url"
	"strings"
	"unicode"
)

// ParseDropped splits text pasted by a terminal drag-and-drop into file paths.
// Terminals quote or backslash-escape paths with spaces, and some paste file:// URIs.
func ParseDropped(text string) []string {
	var (
		paths   []string
		current strings.Builder
		quote   rune
		pending bool
	)

	flush := func() {
		if pending {
			paths = append(paths, normalizeDropped(current.String()))
		}
		current.Reset()
		pending = false
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			pending = true
		case r == '\\' && i+1 < len(runes) && isEscapable(runes[i+1]):
			i++
			current.WriteRune(runes[i])
			pending = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			pending = true
		}
	}
	flush()

	out := paths[:0]
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isEscapable(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(`'"\()&;`, r)
}

func normalizeDropped(p string) string {
	if !strings.HasPrefix(p, "file://") {
		return p
	}
	u, err := url.Parse(p)
	if err != nil {
		return strings.TrimPrefix(p, "file://")
	}
	return u.Path
}
