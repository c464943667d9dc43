// Package document selects questionnaire adapters by format and holds the
// text helpers they share.
package document

import (
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

// TruncationMarker is appended to text cut at a character limit.
const TruncationMarker = "\n[... tronqué ...]"

// Registry maps format tags to their adapters.
type Registry struct {
	adapters map[domain.Format]port.DocumentAdapter
}

// NewRegistry builds a registry from the given adapters, keyed by their format.
func NewRegistry(adapters ...port.DocumentAdapter) *Registry {
	r := &Registry{adapters: make(map[domain.Format]port.DocumentAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Format()] = a
	}
	return r
}

// For returns the adapter registered for format.
func (r *Registry) For(format domain.Format) (port.DocumentAdapter, error) {
	a, ok := r.adapters[format]
	if !ok {
		return nil, eris.Wrapf(domain.ErrUnsupportedFormat, "no adapter for %q", format)
	}
	return a, nil
}

// ForFile returns the adapter matching the extension of filename.
func (r *Registry) ForFile(filename string) (port.DocumentAdapter, error) {
	format, err := domain.FormatFromFilename(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "resolve format of %s", filename)
	}
	return r.For(format)
}

// Truncate caps content at maxChars characters, appending TruncationMarker when
// something was cut. A non-positive maxChars disables the cap.
func Truncate(content string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(content) <= maxChars {
		return content
	}
	var b strings.Builder
	n := 0
	for _, r := range content {
		if n == maxChars {
			break
		}
		b.WriteRune(r)
		n++
	}
	b.WriteString(TruncationMarker)
	return b.String()
}
