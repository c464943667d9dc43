// Package anonymizer substitutes confidential literals with aliases before
// text leaves the process, and restores them afterwards.
package anonymizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

type rule struct {
	real    string
	alias   string
	pattern *regexp.Regexp
}

// Anonymizer applies a fixed real-literal to alias mapping in both directions.
type Anonymizer struct {
	forward []rule
	reverse []rule
}

// New builds an anonymizer from a real -> alias mapping. Entries with an empty
// real literal or alias are ignored.
func New(mapping map[string]string) *Anonymizer {
	a := &Anonymizer{}
	for real, alias := range mapping {
		if strings.TrimSpace(real) == "" || alias == "" {
			continue
		}
		a.forward = append(a.forward, rule{
			real:    real,
			alias:   alias,
			pattern: regexp.MustCompile("(?i)" + regexp.QuoteMeta(real)),
		})
	}
	a.reverse = append([]rule(nil), a.forward...)

	// Longest literal first so a longer literal containing a shorter one wins;
	// equal lengths fall back to lexical order to keep output deterministic.
	sort.SliceStable(a.forward, func(i, j int) bool {
		return longerFirst(a.forward[i].real, a.forward[j].real)
	})
	sort.SliceStable(a.reverse, func(i, j int) bool {
		return longerFirst(a.reverse[i].alias, a.reverse[j].alias)
	})
	return a
}

func longerFirst(x, y string) bool {
	lx, ly := utf8.RuneCountInString(x), utf8.RuneCountInString(y)
	if lx != ly {
		return lx > ly
	}
	return x < y
}

// Empty reports whether the anonymizer has no usable rule.
func (a *Anonymizer) Empty() bool {
	return a == nil || len(a.forward) == 0
}

// Anonymize replaces every case-insensitive occurrence of each real literal by its alias.
func (a *Anonymizer) Anonymize(text string) string {
	if a == nil || text == "" {
		return text
	}
	for _, r := range a.forward {
		text = r.pattern.ReplaceAllLiteralString(text, r.alias)
	}
	return text
}

// Deanonymize replaces every exact occurrence of each alias by its real literal.
func (a *Anonymizer) Deanonymize(text string) string {
	if a == nil || text == "" {
		return text
	}
	for _, r := range a.reverse {
		text = strings.ReplaceAll(text, r.alias, r.real)
	}
	return text
}

// Mapping is one real/alias pair as submitted by a user.
type Mapping struct {
	Real  string `json:"real"`
	Alias string `json:"alias"`
}

// FromPairs converts submitted pairs into a mapping, trimming whitespace and
// dropping incomplete pairs. A repeated real literal keeps its last alias.
func FromPairs(pairs []Mapping) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		real := strings.TrimSpace(p.Real)
		alias := strings.TrimSpace(p.Alias)
		if real == "" || alias == "" {
			continue
		}
		out[real] = alias
	}
	return out
}
