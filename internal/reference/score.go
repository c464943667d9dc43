package reference

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
)

// Profile keys shared by cadrage answers and corpus metadata.
const (
	KeyServiceType    = "type_prestation"
	KeyHosting        = "hebergement_donnees"
	KeyActivities     = "activites"
	KeyGDPRProcessor  = "sous_traitance_rgpd"
	KeyWorkstation    = "poste_travail"
	KeyAtlassian      = "expertise_atlassian"
	KeyWorkLocations  = "lieu_travail"
	KeyQuestionFormat = "format"
)

var fold = cases.Fold()

// Score rates how closely a corpus entry's metadata matches the cadrage.
// Weights: service type 3; hosting, activities and GDPR sub-processing 2;
// workstation, Atlassian expertise, work locations and format 1.
func Score(cadrage, meta map[string]any) int {
	score := 0
	if sameText(cadrage, meta, KeyServiceType) {
		score += 3
	}
	if sameText(cadrage, meta, KeyHosting) {
		score += 2
	}
	if intersects(cadrage[KeyActivities], meta[KeyActivities]) {
		score += 2
	}
	if sameValue(cadrage[KeyGDPRProcessor], meta[KeyGDPRProcessor]) {
		score += 2
	}
	if sameText(cadrage, meta, KeyWorkstation) {
		score++
	}
	if sameValue(cadrage[KeyAtlassian], meta[KeyAtlassian]) {
		score++
	}
	if intersects(cadrage[KeyWorkLocations], meta[KeyWorkLocations]) {
		score++
	}
	if sameText(cadrage, meta, KeyQuestionFormat) {
		score++
	}
	return score
}

// sameText matches when the cadrage value is set and equals the metadata value, ignoring case.
func sameText(cadrage, meta map[string]any, key string) bool {
	c := cadrage[key]
	if !truthy(c) {
		return false
	}
	return fold.String(str(c)) == fold.String(str(meta[key]))
}

// intersects matches when the two lists share a non-empty element, ignoring case.
func intersects(a, b any) bool {
	set := map[string]bool{}
	for _, v := range list(a) {
		if truthy(v) {
			set[fold.String(str(v))] = true
		}
	}
	if len(set) == 0 {
		return false
	}
	for _, v := range list(b) {
		if truthy(v) && set[fold.String(str(v))] {
			return true
		}
	}
	return false
}

// sameValue matches when both values are present and strictly equal.
// false is a real answer for yes/no fields and still matches.
func sameValue(a, b any) bool {
	if !present(a) || !present(b) {
		return false
	}
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// list accepts a list value or a lone scalar treated as a one-element list.
func list(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{t}
	}
}

// present reports whether v carries an answer: not nil, not a blank string,
// not an empty list or map.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return normalize(v) != float64(0)
	}
}

// normalize maps numeric kinds onto float64 so JSON and YAML decoded values compare equal.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
