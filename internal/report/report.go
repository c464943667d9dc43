// Package report renders the text blocks exchanged with the text-generation
// service and the attention-points report written next to the output document.
package report

import (
	"fmt"
	"sort"
	"strings"

	"pasassistant/internal/domain"
)

// Cadrage renders intake answers as an indented key/value list, keys sorted.
func Cadrage(cadrage map[string]any) string {
	keys := make([]string, 0, len(cadrage))
	for k := range cadrage {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Contexte de la prestation :")
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  - %s : %s", k, value(cadrage[k]))
	}
	return b.String()
}

func value(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, value(item))
		}
		return strings.Join(parts, ", ")
	case bool:
		if t {
			return "oui"
		}
		return "non"
	default:
		return fmt.Sprint(t)
	}
}

// QuestionList renders extracted questions for the answer request.
func QuestionList(questions []domain.Question) string {
	var b strings.Builder
	for _, q := range questions {
		fmt.Fprintf(&b, "ID: %s\nQuestion: %s\n\n", q.ID, q.Text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// AnsweredList renders questions with their answers for the attention request.
// Questions without an answer are flagged as not filled.
func AnsweredList(questions []domain.Question, answers map[string]string) string {
	blocks := make([]string, 0, len(questions))
	for _, q := range questions {
		answer, ok := answers[q.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			answer = "[non rempli]"
		}
		blocks = append(blocks, fmt.Sprintf("ID: %s\nQuestion: %s\nRéponse: %s", q.ID, q.Text, answer))
	}
	return strings.Join(blocks, "\n\n")
}

// Attention renders the attention-points report as markdown.
func Attention(points []domain.AttentionPoint) string {
	var b strings.Builder
	b.WriteString("# Points d'attention\n")
	if len(points) == 0 {
		b.WriteString("\nAucun point d'attention identifié.\n")
		return b.String()
	}
	for i, p := range points {
		fmt.Fprintf(&b, "\n## %d. [%s] %s\n\n", i+1, p.Category, p.QuestionID)
		b.WriteString(p.Description + "\n")
		fmt.Fprintf(&b, "\n**Recommandation :** %s\n", p.Recommendation)
	}
	return b.String()
}
