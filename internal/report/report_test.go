package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pasassistant/internal/domain"
	"pasassistant/internal/report"
)

func TestCadrage(t *testing.T) {
	got := report.Cadrage(map[string]any{
		"type_prestation":     "TMA",
		"activites":           []any{"dev", "run"},
		"sous_traitance_rgpd": true,
		"effectif":            float64(12),
	})

	assert.Equal(t, "Contexte de la prestation :\n"+
		"  - activites : dev, run\n"+
		"  - effectif : 12\n"+
		"  - sous_traitance_rgpd : oui\n"+
		"  - type_prestation : TMA", got)
}

func TestCadrage_Empty(t *testing.T) {
	assert.Equal(t, "Contexte de la prestation :", report.Cadrage(nil))
}

func TestQuestionList(t *testing.T) {
	got := report.QuestionList([]domain.Question{
		{ID: "Q001", Text: "Chiffrement ?"},
		{ID: "Q002", Text: "PCA ?"},
	})

	assert.Equal(t, "ID: Q001\nQuestion: Chiffrement ?\n\nID: Q002\nQuestion: PCA ?\n", got)
}

func TestAnsweredList(t *testing.T) {
	got := report.AnsweredList(
		[]domain.Question{{ID: "Q001", Text: "Chiffrement ?"}, {ID: "Q002", Text: "PCA ?"}},
		map[string]string{"Q001": "AES-256"},
	)

	assert.Equal(t, "ID: Q001\nQuestion: Chiffrement ?\nRéponse: AES-256\n\n"+
		"ID: Q002\nQuestion: PCA ?\nRéponse: [non rempli]", got)
}

func TestAttention(t *testing.T) {
	got := report.Attention([]domain.AttentionPoint{
		{Category: "engagement", QuestionID: "Q003", Description: "Engagement de disponibilité 99,99 %.", Recommendation: "Vérifier le contrat."},
		{Category: "incohérence", QuestionID: "Q007", Description: "Deux hébergeurs cités."},
	})

	assert.Equal(t, "# Points d'attention\n"+
		"\n## 1. [engagement] Q003\n\n"+
		"Engagement de disponibilité 99,99 %.\n"+
		"\n**Recommandation :** Vérifier le contrat.\n"+
		"\n## 2. [incohérence] Q007\n\n"+
		"Deux hébergeurs cités.\n"+
		"\n**Recommandation :** \n", got)
}

func TestAttention_EverySectionHasBothLines(t *testing.T) {
	got := report.Attention([]domain.AttentionPoint{{Category: "risque", QuestionID: "Q001", Recommendation: "Compléter."}})

	assert.Equal(t, "# Points d'attention\n"+
		"\n## 1. [risque] Q001\n\n"+
		"\n"+
		"\n**Recommandation :** Compléter.\n", got)
}

func TestAttention_NoPoints(t *testing.T) {
	assert.Contains(t, report.Attention(nil), "Aucun point d'attention")
}
