package intake_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/config"
	"pasassistant/internal/intake"
)

const sample = `# Questions de cadrage

+ Quel est le nom du client ?

+ Le service est-il hébergé chez un tiers ?
OPTIONS: Oui, Non

+ IF previous == "Oui": Quel hébergeur ?
  TYPE: text

+ Quels modes de déploiement proposez-vous ?
OPTIONS: SaaS,  On-premise ,Hybride
MULTI: TRUE

+ if previous contains "SaaS": Quelle région d'hébergement ?
`

func TestParse(t *testing.T) {
	questions, err := intake.Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, questions, 5)

	assert.Equal(t, intake.Question{ID: 1, Text: "Quel est le nom du client ?", Type: "text"}, questions[0])

	assert.Equal(t, "options", questions[1].Type)
	assert.Equal(t, []string{"Oui", "Non"}, questions[1].Options)
	assert.False(t, questions[1].Multi)

	assert.Equal(t, 3, questions[2].ID)
	assert.Equal(t, "Quel hébergeur ?", questions[2].Text)
	assert.Equal(t, "text", questions[2].Type)
	assert.Equal(t, &intake.Condition{QuestionID: 2, Operator: intake.OperatorEquals, Value: "Oui"}, questions[2].Condition)

	assert.Equal(t, []string{"SaaS", "On-premise", "Hybride"}, questions[3].Options)
	assert.True(t, questions[3].Multi)
	assert.Nil(t, questions[3].Condition)

	assert.Equal(t, "Quelle région d'hébergement ?", questions[4].Text)
	assert.Equal(t, &intake.Condition{QuestionID: 4, Operator: intake.OperatorContains, Value: "SaaS"}, questions[4].Condition)
}

func TestParse_ConditionEdgeCases(t *testing.T) {
	cases := []struct {
		name     string
		line     string
		wantText string
		wantCond *intake.Condition
	}{
		{"no colon keeps the text", `+ IF previous == "Oui"`, `IF previous == "Oui"`, nil},
		{"unquoted value", `+ IF previous == Oui: Lequel ?`, "Lequel ?", &intake.Condition{QuestionID: 1, Operator: intake.OperatorEquals}},
		{"word starting with if", `+ Ifrastructure: détail ?`, "Ifrastructure: détail ?", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			questions, err := intake.Parse(strings.NewReader("+ Première ?\n" + tc.line + "\n"))
			require.NoError(t, err)
			require.Len(t, questions, 2)
			assert.Equal(t, tc.wantText, questions[1].Text)
			assert.Equal(t, tc.wantCond, questions[1].Condition)
		})
	}
}

func TestParse_MetadataBeforeFirstQuestionIgnored(t *testing.T) {
	questions, err := intake.Parse(strings.NewReader("OPTIONS: a, b\nMULTI: true\n"))
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.txt")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	questions, err := intake.Load(path)
	require.NoError(t, err)
	assert.Len(t, questions, 5)

	_, err = intake.Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestVerbosityQuestion_SortedLevels(t *testing.T) {
	q := intake.VerbosityQuestion(map[int]config.VerbosityLevel{
		3: {Label: "Détaillé", MaxWords: 200},
		1: {Label: "Concis", MaxWords: 50},
	})

	assert.Equal(t, intake.VerbosityQuestionID, q.ID)
	assert.Equal(t, "options", q.Type)
	assert.Equal(t, []string{"1 — Concis (50 mots max)", "3 — Détaillé (200 mots max)"}, q.Options)
	assert.Nil(t, q.Condition)
}

func TestNewCatalog_JSONShape(t *testing.T) {
	catalog := intake.NewCatalog(nil, map[int]config.VerbosityLevel{2: {Label: "Standard", MaxWords: 100}})

	raw, err := json.Marshal(catalog)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"questions": [],
		"verbosity_question": {
			"id": 99,
			"text": "Quel niveau de détail souhaitez-vous pour les réponses ?",
			"type": "options",
			"options": ["2 — Standard (100 mots max)"],
			"multi": false,
			"condition": null
		}
	}`, string(raw))
}
