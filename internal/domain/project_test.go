package domain_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/domain"
)

func TestNewProjectID(t *testing.T) {
	id := domain.NewProjectID(time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^proj_20250301_140509_[0-9a-f]{6}$`), id)
}

func TestNewProject(t *testing.T) {
	p := domain.NewProject("alice@example.com", "PAS client.xlsx", domain.FormatXLSX)

	assert.Equal(t, domain.StatusCreated, p.Status)
	assert.Equal(t, domain.DefaultVerbosityLevel, p.VerbosityLevel)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
	assert.NotNil(t, p.Cadrage)
	assert.NotNil(t, p.Anonymization)
	assert.Empty(t, p.ReferenceFilesUsed)
	assert.Nil(t, p.ErrorMessage)
}

func TestFormatFromFilename(t *testing.T) {
	f, err := domain.FormatFromFilename("Questionnaire.XLSX")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatXLSX, f)

	f, err = domain.FormatFromFilename("pas.v2.docx")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatDOCX, f)

	for _, name := range []string{"pas.pdf", "pas", "pas.doc"} {
		_, err := domain.FormatFromFilename(name)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat, name)
	}
}

func TestSetErrorAndStatusView(t *testing.T) {
	p := domain.NewProject("alice@example.com", "pas.docx", domain.FormatDOCX)
	p.ProgressStep = "Génération des réponses..."
	p.ProgressPct = 50
	p.SetError("Erreur : quota dépassé")

	view := p.StatusView()
	assert.Equal(t, domain.StatusError, view.Status)
	assert.Equal(t, 50, view.ProgressPct)
	require.NotNil(t, view.ErrorMessage)
	assert.Equal(t, "Erreur : quota dépassé", *view.ErrorMessage)
}

func TestAnswerMap_LaterDuplicatesWin(t *testing.T) {
	m := domain.AnswerMap([]domain.Answer{
		{QuestionID: "Q001", Response: "a"},
		{QuestionID: "Q002", Response: "b"},
		{QuestionID: "Q001", Response: "c"},
	})
	assert.Equal(t, map[string]string{"Q001": "c", "Q002": "b"}, m)
}
