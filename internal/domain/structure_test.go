package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/domain"
)

func TestParseStructure_TabularDefaults(t *testing.T) {
	s, err := domain.ParseStructure(domain.FormatXLSX, []byte(`{"sheets":[{"name":"PAS"},{"name":"Annexe","has_questions":false,"id_column":" A ","question_column":"B","response_columns":["C","D"],"header_row":3,"first_data_row":4}]}`))
	require.NoError(t, err)
	require.Len(t, s.Sheets, 2)

	assert.Equal(t, domain.SheetStructure{
		Name:            "PAS",
		HasQuestions:    true,
		QuestionColumn:  "A",
		ResponseColumns: []string{"B"},
		HeaderRow:       1,
		FirstDataRow:    2,
	}, s.Sheets[0])
	assert.Equal(t, domain.SheetStructure{
		Name:            "Annexe",
		HasQuestions:    false,
		IDColumn:        "A",
		QuestionColumn:  "B",
		ResponseColumns: []string{"C", "D"},
		HeaderRow:       3,
		FirstDataRow:    4,
	}, s.Sheets[1])
	assert.Equal(t, []string{"PAS", "Annexe"}, s.SheetNames())
}

func TestParseStructure_NoSheetsFallsBackToDefault(t *testing.T) {
	s, err := domain.ParseStructure(domain.FormatXLSX, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStructure(domain.FormatXLSX), s)
}

func TestParseStructure_SingleResponseColumn(t *testing.T) {
	s, err := domain.ParseStructure(domain.FormatXLSX, []byte(`{"sheets":[{"name":"S","response_columns":"E"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, s.Sheets[0].ResponseColumns)
}

func TestParseStructure_Flow(t *testing.T) {
	s, err := domain.ParseStructure(domain.FormatDOCX, []byte(`{"pattern":"marker","response_marker":"Réponse :"}`))
	require.NoError(t, err)
	assert.Equal(t, "Réponse :", s.ResponseMarker)
	assert.Equal(t, "Réponse :", s.Marker())

	s, err = domain.ParseStructure(domain.FormatDOCX, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultResponseMarker, s.ResponseMarker)
}

func TestParseStructure_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		format domain.Format
		body   string
	}{
		{"not json", domain.FormatXLSX, `[1, 2`},
		{"blank sheet name", domain.FormatXLSX, `{"sheets":[{"name":"  "}]}`},
		{"bad first data row", domain.FormatXLSX, `{"sheets":[{"name":"S","first_data_row":0}]}`},
		{"no usable sheet", domain.FormatXLSX, `{"sheets":[{"name":"S","response_columns":[]}]}`},
		{"empty marker", domain.FormatDOCX, `{"response_marker":"  "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.ParseStructure(tt.format, []byte(tt.body))
			assert.ErrorIs(t, err, domain.ErrInvalidStructure)
		})
	}

	_, err := domain.ParseStructure("pdf", []byte(`{}`))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestMarker_Default(t *testing.T) {
	var s *domain.StructureModel
	assert.Equal(t, domain.DefaultResponseMarker, s.Marker())
	assert.Equal(t, domain.DefaultResponseMarker, (&domain.StructureModel{}).Marker())
}
