package document_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasassistant/internal/document"
	"pasassistant/internal/document/docx"
	"pasassistant/internal/document/xlsx"
	"pasassistant/internal/domain"
)

func TestRegistry_For(t *testing.T) {
	reg := document.NewRegistry(xlsx.New(), docx.New())

	a, err := reg.For(domain.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatXLSX, a.Format())

	a, err = reg.ForFile("Questionnaire.DOCX")
	require.NoError(t, err)
	assert.Equal(t, domain.FormatDOCX, a.Format())

	_, err = reg.For(domain.Format("pdf"))
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))

	_, err = reg.ForFile("notes.txt")
	assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", document.Truncate("abc", 3))
	assert.Equal(t, "abc", document.Truncate("abc", 0))
	assert.Equal(t, "éé"+document.TruncationMarker, document.Truncate("ééé", 2))
	assert.True(t, strings.HasSuffix(document.Truncate(strings.Repeat("x", 40000), 30000), "[... tronqué ...]"))
}
