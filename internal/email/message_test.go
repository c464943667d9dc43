package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pasassistant/internal/email"
	"pasassistant/internal/port"
)

var notice = port.CompletionNotice{
	ToEmail:          "alice@example.com",
	ProjectID:        "proj_1",
	OriginalFilename: "PAS <Client>.xlsx",
	QuestionCount:    42,
	AttentionCount:   3,
	DownloadURL:      "https://pas.example.com/projects/proj_1?a=1&b=2",
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Votre questionnaire PAS <Client>.xlsx est prêt", email.Subject(notice))
}

func TestTextBody(t *testing.T) {
	body := email.TextBody(notice)
	assert.Contains(t, body, "Questions traitées : 42")
	assert.Contains(t, body, "Points d'attention : 3")
	assert.Contains(t, body, notice.DownloadURL)
}

func TestHTMLBody_Escapes(t *testing.T) {
	body := email.HTMLBody(notice)
	assert.Contains(t, body, "PAS &lt;Client&gt;.xlsx")
	assert.Contains(t, body, `href="https://pas.example.com/projects/proj_1?a=1&amp;b=2"`)
	assert.NotContains(t, body, "<Client>")
}
