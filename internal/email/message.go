// Package email renders the completion notice shared by the notifier implementations.
package email

import (
	"fmt"
	"html"

	"pasassistant/internal/port"
)

// Subject returns the subject line of a completion notice.
func Subject(n port.CompletionNotice) string {
	return fmt.Sprintf("Votre questionnaire %s est prêt", n.OriginalFilename)
}

// TextBody renders the plain-text body of a completion notice.
func TextBody(n port.CompletionNotice) string {
	return fmt.Sprintf("Bonjour,\n\nLe remplissage du questionnaire %s est terminé.\n\n"+
		"Questions traitées : %d\nPoints d'attention : %d\n\n"+
		"Télécharger le résultat :\n%s\n\nPAS Assistant",
		n.OriginalFilename, n.QuestionCount, n.AttentionCount, n.DownloadURL)
}

// HTMLBody renders the HTML body of a completion notice.
func HTMLBody(n port.CompletionNotice) string {
	name := html.EscapeString(n.OriginalFilename)
	link := html.EscapeString(n.DownloadURL)
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Questionnaire prêt</h2>
  <p>Bonjour,</p>
  <p>Le remplissage du questionnaire <strong>%s</strong> est terminé.</p>
  <ul>
    <li>Questions traitées : %d</li>
    <li>Points d'attention : %d</li>
  </ul>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Télécharger</a>
  </p>
  <p>Ou copiez ce lien dans votre navigateur :</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">PAS Assistant</p>
</body>
</html>`, name, n.QuestionCount, n.AttentionCount, link, link)
}
