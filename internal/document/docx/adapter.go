// Package docx reads and writes word-processing questionnaires where each
// answer slot is flagged by a marker paragraph.
package docx

import (
	"context"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/rotisserie/eris"

	"pasassistant/internal/document"
	"pasassistant/internal/document/ooxml"
	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

const (
	// DefaultPreviewParagraphs bounds the preview used for structure detection.
	DefaultPreviewParagraphs = 50
	// LookBehind is how many paragraphs before a marker are searched for the question.
	LookBehind = 6
	// previewTableRows is the number of rows rendered per table in a preview.
	previewTableRows = 8
)

// Adapter implements port.DocumentAdapter for docx documents.
type Adapter struct{}

// New creates a docx adapter.
func New() *Adapter {
	return &Adapter{}
}

var _ port.DocumentAdapter = (*Adapter)(nil)

func (a *Adapter) Format() domain.Format { return domain.FormatDOCX }

// ExtractPreview renders up to maxParagraphs non-empty paragraphs and table
// rows in body order, each tagged with its style or table position.
func (a *Adapter) ExtractPreview(_ context.Context, path string, maxParagraphs int) (string, error) {
	if maxParagraphs <= 0 {
		maxParagraphs = DefaultPreviewParagraphs
	}
	doc, err := openDoc(path)
	if err != nil {
		return "", err
	}

	var lines []string
	count := 0
	for _, el := range doc.body.ChildElements() {
		if count >= maxParagraphs {
			break
		}
		switch el.Tag {
		case "p":
			text := strings.TrimSpace(paragraphText(el))
			if text != "" {
				lines = append(lines, fmt.Sprintf("[%s] %s", doc.styleName(el), text))
				count++
			}
		case "tbl":
			for i, tr := range el.SelectElements("w:tr") {
				if i >= previewTableRows {
					break
				}
				var cells []string
				for _, tc := range tr.SelectElements("w:tc") {
					cells = append(cells, strings.TrimSpace(cellText(tc)))
				}
				row := strings.Join(cells, " | ")
				if strings.TrimSpace(row) != "" {
					lines = append(lines, fmt.Sprintf("[Table ligne %d] %s", i+1, row))
					count++
				}
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// slot is one marker paragraph, in the order both extraction and writing number them.
type slot struct {
	id       string
	para     *etree.Element
	next     *etree.Element
	index    int
	inTable  bool
	question string
}

// markerSlots numbers every marker paragraph: body paragraphs first, then the
// paragraphs of table cells. Every marker consumes an id, even when no
// question text is found for it.
func markerSlots(doc *wordDoc, marker string) []slot {
	marker = strings.ToLower(marker)
	isMarker := func(text string) bool {
		return strings.Contains(strings.ToLower(text), marker)
	}

	var slots []slot
	counter := 0
	body := paragraphs(doc.body)
	texts := make([]string, len(body))
	for i, p := range body {
		texts[i] = strings.TrimSpace(paragraphText(p))
	}
	for i, p := range body {
		if !isMarker(texts[i]) {
			continue
		}
		question := ""
		for j := max(0, i-LookBehind); j < i; j++ {
			if texts[j] != "" && !isMarker(texts[j]) {
				question = texts[j]
			}
		}
		counter++
		s := slot{id: questionID(counter), para: p, index: i, question: question}
		if i+1 < len(body) {
			s.next = body[i+1]
		}
		slots = append(slots, s)
	}

	tableIdx := 0
	for _, tbl := range doc.body.SelectElements("w:tbl") {
		for _, p := range tableParagraphs(tbl) {
			text := strings.TrimSpace(paragraphText(p))
			if isMarker(text) {
				counter++
				slots = append(slots, slot{id: questionID(counter), para: p, index: tableIdx, inTable: true, question: text})
			}
			tableIdx++
		}
	}
	return slots
}

func questionID(n int) string {
	return fmt.Sprintf("Q%03d", n)
}

// ExtractQuestions returns one record per marker that has question text.
func (a *Adapter) ExtractQuestions(_ context.Context, path string, structure *domain.StructureModel) ([]domain.Question, error) {
	doc, err := openDoc(path)
	if err != nil {
		return nil, err
	}
	var questions []domain.Question
	for _, s := range markerSlots(doc, structure.Marker()) {
		if s.question == "" {
			continue
		}
		questions = append(questions, domain.Question{
			ID:       s.id,
			Text:     s.question,
			Location: domain.QuestionLocation{Paragraph: s.index, InTable: s.inTable},
		})
	}
	return questions, nil
}

// WriteAnswers places each answer after its marker: into the following
// paragraph when that one is empty, otherwise on a new line of the marker
// paragraph itself. Table markers always take the second form.
func (a *Adapter) WriteAnswers(_ context.Context, path string, answers map[string]string, structure *domain.StructureModel) (int, error) {
	if len(answers) == 0 {
		return 0, nil
	}
	doc, err := openDoc(path)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, s := range markerSlots(doc, structure.Marker()) {
		answer, ok := answers[s.id]
		if !ok {
			continue
		}
		switch {
		case !s.inTable && s.next != nil && strings.TrimSpace(paragraphText(s.next)) == "":
			if runs := s.next.SelectElements("w:r"); len(runs) > 0 {
				fillRun(runs[0], answer)
			} else {
				addRun(s.next, answer)
			}
		default:
			addRun(s.para, "\n"+answer)
		}
		written++
	}
	if written == 0 {
		return 0, nil
	}
	if err := doc.save(path); err != nil {
		return 0, err
	}
	return written, nil
}

// Anonymize rewrites the text of every run in the document body.
func (a *Adapter) Anonymize(ctx context.Context, path string, t port.TextTransformer) error {
	return eris.Wrap(ooxml.RewritePackage(ctx, path, ooxml.WordBodyPart, t.Anonymize), "docx: anonymize")
}

// Deanonymize reverses Anonymize.
func (a *Adapter) Deanonymize(ctx context.Context, path string, t port.TextTransformer) error {
	return eris.Wrap(ooxml.RewritePackage(ctx, path, ooxml.WordBodyPart, t.Deanonymize), "docx: deanonymize")
}

// PlainText joins the non-empty body paragraphs, capped at maxChars.
func (a *Adapter) PlainText(_ context.Context, path string, maxChars int) (string, error) {
	doc, err := openDoc(path)
	if err != nil {
		return "", err
	}
	var lines []string
	for _, p := range paragraphs(doc.body) {
		text := paragraphText(p)
		if strings.TrimSpace(text) != "" {
			lines = append(lines, text)
		}
	}
	return document.Truncate(strings.Join(lines, "\n"), maxChars), nil
}
