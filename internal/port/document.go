package port

import (
	"context"

	"pasassistant/internal/domain"
)

// TextTransformer rewrites text nodes. The anonymizer satisfies it in both directions.
type TextTransformer interface {
	Anonymize(text string) string
	Deanonymize(text string) string
}

// DocumentAdapter reads and writes one questionnaire format. Paths name files on disk;
// write operations modify the file in place.
type DocumentAdapter interface {
	Format() domain.Format
	ExtractPreview(ctx context.Context, path string, limit int) (string, error)
	ExtractQuestions(ctx context.Context, path string, structure *domain.StructureModel) ([]domain.Question, error)
	WriteAnswers(ctx context.Context, path string, answers map[string]string, structure *domain.StructureModel) (int, error)
	Anonymize(ctx context.Context, path string, t TextTransformer) error
	Deanonymize(ctx context.Context, path string, t TextTransformer) error
	PlainText(ctx context.Context, path string, maxChars int) (string, error)
}

// SheetPruner is implemented by adapters whose documents hold several sheets.
type SheetPruner interface {
	PruneSheets(ctx context.Context, path string, keep []string) error
}
