package port

import (
	"context"

	"pasassistant/internal/domain"
)

// CompletionRequest is a single system+user prompt exchange with a text-generation provider.
type CompletionRequest struct {
	System      string
	User        []string
	MaxTokens   int
	Temperature *float64
}

// Completer abstracts a raw text-generation provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Model() string
}

// AnswerRequest carries everything the answer generation contract needs.
type AnswerRequest struct {
	CadrageText    string
	VerbosityText  string
	QuestionList   string
	ReferenceTexts []string
}

// LLMService exposes the three questionnaire contracts of the text-generation service.
type LLMService interface {
	DetectStructure(ctx context.Context, preview string, format domain.Format) (*domain.StructureModel, error)
	GenerateAnswers(ctx context.Context, req AnswerRequest) ([]domain.Answer, error)
	GenerateAttentionPoints(ctx context.Context, cadrageText, filledText string) ([]domain.AttentionPoint, error)
	Model() string
}
