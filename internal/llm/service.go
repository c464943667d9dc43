// Package llm implements the questionnaire contracts of the text-generation
// service on top of interchangeable completion providers.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

const (
	structureMaxTokens   = 2000
	structureTemperature = 0.1
	attentionMaxTokens   = 4000
	attentionTemperature = 0.2
)

// Service implements port.LLMService over a Completer.
type Service struct {
	completer port.Completer
}

var _ port.LLMService = (*Service)(nil)

// NewService creates the questionnaire service for a completer.
func NewService(completer port.Completer) *Service {
	return &Service{completer: completer}
}

func (s *Service) Model() string { return s.completer.Model() }

// DetectStructure asks the provider for the layout of a document preview.
// A response wrapped in a "structure" object is unwrapped first.
func (s *Service) DetectStructure(ctx context.Context, preview string, format domain.Format) (*domain.StructureModel, error) {
	temp := structureTemperature
	text, err := s.completer.Complete(ctx, port.CompletionRequest{
		System:      StructurePrompt,
		User:        []string{fmt.Sprintf("Format du document : %s\n\n%s", format, preview)},
		MaxTokens:   structureMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: structure detection")
	}
	zap.L().Info("structure detection result", zap.String("format", string(format)), zap.String("raw", Truncate(text, 300)))

	var envelope map[string]json.RawMessage
	if err := decodeJSON(text, &envelope); err != nil {
		return nil, err
	}
	body := []byte(stripFences(text))
	if inner, ok := envelope["structure"]; ok && strings.HasPrefix(strings.TrimSpace(string(inner)), "{") {
		body = inner
	}
	structure, err := domain.ParseStructure(format, body)
	if err != nil {
		return nil, eris.Wrap(err, "llm: structure detection")
	}
	return structure, nil
}

// GenerateAnswers sends the cadrage context, verbosity directive, reference
// examples and question list, and returns the answers in response order.
func (s *Service) GenerateAnswers(ctx context.Context, req port.AnswerRequest) ([]domain.Answer, error) {
	user := []string{
		"CONTEXTE DE CADRAGE :\n" + req.CadrageText,
		"CONTRAINTE DE VERBOSITÉ : " + req.VerbosityText,
	}
	for i, ref := range req.ReferenceTexts {
		if strings.TrimSpace(ref) == "" {
			continue
		}
		user = append(user, fmt.Sprintf("EXEMPLE DE RÉFÉRENCE %d :\n%s", i+1, ref))
	}
	user = append(user,
		"QUESTIONNAIRE À REMPLIR :\n"+req.QuestionList,
		"Remplis toutes les réponses. Retourne uniquement le JSON demandé.",
	)

	text, err := s.completer.Complete(ctx, port.CompletionRequest{System: AnswersPrompt, User: user})
	if err != nil {
		return nil, eris.Wrap(err, "llm: answer generation")
	}
	var out struct {
		Responses []domain.Answer `json:"responses"`
	}
	if err := decodeJSON(text, &out); err != nil {
		return nil, err
	}
	return out.Responses, nil
}

// GenerateAttentionPoints asks for review items over the filled questionnaire.
func (s *Service) GenerateAttentionPoints(ctx context.Context, cadrageText, filledText string) ([]domain.AttentionPoint, error) {
	temp := attentionTemperature
	text, err := s.completer.Complete(ctx, port.CompletionRequest{
		System:      AttentionPrompt,
		User:        []string{"CONTEXTE DE CADRAGE :\n" + cadrageText + "\n\nQUESTIONNAIRE REMPLI :\n" + filledText},
		MaxTokens:   attentionMaxTokens,
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: attention points")
	}
	var out struct {
		AttentionPoints []domain.AttentionPoint `json:"attention_points"`
	}
	if err := decodeJSON(text, &out); err != nil {
		return nil, err
	}
	return out.AttentionPoints, nil
}

var (
	openingFence = regexp.MustCompile("(?m)^```[a-z]*\n?")
	closingFence = regexp.MustCompile("\n?```$")
)

// stripFences removes a markdown code fence wrapped around a JSON payload.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = openingFence.ReplaceAllString(text, "")
		text = closingFence.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

func decodeJSON(text string, v any) error {
	if err := json.Unmarshal([]byte(stripFences(text)), v); err != nil {
		return eris.Wrapf(err, "llm: parsing JSON output (raw: %s)", Truncate(text, 500))
	}
	return nil
}
