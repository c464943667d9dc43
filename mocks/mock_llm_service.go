package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

// MockLLMService is a mock implementation of port.LLMService.
type MockLLMService struct {
	mock.Mock
}

func (m *MockLLMService) DetectStructure(ctx context.Context, preview string, format domain.Format) (*domain.StructureModel, error) {
	args := m.Called(ctx, preview, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StructureModel), args.Error(1)
}

func (m *MockLLMService) GenerateAnswers(ctx context.Context, req port.AnswerRequest) ([]domain.Answer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Answer), args.Error(1)
}

func (m *MockLLMService) GenerateAttentionPoints(ctx context.Context, cadrageText, filledText string) ([]domain.AttentionPoint, error) {
	args := m.Called(ctx, cadrageText, filledText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AttentionPoint), args.Error(1)
}

func (m *MockLLMService) Model() string {
	args := m.Called()
	return args.String(0)
}
