package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pasassistant/internal/domain"
)

// MockGenerationService is a mock implementation of service.GenerationService.
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Start(ctx context.Context, projectID, userEmail string) (*domain.Project, error) {
	args := m.Called(ctx, projectID, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockGenerationService) RecoverInterrupted(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockGenerationService) Wait() {
	m.Called()
}
