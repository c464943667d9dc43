package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pasassistant/internal/domain"
)

// MockProjectRepository is a mock implementation of port.ProjectRepository.
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *domain.Project, original []byte) error {
	args := m.Called(ctx, project, original)
	return args.Error(0)
}

func (m *MockProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) ListByUser(ctx context.Context, userEmail string) ([]domain.Project, error) {
	args := m.Called(ctx, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *MockProjectRepository) ListAll(ctx context.Context) ([]domain.Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepository) OriginalPath(project *domain.Project) string {
	return m.Called(project).String(0)
}

func (m *MockProjectRepository) WorkingPath(project *domain.Project) string {
	return m.Called(project).String(0)
}

func (m *MockProjectRepository) OutputPath(project *domain.Project) string {
	return m.Called(project).String(0)
}

func (m *MockProjectRepository) AttentionPath(project *domain.Project) string {
	return m.Called(project).String(0)
}

func (m *MockProjectRepository) CorrectionPath(project *domain.Project, version int) string {
	return m.Called(project, version).String(0)
}
