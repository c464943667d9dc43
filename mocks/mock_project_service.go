package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pasassistant/internal/domain"
	"pasassistant/internal/service"
)

// MockProjectService is a mock implementation of service.ProjectService.
type MockProjectService struct {
	mock.Mock
}

func (m *MockProjectService) Create(ctx context.Context, userEmail, filename string, data []byte) (*domain.Project, error) {
	args := m.Called(ctx, userEmail, filename, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) Get(ctx context.Context, projectID, userEmail string) (*domain.Project, error) {
	args := m.Called(ctx, projectID, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) List(ctx context.Context, userEmail string) ([]domain.Project, error) {
	args := m.Called(ctx, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *MockProjectService) Status(ctx context.Context, projectID, userEmail string) (*domain.ProjectStatusView, error) {
	args := m.Called(ctx, projectID, userEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProjectStatusView), args.Error(1)
}

func (m *MockProjectService) UpdateStructure(ctx context.Context, projectID, userEmail string, structure []byte) (*domain.Project, error) {
	args := m.Called(ctx, projectID, userEmail, structure)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) SubmitCadrage(ctx context.Context, projectID, userEmail string, input service.CadrageInput) (*domain.Project, error) {
	args := m.Called(ctx, projectID, userEmail, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) SubmitAnonymization(ctx context.Context, projectID, userEmail string, mapping map[string]string) (*domain.Project, error) {
	args := m.Called(ctx, projectID, userEmail, mapping)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Project), args.Error(1)
}

func (m *MockProjectService) UploadCorrection(ctx context.Context, projectID, userEmail string, data []byte) (int, error) {
	args := m.Called(ctx, projectID, userEmail, data)
	return args.Int(0), args.Error(1)
}

func (m *MockProjectService) OutputPath(ctx context.Context, projectID, userEmail string) (*domain.Project, string, error) {
	args := m.Called(ctx, projectID, userEmail)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.Project), args.String(1), args.Error(2)
}

func (m *MockProjectService) AttentionPath(ctx context.Context, projectID, userEmail string) (*domain.Project, string, error) {
	args := m.Called(ctx, projectID, userEmail)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.Project), args.String(1), args.Error(2)
}

func (m *MockProjectService) Delete(ctx context.Context, projectID, userEmail string) error {
	args := m.Called(ctx, projectID, userEmail)
	return args.Error(0)
}
