package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pasassistant/internal/port"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendCompletionEmail(ctx context.Context, notice port.CompletionNotice) error {
	args := m.Called(ctx, notice)
	return args.Error(0)
}
