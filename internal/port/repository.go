package port

import (
	"context"

	"pasassistant/internal/domain"
)

// ProjectRepository persists project records and locates their artifacts.
// Each project owns a directory holding project.json and its documents.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project, original []byte) error
	Get(ctx context.Context, id string) (*domain.Project, error)
	Save(ctx context.Context, project *domain.Project) error
	ListByUser(ctx context.Context, userEmail string) ([]domain.Project, error)
	ListAll(ctx context.Context) ([]domain.Project, error)
	Delete(ctx context.Context, id string) error

	OriginalPath(project *domain.Project) string
	WorkingPath(project *domain.Project) string
	OutputPath(project *domain.Project) string
	AttentionPath(project *domain.Project) string
	CorrectionPath(project *domain.Project, version int) string
}
