package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"pasassistant/internal/config"
	"pasassistant/internal/document"
	"pasassistant/internal/domain"
	"pasassistant/internal/port"
)

// CadrageInput is the DTO for the scoping questionnaire answers.
type CadrageInput struct {
	Answers        map[string]any `json:"answers" binding:"required"`
	VerbosityLevel int            `json:"verbosity_level"`
}

// ProjectService defines the project lifecycle contract up to generation.
type ProjectService interface {
	Create(ctx context.Context, userEmail, filename string, data []byte) (*domain.Project, error)
	Get(ctx context.Context, projectID, userEmail string) (*domain.Project, error)
	List(ctx context.Context, userEmail string) ([]domain.Project, error)
	Status(ctx context.Context, projectID, userEmail string) (*domain.ProjectStatusView, error)
	UpdateStructure(ctx context.Context, projectID, userEmail string, structure []byte) (*domain.Project, error)
	SubmitCadrage(ctx context.Context, projectID, userEmail string, input CadrageInput) (*domain.Project, error)
	SubmitAnonymization(ctx context.Context, projectID, userEmail string, mapping map[string]string) (*domain.Project, error)
	UploadCorrection(ctx context.Context, projectID, userEmail string, data []byte) (int, error)
	OutputPath(ctx context.Context, projectID, userEmail string) (*domain.Project, string, error)
	AttentionPath(ctx context.Context, projectID, userEmail string) (*domain.Project, string, error)
	Delete(ctx context.Context, projectID, userEmail string) error
}

type projectService struct {
	repo      port.ProjectRepository
	documents *document.Registry
	llm       port.LLMService
	archive   port.ObjectStorage
	cfg       config.StorageConfig
}

// NewProjectService creates a new ProjectService implementation. archive may be nil.
func NewProjectService(
	repo port.ProjectRepository,
	documents *document.Registry,
	llm port.LLMService,
	archive port.ObjectStorage,
	cfg config.StorageConfig,
) ProjectService {
	return &projectService{
		repo:      repo,
		documents: documents,
		llm:       llm,
		archive:   archive,
		cfg:       cfg,
	}
}

// Create stores an uploaded questionnaire and detects its structure. Detection
// failures fall back to the default structure of the format.
func (s *projectService) Create(ctx context.Context, userEmail, filename string, data []byte) (*domain.Project, error) {
	format, err := domain.FormatFromFilename(filename)
	if err != nil {
		return nil, err
	}
	if err := s.checkUpload(data); err != nil {
		return nil, err
	}
	adapter, err := s.documents.For(format)
	if err != nil {
		return nil, err
	}

	project := domain.NewProject(userEmail, filepath.Base(filename), format)
	if err := s.repo.Create(ctx, project, data); err != nil {
		return nil, eris.Wrap(err, "project.Create")
	}

	structure, err := s.detectStructure(ctx, adapter, s.repo.OriginalPath(project), format)
	if err != nil {
		zap.L().Error("structure analysis failed, using default structure",
			zap.String("project_id", project.ID), zap.Error(err))
		structure = domain.DefaultStructure(format)
	}
	project.Structure = structure
	project.Status = domain.StatusStructureDetected
	if err := s.repo.Save(ctx, project); err != nil {
		return nil, eris.Wrap(err, "project.Create")
	}
	return project, nil
}

func (s *projectService) detectStructure(ctx context.Context, adapter port.DocumentAdapter, path string, format domain.Format) (*domain.StructureModel, error) {
	limit := s.cfg.PreviewRows
	if format == domain.FormatDOCX {
		limit = s.cfg.PreviewParas
	}
	preview, err := adapter.ExtractPreview(ctx, path, limit)
	if err != nil {
		return nil, err
	}
	return s.llm.DetectStructure(ctx, preview, format)
}

func (s *projectService) checkUpload(data []byte) error {
	if len(data) == 0 {
		return domain.ErrEmptyFile
	}
	if limit := s.cfg.MaxUploadBytes(); limit > 0 && int64(len(data)) > limit {
		return domain.ErrFileTooLarge
	}
	return nil
}

func (s *projectService) Get(ctx context.Context, projectID, userEmail string) (*domain.Project, error) {
	return requireOwned(ctx, s.repo, projectID, userEmail)
}

func (s *projectService) List(ctx context.Context, userEmail string) ([]domain.Project, error) {
	return s.repo.ListByUser(ctx, userEmail)
}

func (s *projectService) Status(ctx context.Context, projectID, userEmail string) (*domain.ProjectStatusView, error) {
	project, err := requireOwned(ctx, s.repo, projectID, userEmail)
	if err != nil {
		return nil, err
	}
	view := project.StatusView()
	return &view, nil
}

func (s *projectService) UpdateStructure(ctx context.Context, projectID, userEmail string, raw []byte) (*domain.Project, error) {
	project, err := s.editable(ctx, projectID, userEmail)
	if err != nil {
		return nil, err
	}
	structure, err := domain.ParseStructure(project.Format, raw)
	if err != nil {
		return nil, err
	}
	project.Structure = structure
	project.Status = domain.StatusStructureDetected
	if err := s.save(ctx, project, "project.UpdateStructure"); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) SubmitCadrage(ctx context.Context, projectID, userEmail string, input CadrageInput) (*domain.Project, error) {
	project, err := s.editable(ctx, projectID, userEmail)
	if err != nil {
		return nil, err
	}
	project.Cadrage = input.Answers
	if project.Cadrage == nil {
		project.Cadrage = map[string]any{}
	}
	project.VerbosityLevel = input.VerbosityLevel
	if project.VerbosityLevel == 0 {
		project.VerbosityLevel = domain.DefaultVerbosityLevel
	}
	project.Status = domain.StatusCadrage
	if err := s.save(ctx, project, "project.SubmitCadrage"); err != nil {
		return nil, err
	}
	return project, nil
}

// SubmitAnonymization stores the real-to-alias mapping. Pairs with an empty
// side are dropped.
func (s *projectService) SubmitAnonymization(ctx context.Context, projectID, userEmail string, mapping map[string]string) (*domain.Project, error) {
	project, err := s.editable(ctx, projectID, userEmail)
	if err != nil {
		return nil, err
	}
	clean := make(map[string]string, len(mapping))
	for name, alias := range mapping {
		if name != "" && alias != "" {
			clean[name] = alias
		}
	}
	project.Anonymization = clean
	project.Status = domain.StatusAnonymizing
	if err := s.save(ctx, project, "project.SubmitAnonymization"); err != nil {
		return nil, err
	}
	return project, nil
}

// UploadCorrection stores a corrected copy of a completed output under the
// next version number and returns that number.
func (s *projectService) UploadCorrection(ctx context.Context, projectID, userEmail string, data []byte) (int, error) {
	project, err := requireOwned(ctx, s.repo, projectID, userEmail)
	if err != nil {
		return 0, err
	}
	if project.Status != domain.StatusCompleted {
		return 0, domain.ErrProjectNotCompleted
	}
	if err := s.checkUpload(data); err != nil {
		return 0, err
	}

	version := project.CorrectionsCount + 1
	path := s.repo.CorrectionPath(project, version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, eris.Wrap(err, "project.UploadCorrection: mkdir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, eris.Wrap(err, "project.UploadCorrection: write")
	}
	project.CorrectionsCount = version
	if err := s.save(ctx, project, "project.UploadCorrection"); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *projectService) OutputPath(ctx context.Context, projectID, userEmail string) (*domain.Project, string, error) {
	return s.artifact(ctx, projectID, userEmail, s.repo.OutputPath)
}

func (s *projectService) AttentionPath(ctx context.Context, projectID, userEmail string) (*domain.Project, string, error) {
	return s.artifact(ctx, projectID, userEmail, s.repo.AttentionPath)
}

func (s *projectService) artifact(ctx context.Context, projectID, userEmail string, locate func(*domain.Project) string) (*domain.Project, string, error) {
	project, err := requireOwned(ctx, s.repo, projectID, userEmail)
	if err != nil {
		return nil, "", err
	}
	if project.Status != domain.StatusCompleted {
		return nil, "", domain.ErrProjectNotCompleted
	}
	path := locate(project)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", domain.ErrArtifactMissing
		}
		return nil, "", eris.Wrap(err, "project artifact")
	}
	return project, path, nil
}

// Delete removes the project directory and, when archiving is enabled, its
// archived artifacts. A running pipeline fails at its next disk operation.
func (s *projectService) Delete(ctx context.Context, projectID, userEmail string) error {
	if _, err := requireOwned(ctx, s.repo, projectID, userEmail); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, projectID); err != nil {
		return eris.Wrap(err, "project.Delete")
	}
	if s.archive != nil {
		if err := s.archive.DeletePrefix(ctx, ArchivePrefix(projectID)); err != nil {
			zap.L().Warn("failed to delete archived artifacts", zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return nil
}

// editable loads an owned project that is neither being generated nor
// completed. A completed project is final; changes go into a new project.
func (s *projectService) editable(ctx context.Context, projectID, userEmail string) (*domain.Project, error) {
	project, err := requireOwned(ctx, s.repo, projectID, userEmail)
	if err != nil {
		return nil, err
	}
	switch project.Status {
	case domain.StatusGenerating:
		return nil, domain.ErrGenerationInProgress
	case domain.StatusCompleted:
		return nil, domain.ErrGenerationCompleted
	}
	return project, nil
}

func (s *projectService) save(ctx context.Context, p *domain.Project, op string) error {
	if err := s.repo.Save(ctx, p); err != nil {
		return eris.Wrap(err, op)
	}
	return nil
}

// requireOwned loads a project and checks that userEmail owns it.
func requireOwned(ctx context.Context, repo port.ProjectRepository, projectID, userEmail string) (*domain.Project, error) {
	project, err := repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserEmail != userEmail {
		return nil, domain.ErrForbidden
	}
	return project, nil
}
