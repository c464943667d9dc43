package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the lifecycle of a questionnaire project.
type ProjectStatus string

const (
	StatusCreated           ProjectStatus = "created"
	StatusStructureDetected ProjectStatus = "structure_detected"
	StatusCadrage           ProjectStatus = "cadrage"
	StatusAnonymizing       ProjectStatus = "anonymizing"
	StatusGenerating        ProjectStatus = "generating"
	StatusCompleted         ProjectStatus = "completed"
	StatusError             ProjectStatus = "error"
)

// Format is the questionnaire document format tag.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatDOCX Format = "docx"
)

// AllowedExtensions maps file extensions (without dot) to Format.
var AllowedExtensions = map[string]Format{
	"xlsx": FormatXLSX,
	"docx": FormatDOCX,
}

// ContentTypes maps Format to its MIME content type.
var ContentTypes = map[Format]string{
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// FormatFromFilename resolves the document format from a filename extension.
func FormatFromFilename(filename string) (Format, error) {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "", ErrUnsupportedFormat
	}
	f, ok := AllowedExtensions[strings.ToLower(filename[idx+1:])]
	if !ok {
		return "", ErrUnsupportedFormat
	}
	return f, nil
}

// Project is the persisted state of one questionnaire filling job.
type Project struct {
	ID                    string            `json:"id"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
	UserEmail             string            `json:"user_email"`
	Status                ProjectStatus     `json:"status"`
	OriginalFilename      string            `json:"original_filename"`
	Format                Format            `json:"format"`
	Structure             *StructureModel   `json:"structure"`
	Cadrage               map[string]any    `json:"cadrage"`
	Anonymization         map[string]string `json:"anonymization"`
	VerbosityLevel        int               `json:"verbosity_level"`
	LLMModel              string            `json:"llm_model"`
	ReferenceFilesUsed    []string          `json:"reference_files_used"`
	GenerationStartedAt   *time.Time        `json:"generation_started_at"`
	GenerationCompletedAt *time.Time        `json:"generation_completed_at"`
	ProgressStep          string            `json:"progress_step"`
	ProgressPct           int               `json:"progress_pct"`
	ErrorMessage          *string           `json:"error_message"`
	CorrectionsCount      int               `json:"corrections_count"`
}

// DefaultVerbosityLevel is applied when a cadrage does not set one.
const DefaultVerbosityLevel = 2

// NewProject creates a project in the created state with a fresh identifier.
func NewProject(userEmail, originalFilename string, format Format) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:                 NewProjectID(now),
		CreatedAt:          now,
		UpdatedAt:          now,
		UserEmail:          userEmail,
		Status:             StatusCreated,
		OriginalFilename:   originalFilename,
		Format:             format,
		Cadrage:            map[string]any{},
		Anonymization:      map[string]string{},
		VerbosityLevel:     DefaultVerbosityLevel,
		ReferenceFilesUsed: []string{},
	}
}

// NewProjectID returns an identifier of the form proj_<yyyymmdd>_<hhmmss>_<6 hex>.
func NewProjectID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	return fmt.Sprintf("proj_%s_%s", now.Format("20060102_150405"), suffix)
}

// SetError records a failure message on the project.
func (p *Project) SetError(msg string) {
	p.Status = StatusError
	p.ErrorMessage = &msg
}

// StatusView returns the polling read model of the project.
func (p *Project) StatusView() ProjectStatusView {
	return ProjectStatusView{
		ID:           p.ID,
		Status:       p.Status,
		ProgressStep: p.ProgressStep,
		ProgressPct:  p.ProgressPct,
		ErrorMessage: p.ErrorMessage,
	}
}

// ProjectStatusView is the status read model exposed to pollers.
type ProjectStatusView struct {
	ID           string        `json:"id"`
	Status       ProjectStatus `json:"status"`
	ProgressStep string        `json:"progress_step"`
	ProgressPct  int           `json:"progress_pct"`
	ErrorMessage *string       `json:"error_message"`
}
