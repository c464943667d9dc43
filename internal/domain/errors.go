package domain

import "github.com/rotisserie/eris"

var (
	ErrNotFound             = eris.New("resource not found")
	ErrUnauthorized         = eris.New("unauthorized")
	ErrForbidden            = eris.New("forbidden")
	ErrProjectNotFound      = eris.New("project not found")
	ErrUnsupportedFormat    = eris.New("unsupported document format")
	ErrEmptyFile            = eris.New("uploaded file is empty")
	ErrFileTooLarge         = eris.New("file exceeds maximum allowed size")
	ErrInvalidStructure     = eris.New("invalid document structure")
	ErrGenerationInProgress = eris.New("generation already in progress")
	ErrGenerationCompleted  = eris.New("generation already completed")
	ErrProjectNotCompleted  = eris.New("project generation is not completed")
	ErrArtifactMissing      = eris.New("project artifact not found on disk")
)
