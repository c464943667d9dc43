package port

import "context"

// CompletionNotice carries what a user is told when a generation finishes.
type CompletionNotice struct {
	ToEmail          string
	ProjectID        string
	OriginalFilename string
	QuestionCount    int
	AttentionCount   int
	DownloadURL      string
}

// Notifier defines the contract for telling users about finished generations.
type Notifier interface {
	SendCompletionEmail(ctx context.Context, notice CompletionNotice) error
}
