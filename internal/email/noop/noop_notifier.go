// Package noop provides a Notifier that only logs completion notices.
package noop

import (
	"context"

	"go.uber.org/zap"

	"pasassistant/internal/port"
)

type noopNotifier struct{}

// NewNoopNotifier creates a Notifier that logs the download link instead of sending mail.
func NewNoopNotifier() port.Notifier {
	return &noopNotifier{}
}

func (n *noopNotifier) SendCompletionEmail(_ context.Context, notice port.CompletionNotice) error {
	zap.L().Info("[NOOP EMAIL] completion notice",
		zap.String("to", notice.ToEmail),
		zap.String("project_id", notice.ProjectID),
		zap.Int("questions", notice.QuestionCount),
		zap.String("download_url", notice.DownloadURL))
	return nil
}
