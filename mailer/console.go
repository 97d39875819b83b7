package mailer

import (
	"context"
	"log/slog"
)

type consoleService struct {
	logger *slog.Logger
}

var _ Service = (*consoleService)(nil)

// NewConsole creates a Service that logs messages instead of delivering
// them. Used in development and whenever no mail credentials are configured.
func NewConsole(logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &consoleService{logger: logger}
}

func (svc *consoleService) Send(_ context.Context, messages []Message) SendReport {
	for _, msg := range messages {
		svc.logger.Info("email (console delivery)",
			slog.String("to", msg.To.Email),
			slog.String("subject", msg.Subject),
			slog.String("body", msg.TextBody))
	}
	return SendReport{Sent: len(messages)}
}
