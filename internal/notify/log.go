package notify

import (
	"context"
	"log/slog"
)

// LogSender writes notifications to the log and always succeeds. It is the
// development default.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string {
	return "log"
}

// Send logs the recipient and subject. The body is omitted because it
// carries the reviewer's email address.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "log sender: notification sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.Int("body_bytes", len(msg.Body)),
	)
	return nil
}
