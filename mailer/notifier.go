package mailer

import (
	"context"

	"go.uber.org/zap"
)

// Notifier sends best-effort mail. Failures are logged with the request id
// and reported to the caller as false, never as an error.
type Notifier struct {
	sender  Sender
	logger  *zap.Logger
	outcome string
}

func NewNotifier(sender Sender, logger *zap.Logger) *Notifier {
	outcome := "email delivered"
	if _, ok := sender.(*QueueSender); ok {
		outcome = "email enqueued"
	}
	return &Notifier{sender: sender, logger: logger, outcome: outcome}
}

func (n *Notifier) Deliver(ctx context.Context, msg Message) bool {
	fields := []zap.Field{
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("request_id", msg.RequestID),
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("email delivery failed", append(fields, zap.Error(err))...)
		return false
	}
	n.logger.Info(n.outcome, fields...)
	return true
}
