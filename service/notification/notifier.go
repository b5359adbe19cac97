package notification

import (
	"context"

	"go.uber.org/zap"
)

// Audience of a notice.
const (
	AudienceRequester = "requester"
	AudienceReviewers = "reviewers"
	AudienceAudit     = "audit"
)

// Notice is a rendered message for one destination.
type Notice struct {
	Destination string `json:"destination"`
	Audience    string `json:"audience"`
	Text        string `json:"text"`
	Event       *Event `json:"event"`
}

// Notifier delivers notices, e.g. as chat messages.
type Notifier interface {
	Notify(ctx context.Context, notice *Notice) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, notice *Notice) error

// Notify calls fn.
func (fn NotifierFunc) Notify(ctx context.Context, notice *Notice) error { return fn(ctx, notice) }

// LogNotifier writes notices to a zap logger.
type LogNotifier struct {
	logger *zap.Logger
}

// Notify logs the notice.
func (n *LogNotifier) Notify(_ context.Context, notice *Notice) error {
	fields := []zap.Field{
		zap.String("destination", notice.Destination),
		zap.String("audience", notice.Audience),
		zap.String("text", notice.Text),
	}
	if notice.Event != nil && notice.Event.Request != nil {
		fields = append(fields,
			zap.String("topic", notice.Event.Topic),
			zap.String("correlation_key", notice.Event.Request.CorrelationKey))
	}
	n.logger.Info("notice", fields...)
	return nil
}

// NewLogNotifier creates a log notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}
