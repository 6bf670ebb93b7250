// internal/notify/log.go
package notify

import (
	"context"

	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/models"
)

// LogNotifier records events in the log only. It is used when no delivery
// channel is enabled.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithFields(map[string]interface{}{"component": "notifier"})}
}

func (n *LogNotifier) Notify(_ context.Context, note models.Notification) error {
	n.logger.Info("notification", map[string]interface{}{
		"notificationId": note.ID,
		"event":          string(note.Event),
		"recipientType":  string(note.RecipientType),
		"recipientId":    note.RecipientID,
		"leadId":         note.LeadID,
	})
	metrics.Notifications.WithLabelValues(string(note.Event), "logged").Inc()
	return nil
}
