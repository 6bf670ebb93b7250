// internal/notify/aws.go
package notify

import (
	"context"
	"fmt"

	awsclients "matching-workers/internal/common/aws"
	"matching-workers/internal/common/config"
	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"golang.org/x/time/rate"
)

const (
	statusSent     = "sent"
	statusFailed   = "failed"
	statusSkipped  = "skipped"
	statusDisabled = "disabled"
)

type Settings struct {
	EmailEnabled     bool
	SMSEnabled       bool
	FromEmail        string
	SenderID         string
	CoordinatorEmail string
	// SMSUrgencyThreshold is the lowest lead urgency that also goes out by SMS.
	SMSUrgencyThreshold models.UrgencyLevel
	RatePerSecond       float64
}

func SettingsFromConfig(cfg config.NotificationConfig) Settings {
	return Settings{
		EmailEnabled:        cfg.Email.Enabled,
		SMSEnabled:          cfg.SMS.Enabled,
		FromEmail:           cfg.Email.FromEmail,
		SenderID:            cfg.SMS.SenderID,
		CoordinatorEmail:    cfg.CoordinatorEmail,
		SMSUrgencyThreshold: models.UrgencyLevel(cfg.SMS.UrgencyThreshold),
		RatePerSecond:       cfg.RatePerSecond,
	}
}

// AWSNotifier sends engine events by SES email and, for urgent leads, SNS SMS.
type AWSNotifier struct {
	settings  Settings
	ses       awsclients.SESAPI
	sns       awsclients.SNSAPI
	contacts  ContactDirectory
	limiter   *rate.Limiter
	templates map[models.NotificationEvent]models.NotificationTemplate
	logger    logger.Logger
}

func NewAWSNotifier(settings Settings, sesClient awsclients.SESAPI, snsClient awsclients.SNSAPI, contacts ContactDirectory, log logger.Logger) *AWSNotifier {
	limit := rate.Inf
	if settings.RatePerSecond > 0 {
		limit = rate.Limit(settings.RatePerSecond)
	}
	return &AWSNotifier{
		settings:  settings,
		ses:       sesClient,
		sns:       snsClient,
		contacts:  contacts,
		limiter:   rate.NewLimiter(limit, 1),
		templates: defaultTemplates,
		logger:    log.WithFields(map[string]interface{}{"component": "notifier"}),
	}
}

func (n *AWSNotifier) Notify(ctx context.Context, note models.Notification) error {
	event := string(note.Event)

	tmpl, ok := n.templates[note.Event]
	if !ok {
		metrics.Notifications.WithLabelValues(event, statusFailed).Inc()
		return apperrors.NewNotificationSendFailedError(event, fmt.Errorf("no template for event"))
	}

	contact, err := n.resolve(ctx, note)
	if err != nil {
		if apperrors.IsNotFound(err) {
			n.logger.Warn("notification recipient not found", map[string]interface{}{
				"event":         event,
				"recipientType": string(note.RecipientType),
				"recipientId":   note.RecipientID,
			})
			metrics.Notifications.WithLabelValues(event, statusSkipped).Inc()
			return nil
		}
		metrics.Notifications.WithLabelValues(event, statusFailed).Inc()
		return err
	}

	data := map[string]interface{}{
		"leadId":        note.LeadID,
		"urgency":       string(note.Urgency),
		"recipientName": contact.Name,
	}
	for k, v := range note.Payload {
		data[k] = v
	}
	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)

	sent := false
	if n.settings.EmailEnabled && contact.Email != "" {
		if err := n.sendEmail(ctx, contact.Email, subject, body); err != nil {
			metrics.Notifications.WithLabelValues(event, statusFailed).Inc()
			return apperrors.NewNotificationSendFailedError(event, err)
		}
		sent = true
	}

	if n.smsWanted(note) && contact.Phone != "" {
		if err := n.sendSMS(ctx, contact.Phone, body); err != nil {
			metrics.Notifications.WithLabelValues(event, statusFailed).Inc()
			return apperrors.NewNotificationSendFailedError(event, err)
		}
		sent = true
	}

	status := statusDisabled
	if sent {
		status = statusSent
	}
	metrics.Notifications.WithLabelValues(event, status).Inc()

	n.logger.Debug("notification processed", map[string]interface{}{
		"notificationId": note.ID,
		"event":          event,
		"leadId":         note.LeadID,
		"status":         status,
	})
	return nil
}

func (n *AWSNotifier) resolve(ctx context.Context, note models.Notification) (*Contact, error) {
	if note.RecipientType == models.RecipientCoordinator {
		return &Contact{Name: "Coordinator", Email: n.settings.CoordinatorEmail}, nil
	}
	return n.contacts.LookupContact(ctx, note.RecipientType, note.RecipientID)
}

func (n *AWSNotifier) smsWanted(note models.Notification) bool {
	if !n.settings.SMSEnabled || note.RecipientType == models.RecipientCoordinator {
		return false
	}
	threshold := n.settings.SMSUrgencyThreshold.Rank()
	return threshold > 0 && note.Urgency.Rank() >= threshold
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := n.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{ToAddresses: []string{to}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.settings.FromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, phone, message string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}
	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	}
	if n.settings.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(n.settings.SenderID)},
		}
	}
	_, err := n.sns.Publish(ctx, input)
	return err
}
