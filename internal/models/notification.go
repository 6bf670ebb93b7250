// internal/models/notification.go
package models

type NotificationEvent string

const (
	EventLeadAssigned           NotificationEvent = "LEAD_ASSIGNED"
	EventLeadAccepted           NotificationEvent = "LEAD_ACCEPTED"
	EventLeadDeclined           NotificationEvent = "LEAD_DECLINED"
	EventLeadReassigned         NotificationEvent = "LEAD_REASSIGNED"
	EventManualAssignmentNeeded NotificationEvent = "MANUAL_ASSIGNMENT_REQUIRED"
)

type RecipientType string

const (
	RecipientContractor  RecipientType = "contractor"
	RecipientCustomer    RecipientType = "customer"
	RecipientCoordinator RecipientType = "coordinator"
)

// Notification is one event handed to the notifier. Payload carries template data.
type Notification struct {
	ID            string                 `json:"id"`
	Event         NotificationEvent      `json:"event"`
	RecipientID   string                 `json:"recipientId,omitempty"`
	RecipientType RecipientType          `json:"recipientType"`
	LeadID        string                 `json:"leadId"`
	Urgency       UrgencyLevel           `json:"urgency,omitempty"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
}

type NotificationTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
