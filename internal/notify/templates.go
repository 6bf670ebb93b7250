// internal/notify/templates.go
package notify

import (
	"fmt"
	"strings"

	"matching-workers/internal/models"
)

var defaultTemplates = map[models.NotificationEvent]models.NotificationTemplate{
	models.EventLeadAssigned: {
		Subject: "New {{serviceType}} lead in {{province}}",
		Body:    "Hello {{recipientName}}, a new {{urgency}} urgency {{serviceType}} lead ({{leadId}}) in {{province}} has been offered to you. Please accept or decline it.",
	},
	models.EventLeadAccepted: {
		Subject: "A contractor accepted your request",
		Body:    "Hello {{recipientName}}, a contractor has accepted your request {{leadId}} and will contact you shortly.",
	},
	models.EventLeadDeclined: {
		Subject: "Lead {{leadId}} declined",
		Body:    "Contractor {{contractorId}} declined lead {{leadId}}. Reason: {{declineReason}}",
	},
	models.EventLeadReassigned: {
		Subject: "Lead {{leadId}} reassigned",
		Body:    "All offered contractors declined lead {{leadId}}. It was offered to {{contractors}} (confidence {{confidence}}%).",
	},
	models.EventManualAssignmentNeeded: {
		Subject: "Manual assignment required for lead {{leadId}}",
		Body:    "No eligible contractors remain for {{urgency}} urgency {{serviceType}} lead {{leadId}} in {{province}}. Already declined: {{excluded}}.",
	},
}

// renderTemplate replaces {{key}} placeholders and drops any left without a value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case []string:
			value = strings.Join(t, ", ")
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
