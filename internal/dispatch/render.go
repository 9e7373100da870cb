package dispatch

import (
	"fmt"

	"skillbridge-backend/internal/domain"
)

// render returns the human-readable title and body for e.
func render(e domain.Event) (string, string) {
	title := e.Payload[domain.PayloadOpportunityTitle]
	switch e.Type {
	case domain.EventApplicationSubmitted:
		return "New application", fmt.Sprintf("A volunteer applied to %q.", title)
	case domain.EventApplicationAccepted:
		return "Application accepted", fmt.Sprintf("Your application to %q was accepted.", title)
	case domain.EventApplicationRejected:
		return "Application not selected", fmt.Sprintf("Your application to %q was not selected this time.", title)
	case domain.EventApplicationWithdrawn:
		return "Application withdrawn", fmt.Sprintf("A volunteer withdrew their application to %q.", title)
	case domain.EventOpportunityClosed:
		return "Opportunity closed", fmt.Sprintf("%q is no longer accepting applications.", title)
	case domain.EventOpportunityReopened:
		return "Opportunity reopened", fmt.Sprintf("%q is accepting applications again.", title)
	default:
		return string(e.Type), title
	}
}

func isApplicationEvent(t domain.EventType) bool {
	switch t {
	case domain.EventApplicationSubmitted, domain.EventApplicationAccepted,
		domain.EventApplicationRejected, domain.EventApplicationWithdrawn:
		return true
	}
	return false
}
