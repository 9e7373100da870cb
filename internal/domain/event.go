package domain

import "time"

type EventType string

const (
	EventApplicationSubmitted EventType = "application.submitted"
	EventApplicationAccepted  EventType = "application.accepted"
	EventApplicationRejected  EventType = "application.rejected"
	EventApplicationWithdrawn EventType = "application.withdrawn"
	EventOpportunityClosed    EventType = "opportunity.closed"
	EventOpportunityReopened  EventType = "opportunity.reopened"
)

type EventStatus string

const (
	EventStatusPending   EventStatus = "pending"
	EventStatusDelivered EventStatus = "delivered"
	EventStatusDead      EventStatus = "dead"
)

// Payload keys shared by producers and sinks.
const (
	PayloadApplicationID    = "application_id"
	PayloadOpportunityID    = "opportunity_id"
	PayloadOpportunityTitle = "opportunity_title"
	PayloadVolunteerID      = "volunteer_id"
	PayloadNGOID            = "ngo_id"
	PayloadState            = "state"
	PayloadStatus           = "status"
)

// Event is an outbox row. Events sharing an AggregateID are delivered in ID
// order.
type Event struct {
	ID          int64             `json:"id"`
	Type        EventType         `json:"type"`
	AggregateID string            `json:"aggregate_id"`
	Payload     map[string]string `json:"payload"`
	Status      EventStatus       `json:"status"`
	Attempts    int               `json:"attempts"`
	LastError   string            `json:"last_error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}

// NewApplicationEvent describes a transition of app on opp.
func NewApplicationEvent(t EventType, app *Application, opp *Opportunity) *Event {
	return &Event{
		Type:        t,
		AggregateID: app.ID,
		Payload: map[string]string{
			PayloadApplicationID:    app.ID,
			PayloadOpportunityID:    opp.ID,
			PayloadOpportunityTitle: opp.Title,
			PayloadVolunteerID:      app.VolunteerID,
			PayloadNGOID:            opp.NGOID,
			PayloadState:            string(app.State),
		},
	}
}

// NewOpportunityEvent describes a status change of opp.
func NewOpportunityEvent(t EventType, opp *Opportunity) *Event {
	return &Event{
		Type:        t,
		AggregateID: opp.ID,
		Payload: map[string]string{
			PayloadOpportunityID:    opp.ID,
			PayloadOpportunityTitle: opp.Title,
			PayloadNGOID:            opp.NGOID,
			PayloadStatus:           string(opp.Status),
		},
	}
}

// RecipientID is the profile a person-facing sink should address: the NGO for
// submissions, withdrawals and opportunity changes, the volunteer for
// decisions.
func (e *Event) RecipientID() string {
	switch e.Type {
	case EventApplicationAccepted, EventApplicationRejected:
		return e.Payload[PayloadVolunteerID]
	default:
		return e.Payload[PayloadNGOID]
	}
}
