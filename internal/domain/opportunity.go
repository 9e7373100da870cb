package domain

import "time"

type OpportunityStatus string

const (
	OpportunityStatusOpen   OpportunityStatus = "open"
	OpportunityStatusClosed OpportunityStatus = "closed"
)

func (s OpportunityStatus) Valid() bool {
	return s == OpportunityStatusOpen || s == OpportunityStatusClosed
}

type Opportunity struct {
	ID             string            `json:"id"`
	NGOID          string            `json:"ngo_id"`
	NGOName        string            `json:"ngo_name,omitempty"` // Populated when listing
	Title          string            `json:"title"`
	Description    *string           `json:"description"`
	RequiredSkills []string          `json:"required_skills"`
	Duration       *string           `json:"duration"`
	Location       *string           `json:"location"`
	Status         OpportunityStatus `json:"status"`
	// Capacity is the maximum number of accepted applications; nil is unbounded.
	Capacity       *int      `json:"capacity"`
	AcceptedCount  int       `json:"accepted_count"`
	ManuallyClosed bool      `json:"manually_closed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (o *Opportunity) OwnedBy(profileID string) bool {
	return o.NGOID == profileID
}

// IsFull reports whether a finite capacity has been reached.
func (o *Opportunity) IsFull() bool {
	return o.Capacity != nil && o.AcceptedCount >= *o.Capacity
}

type OpportunityDraft struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    *string  `json:"description" validate:"omitempty,max=5000"`
	RequiredSkills []string `json:"required_skills" validate:"max=25"`
	Duration       *string  `json:"duration" validate:"omitempty,max=100"`
	Location       *string  `json:"location" validate:"omitempty,max=200"`
	Capacity       *int     `json:"capacity" validate:"omitempty,min=1"`
}
