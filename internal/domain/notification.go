package domain

import "time"

type Notification struct {
	ID         int64             `json:"id"`
	ProfileID  string            `json:"profile_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Message is a persisted note on an application thread or a direct thread
// between two profiles. SenderID is nil for system messages.
type Message struct {
	ID            string    `json:"id"`
	ApplicationID *string   `json:"application_id,omitempty"`
	SenderID      *string   `json:"sender_id,omitempty"`
	RecipientID   string    `json:"recipient_id"`
	Body          string    `json:"body"`
	CreatedAt     time.Time `json:"created_at"`
}

// Dashboard holds the per-role counters shown on a profile's home page.
type Dashboard struct {
	Role             Role `json:"role"`
	Opportunities    int  `json:"opportunities,omitempty"`
	Applications     int  `json:"applications"`
	ActiveVolunteers int  `json:"active_volunteers,omitempty"`
	Accepted         int  `json:"accepted,omitempty"`
	Pending          int  `json:"pending"`
	Skills           int  `json:"skills,omitempty"`
}
