package domain

import "time"

type ApplicationState string

const (
	ApplicationStatePending   ApplicationState = "pending"
	ApplicationStateAccepted  ApplicationState = "accepted"
	ApplicationStateRejected  ApplicationState = "rejected"
	ApplicationStateWithdrawn ApplicationState = "withdrawn"
)

// ApplicationAction is a transition request on an existing application.
type ApplicationAction string

const (
	ActionAccept   ApplicationAction = "accept"
	ActionReject   ApplicationAction = "reject"
	ActionWithdraw ApplicationAction = "withdraw"
)

// Decision is the NGO side of a transition.
type Decision = ApplicationAction

var transitions = map[ApplicationState]map[ApplicationAction]ApplicationState{
	ApplicationStatePending: {
		ActionAccept:   ApplicationStateAccepted,
		ActionReject:   ApplicationStateRejected,
		ActionWithdraw: ApplicationStateWithdrawn,
	},
	ApplicationStateAccepted: {
		ActionWithdraw: ApplicationStateWithdrawn,
	},
}

// NextState returns the state reached by applying action in from, or an
// InvalidState error for every pair outside the transition table.
func NextState(from ApplicationState, action ApplicationAction) (ApplicationState, error) {
	if to, ok := transitions[from][action]; ok {
		return to, nil
	}
	return "", NewError(KindInvalidState, "cannot %s an application that is %s", action, from)
}

type Application struct {
	ID            string           `json:"id"`
	OpportunityID string           `json:"opportunity_id"`
	VolunteerID   string           `json:"volunteer_id"`
	State         ApplicationState `json:"state"`
	Message       *string          `json:"message"`
	CreatedAt     time.Time        `json:"created_at"`
	DecidedAt     *time.Time       `json:"decided_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Active applications count against the one-per-pair rule.
func (a *Application) Active() bool {
	return a.State != ApplicationStateWithdrawn
}

// Apply performs action. The application is left untouched on error.
func (a *Application) Apply(action ApplicationAction, now time.Time) error {
	to, err := NextState(a.State, action)
	if err != nil {
		return err
	}
	a.State = to
	a.UpdatedAt = now
	if action == ActionAccept || action == ActionReject {
		decided := now
		a.DecidedAt = &decided
	}
	return nil
}
