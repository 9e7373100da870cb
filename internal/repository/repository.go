package repository

import (
	"context"

	"skillbridge-backend/internal/domain"
)

type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	// ListVolunteersWithAnySkill returns volunteer profiles sharing at least
	// one tag with skills.
	ListVolunteersWithAnySkill(ctx context.Context, skills []string) ([]domain.Profile, error)
}

type OpportunityRepository interface {
	Create(ctx context.Context, o *domain.Opportunity) error
	GetByID(ctx context.Context, id string) (*domain.Opportunity, error)
	// GetForUpdate locks the row exclusively until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Opportunity, error)
	// GetForShare locks the row against status and counter writes until the
	// transaction ends while letting other submitters read it.
	GetForShare(ctx context.Context, id string) (*domain.Opportunity, error)
	// UpdateStatus persists status, manually_closed and accepted_count.
	UpdateStatus(ctx context.Context, o *domain.Opportunity) error
	ListByStatus(ctx context.Context, statuses []domain.OpportunityStatus) ([]domain.Opportunity, error)
	ListByNGO(ctx context.Context, ngoID string) ([]domain.Opportunity, error)
}

type ApplicationRepository interface {
	// Create fails with domain.ErrAlreadyApplied when an active application
	// for the same pair exists.
	Create(ctx context.Context, a *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Application, error)
	Update(ctx context.Context, a *domain.Application) error
	FindActive(ctx context.Context, opportunityID, volunteerID string) (*domain.Application, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]domain.Application, error)
	ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Application, error)
	CountByVolunteer(ctx context.Context, volunteerID string) (map[domain.ApplicationState]int, error)
	CountByNGO(ctx context.Context, ngoID string) (map[domain.ApplicationState]int, error)
}

type OutboxRepository interface {
	// Append assigns e.ID. It must run in the transaction that caused e.
	Append(ctx context.Context, e *domain.Event) error
	ListPending(ctx context.Context, limit int) ([]domain.Event, error)
	MarkDelivered(ctx context.Context, id int64) error
	// MarkFailed records a failed attempt and moves the event to dead once
	// attempts reach maxAttempts.
	MarkFailed(ctx context.Context, id int64, lastErr string, maxAttempts int) error
	PurgeDelivered(ctx context.Context, olderThanDays int) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, profileID string, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id int64, profileID string) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	ListByApplication(ctx context.Context, applicationID string) ([]domain.Message, error)
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Profiles() ProfileRepository
	Opportunities() OpportunityRepository
	Applications() ApplicationRepository
	Outbox() OutboxRepository
}

// Transactor runs fn in a transaction, committing when fn returns nil and
// rolling back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
