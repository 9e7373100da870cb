package service

import (
	"context"
	"io"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/matching"
)

type ProfileService interface {
	// CreateProfile registers the caller's profile; id and role come from the
	// authenticated actor.
	CreateProfile(ctx context.Context, actor domain.Actor, draft domain.ProfileDraft) (*domain.Profile, error)
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, draft domain.ProfileDraft) (*domain.Profile, error)
	UploadAvatar(ctx context.Context, actor domain.Actor, contentType string, r io.Reader) (*domain.Profile, error)
	OpenAvatar(ctx context.Context, key string) (io.ReadCloser, error)
}

type OpportunityService interface {
	CreateOpportunity(ctx context.Context, actor domain.Actor, draft domain.OpportunityDraft) (*domain.Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error)
	// ListOpportunities browses opportunities. actor may be nil.
	ListOpportunities(ctx context.Context, actor domain.Actor, filters matching.Filters) ([]domain.Opportunity, error)
	CloseOpportunity(ctx context.Context, actor domain.Actor, id string) (*domain.Opportunity, error)
	ReopenOpportunity(ctx context.Context, actor domain.Actor, id string) (*domain.Opportunity, error)
	ListMyOpportunities(ctx context.Context, actor domain.Actor) ([]domain.Opportunity, error)
	RecommendOpportunities(ctx context.Context, actor domain.Actor) ([]domain.Opportunity, error)
	ListCandidates(ctx context.Context, actor domain.Actor, opportunityID string) ([]matching.Candidate, error)
}

// ApplicationService is the only writer of application state and of
// opportunity status, manually_closed and accepted_count.
type ApplicationService interface {
	SubmitApplication(ctx context.Context, actor domain.Actor, opportunityID string, message *string, idempotencyKey string) (*domain.Application, error)
	DecideApplication(ctx context.Context, actor domain.Actor, applicationID string, decision domain.Decision, idempotencyKey string) (*domain.Application, error)
	WithdrawApplication(ctx context.Context, actor domain.Actor, applicationID string, idempotencyKey string) (*domain.Application, error)
	CloseOpportunity(ctx context.Context, actor domain.Actor, opportunityID string) (*domain.Opportunity, error)
	ReopenOpportunity(ctx context.Context, actor domain.Actor, opportunityID string) (*domain.Opportunity, error)
	GetApplication(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error)
	ListMyApplications(ctx context.Context, actor domain.Actor) ([]domain.Application, error)
	ListOpportunityApplications(ctx context.Context, actor domain.Actor, opportunityID string) ([]domain.Application, error)
}

type DashboardService interface {
	GetDashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, actor domain.Actor, notificationID int64) error
	ListApplicationMessages(ctx context.Context, actor domain.Actor, applicationID string) ([]domain.Message, error)
}

// Notifier is told after a commit that appended outbox events.
type Notifier interface {
	Notify()
}
