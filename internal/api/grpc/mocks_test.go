package grpc

import (
	"context"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/matching"

	"github.com/stretchr/testify/mock"
)

type MockOpportunityService struct {
	mock.Mock
}

func (m *MockOpportunityService) CreateOpportunity(ctx context.Context, actor domain.Actor, draft domain.OpportunityDraft) (*domain.Opportunity, error) {
	args := m.Called(ctx, actor, draft)
	if o := args.Get(0); o != nil {
		return o.(*domain.Opportunity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOpportunityService) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Opportunity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOpportunityService) ListOpportunities(ctx context.Context, actor domain.Actor, filters matching.Filters) ([]domain.Opportunity, error) {
	args := m.Called(ctx, actor, filters)
	return args.Get(0).([]domain.Opportunity), args.Error(1)
}

func (m *MockOpportunityService) CloseOpportunity(ctx context.Context, actor domain.Actor, id string) (*domain.Opportunity, error) {
	args := m.Called(ctx, actor, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Opportunity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOpportunityService) ReopenOpportunity(ctx context.Context, actor domain.Actor, id string) (*domain.Opportunity, error) {
	args := m.Called(ctx, actor, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Opportunity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOpportunityService) ListMyOpportunities(ctx context.Context, actor domain.Actor) ([]domain.Opportunity, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Opportunity), args.Error(1)
}

func (m *MockOpportunityService) RecommendOpportunities(ctx context.Context, actor domain.Actor) ([]domain.Opportunity, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Opportunity), args.Error(1)
}

func (m *MockOpportunityService) ListCandidates(ctx context.Context, actor domain.Actor, opportunityID string) ([]matching.Candidate, error) {
	args := m.Called(ctx, actor, opportunityID)
	return args.Get(0).([]matching.Candidate), args.Error(1)
}

type MockApplicationService struct {
	mock.Mock
}

func (m *MockApplicationService) application(args mock.Arguments) (*domain.Application, error) {
	if a := args.Get(0); a != nil {
		return a.(*domain.Application), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) SubmitApplication(ctx context.Context, actor domain.Actor, opportunityID string, message *string, idempotencyKey string) (*domain.Application, error) {
	return m.application(m.Called(ctx, actor, opportunityID, message, idempotencyKey))
}

func (m *MockApplicationService) DecideApplication(ctx context.Context, actor domain.Actor, applicationID string, decision domain.Decision, idempotencyKey string) (*domain.Application, error) {
	return m.application(m.Called(ctx, actor, applicationID, decision, idempotencyKey))
}

func (m *MockApplicationService) WithdrawApplication(ctx context.Context, actor domain.Actor, applicationID string, idempotencyKey string) (*domain.Application, error) {
	return m.application(m.Called(ctx, actor, applicationID, idempotencyKey))
}

func (m *MockApplicationService) CloseOpportunity(ctx context.Context, actor domain.Actor, opportunityID string) (*domain.Opportunity, error) {
	args := m.Called(ctx, actor, opportunityID)
	if o := args.Get(0); o != nil {
		return o.(*domain.Opportunity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) ReopenOpportunity(ctx context.Context, actor domain.Actor, opportunityID string) (*domain.Opportunity, error) {
	args := m.Called(ctx, actor, opportunityID)
	if o := args.Get(0); o != nil {
		return o.(*domain.Opportunity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockApplicationService) GetApplication(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error) {
	return m.application(m.Called(ctx, actor, id))
}

func (m *MockApplicationService) ListMyApplications(ctx context.Context, actor domain.Actor) ([]domain.Application, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).([]domain.Application), args.Error(1)
}

func (m *MockApplicationService) ListOpportunityApplications(ctx context.Context, actor domain.Actor, opportunityID string) ([]domain.Application, error) {
	args := m.Called(ctx, actor, opportunityID)
	return args.Get(0).([]domain.Application), args.Error(1)
}

