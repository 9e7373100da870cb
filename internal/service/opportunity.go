package service

import (
	"context"
	"errors"
	"strings"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/matching"
	"skillbridge-backend/internal/repository"
	"skillbridge-backend/internal/skills"

	"github.com/google/uuid"
)

type opportunityService struct {
	opps      repository.OpportunityRepository
	profiles  repository.ProfileRepository
	lifecycle ApplicationService
}

func NewOpportunityService(
	opps repository.OpportunityRepository,
	profiles repository.ProfileRepository,
	lifecycle ApplicationService,
) OpportunityService {
	return &opportunityService{
		opps:      opps,
		profiles:  profiles,
		lifecycle: lifecycle,
	}
}

func (s *opportunityService) requireNGO(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only organizations can manage opportunities")
	}
	profile, err := s.profiles.GetByID(ctx, ngo.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.KindNotAuthorized, "organization profile %s does not exist", ngo.ID)
		}
		return nil, err
	}
	if profile.Role != domain.RoleNGO {
		return nil, domain.NewError(domain.KindNotAuthorized, "profile %s is not an organization", ngo.ID)
	}
	return profile, nil
}

func (s *opportunityService) CreateOpportunity(ctx context.Context, actor domain.Actor, draft domain.OpportunityDraft) (*domain.Opportunity, error) {
	logger.EnterMethod("opportunityService.CreateOpportunity", "title", draft.Title)

	ngo, err := s.requireNGO(ctx, actor)
	if err != nil {
		logger.ExitMethodWithError("opportunityService.CreateOpportunity", err)
		return nil, err
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = cleanOptional(draft.Description)
	draft.Duration = cleanOptional(draft.Duration)
	draft.Location = cleanOptional(draft.Location)
	if err := validateStruct(draft); err != nil {
		logger.ExitMethodWithError("opportunityService.CreateOpportunity", err)
		return nil, err
	}
	required, err := skills.CanonicalSet(draft.RequiredSkills)
	if err != nil {
		return nil, err
	}

	o := &domain.Opportunity{
		ID:             uuid.NewString(),
		NGOID:          ngo.ID,
		Title:          draft.Title,
		Description:    draft.Description,
		RequiredSkills: required,
		Duration:       draft.Duration,
		Location:       draft.Location,
		Status:         domain.OpportunityStatusOpen,
		Capacity:       draft.Capacity,
	}
	if err := s.opps.Create(ctx, o); err != nil {
		logger.ExitMethodWithError("opportunityService.CreateOpportunity", err)
		return nil, err
	}
	o.NGOName = ngo.DisplayName()

	logger.ExitMethod("opportunityService.CreateOpportunity", "opportunityID", o.ID)
	return o, nil
}

func (s *opportunityService) GetOpportunity(ctx context.Context, id string) (*domain.Opportunity, error) {
	o, err := s.opps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ngo, err := s.profiles.GetByID(ctx, o.NGOID); err == nil {
		o.NGOName = ngo.DisplayName()
	}
	return o, nil
}

func (s *opportunityService) ListOpportunities(ctx context.Context, actor domain.Actor, filters matching.Filters) ([]domain.Opportunity, error) {
	pool, err := s.opps.ListByStatus(ctx, filters.StatusSet())
	if err != nil {
		return nil, err
	}

	var volunteer *domain.Profile
	if v, ok := actor.(domain.Volunteer); ok && filters.UseProfileSkills {
		volunteer, err = s.profiles.GetByID(ctx, v.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	return matching.Match(volunteer, pool, filters), nil
}

func (s *opportunityService) CloseOpportunity(ctx context.Context, actor domain.Actor, id string) (*domain.Opportunity, error) {
	return s.lifecycle.CloseOpportunity(ctx, actor, id)
}

func (s *opportunityService) ReopenOpportunity(ctx context.Context, actor domain.Actor, id string) (*domain.Opportunity, error) {
	return s.lifecycle.ReopenOpportunity(ctx, actor, id)
}

func (s *opportunityService) ListMyOpportunities(ctx context.Context, actor domain.Actor) ([]domain.Opportunity, error) {
	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only organizations post opportunities")
	}
	return s.opps.ListByNGO(ctx, ngo.ID)
}

// RecommendOpportunities lists open opportunities sharing a skill with the
// volunteer's profile.
func (s *opportunityService) RecommendOpportunities(ctx context.Context, actor domain.Actor) ([]domain.Opportunity, error) {
	v, ok := actor.(domain.Volunteer)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "recommendations are for volunteers")
	}
	profile, err := s.profiles.GetByID(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	if len(profile.Skills) == 0 {
		return []domain.Opportunity{}, nil
	}
	f := matching.Filters{UseProfileSkills: true}
	pool, err := s.opps.ListByStatus(ctx, f.StatusSet())
	if err != nil {
		return nil, err
	}
	return matching.Match(profile, pool, f), nil
}

func (s *opportunityService) ListCandidates(ctx context.Context, actor domain.Actor, opportunityID string) ([]matching.Candidate, error) {
	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only the posting organization can list candidates")
	}
	o, err := s.opps.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(ngo.ID) {
		return nil, domain.NewError(domain.KindNotAuthorized, "opportunity %s belongs to another organization", opportunityID)
	}
	pool, err := s.profiles.ListVolunteersWithAnySkill(ctx, o.RequiredSkills)
	if err != nil {
		return nil, err
	}
	return matching.MatchVolunteers(*o, pool), nil
}
