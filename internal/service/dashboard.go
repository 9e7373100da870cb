package service

import (
	"context"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/repository"
)

type dashboardService struct {
	profiles repository.ProfileRepository
	opps     repository.OpportunityRepository
	apps     repository.ApplicationRepository
}

func NewDashboardService(profiles repository.ProfileRepository, opps repository.OpportunityRepository, apps repository.ApplicationRepository) DashboardService {
	return &dashboardService{profiles: profiles, opps: opps, apps: apps}
}

func total(counts map[domain.ApplicationState]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func (s *dashboardService) GetDashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error) {
	switch act := actor.(type) {
	case domain.NgoAdmin:
		opps, err := s.opps.ListByNGO(ctx, act.ID)
		if err != nil {
			return nil, err
		}
		counts, err := s.apps.CountByNGO(ctx, act.ID)
		if err != nil {
			return nil, err
		}
		return &domain.Dashboard{
			Role:             domain.RoleNGO,
			Opportunities:    len(opps),
			Applications:     total(counts),
			ActiveVolunteers: counts[domain.ApplicationStateAccepted],
			Pending:          counts[domain.ApplicationStatePending],
		}, nil
	case domain.Volunteer:
		profile, err := s.profiles.GetByID(ctx, act.ID)
		if err != nil {
			return nil, err
		}
		counts, err := s.apps.CountByVolunteer(ctx, act.ID)
		if err != nil {
			return nil, err
		}
		return &domain.Dashboard{
			Role:         domain.RoleVolunteer,
			Applications: total(counts),
			Accepted:     counts[domain.ApplicationStateAccepted],
			Pending:      counts[domain.ApplicationStatePending],
			Skills:       len(profile.Skills),
		}, nil
	default:
		return nil, domain.ErrNotAuthorized
	}
}
