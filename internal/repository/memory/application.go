package memory

import (
	"context"
	"sort"
	"time"

	"skillbridge-backend/internal/domain"
)

type applicationRepository struct {
	with access
}

func copyApplication(a domain.Application) *domain.Application {
	if a.DecidedAt != nil {
		t := *a.DecidedAt
		a.DecidedAt = &t
	}
	return &a
}

func (r *applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	return r.with(ctx, func(st *state) error {
		for _, existing := range st.applications {
			if existing.OpportunityID == a.OpportunityID && existing.VolunteerID == a.VolunteerID && existing.Active() {
				return domain.ErrAlreadyApplied
			}
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		a.UpdatedAt = a.CreatedAt
		st.applications[a.ID] = *copyApplication(*a)
		return nil
	})
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var out *domain.Application
	err := r.with(ctx, func(st *state) error {
		a, ok := st.applications[id]
		if !ok {
			return domain.NewError(domain.KindNotFound, "application %s not found", id)
		}
		out = copyApplication(a)
		return nil
	})
	return out, err
}

func (r *applicationRepository) GetForUpdate(ctx context.Context, id string) (*domain.Application, error) {
	return r.GetByID(ctx, id)
}

func (r *applicationRepository) Update(ctx context.Context, a *domain.Application) error {
	return r.with(ctx, func(st *state) error {
		cur, ok := st.applications[a.ID]
		if !ok {
			return domain.NewError(domain.KindNotFound, "application %s not found", a.ID)
		}
		cur.State = a.State
		cur.DecidedAt = a.DecidedAt
		cur.UpdatedAt = a.UpdatedAt
		st.applications[a.ID] = *copyApplication(cur)
		return nil
	})
}

func (r *applicationRepository) FindActive(ctx context.Context, opportunityID, volunteerID string) (*domain.Application, error) {
	var out *domain.Application
	err := r.with(ctx, func(st *state) error {
		for _, a := range st.applications {
			if a.OpportunityID == opportunityID && a.VolunteerID == volunteerID && a.Active() {
				out = copyApplication(a)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *applicationRepository) list(ctx context.Context, keep func(a *domain.Application) bool) ([]domain.Application, error) {
	var out []domain.Application
	err := r.with(ctx, func(st *state) error {
		for _, a := range st.applications {
			if keep(&a) {
				out = append(out, *copyApplication(a))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r *applicationRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]domain.Application, error) {
	return r.list(ctx, func(a *domain.Application) bool { return a.VolunteerID == volunteerID })
}

func (r *applicationRepository) ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Application, error) {
	return r.list(ctx, func(a *domain.Application) bool { return a.OpportunityID == opportunityID })
}

func (r *applicationRepository) CountByVolunteer(ctx context.Context, volunteerID string) (map[domain.ApplicationState]int, error) {
	counts := make(map[domain.ApplicationState]int)
	err := r.with(ctx, func(st *state) error {
		for _, a := range st.applications {
			if a.VolunteerID == volunteerID {
				counts[a.State]++
			}
		}
		return nil
	})
	return counts, err
}

func (r *applicationRepository) CountByNGO(ctx context.Context, ngoID string) (map[domain.ApplicationState]int, error) {
	counts := make(map[domain.ApplicationState]int)
	err := r.with(ctx, func(st *state) error {
		for _, a := range st.applications {
			if o, ok := st.opportunities[a.OpportunityID]; ok && o.NGOID == ngoID {
				counts[a.State]++
			}
		}
		return nil
	})
	return counts, err
}
