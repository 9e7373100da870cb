package memory

import (
	"context"
	"sort"
	"time"

	"skillbridge-backend/internal/domain"
)

type profileRepository struct {
	with access
}

func copyProfile(p domain.Profile) *domain.Profile {
	p.Skills = cloneStrings(p.Skills)
	return &p
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	return r.with(ctx, func(st *state) error {
		if _, exists := st.profiles[p.ID]; exists {
			return domain.NewError(domain.KindValidation, "profile %s already exists", p.ID)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = time.Now().UTC()
		}
		p.UpdatedAt = p.CreatedAt
		st.profiles[p.ID] = *copyProfile(*p)
		return nil
	})
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var out *domain.Profile
	err := r.with(ctx, func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return domain.NewError(domain.KindNotFound, "profile %s not found", id)
		}
		out = copyProfile(p)
		return nil
	})
	return out, err
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(ids))
	err := r.with(ctx, func(st *state) error {
		for _, id := range ids {
			if p, ok := st.profiles[id]; ok {
				out[id] = copyProfile(p)
			}
		}
		return nil
	})
	return out, err
}

func (r *profileRepository) Update(ctx context.Context, p *domain.Profile) error {
	return r.with(ctx, func(st *state) error {
		cur, ok := st.profiles[p.ID]
		if !ok {
			return domain.NewError(domain.KindNotFound, "profile %s not found", p.ID)
		}
		p.UpdatedAt = time.Now().UTC()
		cur.Name = p.Name
		cur.OrganizationName = p.OrganizationName
		cur.AvatarURL = p.AvatarURL
		cur.Email = p.Email
		cur.Skills = cloneStrings(p.Skills)
		cur.UpdatedAt = p.UpdatedAt
		st.profiles[p.ID] = cur
		return nil
	})
}

func (r *profileRepository) ListVolunteersWithAnySkill(ctx context.Context, skills []string) ([]domain.Profile, error) {
	want := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		want[s] = struct{}{}
	}
	var out []domain.Profile
	err := r.with(ctx, func(st *state) error {
		for _, p := range st.profiles {
			if p.Role != domain.RoleVolunteer {
				continue
			}
			for _, s := range p.Skills {
				if _, ok := want[s]; ok {
					out = append(out, *copyProfile(p))
					break
				}
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
