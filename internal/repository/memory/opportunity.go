package memory

import (
	"context"
	"sort"
	"time"

	"skillbridge-backend/internal/domain"
)

type opportunityRepository struct {
	with access
}

func copyOpportunity(o domain.Opportunity) *domain.Opportunity {
	o.RequiredSkills = cloneStrings(o.RequiredSkills)
	if o.Capacity != nil {
		c := *o.Capacity
		o.Capacity = &c
	}
	return &o
}

func (r *opportunityRepository) Create(ctx context.Context, o *domain.Opportunity) error {
	return r.with(ctx, func(st *state) error {
		if _, exists := st.opportunities[o.ID]; exists {
			return domain.NewError(domain.KindValidation, "opportunity %s already exists", o.ID)
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = time.Now().UTC()
		}
		o.UpdatedAt = o.CreatedAt
		stored := copyOpportunity(*o)
		stored.NGOName = ""
		st.opportunities[o.ID] = *stored
		return nil
	})
}

func (r *opportunityRepository) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	var out *domain.Opportunity
	err := r.with(ctx, func(st *state) error {
		o, ok := st.opportunities[id]
		if !ok {
			return domain.NewError(domain.KindNotFound, "opportunity %s not found", id)
		}
		out = copyOpportunity(o)
		return nil
	})
	return out, err
}

// Transactions are fully serialized, so row locks reduce to plain reads.
func (r *opportunityRepository) GetForUpdate(ctx context.Context, id string) (*domain.Opportunity, error) {
	return r.GetByID(ctx, id)
}

func (r *opportunityRepository) GetForShare(ctx context.Context, id string) (*domain.Opportunity, error) {
	return r.GetByID(ctx, id)
}

func (r *opportunityRepository) UpdateStatus(ctx context.Context, o *domain.Opportunity) error {
	return r.with(ctx, func(st *state) error {
		cur, ok := st.opportunities[o.ID]
		if !ok {
			return domain.NewError(domain.KindNotFound, "opportunity %s not found", o.ID)
		}
		o.UpdatedAt = time.Now().UTC()
		cur.Status = o.Status
		cur.ManuallyClosed = o.ManuallyClosed
		cur.AcceptedCount = o.AcceptedCount
		cur.UpdatedAt = o.UpdatedAt
		st.opportunities[o.ID] = cur
		return nil
	})
}

func (r *opportunityRepository) list(ctx context.Context, keep func(o *domain.Opportunity) bool) ([]domain.Opportunity, error) {
	var out []domain.Opportunity
	err := r.with(ctx, func(st *state) error {
		for _, o := range st.opportunities {
			if !keep(&o) {
				continue
			}
			c := copyOpportunity(o)
			if ngo, ok := st.profiles[o.NGOID]; ok {
				c.NGOName = ngo.DisplayName()
			}
			out = append(out, *c)
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

func (r *opportunityRepository) ListByStatus(ctx context.Context, statuses []domain.OpportunityStatus) ([]domain.Opportunity, error) {
	return r.list(ctx, func(o *domain.Opportunity) bool {
		for _, s := range statuses {
			if o.Status == s {
				return true
			}
		}
		return false
	})
}

func (r *opportunityRepository) ListByNGO(ctx context.Context, ngoID string) ([]domain.Opportunity, error) {
	return r.list(ctx, func(o *domain.Opportunity) bool { return o.NGOID == ngoID })
}
