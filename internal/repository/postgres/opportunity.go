package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"

	"github.com/lib/pq"
)

type opportunityRepository struct {
	db Querier
}

func NewOpportunityRepository(db Querier) repository.OpportunityRepository {
	return &opportunityRepository{db: db}
}

const opportunityColumns = `o.id, o.ngo_id, o.title, o.description, o.required_skills, o.duration, o.location, o.status, o.capacity, o.accepted_count, o.manually_closed, o.created_at, o.updated_at`

// Listings join the NGO profile for its display name.
const opportunityListSelect = `SELECT ` + opportunityColumns + `, COALESCE(NULLIF(p.organization_name, ''), p.name)
	FROM opportunities o JOIN profiles p ON p.id = o.ngo_id`

func scanOpportunity(row rowScanner, withNGOName bool) (*domain.Opportunity, error) {
	o := &domain.Opportunity{}
	var skills pq.StringArray
	var capacity sql.NullInt64
	dest := []any{&o.ID, &o.NGOID, &o.Title, &o.Description, &skills, &o.Duration, &o.Location, &o.Status, &capacity, &o.AcceptedCount, &o.ManuallyClosed, &o.CreatedAt, &o.UpdatedAt}
	if withNGOName {
		dest = append(dest, &o.NGOName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	o.RequiredSkills = []string(skills)
	if capacity.Valid {
		c := int(capacity.Int64)
		o.Capacity = &c
	}
	return o, nil
}

func (r *opportunityRepository) Create(ctx context.Context, o *domain.Opportunity) error {
	logger.EnterMethod("opportunityRepository.Create", "ngoID", o.NGOID, "title", o.Title)

	now := time.Now().UTC()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = o.CreatedAt
	query := `INSERT INTO opportunities (id, ngo_id, title, description, required_skills, duration, location, status, capacity, accepted_count, manually_closed, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	logger.DatabaseCall("INSERT", "opportunities", "opportunityID", o.ID)
	_, err := r.db.ExecContext(ctx, query, o.ID, o.NGOID, o.Title, o.Description, pq.Array(o.RequiredSkills), o.Duration, o.Location, o.Status, o.Capacity, o.AcceptedCount, o.ManuallyClosed, o.CreatedAt, o.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "opportunityID", o.ID)
	if err != nil {
		logger.ExitMethodWithError("opportunityRepository.Create", err, "opportunityID", o.ID)
		return fmt.Errorf("insert opportunity: %w", mapError(err))
	}
	logger.ExitMethod("opportunityRepository.Create", "opportunityID", o.ID)
	return nil
}

func (r *opportunityRepository) get(ctx context.Context, id, lock string) (*domain.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities o WHERE o.id = $1` + lock
	o, err := scanOpportunity(r.db.QueryRowContext(ctx, query, id), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("opportunity", id)
		}
		return nil, fmt.Errorf("get opportunity %s: %w", id, mapError(err))
	}
	return o, nil
}

func (r *opportunityRepository) GetByID(ctx context.Context, id string) (*domain.Opportunity, error) {
	return r.get(ctx, id, "")
}

func (r *opportunityRepository) GetForUpdate(ctx context.Context, id string) (*domain.Opportunity, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *opportunityRepository) GetForShare(ctx context.Context, id string) (*domain.Opportunity, error) {
	return r.get(ctx, id, " FOR SHARE")
}

func (r *opportunityRepository) UpdateStatus(ctx context.Context, o *domain.Opportunity) error {
	o.UpdatedAt = time.Now().UTC()
	query := `UPDATE opportunities SET status=$1, manually_closed=$2, accepted_count=$3, updated_at=$4 WHERE id=$5`
	logger.DatabaseCall("UPDATE", "opportunities", "opportunityID", o.ID, "status", o.Status, "acceptedCount", o.AcceptedCount)
	_, err := r.db.ExecContext(ctx, query, o.Status, o.ManuallyClosed, o.AcceptedCount, o.UpdatedAt, o.ID)
	logger.DatabaseResult("UPDATE", 1, err, "opportunityID", o.ID)
	if err != nil {
		return fmt.Errorf("update opportunity status: %w", mapError(err))
	}
	return nil
}

func (r *opportunityRepository) list(ctx context.Context, where string, arg any) ([]domain.Opportunity, error) {
	query := opportunityListSelect + ` WHERE ` + where + ` ORDER BY o.created_at DESC, o.id`
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []domain.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows, true)
		if err != nil {
			return nil, err
		}
		opportunities = append(opportunities, *o)
	}
	return opportunities, rows.Err()
}

func (r *opportunityRepository) ListByStatus(ctx context.Context, statuses []domain.OpportunityStatus) ([]domain.Opportunity, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return r.list(ctx, `o.status = ANY($1)`, pq.Array(values))
}

func (r *opportunityRepository) ListByNGO(ctx context.Context, ngoID string) ([]domain.Opportunity, error) {
	return r.list(ctx, `o.ngo_id = $1`, ngoID)
}
