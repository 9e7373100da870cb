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
)

type applicationRepository struct {
	db Querier
}

func NewApplicationRepository(db Querier) repository.ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, opportunity_id, volunteer_id, state, message, created_at, decided_at, updated_at`

func scanApplication(row rowScanner) (*domain.Application, error) {
	a := &domain.Application{}
	var decidedAt sql.NullTime
	if err := row.Scan(&a.ID, &a.OpportunityID, &a.VolunteerID, &a.State, &a.Message, &a.CreatedAt, &decidedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		a.DecidedAt = &t
	}
	return a, nil
}

func (r *applicationRepository) Create(ctx context.Context, a *domain.Application) error {
	logger.EnterMethod("applicationRepository.Create", "opportunityID", a.OpportunityID, "volunteerID", a.VolunteerID)

	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt
	query := `INSERT INTO applications (` + applicationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("INSERT", "applications", "applicationID", a.ID)
	_, err := r.db.ExecContext(ctx, query, a.ID, a.OpportunityID, a.VolunteerID, a.State, a.Message, a.CreatedAt, a.DecidedAt, a.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "applicationID", a.ID)
	if err != nil {
		mapped := mapError(err)
		logger.ExitMethodWithError("applicationRepository.Create", mapped, "applicationID", a.ID)
		return mapped
	}
	logger.ExitMethod("applicationRepository.Create", "applicationID", a.ID)
	return nil
}

func (r *applicationRepository) get(ctx context.Context, id, lock string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1` + lock
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("application", id)
		}
		return nil, fmt.Errorf("get application %s: %w", id, mapError(err))
	}
	return a, nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	return r.get(ctx, id, "")
}

func (r *applicationRepository) GetForUpdate(ctx context.Context, id string) (*domain.Application, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *applicationRepository) Update(ctx context.Context, a *domain.Application) error {
	query := `UPDATE applications SET state=$1, decided_at=$2, updated_at=$3 WHERE id=$4`
	logger.DatabaseCall("UPDATE", "applications", "applicationID", a.ID, "state", a.State)
	_, err := r.db.ExecContext(ctx, query, a.State, a.DecidedAt, a.UpdatedAt, a.ID)
	logger.DatabaseResult("UPDATE", 1, err, "applicationID", a.ID)
	if err != nil {
		return fmt.Errorf("update application: %w", mapError(err))
	}
	return nil
}

func (r *applicationRepository) FindActive(ctx context.Context, opportunityID, volunteerID string) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
	          WHERE opportunity_id = $1 AND volunteer_id = $2 AND state <> 'withdrawn'`
	a, err := scanApplication(r.db.QueryRowContext(ctx, query, opportunityID, volunteerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active application: %w", mapError(err))
	}
	return a, nil
}

func (r *applicationRepository) list(ctx context.Context, column, id string) ([]domain.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE ` + column + ` = $1 ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

func (r *applicationRepository) ListByVolunteer(ctx context.Context, volunteerID string) ([]domain.Application, error) {
	return r.list(ctx, "volunteer_id", volunteerID)
}

func (r *applicationRepository) ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Application, error) {
	return r.list(ctx, "opportunity_id", opportunityID)
}

func (r *applicationRepository) count(ctx context.Context, query, id string) (map[domain.ApplicationState]int, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ApplicationState]int)
	for rows.Next() {
		var state domain.ApplicationState
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

func (r *applicationRepository) CountByVolunteer(ctx context.Context, volunteerID string) (map[domain.ApplicationState]int, error) {
	return r.count(ctx, `SELECT state, count(*) FROM applications WHERE volunteer_id = $1 GROUP BY state`, volunteerID)
}

func (r *applicationRepository) CountByNGO(ctx context.Context, ngoID string) (map[domain.ApplicationState]int, error) {
	return r.count(ctx, `SELECT a.state, count(*) FROM applications a
	          JOIN opportunities o ON o.id = a.opportunity_id
	          WHERE o.ngo_id = $1 GROUP BY a.state`, ngoID)
}
