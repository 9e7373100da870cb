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

type profileRepository struct {
	db Querier
}

func NewProfileRepository(db Querier) repository.ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, role, name, organization_name, avatar_url, email, skills, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	var skills pq.StringArray
	if err := row.Scan(&p.ID, &p.Role, &p.Name, &p.OrganizationName, &p.AvatarURL, &p.Email, &skills, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Skills = []string(skills)
	return p, nil
}

func (r *profileRepository) Create(ctx context.Context, p *domain.Profile) error {
	logger.EnterMethod("profileRepository.Create", "profileID", p.ID, "role", p.Role)

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	query := `INSERT INTO profiles (` + profileColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	logger.DatabaseCall("INSERT", "profiles", "profileID", p.ID)
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Role, p.Name, p.OrganizationName, p.AvatarURL, p.Email, pq.Array(p.Skills), p.CreatedAt, p.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "profileID", p.ID)
	if err != nil {
		logger.ExitMethodWithError("profileRepository.Create", err, "profileID", p.ID)
		return fmt.Errorf("insert profile: %w", mapError(err))
	}
	logger.ExitMethod("profileRepository.Create", "profileID", p.ID)
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("profile", id)
		}
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

func (r *profileRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *profileRepository) Update(ctx context.Context, p *domain.Profile) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE profiles SET name=$1, organization_name=$2, avatar_url=$3, email=$4, skills=$5, updated_at=$6 WHERE id=$7`
	logger.DatabaseCall("UPDATE", "profiles", "profileID", p.ID)
	result, err := r.db.ExecContext(ctx, query, p.Name, p.OrganizationName, p.AvatarURL, p.Email, pq.Array(p.Skills), p.UpdatedAt, p.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "profileID", p.ID)
		return fmt.Errorf("update profile: %w", mapError(err))
	}
	n, err := result.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "profileID", p.ID)
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound("profile", p.ID)
	}
	return nil
}

func (r *profileRepository) ListVolunteersWithAnySkill(ctx context.Context, skills []string) ([]domain.Profile, error) {
	if len(skills) == 0 {
		return nil, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = 'volunteer' AND skills && $1 ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(skills))
	if err != nil {
		return nil, fmt.Errorf("list volunteers: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}
