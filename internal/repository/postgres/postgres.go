package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Querier is satisfied by both *sql.DB and *sql.Tx so every repository can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
	repository.ProfileRepository
	repository.OpportunityRepository
	repository.ApplicationRepository
	repository.OutboxRepository
	repository.NotificationRepository
	repository.MessageRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		ProfileRepository:      NewProfileRepository(db),
		OpportunityRepository:  NewOpportunityRepository(db),
		ApplicationRepository:  NewApplicationRepository(db),
		OutboxRepository:       NewOutboxRepository(db),
		NotificationRepository: NewNotificationRepository(db),
		MessageRepository:      NewMessageRepository(db),
	}
}

// Migrate creates missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	logger.DatabaseCall("MIGRATE", "schema.sql")
	_, err := s.db.ExecContext(ctx, schema)
	logger.DatabaseResult("MIGRATE", 0, err)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type txRepos struct {
	profiles      repository.ProfileRepository
	opportunities repository.OpportunityRepository
	applications  repository.ApplicationRepository
	outbox        repository.OutboxRepository
}

func (t *txRepos) Profiles() repository.ProfileRepository           { return t.profiles }
func (t *txRepos) Opportunities() repository.OpportunityRepository { return t.opportunities }
func (t *txRepos) Applications() repository.ApplicationRepository  { return t.applications }
func (t *txRepos) Outbox() repository.OutboxRepository             { return t.outbox }

// WithinTx runs fn in a READ COMMITTED transaction. Row locks taken by the
// ForUpdate/ForShare reads serialize competing writers; lock and
// serialization failures surface as domain.ErrConflictRetry.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return mapError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	repos := &txRepos{
		profiles:      NewProfileRepository(tx),
		opportunities: NewOpportunityRepository(tx),
		applications:  NewApplicationRepository(tx),
		outbox:        NewOutboxRepository(tx),
	}
	if err = fn(repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Warn("Rollback failed", "error", rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return mapError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
