package postgres

import (
	"database/sql"
	"errors"

	"skillbridge-backend/internal/domain"

	"github.com/lib/pq"
)

const (
	activePairIndex   = "applications_active_pair_idx"
	profilePrimaryKey = "profiles_pkey"
)

// mapError translates driver failures into domain kinds. Errors it does not
// recognize are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WrapError(domain.KindNotFound, err, "")
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		switch pqErr.Constraint {
		case activePairIndex:
			return domain.WrapError(domain.KindAlreadyApplied, err, "")
		case profilePrimaryKey:
			return domain.WrapError(domain.KindValidation, err, "profile already exists")
		}
	case "22P02":
		// Ids are UUID columns; a malformed id cannot name a row.
		return domain.WrapError(domain.KindNotFound, err, "")
	case "40001", "40P01", "55P03":
		return domain.WrapError(domain.KindConflictRetry, err, "")
	}
	return err
}

func notFound(what, id string) error {
	return domain.NewError(domain.KindNotFound, "%s %s not found", what, id)
}
