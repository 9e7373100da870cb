// Package idempotency remembers the outcome of client-keyed mutations so a
// retried request returns the original result instead of acting twice.
package idempotency

import (
	"context"
	"strings"
	"time"

	"skillbridge-backend/internal/domain"
)

// ErrInFlight is returned while another request holds the same key.
var ErrInFlight = domain.NewError(domain.KindConflictRetry, "a request with this idempotency key is still in progress")

type Store interface {
	// Reserve claims key for the caller. When the key already completed the
	// stored result is returned with reserved=false.
	Reserve(ctx context.Context, key string) (result string, reserved bool, err error)
	// Complete records result for a reserved key.
	Complete(ctx context.Context, key, result string) error
	// Release forgets a reserved key whose operation failed.
	Release(ctx context.Context, key string) error
}

// Key scopes a client token to the actor and the operation it was sent with.
func Key(actorID, operation, token string) string {
	return strings.Join([]string{"idem", actorID, operation, token}, ":")
}

const pendingMarker = "\x00pending"

const DefaultTTL = 24 * time.Hour

// PendingLease bounds how long a reservation blocks retries when its holder
// never completes or releases it.
const PendingLease = 30 * time.Second
