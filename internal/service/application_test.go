package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/idempotency"
	"skillbridge-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_CapacityCloseAndWithdrawReopen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	v2 := f.volunteer(t, "v2")
	o := f.opportunity(t, "Translate brochures", intPtr(1), "translation")

	app, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatePending, app.State)

	app, err = f.lifecycle.DecideApplication(ctx, f.ngo, app.ID, domain.ActionAccept, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStateAccepted, app.State)
	assert.NotNil(t, app.DecidedAt)

	got, err := f.opps.GetOpportunity(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityStatusClosed, got.Status)
	assert.False(t, got.ManuallyClosed)
	assert.Equal(t, 1, got.AcceptedCount)

	_, err = f.lifecycle.SubmitApplication(ctx, v2, o.ID, nil, "")
	assert.ErrorIs(t, err, domain.ErrOpportunityClosed)

	// The accepted volunteer withdraws and the automatic close is undone.
	app, err = f.lifecycle.WithdrawApplication(ctx, v1, app.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStateWithdrawn, app.State)

	got, err = f.opps.GetOpportunity(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityStatusOpen, got.Status)
	assert.Equal(t, 0, got.AcceptedCount)

	types := []domain.EventType{}
	for _, e := range f.events() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []domain.EventType{
		domain.EventApplicationSubmitted,
		domain.EventApplicationAccepted,
		domain.EventOpportunityClosed,
		domain.EventApplicationWithdrawn,
		domain.EventOpportunityReopened,
	}, types)
	assert.Equal(t, int32(3), f.notifier.n.Load())
}

func TestLifecycle_ManualCloseIsNotUndoneByWithdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", intPtr(1))

	app, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)
	_, err = f.lifecycle.DecideApplication(ctx, f.ngo, app.ID, domain.ActionAccept, "")
	require.NoError(t, err)

	// Pin the automatic close.
	closed, err := f.opps.CloseOpportunity(ctx, f.ngo, o.ID)
	require.NoError(t, err)
	assert.True(t, closed.ManuallyClosed)
	assert.Len(t, f.events(domain.EventOpportunityClosed), 1, "already closed, no second event")

	_, err = f.lifecycle.WithdrawApplication(ctx, v1, app.ID, "")
	require.NoError(t, err)

	got, err := f.opps.GetOpportunity(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityStatusClosed, got.Status)
	assert.Empty(t, f.events(domain.EventOpportunityReopened))

	reopened, err := f.opps.ReopenOpportunity(ctx, f.ngo, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OpportunityStatusOpen, reopened.Status)
	assert.False(t, reopened.ManuallyClosed)
	assert.Len(t, f.events(domain.EventOpportunityReopened), 1)
}

func TestLifecycle_ReopenAtCapacityFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", intPtr(1))

	app, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)
	_, err = f.lifecycle.DecideApplication(ctx, f.ngo, app.ID, domain.ActionAccept, "")
	require.NoError(t, err)

	_, err = f.opps.ReopenOpportunity(ctx, f.ngo, o.ID)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)
}

func TestSubmitApplication_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)

	t.Run("NGO cannot apply", func(t *testing.T) {
		_, err := f.lifecycle.SubmitApplication(ctx, f.ngo, o.ID, nil, "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("Volunteer without profile", func(t *testing.T) {
		_, err := f.lifecycle.SubmitApplication(ctx, domain.Volunteer{ID: "ghost"}, o.ID, nil, "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("Volunteer token for an NGO profile", func(t *testing.T) {
		_, err := f.lifecycle.SubmitApplication(ctx, domain.Volunteer{ID: f.ngo.ID}, o.ID, nil, "")
		assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	})

	t.Run("Unknown opportunity", func(t *testing.T) {
		_, err := f.lifecycle.SubmitApplication(ctx, v1, "missing", nil, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Message too long", func(t *testing.T) {
		msg := strings.Repeat("x", 2001)
		_, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, &msg, "")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Already applied wins over closed", func(t *testing.T) {
		_, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
		require.NoError(t, err)
		_, err = f.opps.CloseOpportunity(ctx, f.ngo, o.ID)
		require.NoError(t, err)

		_, err = f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
		assert.ErrorIs(t, err, domain.ErrAlreadyApplied)
	})

	assert.Len(t, f.events(domain.EventApplicationSubmitted), 1, "failed submits leave no events")
}

func TestDecideApplication_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)
	app, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)

	_, err = f.lifecycle.DecideApplication(ctx, v1, app.ID, domain.ActionAccept, "")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.lifecycle.DecideApplication(ctx, domain.NgoAdmin{ID: "other-ngo"}, app.ID, domain.ActionAccept, "")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	_, err = f.lifecycle.DecideApplication(ctx, f.ngo, app.ID, domain.ActionWithdraw, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	rejected, err := f.lifecycle.DecideApplication(ctx, f.ngo, app.ID, domain.ActionReject, "")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStateRejected, rejected.State)

	_, err = f.lifecycle.DecideApplication(ctx, f.ngo, app.ID, domain.ActionAccept, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.lifecycle.WithdrawApplication(ctx, v1, app.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	stored, err := f.lifecycle.GetApplication(ctx, v1, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStateRejected, stored.State, "failed transitions do not mutate")
}

func TestWithdrawApplication_OnlyApplicant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	v2 := f.volunteer(t, "v2")
	o := f.opportunity(t, "Gala", nil)
	app, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)

	_, err = f.lifecycle.WithdrawApplication(ctx, v2, app.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = f.lifecycle.WithdrawApplication(ctx, f.ngo, app.ID, "")
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = f.lifecycle.GetApplication(ctx, v2, app.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	// A withdrawn pair may apply again.
	_, err = f.lifecycle.WithdrawApplication(ctx, v1, app.ID, "")
	require.NoError(t, err)
	again, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)
	assert.NotEqual(t, app.ID, again.ID)
}

func TestConcurrentSubmits_OneActiveApplication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	ok, already := 0, 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrAlreadyApplied):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, already)

	apps, err := f.lifecycle.ListMyApplications(ctx, v1)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestConcurrentAccepts_NeverExceedCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.opportunity(t, "Gala", intPtr(3))

	var appIDs []string
	for i := 0; i < 10; i++ {
		v := f.volunteer(t, fmt.Sprintf("v%d", i))
		app, err := f.lifecycle.SubmitApplication(ctx, v, o.ID, nil, "")
		require.NoError(t, err)
		appIDs = append(appIDs, app.ID)
	}

	var wg sync.WaitGroup
	results := make(chan error, len(appIDs))
	for _, id := range appIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.lifecycle.DecideApplication(ctx, f.ngo, id, domain.ActionAccept, "")
			results <- err
		}(id)
	}
	wg.Wait()
	close(results)

	accepted, full := 0, 0
	for err := range results {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrCapacityExceeded):
			full++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 3, accepted)
	assert.Equal(t, 7, full)

	got, err := f.opps.GetOpportunity(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.AcceptedCount)
	assert.Equal(t, domain.OpportunityStatusClosed, got.Status)
	assert.Len(t, f.events(domain.EventOpportunityClosed), 1)
	assert.Len(t, f.events(domain.EventApplicationAccepted), 3)
}

func TestIdempotentRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)

	first, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "req-1")
	require.NoError(t, err)
	second, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "req-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "req-2")
	assert.ErrorIs(t, err, domain.ErrAlreadyApplied, "a new key is a new request")

	accepted, err := f.lifecycle.DecideApplication(ctx, f.ngo, first.ID, domain.ActionAccept, "dec-1")
	require.NoError(t, err)
	replayed, err := f.lifecycle.DecideApplication(ctx, f.ngo, first.ID, domain.ActionAccept, "dec-1")
	require.NoError(t, err)
	assert.Equal(t, accepted.State, replayed.State)

	assert.Len(t, f.events(domain.EventApplicationSubmitted), 1)
	assert.Len(t, f.events(domain.EventApplicationAccepted), 1)
}

// ctxIdempotencyStore fails calls on a done context the way a network-backed
// store does, and runs afterReserve once a key has been claimed.
type ctxIdempotencyStore struct {
	inner        idempotency.Store
	afterReserve func()
}

func (s *ctxIdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	result, reserved, err := s.inner.Reserve(ctx, key)
	if reserved && s.afterReserve != nil {
		s.afterReserve()
	}
	return result, reserved, err
}

func (s *ctxIdempotencyStore) Complete(ctx context.Context, key, result string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inner.Complete(ctx, key, result)
}

func (s *ctxIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.inner.Release(ctx, key)
}

func TestIdempotentRetry_AfterCancelledRequest(t *testing.T) {
	f := newFixture(t)
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)

	ctx, cancel := context.WithCancel(context.Background())
	idem := &ctxIdempotencyStore{inner: idempotency.NewMemoryStore(time.Hour), afterReserve: cancel}
	svc := NewApplicationService(f.store, f.store.ApplicationRepository, f.store.OpportunityRepository,
		idem, f.notifier, LifecycleConfig{RetryBackoff: time.Millisecond})

	_, err := svc.SubmitApplication(ctx, v1, o.ID, nil, "key-1")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.events(domain.EventApplicationSubmitted), "a cancelled request must not take effect")

	idem.afterReserve = nil
	app, err := svc.SubmitApplication(context.Background(), v1, o.ID, nil, "key-1")
	require.NoError(t, err, "a retry with the same key runs the operation")
	assert.Equal(t, domain.ApplicationStatePending, app.State)

	replayed, err := svc.SubmitApplication(context.Background(), v1, o.ID, nil, "key-1")
	require.NoError(t, err)
	assert.Equal(t, app.ID, replayed.ID)
	assert.Len(t, f.events(domain.EventApplicationSubmitted), 1)
}

type mockTransactor struct {
	mock.Mock
	inner repository.Transactor
}

func (m *mockTransactor) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return m.inner.WithinTx(ctx, fn)
}

func TestInTx_RetriesConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)

	t.Run("Succeeds after transient conflicts", func(t *testing.T) {
		tx := &mockTransactor{inner: f.store}
		tx.On("WithinTx", mock.Anything).Return(domain.ErrConflictRetry).Twice()
		tx.On("WithinTx", mock.Anything).Return(nil).Once()

		svc := NewApplicationService(tx, f.store.ApplicationRepository, f.store.OpportunityRepository, nil, nil, LifecycleConfig{MaxAttempts: 3})
		app, err := svc.SubmitApplication(ctx, v1, o.ID, nil, "")
		require.NoError(t, err)
		assert.Equal(t, domain.ApplicationStatePending, app.State)
		tx.AssertNumberOfCalls(t, "WithinTx", 3)
	})

	t.Run("Surfaces conflict after max attempts", func(t *testing.T) {
		tx := &mockTransactor{inner: f.store}
		tx.On("WithinTx", mock.Anything).Return(domain.ErrConflictRetry)

		svc := NewApplicationService(tx, f.store.ApplicationRepository, f.store.OpportunityRepository, nil, nil, LifecycleConfig{MaxAttempts: 3})
		_, err := svc.CloseOpportunity(ctx, f.ngo, o.ID)
		assert.ErrorIs(t, err, domain.ErrConflictRetry)
		tx.AssertNumberOfCalls(t, "WithinTx", 3)
	})
}

func TestListOpportunityApplications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v1 := f.volunteer(t, "v1")
	o := f.opportunity(t, "Gala", nil)
	_, err := f.lifecycle.SubmitApplication(ctx, v1, o.ID, nil, "")
	require.NoError(t, err)

	apps, err := f.lifecycle.ListOpportunityApplications(ctx, f.ngo, o.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = f.lifecycle.ListOpportunityApplications(ctx, domain.NgoAdmin{ID: "other"}, o.ID)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
	_, err = f.lifecycle.ListMyApplications(ctx, f.ngo)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}
