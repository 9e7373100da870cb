package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"skillbridge-backend/internal/dispatch"
	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/idempotency"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/metrics"
	"skillbridge-backend/internal/repository"

	"github.com/google/uuid"
)

type LifecycleConfig struct {
	// MaxAttempts bounds how often a transaction is run when it keeps
	// failing with a write conflict.
	MaxAttempts  int
	RetryBackoff time.Duration
}

type applicationService struct {
	tx       repository.Transactor
	apps     repository.ApplicationRepository
	opps     repository.OpportunityRepository
	idem     idempotency.Store
	notifier Notifier
	cfg      LifecycleConfig
	now      func() time.Time
}

func NewApplicationService(
	tx repository.Transactor,
	apps repository.ApplicationRepository,
	opps repository.OpportunityRepository,
	idem idempotency.Store,
	notifier Notifier,
	cfg LifecycleConfig,
) ApplicationService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 20 * time.Millisecond
	}
	return &applicationService{
		tx:       tx,
		apps:     apps,
		opps:     opps,
		idem:     idem,
		notifier: notifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// inTx runs fn in a transaction, retrying write conflicts with linear backoff.
func (s *applicationService) inTx(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		err = s.tx.WithinTx(ctx, fn)
		if !errors.Is(err, domain.ErrConflictRetry) {
			return err
		}
		metrics.ConflictRetry(op)
		logger.Warn("Write conflict, retrying", "operation", op, "attempt", attempt, "error", err)
		if attempt == s.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}
	return err
}

// idempotent replays the application recorded under key, or runs fn and
// records its result. An empty key disables the check.
func (s *applicationService) idempotent(ctx context.Context, actor domain.Actor, op, key string, fn func() (*domain.Application, error)) (*domain.Application, error) {
	if key == "" || s.idem == nil {
		return fn()
	}
	k := idempotency.Key(actor.ProfileID(), op, key)
	result, reserved, err := s.idem.Reserve(ctx, k)
	if err != nil {
		return nil, err
	}
	if !reserved {
		logger.Debug("Replaying idempotent request", "operation", op, "applicationID", result)
		return s.apps.GetByID(ctx, result)
	}

	// The key must be settled even when the caller has gone away.
	settleCtx := context.WithoutCancel(ctx)
	app, err := fn()
	if err != nil {
		if rerr := s.idem.Release(settleCtx, k); rerr != nil {
			logger.Warn("Failed to release idempotency key", "key", k, "error", rerr)
		}
		return nil, err
	}
	if cerr := s.idem.Complete(settleCtx, k, app.ID); cerr != nil {
		logger.Warn("Failed to record idempotency key", "key", k, "error", cerr)
	}
	return app, nil
}

func (s *applicationService) committed() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
	}
	metrics.LifecycleOutcome(op, outcome)
}

func (s *applicationService) SubmitApplication(ctx context.Context, actor domain.Actor, opportunityID string, message *string, idempotencyKey string) (app *domain.Application, err error) {
	logger.EnterMethod("applicationService.SubmitApplication", "opportunityID", opportunityID)
	defer func() {
		observe("submit", err)
		if err != nil {
			logger.ExitMethodWithError("applicationService.SubmitApplication", err, "opportunityID", opportunityID)
		} else {
			logger.ExitMethod("applicationService.SubmitApplication", "applicationID", app.ID)
		}
	}()

	volunteer, ok := actor.(domain.Volunteer)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only volunteers can apply to opportunities")
	}
	message = cleanOptional(message)
	if message != nil && utf8.RuneCountInString(*message) > maxMessageLength {
		return nil, domain.NewError(domain.KindValidation, "message: must have at most %d characters", maxMessageLength)
	}

	return s.idempotent(ctx, actor, "submit:"+opportunityID, idempotencyKey, func() (*domain.Application, error) {
		var created *domain.Application
		err := s.inTx(ctx, "submit", func(tx repository.Tx) error {
			profile, err := tx.Profiles().GetByID(ctx, volunteer.ID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.NewError(domain.KindNotAuthorized, "volunteer profile %s does not exist", volunteer.ID)
				}
				return err
			}
			if profile.Role != domain.RoleVolunteer {
				return domain.NewError(domain.KindNotAuthorized, "profile %s is not a volunteer", volunteer.ID)
			}

			opp, err := tx.Opportunities().GetForShare(ctx, opportunityID)
			if err != nil {
				return err
			}
			existing, err := tx.Applications().FindActive(ctx, opportunityID, volunteer.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return domain.ErrAlreadyApplied
			}
			if opp.Status != domain.OpportunityStatusOpen {
				return domain.ErrOpportunityClosed
			}
			if opp.IsFull() {
				return domain.ErrCapacityExceeded
			}

			now := s.now()
			a := &domain.Application{
				ID:            uuid.NewString(),
				OpportunityID: opportunityID,
				VolunteerID:   volunteer.ID,
				State:         domain.ApplicationStatePending,
				Message:       message,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := tx.Applications().Create(ctx, a); err != nil {
				return err
			}
			if err := dispatch.Emit(ctx, tx, domain.NewApplicationEvent(domain.EventApplicationSubmitted, a, opp)); err != nil {
				return err
			}
			created = a
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.committed()
		return created, nil
	})
}

func (s *applicationService) DecideApplication(ctx context.Context, actor domain.Actor, applicationID string, decision domain.Decision, idempotencyKey string) (app *domain.Application, err error) {
	logger.EnterMethod("applicationService.DecideApplication", "applicationID", applicationID, "decision", decision)
	defer func() {
		observe(string(decision), err)
		if err != nil {
			logger.ExitMethodWithError("applicationService.DecideApplication", err, "applicationID", applicationID)
		} else {
			logger.ExitMethod("applicationService.DecideApplication", "applicationID", applicationID, "state", app.State)
		}
	}()

	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only the posting organization can decide on applications")
	}
	if decision != domain.ActionAccept && decision != domain.ActionReject {
		return nil, domain.NewError(domain.KindValidation, "decision must be accept or reject, got %q", decision)
	}

	return s.idempotent(ctx, actor, "decide:"+applicationID, idempotencyKey, func() (*domain.Application, error) {
		var decided *domain.Application
		err := s.inTx(ctx, string(decision), func(tx repository.Tx) error {
			a, err := tx.Applications().GetForUpdate(ctx, applicationID)
			if err != nil {
				return err
			}
			opp, err := tx.Opportunities().GetForUpdate(ctx, a.OpportunityID)
			if err != nil {
				return err
			}
			if !opp.OwnedBy(ngo.ID) {
				return domain.NewError(domain.KindNotAuthorized, "application %s belongs to another organization", applicationID)
			}
			if decision == domain.ActionAccept && a.State == domain.ApplicationStatePending && opp.IsFull() {
				return domain.ErrCapacityExceeded
			}
			if err := a.Apply(decision, s.now()); err != nil {
				return err
			}
			if err := tx.Applications().Update(ctx, a); err != nil {
				return err
			}

			if decision == domain.ActionReject {
				decided = a
				return dispatch.Emit(ctx, tx, domain.NewApplicationEvent(domain.EventApplicationRejected, a, opp))
			}

			opp.AcceptedCount++
			autoClosed := false
			if opp.IsFull() && opp.Status == domain.OpportunityStatusOpen {
				opp.Status = domain.OpportunityStatusClosed
				autoClosed = true
			}
			if err := tx.Opportunities().UpdateStatus(ctx, opp); err != nil {
				return err
			}
			if err := dispatch.Emit(ctx, tx, domain.NewApplicationEvent(domain.EventApplicationAccepted, a, opp)); err != nil {
				return err
			}
			if autoClosed {
				logger.Info("Opportunity reached capacity", "opportunityID", opp.ID, "capacity", *opp.Capacity)
				if err := dispatch.Emit(ctx, tx, domain.NewOpportunityEvent(domain.EventOpportunityClosed, opp)); err != nil {
					return err
				}
			}
			decided = a
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.committed()
		return decided, nil
	})
}

func (s *applicationService) WithdrawApplication(ctx context.Context, actor domain.Actor, applicationID string, idempotencyKey string) (app *domain.Application, err error) {
	logger.EnterMethod("applicationService.WithdrawApplication", "applicationID", applicationID)
	defer func() {
		observe("withdraw", err)
		if err != nil {
			logger.ExitMethodWithError("applicationService.WithdrawApplication", err, "applicationID", applicationID)
		} else {
			logger.ExitMethod("applicationService.WithdrawApplication", "applicationID", applicationID)
		}
	}()

	volunteer, ok := actor.(domain.Volunteer)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only the applicant can withdraw an application")
	}

	return s.idempotent(ctx, actor, "withdraw:"+applicationID, idempotencyKey, func() (*domain.Application, error) {
		var withdrawn *domain.Application
		err := s.inTx(ctx, "withdraw", func(tx repository.Tx) error {
			a, err := tx.Applications().GetForUpdate(ctx, applicationID)
			if err != nil {
				return err
			}
			if a.VolunteerID != volunteer.ID {
				return domain.NewError(domain.KindNotAuthorized, "application %s belongs to another volunteer", applicationID)
			}
			opp, err := tx.Opportunities().GetForUpdate(ctx, a.OpportunityID)
			if err != nil {
				return err
			}
			wasAccepted := a.State == domain.ApplicationStateAccepted
			if err := a.Apply(domain.ActionWithdraw, s.now()); err != nil {
				return err
			}
			if err := tx.Applications().Update(ctx, a); err != nil {
				return err
			}

			reopened := false
			if wasAccepted {
				if opp.AcceptedCount > 0 {
					opp.AcceptedCount--
				}
				if opp.Status == domain.OpportunityStatusClosed && !opp.ManuallyClosed && !opp.IsFull() {
					opp.Status = domain.OpportunityStatusOpen
					reopened = true
				}
				if err := tx.Opportunities().UpdateStatus(ctx, opp); err != nil {
					return err
				}
			}
			if err := dispatch.Emit(ctx, tx, domain.NewApplicationEvent(domain.EventApplicationWithdrawn, a, opp)); err != nil {
				return err
			}
			if reopened {
				if err := dispatch.Emit(ctx, tx, domain.NewOpportunityEvent(domain.EventOpportunityReopened, opp)); err != nil {
					return err
				}
			}
			withdrawn = a
			return nil
		})
		if err != nil {
			return nil, err
		}
		s.committed()
		return withdrawn, nil
	})
}

func (s *applicationService) CloseOpportunity(ctx context.Context, actor domain.Actor, opportunityID string) (opp *domain.Opportunity, err error) {
	defer func() { observe("close", err) }()

	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only the posting organization can close an opportunity")
	}
	err = s.inTx(ctx, "close", func(tx repository.Tx) error {
		o, err := tx.Opportunities().GetForUpdate(ctx, opportunityID)
		if err != nil {
			return err
		}
		if !o.OwnedBy(ngo.ID) {
			return domain.NewError(domain.KindNotAuthorized, "opportunity %s belongs to another organization", opportunityID)
		}
		wasOpen := o.Status == domain.OpportunityStatusOpen
		o.Status = domain.OpportunityStatusClosed
		o.ManuallyClosed = true
		if err := tx.Opportunities().UpdateStatus(ctx, o); err != nil {
			return err
		}
		if wasOpen {
			if err := dispatch.Emit(ctx, tx, domain.NewOpportunityEvent(domain.EventOpportunityClosed, o)); err != nil {
				return err
			}
		}
		opp = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Opportunity closed", "opportunityID", opportunityID, "ngoID", ngo.ID)
	s.committed()
	return opp, nil
}

func (s *applicationService) ReopenOpportunity(ctx context.Context, actor domain.Actor, opportunityID string) (opp *domain.Opportunity, err error) {
	defer func() { observe("reopen", err) }()

	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only the posting organization can reopen an opportunity")
	}
	err = s.inTx(ctx, "reopen", func(tx repository.Tx) error {
		o, err := tx.Opportunities().GetForUpdate(ctx, opportunityID)
		if err != nil {
			return err
		}
		if !o.OwnedBy(ngo.ID) {
			return domain.NewError(domain.KindNotAuthorized, "opportunity %s belongs to another organization", opportunityID)
		}
		if o.Status == domain.OpportunityStatusOpen {
			opp = o
			return nil
		}
		if o.IsFull() {
			return domain.NewError(domain.KindCapacityExceeded, "opportunity %s has no remaining places", opportunityID)
		}
		o.Status = domain.OpportunityStatusOpen
		o.ManuallyClosed = false
		if err := tx.Opportunities().UpdateStatus(ctx, o); err != nil {
			return err
		}
		if err := dispatch.Emit(ctx, tx, domain.NewOpportunityEvent(domain.EventOpportunityReopened, o)); err != nil {
			return err
		}
		opp = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.committed()
	return opp, nil
}

func (s *applicationService) GetApplication(ctx context.Context, actor domain.Actor, id string) (*domain.Application, error) {
	a, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch act := actor.(type) {
	case domain.Volunteer:
		if a.VolunteerID == act.ID {
			return a, nil
		}
	case domain.NgoAdmin:
		opp, err := s.opps.GetByID(ctx, a.OpportunityID)
		if err != nil {
			return nil, err
		}
		if opp.OwnedBy(act.ID) {
			return a, nil
		}
	}
	return nil, domain.NewError(domain.KindNotAuthorized, "application %s is not visible to you", id)
}

func (s *applicationService) ListMyApplications(ctx context.Context, actor domain.Actor) ([]domain.Application, error) {
	volunteer, ok := actor.(domain.Volunteer)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only volunteers have applications")
	}
	return s.apps.ListByVolunteer(ctx, volunteer.ID)
}

func (s *applicationService) ListOpportunityApplications(ctx context.Context, actor domain.Actor, opportunityID string) ([]domain.Application, error) {
	ngo, ok := actor.(domain.NgoAdmin)
	if !ok {
		return nil, domain.NewError(domain.KindNotAuthorized, "only the posting organization can list applications")
	}
	opp, err := s.opps.GetByID(ctx, opportunityID)
	if err != nil {
		return nil, err
	}
	if !opp.OwnedBy(ngo.ID) {
		return nil, domain.NewError(domain.KindNotAuthorized, "opportunity %s belongs to another organization", opportunityID)
	}
	return s.apps.ListByOpportunity(ctx, opportunityID)
}
