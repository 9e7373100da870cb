// Package memory is an in-process implementation of the repositories. A single
// mutex serializes transactions; writes made inside WithinTx are staged on a
// copy of the state and only become visible when fn succeeds.
package memory

import (
	"context"
	"sync"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/repository"
)

type state struct {
	profiles      map[string]domain.Profile
	opportunities map[string]domain.Opportunity
	applications  map[string]domain.Application
	events        []domain.Event
	notifications []domain.Notification
	messages      []domain.Message
	nextEventID   int64
	nextNoteID    int64
}

func newState() *state {
	return &state{
		profiles:      make(map[string]domain.Profile),
		opportunities: make(map[string]domain.Opportunity),
		applications:  make(map[string]domain.Application),
	}
}

// clone copies the containers. Stored values are never mutated in place, so
// sharing their slices between the copies is safe.
func (s *state) clone() *state {
	c := &state{
		profiles:      make(map[string]domain.Profile, len(s.profiles)),
		opportunities: make(map[string]domain.Opportunity, len(s.opportunities)),
		applications:  make(map[string]domain.Application, len(s.applications)),
		events:        append([]domain.Event(nil), s.events...),
		notifications: append([]domain.Notification(nil), s.notifications...),
		messages:      append([]domain.Message(nil), s.messages...),
		nextEventID:   s.nextEventID,
		nextNoteID:    s.nextNoteID,
	}
	for k, v := range s.profiles {
		c.profiles[k] = v
	}
	for k, v := range s.opportunities {
		c.opportunities[k] = v
	}
	for k, v := range s.applications {
		c.applications[k] = v
	}
	return c
}

// access runs fn against the state a repository is bound to.
type access func(ctx context.Context, fn func(st *state) error) error

type Store struct {
	mu sync.Mutex
	st *state
	repository.ProfileRepository
	repository.OpportunityRepository
	repository.ApplicationRepository
	repository.OutboxRepository
	repository.NotificationRepository
	repository.MessageRepository
}

func NewStore() *Store {
	s := &Store{st: newState()}
	s.ProfileRepository = &profileRepository{with: s.direct}
	s.OpportunityRepository = &opportunityRepository{with: s.direct}
	s.ApplicationRepository = &applicationRepository{with: s.direct}
	s.OutboxRepository = &outboxRepository{with: s.direct}
	s.NotificationRepository = &notificationRepository{with: s.direct}
	s.MessageRepository = &messageRepository{with: s.direct}
	return s
}

func (s *Store) direct(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

type txRepos struct {
	with access
}

func (t *txRepos) Profiles() repository.ProfileRepository {
	return &profileRepository{with: t.with}
}

func (t *txRepos) Opportunities() repository.OpportunityRepository {
	return &opportunityRepository{with: t.with}
}

func (t *txRepos) Applications() repository.ApplicationRepository {
	return &applicationRepository{with: t.with}
}

func (t *txRepos) Outbox() repository.OutboxRepository {
	return &outboxRepository{with: t.with}
}

// WithinTx holds the store lock for the whole of fn. Only the repositories
// reached through tx may be used inside fn; the Store's own repositories
// would deadlock.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	tx := &txRepos{with: func(ctx context.Context, f func(st *state) error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return f(staged)
	}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = staged
	return nil
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
