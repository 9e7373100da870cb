package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/idempotency"
	"skillbridge-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

type countingNotifier struct{ n atomic.Int32 }

func (c *countingNotifier) Notify() { c.n.Add(1) }

type fixture struct {
	store     *memory.Store
	notifier  *countingNotifier
	lifecycle ApplicationService
	opps      OpportunityService
	profiles  ProfileService
	ngo       domain.NgoAdmin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	notifier := &countingNotifier{}
	lifecycle := NewApplicationService(store, store.ApplicationRepository, store.OpportunityRepository,
		idempotency.NewMemoryStore(time.Hour), notifier, LifecycleConfig{RetryBackoff: time.Millisecond})
	f := &fixture{
		store:     store,
		notifier:  notifier,
		lifecycle: lifecycle,
		opps:      NewOpportunityService(store.OpportunityRepository, store.ProfileRepository, lifecycle),
		profiles:  NewProfileService(store.ProfileRepository, nil),
		ngo:       domain.NgoAdmin{ID: "ngo-1"},
	}
	org := "Helping Hands"
	_, err := f.profiles.CreateProfile(context.Background(), f.ngo, domain.ProfileDraft{Name: "Alice", OrganizationName: &org})
	require.NoError(t, err)
	return f
}

func (f *fixture) volunteer(t *testing.T, id string, skills ...string) domain.Volunteer {
	t.Helper()
	v := domain.Volunteer{ID: id}
	_, err := f.profiles.CreateProfile(context.Background(), v, domain.ProfileDraft{Name: "Volunteer " + id, Skills: skills})
	require.NoError(t, err)
	return v
}

func (f *fixture) opportunity(t *testing.T, title string, capacity *int, skills ...string) *domain.Opportunity {
	t.Helper()
	o, err := f.opps.CreateOpportunity(context.Background(), f.ngo, domain.OpportunityDraft{Title: title, RequiredSkills: skills, Capacity: capacity})
	require.NoError(t, err)
	return o
}

func (f *fixture) events(types ...domain.EventType) []domain.Event {
	want := make(map[domain.EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []domain.Event
	for _, e := range f.store.Events() {
		if len(types) == 0 || want[e.Type] {
			out = append(out, e)
		}
	}
	return out
}

func intPtr(n int) *int { return &n }
