package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// ---------------------------------------------------------------------------
// Mock publisher and recorder
// ---------------------------------------------------------------------------

type mockPublisher struct {
	mu     sync.Mutex
	events []models.TradeEvent
	err    error
}

func (m *mockPublisher) PublishTradeEvent(ctx context.Context, ev models.TradeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, ev := range m.events {
		out = append(out, ev.EventType)
	}
	return out
}

type mockRecorder struct {
	mu          sync.Mutex
	transitions []string
	reviews     []string
}

func (m *mockRecorder) TradeTransition(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, name)
}

func (m *mockRecorder) ReviewMutation(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews = append(m.reviews, name)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

// fixture seeds three skills and four users:
//
//	alice offers cooking
//	bob   offers guitar
//	carol offers guitar, spanish
//	dave  offers cooking
type fixture struct {
	svc     *Service
	store   *memStore
	events  *mockPublisher
	metrics *mockRecorder

	cooking, guitar, spanish *models.Skill
	alice, bob, carol, dave  *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	f := &fixture{store: st, events: &mockPublisher{}, metrics: &mockRecorder{}}
	f.cooking = st.addSkill("Cooking")
	f.guitar = st.addSkill("Guitar")
	f.spanish = st.addSkill("Spanish")
	f.alice = st.addUser("alice", f.cooking)
	f.bob = st.addUser("bob", f.guitar)
	f.carol = st.addUser("carol", f.guitar, f.spanish)
	f.dave = st.addUser("dave", f.cooking)
	f.svc = NewService(st, f.events, f.metrics, nil)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return f
}

// openTrade has alice offer cooking for the given desired skills.
func (f *fixture) openTrade(t *testing.T, desired ...*models.Skill) *models.Trade {
	t.Helper()
	ids := make([]uuid.UUID, 0, len(desired))
	for _, sk := range desired {
		ids = append(ids, sk.ID)
	}
	trade, err := f.svc.CreateTrade(context.Background(), CreateTradeRequest{
		InitiatorID:     f.alice.ID,
		InitiatorSkills: []uuid.UUID{f.cooking.ID},
		DesiredSkills:   ids,
		Terms:           "two lessons a week",
		Title:           "Cooking for guitar",
	})
	require.NoError(t, err)
	return trade
}

func (f *fixture) apply(t *testing.T, trade *models.Trade, user *models.User) *models.QueueEntry {
	t.Helper()
	entry, err := f.svc.Apply(context.Background(), ApplyRequest{TradeID: trade.ID, UserID: user.ID})
	require.NoError(t, err)
	return entry
}

// acceptedTrade returns a trade alice accepted with bob as responder.
func (f *fixture) acceptedTrade(t *testing.T) *models.Trade {
	t.Helper()
	trade := f.openTrade(t, f.guitar)
	entry := f.apply(t, trade, f.bob)
	accepted, err := f.svc.AcceptApplication(context.Background(), entry.ID, f.alice.ID, "weekends")
	require.NoError(t, err)
	return accepted
}

// completedTrade returns a completed alice/bob trade.
func (f *fixture) completedTrade(t *testing.T) *models.Trade {
	t.Helper()
	trade := f.acceptedTrade(t)
	completed, err := f.svc.CompleteTrade(context.Background(), TradeActionRequest{TradeID: trade.ID, ActorID: f.alice.ID})
	require.NoError(t, err)
	return completed
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

var errPublish = errors.New("broker unavailable")
