package trading

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/skill-exchange-service/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory Store: one transaction at a time, rolled back from a snapshot.
// ---------------------------------------------------------------------------

var errInjected = errors.New("injected store failure")

type memState struct {
	skills   map[uuid.UUID]*models.Skill
	users    map[uuid.UUID]*models.User
	offered  map[uuid.UUID][]uuid.UUID
	trades   map[uuid.UUID]*models.Trade
	queue    map[uuid.UUID]*models.QueueEntry
	reviews  map[uuid.UUID]*models.Review
	messages map[uuid.UUID]*models.Message
}

func newMemState() memState {
	return memState{
		skills:   map[uuid.UUID]*models.Skill{},
		users:    map[uuid.UUID]*models.User{},
		offered:  map[uuid.UUID][]uuid.UUID{},
		trades:   map[uuid.UUID]*models.Trade{},
		queue:    map[uuid.UUID]*models.QueueEntry{},
		reviews:  map[uuid.UUID]*models.Review{},
		messages: map[uuid.UUID]*models.Message{},
	}
}

func (s memState) clone() memState {
	c := newMemState()
	for k, v := range s.skills {
		c.skills[k] = copySkill(v)
	}
	for k, v := range s.users {
		c.users[k] = copyUser(v)
	}
	for k, v := range s.offered {
		c.offered[k] = append([]uuid.UUID(nil), v...)
	}
	for k, v := range s.trades {
		c.trades[k] = copyTrade(v)
	}
	for k, v := range s.queue {
		c.queue[k] = copyEntry(v)
	}
	for k, v := range s.reviews {
		c.reviews[k] = copyReview(v)
	}
	for k, v := range s.messages {
		m := *v
		c.messages[k] = &m
	}
	return c
}

type memStore struct {
	mu     sync.Mutex
	state  memState
	failOn map[string]bool
}

func newMemStore() *memStore {
	return &memStore{state: newMemState(), failOn: map[string]bool{}}
}

func (s *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.state.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *memStore) fail(op string) error {
	if s.failOn[op] {
		return errInjected
	}
	return nil
}

// seed helpers

func (s *memStore) addSkill(name string) *models.Skill {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk := &models.Skill{ID: uuid.New(), Name: name}
	s.state.skills[sk.ID] = sk
	return copySkill(sk)
}

func (s *memStore) addUser(username string, skills ...*models.Skill) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &models.User{ID: uuid.New(), Username: username, Rating: decimal.Zero}
	s.state.users[u.ID] = u
	for _, sk := range skills {
		s.state.offered[u.ID] = append(s.state.offered[u.ID], sk.ID)
	}
	return copyUser(u)
}

func (s *memStore) user(id uuid.UUID) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyUser(s.state.users[id])
}

func (s *memStore) trade(id uuid.UUID) *models.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.state.trades[id]; ok {
		return copyTrade(t)
	}
	return nil
}

func (s *memStore) entry(id uuid.UUID) *models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.state.queue[id]; ok {
		return copyEntry(e)
	}
	return nil
}

func (s *memStore) queueFor(tradeID uuid.UUID) []*models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.QueueEntry
	for _, e := range s.state.queue {
		if e.TradeID == tradeID {
			out = append(out, copyEntry(e))
		}
	}
	return out
}

func (s *memStore) addMessage(tradeID, sender, receiver uuid.UUID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &models.Message{ID: uuid.New(), TradeID: tradeID, SenderID: sender, ReceiverID: receiver, Content: content}
	s.state.messages[m.ID] = m
}

func (s *memStore) messageCount(tradeID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.state.messages {
		if m.TradeID == tradeID {
			n++
		}
	}
	return n
}

// Reader

func (s *memStore) GetSkill(ctx context.Context, id uuid.UUID) (*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sk, ok := s.state.skills[id]; ok {
		return copySkill(sk), nil
	}
	return nil, nil
}

func (s *memStore) GetSkillByName(ctx context.Context, name string) (*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sk := range s.state.skills {
		if sk.Name == name {
			return copySkill(sk), nil
		}
	}
	return nil, nil
}

func (s *memStore) ListSkills(ctx context.Context) ([]*models.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Skill
	for _, sk := range s.state.skills {
		out = append(out, copySkill(sk))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) ListUsers(ctx context.Context, search string, page models.Page) (models.PageResult[*models.User], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, u := range s.state.users {
		if search != "" && !s.offersMatching(u.ID, search) {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating.GreaterThan(out[j].Rating) })
	return paginate(out, page), nil
}

func (s *memStore) offersMatching(userID uuid.UUID, search string) bool {
	for _, id := range s.state.offered[userID] {
		if strings.Contains(strings.ToLower(s.state.skills[id].Name), strings.ToLower(search)) {
			return true
		}
	}
	return false
}

func (s *memStore) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return s.trade(id), nil
}

func (s *memStore) ListTradesForUser(ctx context.Context, userID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Trade], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Trade
	for _, t := range s.state.trades {
		if !t.IsParticipant(userID) {
			continue
		}
		if search != "" && !strings.Contains(t.Title+" "+t.Description, search) {
			continue
		}
		out = append(out, copyTrade(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, page), nil
}

func (s *memStore) ListQueueEntries(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.QueueEntry], error) {
	var out []*models.QueueEntry
	for _, e := range s.queueFor(tradeID) {
		if search != "" && !strings.Contains(e.Username, search) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return paginate(out, page), nil
}

func (s *memStore) ListReviews(ctx context.Context, tradeID uuid.UUID, search string, page models.Page) (models.PageResult[*models.Review], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Review
	for _, r := range s.state.reviews {
		if r.TradeID == tradeID && strings.Contains(r.Feedback, search) {
			out = append(out, copyReview(r))
		}
	}
	return paginate(out, page), nil
}

func paginate[T any](items []T, page models.Page) models.PageResult[T] {
	page = page.Normalize()
	res := models.PageResult[T]{Count: len(items), Page: page.Number, Results: []T{}}
	start := page.Offset()
	if start >= len(items) {
		return res
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	res.Results = items[start:end]
	return res
}

// ---------------------------------------------------------------------------
// Tx
// ---------------------------------------------------------------------------

type memTx struct{ s *memStore }

func (t *memTx) GetSkills(ctx context.Context, ids []uuid.UUID) ([]*models.Skill, error) {
	var out []*models.Skill
	for _, id := range ids {
		if sk, ok := t.s.state.skills[id]; ok {
			out = append(out, copySkill(sk))
		}
	}
	return out, nil
}

func (t *memTx) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := t.s.state.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (t *memTx) LockUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return t.GetUser(ctx, id)
}

func (t *memTx) OfferedSkillIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return append([]uuid.UUID{}, t.s.state.offered[userID]...), nil
}

func (t *memTx) AddOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) error {
	t.s.state.offered[userID] = append(t.s.state.offered[userID], skillID)
	return nil
}

func (t *memTx) RemoveOfferedSkill(ctx context.Context, userID, skillID uuid.UUID) error {
	kept := t.s.state.offered[userID][:0]
	for _, id := range t.s.state.offered[userID] {
		if id != skillID {
			kept = append(kept, id)
		}
	}
	t.s.state.offered[userID] = kept
	return nil
}

func (t *memTx) SetUserRating(ctx context.Context, userID uuid.UUID, rating decimal.Decimal) error {
	t.s.state.users[userID].Rating = rating
	return nil
}

func (t *memTx) InsertTrade(ctx context.Context, tr *models.Trade) error {
	if err := t.s.fail("InsertTrade"); err != nil {
		return err
	}
	t.s.state.trades[tr.ID] = copyTrade(tr)
	return nil
}

func (t *memTx) GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	if tr, ok := t.s.state.trades[id]; ok {
		return copyTrade(tr), nil
	}
	return nil, nil
}

func (t *memTx) LockTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error) {
	return t.GetTrade(ctx, id)
}

func (t *memTx) UpdateTrade(ctx context.Context, tr *models.Trade) error {
	if err := t.s.fail("UpdateTrade"); err != nil {
		return err
	}
	t.s.state.trades[tr.ID] = copyTrade(tr)
	return nil
}

func (t *memTx) DeleteTrade(ctx context.Context, id uuid.UUID) error {
	delete(t.s.state.trades, id)
	return nil
}

func (t *memTx) GetQueueEntry(ctx context.Context, id uuid.UUID) (*models.QueueEntry, error) {
	if e, ok := t.s.state.queue[id]; ok {
		return copyEntry(e), nil
	}
	return nil, nil
}

func (t *memTx) FindQueueEntry(ctx context.Context, tradeID, userID uuid.UUID) (*models.QueueEntry, error) {
	for _, e := range t.s.state.queue {
		if e.TradeID == tradeID && e.UserID == userID {
			return copyEntry(e), nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertQueueEntry(ctx context.Context, e *models.QueueEntry) error {
	t.s.state.queue[e.ID] = copyEntry(e)
	return nil
}

func (t *memTx) UpdateQueueEntry(ctx context.Context, e *models.QueueEntry) error {
	t.s.state.queue[e.ID] = copyEntry(e)
	return nil
}

func (t *memTx) DeleteQueueEntriesExcept(ctx context.Context, tradeID, keepID uuid.UUID) (int, error) {
	if err := t.s.fail("DeleteQueueEntriesExcept"); err != nil {
		return 0, err
	}
	n := 0
	for id, e := range t.s.state.queue {
		if e.TradeID == tradeID && id != keepID {
			delete(t.s.state.queue, id)
			n++
		}
	}
	return n, nil
}

func (t *memTx) GetReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	if r, ok := t.s.state.reviews[id]; ok {
		return copyReview(r), nil
	}
	return nil, nil
}

func (t *memTx) GetReviewByTrade(ctx context.Context, tradeID uuid.UUID) (*models.Review, error) {
	for _, r := range t.s.state.reviews {
		if r.TradeID == tradeID {
			return copyReview(r), nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertReview(ctx context.Context, r *models.Review) error {
	t.s.state.reviews[r.ID] = copyReview(r)
	return nil
}

func (t *memTx) UpdateReview(ctx context.Context, r *models.Review) error {
	t.s.state.reviews[r.ID] = copyReview(r)
	return nil
}

func (t *memTx) DeleteReview(ctx context.Context, id uuid.UUID) error {
	delete(t.s.state.reviews, id)
	return nil
}

func (t *memTx) ListRevieweeRatings(ctx context.Context, userID uuid.UUID) ([]decimal.Decimal, error) {
	var out []decimal.Decimal
	for _, r := range t.s.state.reviews {
		if r.RevieweeID == userID {
			out = append(out, r.Rating)
		}
	}
	return out, nil
}

func (t *memTx) DeleteTradeMessages(ctx context.Context, tradeID uuid.UUID) (int, error) {
	n := 0
	for id, m := range t.s.state.messages {
		if m.TradeID == tradeID {
			delete(t.s.state.messages, id)
			n++
		}
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// copies
// ---------------------------------------------------------------------------

func copySkill(s *models.Skill) *models.Skill {
	c := *s
	return &c
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func copyTrade(t *models.Trade) *models.Trade {
	c := *t
	c.InitiatorSkills = append([]uuid.UUID(nil), t.InitiatorSkills...)
	c.DesiredSkills = append([]uuid.UUID(nil), t.DesiredSkills...)
	c.ResponderSkills = append([]uuid.UUID(nil), t.ResponderSkills...)
	if t.ResponderID != nil {
		id := *t.ResponderID
		c.ResponderID = &id
	}
	return &c
}

func copyEntry(e *models.QueueEntry) *models.QueueEntry {
	c := *e
	return &c
}

func copyReview(r *models.Review) *models.Review {
	c := *r
	return &c
}
