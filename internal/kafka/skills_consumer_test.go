package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
)

// ---------------------------------------------------------------------------
// Mock SkillRepository
// ---------------------------------------------------------------------------

type mockSkillRepo struct {
	mu      sync.Mutex
	upserts []skillUpsert
	err     error
	failOn  string
}

type skillUpsert struct {
	Name        string
	Description string
}

func (m *mockSkillRepo) UpsertSkill(ctx context.Context, name, description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil || name == m.failOn {
		return errors.New("db error")
	}
	m.upserts = append(m.upserts, skillUpsert{Name: name, Description: description})
	return nil
}

func (m *mockSkillRepo) SkillExists(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.upserts {
		if u.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSkillRepo) Upserts() []skillUpsert {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]skillUpsert, len(m.upserts))
	copy(cp, m.upserts)
	return cp
}

func newTestConsumer(repo SkillRepository) *SkillsConsumer {
	return &SkillsConsumer{repo: repo, log: logger.NewNop()}
}

func encodeEvent(t *testing.T, event CatalogEvent) kafkago.Message {
	t.Helper()
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return kafkago.Message{Value: payload}
}

// ---------------------------------------------------------------------------
// processMessage tests
// ---------------------------------------------------------------------------

func TestSkillsConsumer_processMessage_Snapshot(t *testing.T) {
	repo := &mockSkillRepo{}
	consumer := newTestConsumer(repo)

	msg := encodeEvent(t, CatalogEvent{
		EventType: EventCatalogSnapshot,
		Data: CatalogEventData{Skills: []CatalogSkill{
			{Name: "Guitar", Description: "Six strings"},
			{Name: "  Spanish   Language ", Description: ""},
			{Name: "   "},
		}},
	})

	err := consumer.processMessage(context.Background(), msg)
	require.NoError(t, err)

	upserts := repo.Upserts()
	require.Len(t, upserts, 2)
	assert.Equal(t, skillUpsert{Name: "Guitar", Description: "Six strings"}, upserts[0])
	assert.Equal(t, "Spanish Language", upserts[1].Name)
}

func TestSkillsConsumer_processMessage_SnapshotErrorContinues(t *testing.T) {
	repo := &mockSkillRepo{failOn: "Cooking"}
	consumer := newTestConsumer(repo)

	msg := encodeEvent(t, CatalogEvent{
		EventType: EventCatalogSnapshot,
		Data: CatalogEventData{Skills: []CatalogSkill{
			{Name: "Cooking"}, {Name: "Guitar"},
		}},
	})

	err := consumer.processMessage(context.Background(), msg)
	require.NoError(t, err)

	upserts := repo.Upserts()
	require.Len(t, upserts, 1)
	assert.Equal(t, "Guitar", upserts[0].Name)
}

func TestSkillsConsumer_processMessage_SkillUpserted(t *testing.T) {
	repo := &mockSkillRepo{}
	consumer := newTestConsumer(repo)

	msg := encodeEvent(t, CatalogEvent{
		EventType: EventSkillUpserted,
		Data:      CatalogEventData{Name: "Pottery", Description: "Wheel throwing"},
	})

	require.NoError(t, consumer.processMessage(context.Background(), msg))
	require.NoError(t, consumer.processMessage(context.Background(), msg))

	assert.Len(t, repo.Upserts(), 2)
}

func TestSkillsConsumer_processMessage_SkillUpsertedWithoutName(t *testing.T) {
	consumer := newTestConsumer(&mockSkillRepo{})

	msg := encodeEvent(t, CatalogEvent{EventType: EventSkillUpserted})

	assert.Error(t, consumer.processMessage(context.Background(), msg))
}

func TestSkillsConsumer_processMessage_UpsertError(t *testing.T) {
	consumer := newTestConsumer(&mockSkillRepo{err: errors.New("down")})

	msg := encodeEvent(t, CatalogEvent{EventType: EventSkillUpserted, Data: CatalogEventData{Name: "Chess"}})

	err := consumer.processMessage(context.Background(), msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Chess")
}

func TestSkillsConsumer_processMessage_SkillRetiredKeepsSkill(t *testing.T) {
	repo := &mockSkillRepo{}
	consumer := newTestConsumer(repo)

	msg := encodeEvent(t, CatalogEvent{EventType: EventSkillRetired, Data: CatalogEventData{Name: "Fax"}})

	require.NoError(t, consumer.processMessage(context.Background(), msg))
	assert.Empty(t, repo.Upserts())
}

func TestSkillsConsumer_processMessage_UnknownEventType(t *testing.T) {
	repo := &mockSkillRepo{}
	consumer := newTestConsumer(repo)

	msg := encodeEvent(t, CatalogEvent{EventType: "SOMETHING_ELSE"})

	require.NoError(t, consumer.processMessage(context.Background(), msg))
	assert.Empty(t, repo.Upserts())
}

func TestSkillsConsumer_processMessage_InvalidJSON(t *testing.T) {
	consumer := newTestConsumer(&mockSkillRepo{})

	err := consumer.processMessage(context.Background(), kafkago.Message{Value: []byte("{invalid")})

	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Start lifecycle
// ---------------------------------------------------------------------------

type mockReader struct {
	cfg    kafkago.ReaderConfig
	msgs   chan kafkago.Message
	mu     sync.Mutex
	closed bool
}

func newMockReader(topic string, buffer int) *mockReader {
	return &mockReader{
		cfg:  kafkago.ReaderConfig{Topic: topic},
		msgs: make(chan kafkago.Message, buffer),
	}
}

func (r *mockReader) ReadMessage(ctx context.Context) (kafkago.Message, error) {
	select {
	case msg := <-r.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafkago.Message{}, ctx.Err()
	}
}

func (r *mockReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *mockReader) Config() kafkago.ReaderConfig {
	return r.cfg
}

func TestSkillsConsumer_Start_ProcessesUntilCancelled(t *testing.T) {
	repo := &mockSkillRepo{}
	reader := newMockReader("skill-catalog", 1)
	consumer := &SkillsConsumer{reader: reader, repo: repo, log: logger.NewNop()}
	reader.msgs <- encodeEvent(t, CatalogEvent{EventType: EventSkillUpserted, Data: CatalogEventData{Name: "Chess"}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	require.Eventually(t, func() bool { return len(repo.Upserts()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
}
