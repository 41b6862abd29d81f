package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// memoryStore mimics the database store: unpublished events are handed out
// in id order and marked according to the publish outcome.
type memoryStore struct {
	mu     sync.Mutex
	events []*Event
}

func (s *memoryStore) ProcessPending(_ context.Context, limit int, publish func(*Event) error) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var published, failed int
	for _, ev := range s.events {
		if published+failed == limit {
			break
		}
		if ev.PublishedAt != nil {
			continue
		}
		if err := publish(ev); err != nil {
			failed++
			ev.Attempts++
			msg := err.Error()
			ev.LastError = &msg
			continue
		}
		now := time.Now()
		ev.PublishedAt = &now
		published++
	}
	return published, failed, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []Message
	fail     map[string]bool
}

func (p *recordingPublisher) Publish(_ context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail[msg.Topic] {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

func newEvent(id int64, topic string) *Event {
	return &Event{ID: id, Topic: topic, EventType: EventProjectSubmitted, Payload: datatypes.JSON(`{"name":"Mangrove A"}`)}
}

func TestRunOncePublishesInOrder(t *testing.T) {
	store := &memoryStore{events: []*Event{newEvent(1, "projects"), newEvent(2, "projects.x"), newEvent(3, "projects")}}
	pub := &recordingPublisher{}
	relay := NewRelay(store, pub, zap.NewNop(), RelayConfig{BatchSize: 2})

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, pub.messages, 3)
	assert.Equal(t, "projects", pub.messages[0].Topic)
	assert.Equal(t, EventProjectSubmitted, pub.messages[0].Type)
	assert.JSONEq(t, `{"name":"Mangrove A"}`, string(pub.messages[0].Payload))

	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunOnceRetriesFailures(t *testing.T) {
	failing := newEvent(1, "wallets.w")
	store := &memoryStore{events: []*Event{failing, newEvent(2, "projects")}}
	pub := &recordingPublisher{fail: map[string]bool{"wallets.w": true}}
	relay := NewRelay(store, pub, zap.NewNop(), RelayConfig{})

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, failing.Attempts)
	require.NotNil(t, failing.LastError)
	assert.Equal(t, "broker unavailable", *failing.LastError)

	pub.mu.Lock()
	pub.fail = nil
	pub.mu.Unlock()

	n, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NotNil(t, failing.PublishedAt)
}

func TestStartRunsOnSchedule(t *testing.T) {
	store := &memoryStore{events: []*Event{newEvent(1, "projects")}}
	pub := &recordingPublisher{}
	relay := NewRelay(store, pub, zap.NewNop(), RelayConfig{Schedule: "@every 1s"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, relay.Start(ctx))
	assert.Error(t, relay.Start(ctx))

	assert.Eventually(t, func() bool { return pub.count() == 1 }, 5*time.Second, 50*time.Millisecond)
	relay.Stop()
}

func TestStartRejectsBadSchedule(t *testing.T) {
	relay := NewRelay(&memoryStore{}, &recordingPublisher{}, zap.NewNop(), RelayConfig{Schedule: "whenever"})
	assert.Error(t, relay.Start(context.Background()))
}

func TestParseTopic(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		topic  string
		kind   TopicKind
		scoped uuid.UUID
	}{
		{"projects", TopicAllProjects, uuid.Nil},
		{OwnerTopic(id), TopicOwner, id},
		{ProjectTopic(id), TopicProject, id},
		{WalletTopic(id), TopicWallet, id},
		{"projects.owner.nope", TopicInvalid, uuid.Nil},
		{"projects.", TopicInvalid, uuid.Nil},
		{"sensors", TopicInvalid, uuid.Nil},
	}

	for _, tt := range tests {
		kind, scoped := ParseTopic(tt.topic)
		assert.Equal(t, tt.kind, kind, tt.topic)
		assert.Equal(t, tt.scoped, scoped, tt.topic)
	}
}

func TestProjectTopics(t *testing.T) {
	projectID, ownerID := uuid.New(), uuid.New()
	assert.Equal(t, []string{"projects", "projects.owner." + ownerID.String(), "projects." + projectID.String()},
		ProjectTopics(projectID, ownerID))
}
