package outbox

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pending []Event
	sent    []string
	failed  map[string]string
}

func (s *fakeStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	events := s.pending
	s.pending = nil
	return events, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, ids []string) error {
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	if s.failed == nil {
		s.failed = map[string]string{}
	}
	s.failed[id] = errMsg
	return nil
}

type fakeProducer struct {
	messages []kafka.Message
	failKeys map[string]bool
}

func (p *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if p.failKeys[string(m.Key)] {
			return errors.New("broker unavailable")
		}
		p.messages = append(p.messages, m)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRelayDispatchesAndMarksSent(t *testing.T) {
	store := &fakeStore{pending: []Event{
		{ID: "ev-1", AggregateID: "order-1", Type: "OrderCreated", Payload: []byte(`{}`)},
		{ID: "ev-2", AggregateID: "order-2", Type: "OrderDeleted", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{}
	relay := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), producer, "order.events"), "relay-test")

	relay.tick(context.Background())

	require.Len(t, producer.messages, 2)
	assert.Equal(t, []string{"ev-1", "ev-2"}, store.sent)
	assert.Empty(t, store.failed)
	assert.Equal(t, "order-1", string(producer.messages[0].Key))
}

func TestRelayMarksFailedEventsIndividually(t *testing.T) {
	store := &fakeStore{pending: []Event{
		{ID: "ev-1", AggregateID: "order-1", Type: "OrderCreated"},
		{ID: "ev-2", AggregateID: "order-2", Type: "OrderCreated"},
	}}
	producer := &fakeProducer{failKeys: map[string]bool{"order-1": true}}
	relay := NewRelay(discardLogger(), store, NewDispatcher(discardLogger(), producer, "order.events"), "relay-test")

	relay.tick(context.Background())

	assert.Equal(t, []string{"ev-2"}, store.sent)
	require.Contains(t, store.failed, "ev-1")
	assert.Equal(t, "broker unavailable", store.failed["ev-1"])
}

func TestDispatcherSetsEventHeaders(t *testing.T) {
	producer := &fakeProducer{}
	d := NewDispatcher(discardLogger(), producer, "order.events")

	err := d.Dispatch(context.Background(), Event{
		ID:          "ev-1",
		AggregateID: "order-1",
		Type:        "OrderUpdated",
		Traceparent: "00-abc-def-01",
	})
	require.NoError(t, err)
	require.Len(t, producer.messages, 1)

	headers := map[string]string{}
	for _, h := range producer.messages[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "OrderUpdated", headers["event_type"])
	assert.Equal(t, "00-abc-def-01", headers["traceparent"])
}
