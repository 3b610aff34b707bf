package mongo

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/watchara-p/inventory-order-service/pkg/outbox"
	"github.com/watchara-p/inventory-order-service/pkg/tracing"
)

const outboxCollection = "outbox"

// OutboxStore keeps order events in an outbox collection until the
// relay ships them to kafka. Claims use a lease so a crashed relay's
// events become claimable again.
type OutboxStore struct {
	log *slog.Logger
	col *mongo.Collection
}

func NewOutboxStore(log *slog.Logger, db *mongo.Database) *OutboxStore {
	return &OutboxStore{log: log, col: db.Collection(outboxCollection)}
}

type eventDoc struct {
	ID            string    `bson:"_id"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	Type          string    `bson:"type"`
	Payload       []byte    `bson:"payload"`
	Traceparent   string    `bson:"traceparent,omitempty"`
	CreatedAt     time.Time `bson:"createdAt"`
	Status        string    `bson:"status"`
	RelayID       string    `bson:"relayId,omitempty"`
	LeaseUntil    time.Time `bson:"leaseUntil,omitempty"`
	RetryCount    int       `bson:"retryCount"`
	LastError     string    `bson:"lastError,omitempty"`
}

// Append records one pending event. Called right after the order write
// it belongs to; without multi-document transactions the pair is not
// atomic, so a crash in between loses the event but never the order.
func (s *OutboxStore) Append(ctx context.Context, aggregateType, aggregateID, eventType string, payload []byte) error {
	doc := eventDoc{
		ID:            uuid.NewString(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Type:          eventType,
		Payload:       payload,
		Traceparent:   tracing.Traceparent(ctx),
		CreatedAt:     time.Now().UTC(),
		Status:        string(outbox.StatusPending),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// LockBatch claims up to batchSize events: pending ones, plus
// in-progress ones whose lease expired. Each claim is a single
// FindOneAndUpdate so two relays never take the same event.
func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	now := time.Now().UTC()
	filter := bson.M{"$or": bson.A{
		bson.M{"status": string(outbox.StatusPending)},
		bson.M{"status": string(outbox.StatusInProgress), "leaseUntil": bson.M{"$lt": now}},
	}}
	update := bson.M{"$set": bson.M{
		"status":     string(outbox.StatusInProgress),
		"relayId":    relayID,
		"leaseUntil": now.Add(lease),
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	var events []outbox.Event
	for len(events) < batchSize {
		var doc eventDoc
		err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			break
		}
		if err != nil {
			return nil, err
		}
		events = append(events, outbox.Event{
			ID:            doc.ID,
			AggregateType: doc.AggregateType,
			AggregateID:   doc.AggregateID,
			Type:          doc.Type,
			Payload:       doc.Payload,
			Traceparent:   doc.Traceparent,
			CreatedAt:     doc.CreatedAt,
			Status:        outbox.Status(doc.Status),
			RelayID:       doc.RelayID,
			RetryCount:    doc.RetryCount,
			LastError:     doc.LastError,
		})
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []string) error {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": string(outbox.StatusSent)}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errors.New("no outbox events updated")
	}
	return nil
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	_, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{"status": string(outbox.StatusFailed), "lastError": errMsg},
			"$inc": bson.M{"retryCount": 1},
		},
	)
	return err
}
