package mongo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/watchara-p/inventory-order-service/internal/order/application"
	"github.com/watchara-p/inventory-order-service/internal/order/domain"
)

const collection = "orders"

type Repository struct {
	log *slog.Logger
	col *mongo.Collection
}

func NewRepository(log *slog.Logger, db *mongo.Database) *Repository {
	return &Repository{log: log, col: db.Collection(collection)}
}

func (r *Repository) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	res, err := r.col.InsertOne(ctx, o)
	if err != nil {
		return domain.Order{}, err
	}
	o.ID = res.InsertedID.(primitive.ObjectID)
	return o, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	cur, err := r.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	orders := []domain.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Order{}, application.ErrOrderNotFound
	}
	var o domain.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Order{}, application.ErrOrderNotFound
		}
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Replace(ctx context.Context, o domain.Order) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return application.ErrOrderNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return application.ErrOrderNotFound
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return application.ErrOrderNotFound
	}
	return nil
}
