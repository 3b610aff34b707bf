package mongo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/watchara-p/inventory-order-service/internal/catalog/application"
	"github.com/watchara-p/inventory-order-service/internal/catalog/domain"
)

const collection = "products"

type Repository struct {
	log *slog.Logger
	col *mongo.Collection
}

func NewRepository(log *slog.Logger, db *mongo.Database) *Repository {
	return &Repository{log: log, col: db.Collection(collection)}
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	res, err := r.col.InsertOne(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return p, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	cur, err := r.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	products := []domain.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *Repository) Get(ctx context.Context, id string) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, application.ErrProductNotFound
	}
	var p domain.Product
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, application.ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) Update(ctx context.Context, id string, patch domain.Patch) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, application.ErrProductNotFound
	}

	set := bson.M{}
	if patch.ProductID != nil {
		set["productId"] = *patch.ProductID
	}
	if patch.ProductName != nil {
		set["productName"] = *patch.ProductName
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}

	var p domain.Product
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, application.ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id string) (domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.Product{}, application.ErrProductNotFound
	}
	var p domain.Product
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Product{}, application.ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return p, nil
}

// AdjustQuantity applies the stock delta with a single $inc. For
// decrements the filter also requires quantity >= -delta, so the
// stored count can never pass below zero; a non-matching guard is
// distinguished from a missing product with a follow-up existence
// check.
func (r *Repository) AdjustQuantity(ctx context.Context, id string, delta int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return application.ErrProductNotFound
	}

	filter := bson.M{"_id": oid}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"quantity": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	if delta < 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		if n > 0 {
			return application.ErrInsufficientStock
		}
	}
	return application.ErrProductNotFound
}
