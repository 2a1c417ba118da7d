package wishlist

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"prodexa/internal/db"
	"prodexa/internal/domain/users"
)

// MongoRepository stores the wishlist as an array of product ids on the
// user document.
type MongoRepository struct {
	users *mongo.Collection
}

func NewMongoRepository(database *mongo.Database) Store {
	return &MongoRepository{users: database.Collection(users.UsersCollection)}
}

func (r *MongoRepository) List(ctx context.Context, userID string) ([]string, error) {
	uid, ok := db.ObjectID(userID)
	if !ok {
		return nil, ErrUserNotFound
	}

	var doc struct {
		Wishlist []primitive.ObjectID `bson:"wishlist"`
	}
	opts := options.FindOne().SetProjection(bson.M{"wishlist": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": uid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	ids := make([]string, len(doc.Wishlist))
	for i, oid := range doc.Wishlist {
		ids[i] = oid.Hex()
	}
	return ids, nil
}

func (r *MongoRepository) Add(ctx context.Context, userID, productID string) error {
	uid, ok := db.ObjectID(userID)
	if !ok {
		return ErrUserNotFound
	}
	pid, ok := db.ObjectID(productID)
	if !ok {
		return fmt.Errorf("add to wishlist: malformed product id %q", productID)
	}
	res, err := r.users.UpdateByID(ctx, uid, bson.M{"$addToSet": bson.M{"wishlist": pid}})
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	switch {
	case res.MatchedCount == 0:
		return ErrUserNotFound
	case res.ModifiedCount == 0:
		return ErrAlreadyListed
	}
	return nil
}

func (r *MongoRepository) Remove(ctx context.Context, userID, productID string) error {
	uid, ok := db.ObjectID(userID)
	if !ok {
		return ErrUserNotFound
	}
	pid, ok := db.ObjectID(productID)
	if !ok {
		return ErrNotListed
	}
	res, err := r.users.UpdateByID(ctx, uid, bson.M{"$pull": bson.M{"wishlist": pid}})
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	switch {
	case res.MatchedCount == 0:
		return ErrUserNotFound
	case res.ModifiedCount == 0:
		return ErrNotListed
	}
	return nil
}

func (r *MongoRepository) Contains(ctx context.Context, userID, productID string) (bool, error) {
	uid, ok := db.ObjectID(userID)
	if !ok {
		return false, nil
	}
	pid, ok := db.ObjectID(productID)
	if !ok {
		return false, nil
	}
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": uid, "wishlist": pid})
	if err != nil {
		return false, fmt.Errorf("check wishlist: %w", err)
	}
	return n > 0, nil
}
