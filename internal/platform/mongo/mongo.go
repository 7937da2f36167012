package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names shared by the Mongo-backed stores.
const (
	UsersCollection    = "users"
	AgenciesCollection = "agencies"
	ClientsCollection  = "clients"
)

const duplicateKeyCode = 11000

// Connect opens a client, pings the primary and returns the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// EnsureIndexes creates the unique indexes that back identifier uniqueness.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		AgenciesCollection: {
			{Keys: bson.D{{Key: "agencyId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		ClientsCollection: {
			{Keys: bson.D{{Key: "clientId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "agencyId", Value: 1}, {Key: "totalBill", Value: -1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// IsDuplicateKey reports whether err is a unique index rejection.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// DuplicateKeyIndexes returns the batch positions an insert rejected for a
// duplicate key. Ordered inserts stop at the first one.
func DuplicateKeyIndexes(err error) []int {
	var indexes []int
	var bulk mongo.BulkWriteException
	if errors.As(err, &bulk) {
		for _, we := range bulk.WriteErrors {
			if we.Code == duplicateKeyCode {
				indexes = append(indexes, we.Index)
			}
		}
	}
	var single mongo.WriteException
	if errors.As(err, &single) {
		for _, we := range single.WriteErrors {
			if we.Code == duplicateKeyCode {
				indexes = append(indexes, we.Index)
			}
		}
	}
	return indexes
}
