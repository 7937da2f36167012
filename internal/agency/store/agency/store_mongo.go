package agency

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"agencyhub/internal/agency/models"
	platformmongo "agencyhub/internal/platform/mongo"
	"agencyhub/pkg/platform/sentinel"
)

// MongoStore persists agencies in the agencies collection. A unique index
// on agencyId backs write-time conflict detection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(platformmongo.AgenciesCollection)}
}

func (s *MongoStore) Create(ctx context.Context, a *models.Agency) error {
	if _, err := s.coll.InsertOne(ctx, a); err != nil {
		if platformmongo.IsDuplicateKey(err) {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert agency: %w", err)
	}
	return nil
}

func (s *MongoStore) FindByID(ctx context.Context, agencyID string) (*models.Agency, error) {
	var a models.Agency
	if err := s.coll.FindOne(ctx, bson.M{"agencyId": agencyID}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find agency: %w", err)
	}
	return &a, nil
}

func (s *MongoStore) Delete(ctx context.Context, agencyID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"agencyId": agencyID})
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
