package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agencyhub/internal/agency/models"
	platformmongo "agencyhub/internal/platform/mongo"
	"agencyhub/pkg/platform/sentinel"
)

// MongoStore persists clients in the clients collection. InsertMany is not
// atomic: on a failed batch some documents may land, which the onboarding
// rollback removes through DeleteMany.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(platformmongo.ClientsCollection)}
}

func (s *MongoStore) CreateMany(ctx context.Context, clients []*models.Client) error {
	docs := make([]any, len(clients))
	for i, c := range clients {
		docs[i] = c
	}
	if _, err := s.coll.InsertMany(ctx, docs); err != nil {
		if platformmongo.IsDuplicateKey(err) {
			var taken []string
			for _, i := range platformmongo.DuplicateKeyIndexes(err) {
				if i >= 0 && i < len(clients) {
					taken = append(taken, clients[i].ClientID)
				}
			}
			return sentinel.AlreadyUsed(taken...)
		}
		return fmt.Errorf("insert clients: %w", err)
	}
	return nil
}

func (s *MongoStore) FindExistingIDs(ctx context.Context, clientIDs []string) ([]string, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"clientId": bson.M{"$in": clientIDs}},
		options.Find().SetProjection(bson.M{"clientId": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("find existing clients: %w", err)
	}
	var found []struct {
		ClientID string `bson:"clientId"`
	}
	if err := cur.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("decode existing clients: %w", err)
	}
	ids := make([]string, len(found))
	for i, f := range found {
		ids[i] = f.ClientID
	}
	return ids, nil
}

func (s *MongoStore) FindByID(ctx context.Context, clientID string) (*models.Client, error) {
	var c models.Client
	if err := s.coll.FindOne(ctx, bson.M{"clientId": clientID}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &c, nil
}

// List returns all clients, newest first; _id breaks ties within a batch.
func (s *MongoStore) List(ctx context.Context) ([]*models.Client, error) {
	sort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	var clients []*models.Client
	if err := cur.All(ctx, &clients); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	return clients, nil
}

func (s *MongoStore) Update(ctx context.Context, clientID string, patch models.ClientPatch, now time.Time) (*models.Client, error) {
	set := bson.M{"updatedAt": now}
	if patch.AgencyID != nil {
		set["agencyId"] = *patch.AgencyID
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.PhoneNumber != nil {
		set["phoneNumber"] = *patch.PhoneNumber
	}
	if patch.TotalBill != nil {
		set["totalBill"] = *patch.TotalBill
	}

	var c models.Client
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"clientId": clientID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update client: %w", err)
	}
	return &c, nil
}

// DeleteMany removes the listed clients that still belong to agencyID.
func (s *MongoStore) DeleteMany(ctx context.Context, agencyID string, clientIDs []string) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.M{"agencyId": agencyID, "clientId": bson.M{"$in": clientIDs}})
	if err != nil {
		return 0, fmt.Errorf("delete clients: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) CountByAgency(ctx context.Context, agencyID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"agencyId": agencyID})
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return n, nil
}
