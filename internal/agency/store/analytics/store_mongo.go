package analytics

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"agencyhub/internal/agency/models"
	platformmongo "agencyhub/internal/platform/mongo"
)

// MongoStore runs the top-client aggregation over the clients collection.
type MongoStore struct {
	clients *mongo.Collection
}

func NewMongo(db *mongo.Database) *MongoStore {
	return &MongoStore{clients: db.Collection(platformmongo.ClientsCollection)}
}

func stage(op string, value any) bson.D {
	return bson.D{{Key: op, Value: value}}
}

// topClientsPipeline groups by agency for the max bill, looks the matching
// clients back up (keeping ties), joins the agency name and flattens.
func topClientsPipeline() mongo.Pipeline {
	matchTop := stage("$match", stage("$expr", stage("$and", bson.A{
		stage("$eq", bson.A{"$agencyId", "$$agencyId"}),
		stage("$eq", bson.A{"$totalBill", "$$maxBill"}),
	})))

	return mongo.Pipeline{
		stage("$group", bson.D{
			{Key: "_id", Value: "$agencyId"},
			{Key: "maxBill", Value: stage("$max", "$totalBill")},
		}),
		stage("$lookup", bson.D{
			{Key: "from", Value: platformmongo.ClientsCollection},
			{Key: "let", Value: bson.D{
				{Key: "agencyId", Value: "$_id"},
				{Key: "maxBill", Value: "$maxBill"},
			}},
			{Key: "pipeline", Value: bson.A{matchTop}},
			{Key: "as", Value: "topClients"},
		}),
		stage("$lookup", bson.D{
			{Key: "from", Value: platformmongo.AgenciesCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "agencyId"},
			{Key: "as", Value: "agency"},
		}),
		stage("$unwind", "$agency"),
		stage("$unwind", "$topClients"),
		stage("$project", bson.D{
			{Key: "_id", Value: 0},
			{Key: "agencyName", Value: "$agency.name"},
			{Key: "clientName", Value: "$topClients.name"},
			{Key: "totalBill", Value: "$topClients.totalBill"},
		}),
		stage("$sort", bson.D{{Key: "totalBill", Value: -1}}),
	}
}

func (s *MongoStore) TopClientsPerAgency(ctx context.Context) ([]models.TopClient, error) {
	cur, err := s.clients.Aggregate(ctx, topClientsPipeline())
	if err != nil {
		return nil, fmt.Errorf("aggregate top clients: %w", err)
	}
	var out []models.TopClient
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode top clients: %w", err)
	}
	return out, nil
}
