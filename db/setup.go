package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client   *mongo.Client
	database string
)

const (
	UsersCollection     = "users"
	DonationsCollection = "donations"
	RequestsCollection  = "requests"
)

func ConnectDatabase(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))

	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}

	Client = client

	database = os.Getenv("MONGO_DB")
	if database == "" {
		database = "sharebutes"
	}

	return nil
}

func Collection(name string) *mongo.Collection {
	return Client.Database(database).Collection(name)
}

// EnsureIndexes creates the indexes the query layer relies on. Safe to call
// on every startup; Mongo treats an existing identical index as a no-op.
func EnsureIndexes(ctx context.Context) error {
	users := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	donations := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "location.coordinates", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "donor", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "expiryTime", Value: 1}}},
		{Keys: bson.D{{Key: "isUrgent", Value: 1}, {Key: "status", Value: 1}}},
	}

	requests := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "location.coordinates", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "requester", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "neededBy", Value: 1}}},
		{Keys: bson.D{{Key: "urgency", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "isUrgent", Value: 1}, {Key: "status", Value: 1}}},
	}

	for collection, models := range map[string][]mongo.IndexModel{
		UsersCollection:     users,
		DonationsCollection: donations,
		RequestsCollection:  requests,
	} {
		if _, err := Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}

	return nil
}
