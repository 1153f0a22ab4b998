package handlers

import (
	"context"
	"log"

	"github.com/sharebutes/sharebutes/db"
	"github.com/sharebutes/sharebutes/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var publicUserProjection = bson.M{"name": 1, "organization": 1, "phone": 1}

// loadPublicUser resolves a single owner reference to its public profile.
// Lookup failures are logged and surfaced as nil; a missing profile never
// fails the parent request.
func loadPublicUser(ctx context.Context, id primitive.ObjectID) *models.PublicUser {
	var user models.PublicUser

	err := db.Collection(db.UsersCollection).FindOne(
		ctx,
		bson.M{"_id": id},
		options.FindOne().SetProjection(publicUserProjection),
	).Decode(&user)

	if err != nil {
		log.Printf("Failed to load public profile for user %s: %v", id.Hex(), err)
		return nil
	}

	return &user
}

// loadPublicUsers batch-resolves owner references for list endpoints.
func loadPublicUsers(ctx context.Context, ids []primitive.ObjectID) map[primitive.ObjectID]models.PublicUser {
	profiles := make(map[primitive.ObjectID]models.PublicUser)

	if len(ids) == 0 {
		return profiles
	}

	cursor, err := db.Collection(db.UsersCollection).Find(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(publicUserProjection),
	)

	if err != nil {
		log.Printf("Failed to load public profiles: %v", err)
		return profiles
	}

	defer cursor.Close(ctx)

	var users []models.PublicUser
	if err := cursor.All(ctx, &users); err != nil {
		log.Printf("Failed to decode public profiles: %v", err)
		return profiles
	}

	for _, u := range users {
		profiles[u.ID] = u
	}

	return profiles
}
