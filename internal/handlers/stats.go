package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/db"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
)

// PlatformStats is the public snapshot served by GET /api/stats and pushed
// over the live stats socket.
type PlatformStats struct {
	ActiveDonors       int64     `json:"activeDonors"`
	ActiveNGOs         int64     `json:"activeNgos"`
	AvailableDonations int64     `json:"availableDonations"`
	ClaimedDonations   int64     `json:"claimedDonations"`
	PickedUpDonations  int64     `json:"pickedUpDonations"`
	PendingRequests    int64     `json:"pendingRequests"`
	FulfilledRequests  int64     `json:"fulfilledRequests"`
	GeneratedAt        time.Time `json:"generatedAt"`
}

func fetchPlatformStats(ctx context.Context) (PlatformStats, error) {
	users := db.Collection(db.UsersCollection)
	donations := db.Collection(db.DonationsCollection)
	requests := db.Collection(db.RequestsCollection)

	stats := PlatformStats{GeneratedAt: time.Now()}

	counts := []struct {
		dest   *int64
		coll   string
		filter bson.M
	}{
		{&stats.ActiveDonors, db.UsersCollection, bson.M{"userType": models.UserTypeDonor, "isActive": true}},
		{&stats.ActiveNGOs, db.UsersCollection, bson.M{"userType": models.UserTypeNGO, "isActive": true}},
		{&stats.AvailableDonations, db.DonationsCollection, bson.M{"status": models.DonationAvailable}},
		{&stats.ClaimedDonations, db.DonationsCollection, bson.M{"status": models.DonationClaimed}},
		{&stats.PickedUpDonations, db.DonationsCollection, bson.M{"status": models.DonationPickedUp}},
		{&stats.PendingRequests, db.RequestsCollection, bson.M{"status": models.RequestPending}},
		{&stats.FulfilledRequests, db.RequestsCollection, bson.M{"status": models.RequestFulfilled}},
	}

	for _, c := range counts {
		var coll = users
		switch c.coll {
		case db.DonationsCollection:
			coll = donations
		case db.RequestsCollection:
			coll = requests
		}

		n, err := coll.CountDocuments(ctx, c.filter)
		if err != nil {
			return stats, err
		}
		*c.dest = n
	}

	return stats, nil
}

func GetPlatformStats(ctx *gin.Context) {
	stats, err := fetchPlatformStats(ctx.Request.Context())

	if err != nil {
		log.Printf("Failed to fetch platform stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve platform statistics")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{"stats": stats})
}
