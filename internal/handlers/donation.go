package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sharebutes/sharebutes/db"
	"github.com/sharebutes/sharebutes/internal/models"
	"github.com/sharebutes/sharebutes/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DonationRequest struct {
	Title               string              `json:"title" binding:"required"`
	Description         string              `json:"description" binding:"required"`
	FoodType            string              `json:"foodType" binding:"required"`
	Quantity            models.Quantity     `json:"quantity" binding:"required"`
	Allergens           []string            `json:"allergens"`
	DietaryRestrictions []string            `json:"dietaryRestrictions"`
	PreparationTime     time.Time           `json:"preparationTime" binding:"required"`
	ExpiryTime          time.Time           `json:"expiryTime" binding:"required"`
	PickupTime          models.PickupWindow `json:"pickupTime" binding:"required"`
	Location            models.Location     `json:"location" binding:"required"`
	Images              []models.Image      `json:"images"`
	Tags                []string            `json:"tags"`
	IsUrgent            bool                `json:"isUrgent"`
	EstimatedValue      float64             `json:"estimatedValue"`
	Notes               string              `json:"notes"`
}

func (body *DonationRequest) toDonation(donor primitive.ObjectID, now time.Time) models.Donation {
	allergens := body.Allergens
	if len(allergens) == 0 {
		allergens = []string{"none"}
	}

	restrictions := body.DietaryRestrictions
	if len(restrictions) == 0 {
		restrictions = []string{"none"}
	}

	images := body.Images
	if images == nil {
		images = []models.Image{}
	}

	tags := body.Tags
	if tags == nil {
		tags = []string{}
	}

	location := body.Location
	if location.Coordinates.Type == "" {
		location.Coordinates.Type = "Point"
	}
	if location.Address.Country == "" {
		location.Address.Country = "United States"
	}

	return models.Donation{
		Donor:               donor,
		Title:               body.Title,
		Description:         body.Description,
		FoodType:            body.FoodType,
		Quantity:            body.Quantity,
		Allergens:           allergens,
		DietaryRestrictions: restrictions,
		PreparationTime:     body.PreparationTime,
		ExpiryTime:          body.ExpiryTime,
		PickupTime:          body.PickupTime,
		Location:            location,
		Images:              images,
		Status:              models.DonationAvailable,
		Tags:                tags,
		IsUrgent:            body.IsUrgent,
		EstimatedValue:      body.EstimatedValue,
		Notes:               body.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func CreateDonation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body DonationRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Invalid request")
		return
	}

	donation := body.toDonation(userID, time.Now())

	if err := donation.Validate(); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	result, err := db.Collection(db.DonationsCollection).InsertOne(ctx.Request.Context(), donation)

	if err != nil {
		log.Printf("Failed to create donation: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to create donation")
		return
	}

	donation.ID = result.InsertedID.(primitive.ObjectID)
	donation.DonorProfile = loadPublicUser(ctx.Request.Context(), donation.Donor)

	utils.RespondSuccess(ctx, http.StatusCreated, "Donation created successfully", gin.H{
		"donation": donation,
	})
}

func ListDonations(ctx *gin.Context) {
	query := utils.ParseListQuery(ctx)

	filter := bson.M{}

	status := ctx.Query("status")
	if status != "" {
		filter["status"] = status
	}
	// Browsing defaults to unclaimed offers.
	if status == "" || status == models.DonationAvailable {
		filter["claimed"] = bson.M{"$ne": true}
	}

	if foodType := ctx.Query("foodType"); foodType != "" {
		filter["foodType"] = foodType
	}

	if isUrgent := ctx.Query("isUrgent"); isUrgent != "" {
		filter["isUrgent"] = isUrgent == "true"
	}

	if near := ctx.Query("near"); near != "" {
		coords, err := utils.ParseCoordinates(near)
		if err != nil {
			utils.RespondError(ctx, http.StatusBadRequest, err.Error())
			return
		}

		radius := 25.0
		if r := ctx.Query("radius"); r != "" {
			parsed, err := strconv.ParseFloat(r, 64)
			if err != nil || parsed <= 0 {
				utils.RespondError(ctx, http.StatusBadRequest, "Radius must be a positive number of miles")
				return
			}
			radius = parsed
		}

		filter["location.coordinates"] = utils.WithinRadiusFilter(coords, radius)
	}

	donations := db.Collection(db.DonationsCollection)

	total, err := donations.CountDocuments(ctx.Request.Context(), filter)

	if err != nil {
		log.Printf("Failed to count donations: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donations")
		return
	}

	cursor, err := donations.Find(ctx.Request.Context(), filter, options.Find().
		SetSort(query.Sort).
		SetSkip(query.Skip).
		SetLimit(int64(query.Limit)))

	if err != nil {
		log.Printf("Failed to list donations: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donations")
		return
	}

	defer cursor.Close(ctx.Request.Context())

	results := []models.Donation{}
	if err := cursor.All(ctx.Request.Context(), &results); err != nil {
		log.Printf("Failed to decode donations: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donations")
		return
	}

	donorIDs := make([]primitive.ObjectID, 0, len(results))
	for _, d := range results {
		donorIDs = append(donorIDs, d.Donor)
	}
	profiles := loadPublicUsers(ctx.Request.Context(), donorIDs)
	for i := range results {
		if profile, ok := profiles[results[i].Donor]; ok {
			p := profile
			results[i].DonorProfile = &p
		}
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"donations":  results,
		"pagination": utils.NewPagination(query.Page, query.Limit, total),
	})
}

func getDonationByID(ctx *gin.Context) (*models.Donation, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))

	if err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "Donation not found")
		return nil, false
	}

	var donation models.Donation
	err = db.Collection(db.DonationsCollection).
		FindOne(ctx.Request.Context(), bson.M{"_id": id}).
		Decode(&donation)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusNotFound, "Donation not found")
		} else {
			log.Printf("Failed to fetch donation: %v", err)
			utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donation")
		}
		return nil, false
	}

	return &donation, true
}

func GetDonation(ctx *gin.Context) {
	donation, ok := getDonationByID(ctx)
	if !ok {
		return
	}

	donation.DonorProfile = loadPublicUser(ctx.Request.Context(), donation.Donor)
	if donation.ClaimedBy != nil {
		donation.ClaimerProfile = loadPublicUser(ctx.Request.Context(), *donation.ClaimedBy)
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{"donation": donation})
}

func UpdateDonation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	donation, ok := getDonationByID(ctx)
	if !ok {
		return
	}

	if donation.Donor != userID {
		utils.RespondError(ctx, http.StatusForbidden, "Access denied. You can only update your own donations.")
		return
	}

	if donation.Status != models.DonationAvailable {
		utils.RespondError(ctx, http.StatusBadRequest, "Cannot update claimed or picked up donations")
		return
	}

	var body DonationRequest

	if err := ctx.BindJSON(&body); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, "Invalid request")
		return
	}

	updated := body.toDonation(userID, time.Now())
	updated.ID = donation.ID
	updated.CreatedAt = donation.CreatedAt

	if err := updated.Validate(); err != nil {
		utils.RespondError(ctx, http.StatusBadRequest, err.Error())
		return
	}

	_, err = db.Collection(db.DonationsCollection).ReplaceOne(
		ctx.Request.Context(),
		bson.M{"_id": donation.ID},
		updated,
	)

	if err != nil {
		log.Printf("Failed to update donation: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to update donation")
		return
	}

	updated.DonorProfile = loadPublicUser(ctx.Request.Context(), updated.Donor)

	utils.RespondSuccess(ctx, http.StatusOK, "Donation updated successfully", gin.H{
		"donation": updated,
	})
}

func DeleteDonation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	donation, ok := getDonationByID(ctx)
	if !ok {
		return
	}

	if donation.Donor != userID {
		utils.RespondError(ctx, http.StatusForbidden, "Access denied. You can only delete your own donations.")
		return
	}

	if donation.Status != models.DonationAvailable {
		utils.RespondError(ctx, http.StatusBadRequest, "Cannot delete claimed or picked up donations")
		return
	}

	if _, err := db.Collection(db.DonationsCollection).
		DeleteOne(ctx.Request.Context(), bson.M{"_id": donation.ID}); err != nil {
		log.Printf("Failed to delete donation: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to delete donation")
		return
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Donation deleted successfully", nil)
}

// ClaimDonation reserves an available donation for the calling NGO. The
// availability predicate and the claim write happen in one conditional
// update, so two concurrent claims cannot both succeed.
func ClaimDonation(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := primitive.ObjectIDFromHex(ctx.Param("id"))

	if err != nil {
		utils.RespondError(ctx, http.StatusNotFound, "Donation not found")
		return
	}

	now := time.Now()

	var donation models.Donation
	err = db.Collection(db.DonationsCollection).FindOneAndUpdate(
		ctx.Request.Context(),
		bson.M{
			"_id":            id,
			"status":         models.DonationAvailable,
			"expiryTime":     bson.M{"$gt": now},
			"pickupTime.end": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{
			"status":    models.DonationClaimed,
			"claimed":   true,
			"claimedBy": userID,
			"claimedAt": now,
			"updatedAt": now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&donation)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// The predicate failed: distinguish a missing donation from one
			// that is no longer claimable.
			count, countErr := db.Collection(db.DonationsCollection).
				CountDocuments(ctx.Request.Context(), bson.M{"_id": id})
			if countErr == nil && count == 0 {
				utils.RespondError(ctx, http.StatusNotFound, "Donation not found")
				return
			}
			utils.RespondError(ctx, http.StatusBadRequest, "Donation is not available for claiming")
			return
		}
		log.Printf("Failed to claim donation: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to claim donation")
		return
	}

	// Donor aggregates are a separate write; a failure here leaves the claim
	// in place and only the stats behind.
	if _, err := db.Collection(db.UsersCollection).UpdateOne(
		ctx.Request.Context(),
		bson.M{"_id": donation.Donor},
		bson.M{"$inc": bson.M{
			"stats.totalDonations": 1,
			"stats.totalMeals":     donation.Quantity.Amount,
		}},
	); err != nil {
		log.Printf("Failed to update donor stats for %s: %v", donation.Donor.Hex(), err)
	}

	donation.DonorProfile = loadPublicUser(ctx.Request.Context(), donation.Donor)
	if donation.ClaimedBy != nil {
		donation.ClaimerProfile = loadPublicUser(ctx.Request.Context(), *donation.ClaimedBy)
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Donation claimed successfully", gin.H{
		"donation": donation,
	})
}

func MarkPickedUp(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	donation, ok := getDonationByID(ctx)
	if !ok {
		return
	}

	if err := donation.CanPickUp(userID); err != nil {
		status := http.StatusBadRequest
		if donation.ClaimedBy == nil || *donation.ClaimedBy != userID {
			status = http.StatusForbidden
		}
		utils.RespondError(ctx, status, err.Error())
		return
	}

	now := time.Now()

	var updated models.Donation
	err = db.Collection(db.DonationsCollection).FindOneAndUpdate(
		ctx.Request.Context(),
		bson.M{"_id": donation.ID, "status": models.DonationClaimed},
		bson.M{"$set": bson.M{
			"status":     models.DonationPickedUp,
			"pickedUpAt": now,
			"updatedAt":  now,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			utils.RespondError(ctx, http.StatusBadRequest, "Donation must be claimed before marking as picked up")
			return
		}
		log.Printf("Failed to mark donation as picked up: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to mark donation as picked up")
		return
	}

	updated.DonorProfile = loadPublicUser(ctx.Request.Context(), updated.Donor)
	if updated.ClaimedBy != nil {
		updated.ClaimerProfile = loadPublicUser(ctx.Request.Context(), *updated.ClaimedBy)
	}

	utils.RespondSuccess(ctx, http.StatusOK, "Donation marked as picked up successfully", gin.H{
		"donation": updated,
	})
}

func listOwnedDonations(ctx *gin.Context, filter bson.M) {
	query := utils.ParseListQuery(ctx)

	donations := db.Collection(db.DonationsCollection)

	total, err := donations.CountDocuments(ctx.Request.Context(), filter)

	if err != nil {
		log.Printf("Failed to count donations: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donations")
		return
	}

	cursor, err := donations.Find(ctx.Request.Context(), filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(query.Skip).
		SetLimit(int64(query.Limit)))

	if err != nil {
		log.Printf("Failed to list donations: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donations")
		return
	}

	defer cursor.Close(ctx.Request.Context())

	results := []models.Donation{}
	if err := cursor.All(ctx.Request.Context(), &results); err != nil {
		log.Printf("Failed to decode donations: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donations")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(results)*2)
	for _, d := range results {
		ids = append(ids, d.Donor)
		if d.ClaimedBy != nil {
			ids = append(ids, *d.ClaimedBy)
		}
	}
	profiles := loadPublicUsers(ctx.Request.Context(), ids)
	for i := range results {
		if profile, ok := profiles[results[i].Donor]; ok {
			p := profile
			results[i].DonorProfile = &p
		}
		if results[i].ClaimedBy != nil {
			if profile, ok := profiles[*results[i].ClaimedBy]; ok {
				p := profile
				results[i].ClaimerProfile = &p
			}
		}
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"donations":  results,
		"pagination": utils.NewPagination(query.Page, query.Limit, total),
	})
}

func GetMyDonations(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	filter := bson.M{"donor": userID}
	if status := ctx.Query("status"); status != "" {
		filter["status"] = status
	}

	listOwnedDonations(ctx, filter)
}

func GetClaimedByMe(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	listOwnedDonations(ctx, bson.M{"claimedBy": userID})
}

type donationTotals struct {
	TotalDonations     int     `bson:"totalDonations" json:"totalDonations"`
	AvailableDonations int     `bson:"availableDonations" json:"availableDonations"`
	ClaimedDonations   int     `bson:"claimedDonations" json:"claimedDonations"`
	PickedUpDonations  int     `bson:"pickedUpDonations" json:"pickedUpDonations"`
	TotalMeals         float64 `bson:"totalMeals" json:"totalMeals"`
}

type monthlyBucket struct {
	ID struct {
		Year  int `bson:"year" json:"year"`
		Month int `bson:"month" json:"month"`
	} `bson:"_id" json:"period"`
	Count int     `bson:"count" json:"count"`
	Meals float64 `bson:"meals,omitempty" json:"meals,omitempty"`
}

func statusCount(status string) bson.M {
	return bson.M{"$sum": bson.M{"$cond": bson.A{
		bson.M{"$eq": bson.A{"$status", status}}, 1, 0,
	}}}
}

func GetDonationStats(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		utils.RespondError(ctx, http.StatusUnauthorized, "User not authenticated")
		return
	}

	donations := db.Collection(db.DonationsCollection)

	totalsPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"donor": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":                nil,
			"totalDonations":     bson.M{"$sum": 1},
			"availableDonations": statusCount(models.DonationAvailable),
			"claimedDonations":   statusCount(models.DonationClaimed),
			"pickedUpDonations":  statusCount(models.DonationPickedUp),
			"totalMeals":         bson.M{"$sum": "$quantity.amount"},
		}}},
	}

	cursor, err := donations.Aggregate(ctx.Request.Context(), totalsPipeline)

	if err != nil {
		log.Printf("Failed to aggregate donation stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donation statistics")
		return
	}

	var totals []donationTotals
	if err := cursor.All(ctx.Request.Context(), &totals); err != nil {
		log.Printf("Failed to decode donation stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donation statistics")
		return
	}

	monthlyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"donor": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$createdAt"},
				"month": bson.M{"$month": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
			"meals": bson.M{"$sum": "$quantity.amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: -1}, {Key: "_id.month", Value: -1}}}},
		{{Key: "$limit", Value: 12}},
	}

	cursor, err = donations.Aggregate(ctx.Request.Context(), monthlyPipeline)

	if err != nil {
		log.Printf("Failed to aggregate monthly donation stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donation statistics")
		return
	}

	var monthly []monthlyBucket
	if err := cursor.All(ctx.Request.Context(), &monthly); err != nil {
		log.Printf("Failed to decode monthly donation stats: %v", err)
		utils.RespondError(ctx, http.StatusInternalServerError, "Failed to retrieve donation statistics")
		return
	}

	stats := donationTotals{}
	if len(totals) > 0 {
		stats = totals[0]
	}

	utils.RespondSuccess(ctx, http.StatusOK, "", gin.H{
		"stats":        stats,
		"monthlyStats": monthly,
	})
}
